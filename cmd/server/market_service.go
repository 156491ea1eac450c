package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"strings"

	"bazaar/internal/market"
	marketdb "bazaar/internal/db/market"
)

var openMarketDB = func(driver, dsn string) (*sql.DB, error) {
	return sql.Open(driver, dsn)
}

// buildGateway returns the payment gateway, wrapped with retry, breaker
// and rate limiting when the GATEWAY_* vars are set.
func buildGateway() (market.PaymentGateway, error) {
	var gateway market.PaymentGateway = market.NewStaticGateway()
	if strings.TrimSpace(os.Getenv("GATEWAY_RETRY_MAX_ATTEMPTS")) == "" {
		return gateway, nil
	}
	cfg, err := market.LoadReliabilityConfig()
	if err != nil {
		return nil, err
	}
	return cfg.Wrap(gateway), nil
}

// buildPurchaseService wires the saga against Postgres when
// DATABASE_URL is set, falling back to in-memory stores otherwise so
// the server stays usable in development.
func buildPurchaseService(ctx context.Context, events market.EventPublisher, logf func(string, ...any)) (*market.PurchaseService, func(), error) {
	if logf == nil {
		logf = log.Printf
	}

	gateway, err := buildGateway()
	if err != nil {
		return nil, nil, err
	}

	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn == "" {
		logf("DATABASE_URL not set, using in-memory stores")
		return memoryPurchaseService(gateway, events, logf), func() {}, nil
	}

	db, err := openMarketDB("pgx", dsn)
	if err != nil {
		return nil, nil, err
	}

	stores, err := marketdb.NewStoresWithSchema(ctx, db)
	if err != nil {
		_ = db.Close()
		logf("postgres init failed, falling back to in-memory stores: %v", err)
		return memoryPurchaseService(gateway, events, logf), func() {}, nil
	}

	service := market.NewPurchaseService(
		stores.Listings,
		stores.Orders,
		stores.Payments,
		stores.History,
		gateway,
		events,
		logf,
	)
	cleanup := func() {
		if err := db.Close(); err != nil {
			logf("close market db: %v", err)
		}
	}
	return service, cleanup, nil
}

func memoryPurchaseService(gateway market.PaymentGateway, events market.EventPublisher, logf func(string, ...any)) *market.PurchaseService {
	return market.NewPurchaseService(
		market.NewMemoryListingStore(),
		market.NewMemoryOrderStore(),
		market.NewMemoryPaymentStore(),
		market.NewMemoryHistoryStore(),
		gateway,
		events,
		logf,
	)
}

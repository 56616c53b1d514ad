package main

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/countryside/storefront/internal/catalog"
	"github.com/countryside/storefront/internal/checkout"
	"github.com/countryside/storefront/internal/config"
	"github.com/countryside/storefront/internal/order"
	"github.com/countryside/storefront/internal/payment"
	"github.com/countryside/storefront/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	if err := store.Migrate(cfg.PostgresDSN); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	pool, err := store.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis: %v", err)
	}

	products := catalog.NewPGRepo(pool)
	orders := order.NewPGRepo(pool)
	gateway := payment.NewClient(cfg.GatewayBaseURL, cfg.GatewaySecretKey)

	orch := checkout.NewOrchestrator(orders, gateway, cfg.Currency, cfg.PublicBaseURL+"/payment/callback")
	verifier := checkout.NewVerifier(orders, gateway, cfg.Currency)

	r := newRouter(products, orders, orch, verifier, withCart(rdb))
	log.Printf("storefront listening on %s", cfg.StorefrontAddr)
	log.Fatal(r.Run(cfg.StorefrontAddr))
}

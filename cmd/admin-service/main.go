package main

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/countryside/storefront/internal/admin"
	"github.com/countryside/storefront/internal/auth"
	"github.com/countryside/storefront/internal/catalog"
	"github.com/countryside/storefront/internal/config"
	"github.com/countryside/storefront/internal/order"
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

	sessions := auth.NewStore(rdb, cfg.SessionTTL)
	admins := admin.NewPGRepo(pool)
	gate := admin.NewGate(admins, sessions)
	products := catalog.NewPGRepo(pool)
	orders := order.NewPGRepo(pool)

	r := newRouter(gate, sessions, products, orders, admins)
	log.Printf("admin-service listening on %s", cfg.AdminAddr)
	log.Fatal(r.Run(cfg.AdminAddr))
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"quotagate/internal/apikey"
	"quotagate/internal/authn"
	authnMetrics "quotagate/internal/authn/metrics"
	"quotagate/internal/gate"
	"quotagate/internal/plan"
	"quotagate/internal/platform/config"
	"quotagate/internal/platform/database"
	"quotagate/internal/platform/health"
	"quotagate/internal/platform/logger"
	platformMetrics "quotagate/internal/platform/metrics"
	"quotagate/internal/platform/redis"
	"quotagate/internal/ratelimit/counter"
	"quotagate/internal/ratelimit/guard"
	rlMetrics "quotagate/internal/ratelimit/metrics"
	ratelimit "quotagate/internal/ratelimit/service"
	"quotagate/internal/token"
	httptransport "quotagate/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing quotagate", "addr", cfg.Addr, "fail_closed", cfg.FailClosed)

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis init failed", "error", err)
		os.Exit(1)
	}
	if redisClient == nil {
		log.Error("REDIS_URL is required: the counter store backs all rate limiting")
		os.Exit(1)
	}
	defer redisClient.Close()

	go recordPoolStats(redisClient)

	dbPool, err := database.New(cfg.Database)
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}
	if dbPool != nil {
		defer dbPool.Close()
	}

	counters, err := counter.New(redisClient.Client, counter.DefaultConfig())
	if err != nil {
		log.Error("counter store init failed", "error", err)
		os.Exit(1)
	}

	limiterOpts := []ratelimit.Option{
		ratelimit.WithLogger(log),
		ratelimit.WithMetrics(rlMetrics.New()),
	}
	if cfg.FailClosed {
		limiterOpts = append(limiterOpts, ratelimit.WithFailClosed())
	}
	limiter, err := ratelimit.New(counters, limiterOpts...)
	if err != nil {
		log.Error("rate limiter init failed", "error", err)
		os.Exit(1)
	}

	authGuard, err := guard.New(counters, guard.WithLogger(log))
	if err != nil {
		log.Error("auth guard init failed", "error", err)
		os.Exit(1)
	}

	policyCache, err := plan.NewRedisCache(redisClient.Client)
	if err != nil {
		log.Error("policy cache init failed", "error", err)
		os.Exit(1)
	}
	plans, err := plan.New(subscriptionStore(dbPool), plan.WithCache(policyCache), plan.WithLogger(log))
	if err != nil {
		log.Error("plan resolver init failed", "error", err)
		os.Exit(1)
	}

	jwtManager, err := token.NewJWTManager(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.AccessTokenTTL)
	if err != nil {
		log.Error("jwt manager init failed", "error", err)
		os.Exit(1)
	}
	tokens, err := token.New(jwtManager, refreshStore(dbPool),
		token.WithLogger(log), token.WithRefreshTTL(cfg.RefreshTokenTTL))
	if err != nil {
		log.Error("token service init failed", "error", err)
		os.Exit(1)
	}

	keys, err := apikey.New(credentialStore(dbPool), apikey.WithLogger(log))
	if err != nil {
		log.Error("api key service init failed", "error", err)
		os.Exit(1)
	}

	dispatcher, err := authn.New(tokens, keys,
		authn.WithLogger(log), authn.WithMetrics(authnMetrics.New()))
	if err != nil {
		log.Error("authn dispatcher init failed", "error", err)
		os.Exit(1)
	}

	requestGate, err := gate.New(dispatcher, plans, limiter, gate.WithLogger(log))
	if err != nil {
		log.Error("request gate init failed", "error", err)
		os.Exit(1)
	}

	healthHandler := health.New()
	healthHandler.RegisterCheck("counter_store", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return redisClient.Health(ctx)
	})
	if dbPool != nil {
		healthHandler.RegisterCheck("durable_store", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return dbPool.Health(ctx)
		})
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Auth:    httptransport.NewAuthHandler(tokens, keys),
		API:     httptransport.NewAPIHandler(limiter),
		Gate:    requestGate,
		Guard:   authGuard,
		Health:  healthHandler,
		Metrics: platformMetrics.New(),
		Logger:  log,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

// Durable stores fall back to in-memory when PostgreSQL is not configured,
// which keeps local development a one-binary affair.

func subscriptionStore(pool *database.Pool) plan.SubscriptionStore {
	if pool == nil {
		return plan.NewInMemorySubscriptionStore()
	}
	return plan.NewPostgresSubscriptionStore(pool.DB())
}

func refreshStore(pool *database.Pool) token.RefreshStore {
	if pool == nil {
		return token.NewInMemoryStore()
	}
	return token.NewPostgresStore(pool.DB())
}

func credentialStore(pool *database.Pool) apikey.Store {
	if pool == nil {
		return apikey.NewInMemoryStore()
	}
	return apikey.NewPostgresStore(pool.DB())
}

func recordPoolStats(client *redis.Client) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		client.RecordPoolStats()
	}
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	identityHandler "travelproof/internal/identity/handler"
	identityService "travelproof/internal/identity/service"
	identityStore "travelproof/internal/identity/store"
	"travelproof/internal/identity/verifier"
	"travelproof/internal/platform/config"
	"travelproof/internal/platform/events"
	"travelproof/internal/platform/httpserver"
	"travelproof/internal/platform/logger"
	"travelproof/internal/platform/metrics"
	redisClient "travelproof/internal/platform/redis"
	httptransport "travelproof/internal/transport/http"
	"travelproof/internal/travel/chain"
	travelHandler "travelproof/internal/travel/handler"
	travelService "travelproof/internal/travel/service"
)

// closer collects resources released on shutdown in reverse order.
type closer struct {
	fns []func() error
}

func (c *closer) add(fn func() error) { c.fns = append(c.fns, fn) }

func (c *closer) closeAll(log *slog.Logger) {
	for i := len(c.fns) - 1; i >= 0; i-- {
		if err := c.fns[i](); err != nil {
			log.Warn("error closing resource", "error", err)
		}
	}
}

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resources := &closer{}
	router, err := buildRouter(ctx, cfg, log, resources)
	if err != nil {
		log.Error("startup failed", "error", err)
		resources.closeAll(log)
		os.Exit(1)
	}

	srv := httpserver.New(cfg.Addr, router)
	go func() {
		log.Info("starting travelproof",
			"addr", cfg.Addr,
			"environment", cfg.Environment,
			"network", cfg.Chain.Network,
			"record_store", cfg.Store.Backend,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	resources.closeAll(log)
}

func buildRouter(ctx context.Context, cfg config.Server, log *slog.Logger, resources *closer) (http.Handler, error) {
	records, err := buildRecordStore(ctx, cfg, log, resources)
	if err != nil {
		return nil, err
	}

	v, err := verifier.New(cfg, &http.Client{Timeout: cfg.Verifier.Timeout}, log)
	if err != nil {
		return nil, fmt.Errorf("proof verifier: %w", err)
	}

	publisher, err := buildPublisher(cfg, log)
	if err != nil {
		return nil, err
	}
	resources.add(publisher.Close)

	identitySvc := identityService.New(v, records, log,
		identityService.WithPublisher(publisher),
		identityService.WithDevPlaceholders(cfg.PlaceholdersAllowed()),
	)

	var gateway travelService.Gateway
	if g := dialChain(ctx, cfg, log); g != nil {
		resources.add(func() error { g.Close(); return nil })
		gateway = g
	}
	travelSvc := travelService.New(gateway, publisher, log)

	return httptransport.NewRouter(httptransport.RouterConfig{
		Logger:      log,
		Metrics:     metrics.New(nil),
		CORSOrigins: cfg.CORSOrigins,
	},
		identityHandler.New(identitySvc, log, !cfg.IsProduction()),
		travelHandler.New(travelSvc, log),
	), nil
}

func buildRecordStore(ctx context.Context, cfg config.Server, log *slog.Logger, resources *closer) (identityService.RecordStore, error) {
	switch cfg.Store.Backend {
	case "redis":
		client, err := redisClient.New(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis record store: %w", err)
		}
		resources.add(client.Close)
		log.Info("using redis record store", "namespace", cfg.Redis.Namespace)
		return identityStore.NewRedisStore(client.Client, cfg.Redis.Namespace), nil
	case "postgres":
		db, err := sql.Open("postgres", cfg.Store.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres record store: %w", err)
		}
		resources.add(db.Close)
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("postgres record store: %w", err)
		}
		store := identityStore.NewPostgresStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("postgres record store schema: %w", err)
		}
		log.Info("using postgres record store")
		return store, nil
	default:
		log.Info("using in-memory record store")
		return identityStore.NewInMemoryStore(), nil
	}
}

func buildPublisher(cfg config.Server, log *slog.Logger) (events.Publisher, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return events.NewLogPublisher(log), nil
	}
	p, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
	if err != nil {
		return nil, fmt.Errorf("kafka publisher: %w", err)
	}
	log.Info("publishing issuance events to kafka", "topic", cfg.Kafka.Topic)
	return p, nil
}

// dialChain returns nil when the active network is not configured; minting
// then answers 503 instead of failing startup.
func dialChain(ctx context.Context, cfg config.Server, log *slog.Logger) *chain.Gateway {
	if cfg.Chain.RPCURL() == "" || cfg.Chain.ContractAddress() == "" {
		log.Warn("chain gateway disabled", "error", cfg.Chain.IssuanceReady())
		return nil
	}
	dialCtx, cancel := context.WithTimeout(ctx, cfg.Chain.CallTimeout)
	defer cancel()
	g, err := chain.Dial(dialCtx, cfg.Chain, log)
	if err != nil {
		log.Error("chain gateway unavailable", "network", cfg.Chain.Network, "error", err)
		return nil
	}
	return g
}

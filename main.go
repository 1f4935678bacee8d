package main

import (
	"database/sql"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	_ "modernc.org/sqlite"

	"github.com/plancraft/plancraft/backend"
	"github.com/plancraft/plancraft/catalog"
	"github.com/plancraft/plancraft/config"
	"github.com/plancraft/plancraft/endpoint"
	"github.com/plancraft/plancraft/pricing"
	"github.com/plancraft/plancraft/server"
	"github.com/plancraft/plancraft/store"
	"github.com/plancraft/plancraft/transform"
	"github.com/plancraft/plancraft/validation"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the service config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	steps, err := catalog.Load(cfg.Catalog)
	if err != nil {
		log.Fatalf("Error loading step catalog: %v", err)
	}

	st, err := openStore(cfg.Store)
	if err != nil {
		log.Fatalf("Error opening session store: %v", err)
	}

	hooks := backend.Hooks{
		OnRequest: func(ev backend.RequestEvent) {
			logger.Info("backend request", "op", ev.Operation, "method", ev.Method, "url", ev.URL, "slot", ev.Slot, "seq", ev.Seq)
		},
		OnResponse: func(ev backend.ResponseEvent) {
			logger.Info("backend response", "op", ev.Operation, "slot", ev.Slot, "seq", ev.Seq, "status", ev.Status, "stale", ev.Stale, "duration", ev.Duration)
		},
	}

	registry := endpoint.NewRegistry()
	executor := backend.NewExecutor(backend.Config{
		BaseURL:      cfg.Backend.BaseURL,
		Timeout:      cfg.Backend.Timeout,
		MaxRetries:   cfg.Backend.MaxRetries,
		RetryWait:    cfg.Backend.RetryWait,
		RetryMaxWait: cfg.Backend.RetryMaxWait,
		Debug:        cfg.Backend.Debug,
	}, logger, hooks)
	transformer := transform.NewTransformer()
	validator := validation.NewEngine(registry, executor, transformer, logger)
	pricer := pricing.NewCalculator(cfg.Currency)

	sessions := server.NewSessions(server.Deps{
		Catalog:   steps,
		Validator: validator,
		Pricer:    pricer,
		Discounts: cfg.Discounts,
		Store:     st,
		Logger:    logger,
	})

	g := gin.Default()
	server.New(sessions, logger).Register(g)

	if err := g.Run(cfg.Listen); err != nil {
		log.Fatalf("Error running server: %v", err)
	}
}

func openStore(cfg config.StoreConfig) (store.Store, error) {
	if cfg.Driver == "memory" {
		return store.NewMemoryStore(), nil
	}
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	return store.NewSQLiteStore(db)
}

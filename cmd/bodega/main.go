package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/bodega-pos/bodega/internal/admin"
	"github.com/bodega-pos/bodega/internal/app"
	"github.com/bodega-pos/bodega/internal/auth"
	"github.com/bodega-pos/bodega/internal/cart"
	"github.com/bodega-pos/bodega/internal/catalog"
	"github.com/bodega-pos/bodega/internal/ledger"
	"github.com/bodega-pos/bodega/internal/platform/cache"
	"github.com/bodega-pos/bodega/internal/platform/db"
	"github.com/bodega-pos/bodega/internal/settlement"
	"github.com/bodega-pos/bodega/internal/snapshot"
	"github.com/bodega-pos/bodega/internal/stats"
	"github.com/bodega-pos/bodega/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{
		MaxConns:        cfg.PGMaxConns,
		MaxConnLifetime: cfg.PGConnMaxLifetime,
	})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		// Reports degrade to direct computation without redis.
		logger.Warn("redis unavailable", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	gate, err := auth.NewGateFromSecret(cfg.AdminSecret)
	if err != nil {
		logger.Error("seed admin gate", slog.Any("error", err))
		os.Exit(1)
	}

	catalogStore := catalog.NewStore()
	ledgerStore := ledger.NewStore()
	saleCart := cart.New(catalogStore)

	persister := snapshot.NewPostgresPersister(pool)
	if err := persister.EnsureSchema(ctx); err != nil {
		logger.Error("ensure snapshot schema", slog.Any("error", err))
		os.Exit(1)
	}

	writer := snapshot.NewWriter(persister, catalogStore, ledgerStore, saleCart, gate, logger)
	if err := writer.RestoreLatest(ctx); err != nil {
		logger.Error("restore snapshot", slog.Any("error", err))
		os.Exit(1)
	}

	statsCache := stats.NewCache(redisClient, cfg.StatsCacheTTL)
	statsService := stats.NewService(ledgerStore, statsCache, logger)

	engine := settlement.NewEngine(catalogStore, ledgerStore, saleCart, logger, writer, statsService)
	storefront := settlement.NewHandler(logger, engine, catalogStore, ledgerStore, saleCart, writer)

	adminService := admin.NewService(catalogStore, ledgerStore, writer, logger)
	statsHandler := stats.NewHandler(logger, statsService, ledgerStore)
	adminHandler := admin.NewHandler(logger, adminService, gate, ledgerStore, statsHandler, writer)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, cfg.SnapshotKeep, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:     logger,
		Config:     cfg,
		Storefront: storefront,
		Admin:      adminHandler,
		Gate:       gate,
		Jobs:       jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		err := writer.RunPeriodic(groupCtx, cfg.SnapshotInterval)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("shutdown", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

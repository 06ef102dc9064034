package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Freeeeeet/activity_search/internal/app"
	"github.com/Freeeeeet/activity_search/internal/config"
	"github.com/Freeeeeet/activity_search/internal/controller"
	"github.com/Freeeeeet/activity_search/internal/repository"
	"github.com/Freeeeeet/activity_search/internal/repository/memory"
	"github.com/Freeeeeet/activity_search/internal/seed"
	"github.com/Freeeeeet/activity_search/internal/service"
	"github.com/Freeeeeet/activity_search/internal/weektime"
	"github.com/Freeeeeet/activity_search/migrations"
)

// stores - выбранная реализация хранилища
type stores struct {
	schedules service.ScheduleStore
	search    service.SearchStore
	catalog   seed.CatalogWriter
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	logger.Sugar().Infow("Starting activity search",
		"environment", cfg.Environment,
		"store", cfg.StoreDriver,
		"addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer st.close()

	codec := weektime.NewCodec(cfg.ReferenceDate)
	schedules := service.NewScheduleService(st.schedules, codec, cfg.DefaultTimezone, logger)
	search := service.NewSearchService(st.search, logger)

	if cfg.SeedFile != "" {
		f, err := seed.ReadFile(cfg.SeedFile)
		if err != nil {
			logger.Fatal("Failed to read seed file", zap.Error(err))
		}
		if _, err := seed.Apply(ctx, f, st.catalog, schedules, logger); err != nil {
			logger.Fatal("Failed to apply seed file", zap.Error(err))
		}
	}

	router := controller.NewRouter(schedules, search, controller.Options{
		JWTSecret:  cfg.JWTSecret,
		AdminGroup: cfg.AdminGroup,
	}, logger)

	server := app.NewServer(router, cfg.HTTPAddr, logger)
	if err := server.Run(ctx); err != nil {
		logger.Error("HTTP server failed", zap.Error(err))
	}
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("Using in-memory store, data is lost on restart")
		store := memory.New()
		return &stores{
			schedules: store,
			search:    store,
			catalog:   store,
			close:     func() {},
		}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("Connected to PostgreSQL")

	if cfg.MigrationsAuto {
		if err := migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, err
		}
	}

	return &stores{
		schedules: repository.NewScheduleRepository(pool, logger),
		search:    repository.NewSearchRepository(pool, logger),
		catalog:   repository.NewCatalogRepository(pool, logger),
		close:     pool.Close,
	}, nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	migrator, err := app.NewMigrator(pool, migrations.FS, logger)
	if err != nil {
		return err
	}
	defer migrator.Close()

	return migrator.Run(ctx)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Freeeeeet/activity_search/internal/app"
	"github.com/Freeeeeet/activity_search/internal/config"
	"github.com/Freeeeeet/activity_search/internal/repository"
	"github.com/Freeeeeet/activity_search/internal/seed"
	"github.com/Freeeeeet/activity_search/internal/service"
	"github.com/Freeeeeet/activity_search/internal/weektime"
	"github.com/Freeeeeet/activity_search/migrations"
)

func main() {
	path := flag.String("file", "", "YAML file with catalog and schedules")
	migrate := flag.Bool("migrate", true, "apply migrations before import")
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "usage: import -file schedules.yaml")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.StoreDriver != config.StoreDriverPostgres {
		log.Fatalf("import writes to PostgreSQL, STORE_DRIVER=%s is not supported", cfg.StoreDriver)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	f, err := seed.ReadFile(*path)
	if err != nil {
		logger.Fatal("Failed to read import file", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pool.Close()

	if *migrate {
		migrator, err := app.NewMigrator(pool, migrations.FS, logger)
		if err != nil {
			logger.Fatal("Failed to create migrator", zap.Error(err))
		}
		if err := migrator.Run(ctx); err != nil {
			logger.Fatal("Failed to apply migrations", zap.Error(err))
		}
		migrator.Close()
	}

	schedules := service.NewScheduleService(
		repository.NewScheduleRepository(pool, logger),
		weektime.NewCodec(cfg.ReferenceDate),
		cfg.DefaultTimezone,
		logger,
	)

	res, err := seed.Apply(ctx, f, repository.NewCatalogRepository(pool, logger), schedules, logger)
	if err != nil {
		logger.Fatal("Import failed", zap.Error(err))
	}

	for _, failure := range res.Failures {
		fmt.Fprintf(os.Stderr, "schedule #%d rejected: %v\n", failure.Index, failure.Err)
	}
	fmt.Printf("created: %d, merged: %d, rejected: %d\n", res.Created, res.Merged, len(res.Failures))
	if len(res.Failures) > 0 {
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/example/hifzbot/internal/config"
	"github.com/example/hifzbot/internal/corpus"
	"github.com/example/hifzbot/internal/database"
	"github.com/example/hifzbot/internal/logger"
	"github.com/example/hifzbot/internal/observability"
	"github.com/example/hifzbot/internal/review"
	"github.com/example/hifzbot/internal/store"
)

// application holds the wired dependencies shared by all commands
type application struct {
	cfg      config.Config
	log      *logger.Logger
	db       *sqlx.DB
	registry *prometheus.Registry
	metrics  *observability.Metrics
	quran    *corpus.Quran
	users    *database.UserRepository
	ayahs    *database.AyahRepository
	items    store.ReviewItems
	logs     store.DailyLogs
	review   *review.Service
}

func newApplication(ctx context.Context, cfg config.Config) (*application, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	// Memory mode keeps review state in process; users and ayah text still need SQL
	dbCfg := cfg.Database
	if dbCfg.Type == "memory" {
		dbCfg = config.Database{Type: "sqlite", SQLitePath: ":memory:"}
	}
	db, err := database.Connect(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	app := &application{
		cfg:      cfg,
		log:      log,
		db:       db,
		registry: prometheus.NewRegistry(),
		quran:    corpus.NewQuran(),
		users:    database.NewUserRepository(db),
		ayahs:    database.NewAyahRepository(db),
	}
	app.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.metrics = observability.NewMetrics(app.registry, cfg.MetricsNamespace)

	if cfg.Database.Type == "memory" {
		app.items = store.NewMemoryReviewItems()
		app.logs = store.NewMemoryDailyLogs()
		log.Warn("DB_TYPE=memory: review progress is lost on restart")
	} else {
		app.items = database.NewReviewItemRepository(db)
		app.logs = database.NewDailyLogRepository(db)
	}

	n, err := app.quran.LoadText(ctx, app.ayahs)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load ayah text: %w", err)
	}
	if n == 0 {
		log.Warn("no ayah text imported; prompts show references only", "hint", "run the import command")
	} else {
		log.Info("ayah text loaded", "count", n)
	}

	app.review = review.NewService(app.quran, app.items, app.logs, log, app.metrics)
	log.Info("application initialized", "db_type", cfg.Database.Type)
	return app, nil
}

func (a *application) Close() {
	if err := a.db.Close(); err != nil {
		a.log.Warn("failed to close database", "error", err)
	}
	a.log.Sync()
}

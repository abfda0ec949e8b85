package app

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	dbpkg "github.com/yungbote/groupbuy-settlement/internal/data/db"
	"github.com/yungbote/groupbuy-settlement/internal/data/repos"
	"github.com/yungbote/groupbuy-settlement/internal/http"
	"github.com/yungbote/groupbuy-settlement/internal/jobs/sweeper"
	"github.com/yungbote/groupbuy-settlement/internal/observability"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
	"github.com/yungbote/groupbuy-settlement/internal/temporalx/temporalworker"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *http.Server
	Cfg      Config
	Repos    repos.Set
	Services Services
	Clients  Clients
	Metrics  *observability.Metrics

	store *dbpkg.Service
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}

	store, err := dbpkg.Open(cfg.DB, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init ledger store: %w", err)
	}
	if err := store.AutoMigrateAll(); err != nil {
		_ = store.Close()
		log.Sync()
		return nil, fmt.Errorf("ledger store automigrate: %w", err)
	}
	theDB := store.DB()

	metrics := observability.Init(cfg.MetricsEnabled)

	clients, err := wireClients(log, cfg)
	if err != nil {
		_ = store.Close()
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, clients, metrics)
	handlerset := wireHandlers(log, theDB, serviceset)
	middleware := wireMiddleware(log, serviceset)
	server := wireServer(log, cfg, metrics, handlerset, middleware)

	return &App{
		Log:      log,
		DB:       theDB,
		Server:   server,
		Cfg:      cfg,
		Repos:    reposet,
		Services: serviceset,
		Clients:  clients,
		Metrics:  metrics,
		store:    store,
	}, nil
}

// Run serves HTTP and runs the deadline workers until ctx is cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	shutdownOtel := observability.InitOTel(ctx, a.Log, a.Cfg.Otel)
	defer func() {
		if shutdownOtel != nil {
			_ = shutdownOtel(context.Background())
		}
	}()

	if a.Metrics != nil {
		a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
		a.Metrics.StartDBCollector(ctx, a.Log, a.DB)
		a.Metrics.StartOrderStatusCollector(ctx, a.Log, a.DB)
		if a.Cfg.RedisAddr != "" {
			a.Metrics.StartRedisCollector(ctx, a.Log, a.Cfg.RedisAddr)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Server.Run(gctx, a.Cfg.HTTPAddr)
	})

	// The sweeper always runs; with Temporal it only catches watches that failed to schedule.
	sweep := sweeper.New(a.Log, a.Repos.Order, a.Services.Disclosures, a.Metrics, sweeper.Config{
		Interval: a.Cfg.SweeperInterval,
		Batch:    a.Cfg.SweeperBatch,
	})
	g.Go(func() error {
		return sweep.Run(gctx)
	})

	if a.Clients.Temporal != nil {
		runner, err := temporalworker.NewRunner(a.Log, a.Clients.Temporal, a.Cfg.Temporal, a.Services.Disclosures)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return runner.Start(gctx)
		})
	}

	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"price-history-engine/internal/alerting"
	"price-history-engine/internal/config"
	"price-history-engine/internal/engine"
	"price-history-engine/internal/feed"
	"price-history-engine/internal/reconcile"
	"price-history-engine/internal/scheduler"
	"price-history-engine/internal/service"
	"price-history-engine/internal/storage"
	"price-history-engine/internal/timeline"
	"price-history-engine/internal/version"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newFetcher() feed.ProductFetcher {
	return feed.NewClient(feed.ClientOptions{
		BaseURL:    a.Config.Feed.BaseURL,
		APIKey:     a.Config.Feed.APIKey,
		Timeout:    a.Config.Feed.RequestTimeout,
		UserAgent:  a.Config.Feed.UserAgent,
		RatePerSec: a.Config.Feed.RatePerSec,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

// engineOptions materialises the engine configuration: the feed layout with
// config overrides applied, the reconciliation tolerances, and the requested
// output shape.
func (a *App) engineOptions(granularity timeline.Granularity, window timeline.RangeWindow) (engine.Options, error) {
	layout, err := feed.DefaultLayout().Merge(a.Config.Feed.Layout)
	if err != nil {
		return engine.Options{}, fmt.Errorf("feed.layout: %w", err)
	}

	return engine.Options{
		Layout:      layout,
		Granularity: granularity,
		Range:       window,
		Tolerances: reconcile.Tolerances{
			Identity: a.Config.Reconcile.IdentityTolerance,
			Price:    a.Config.Reconcile.PriceTolerance,
		},
	}, nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes the long-running monitoring service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; persistence disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToStart: a.Config.Scheduler.AlignToBucket,
		StartupDelay: a.Config.Scheduler.StartupDelay,
		RunOnStart:   a.Config.Scheduler.RunOnStart,
		Jitter:       a.Config.Scheduler.Jitter,
	}, a.Logger)

	opts, err := a.engineOptions(timeline.GranularityRaw, timeline.RangeAllTime)
	if err != nil {
		return err
	}

	var historyStore storage.HistoryStore
	var runStore storage.RunStore
	if store != nil {
		historyStore = store
		runStore = store
	}

	svc := service.New(
		a.Config,
		sched,
		a.newFetcher(),
		engine.New(a.Logger),
		historyStore,
		runStore,
		a.newNotifier(),
		opts,
		a.Logger,
	)

	a.Logger.Info().
		Str("build", version.String()).
		Int("tracked_asins", len(a.Config.Feed.TrackedASINs)).
		Msg("starting monitoring service")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("monitoring service stopped")
	return nil
}

// RefreshOptions configure a one-shot product refresh.
type RefreshOptions struct {
	ASIN   string
	DryRun bool
}

// ShowOptions configure the show command.
type ShowOptions struct {
	ASIN  string
	Limit int
	Runs  bool
}

// ExportOptions hold parameters for exporting a product's history.
type ExportOptions struct {
	ASIN        string
	From        *time.Time
	To          *time.Time
	Granularity string
	Range       string
	PNGPath     string
	CSVPath     string
	MaxPoints   int
}

// InspectOptions configure the offline payload inspection.
type InspectOptions struct {
	Path        string
	Granularity string
	Range       string
}

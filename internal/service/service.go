package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"price-history-engine/internal/alerting"
	"price-history-engine/internal/config"
	"price-history-engine/internal/engine"
	"price-history-engine/internal/feed"
	"price-history-engine/internal/scheduler"
	"price-history-engine/internal/series"
	"price-history-engine/internal/storage"
	"price-history-engine/internal/timeline"
)

// Service orchestrates fetching, reconciliation, persistence, and alerting
// for the tracked products.
type Service struct {
	scheduler *scheduler.Scheduler
	fetcher   feed.ProductFetcher
	engine    *engine.Engine
	store     storage.HistoryStore
	runStore  storage.RunStore
	notifier  alerting.Notifier
	logger    zerolog.Logger

	asins      []string
	engineOpts engine.Options
	threshold  decimal.Decimal
	channels   []string
	alertsOn   bool
	cooldown   time.Duration
	lastAlert  map[string]time.Time
	locker     storage.AdvisoryLocker
	lockKey    int64
}

// New constructs the monitoring service.
func New(cfg *config.Config, sched *scheduler.Scheduler, fetcher feed.ProductFetcher, eng *engine.Engine, store storage.HistoryStore, runStore storage.RunStore, notifier alerting.Notifier, opts engine.Options, logger zerolog.Logger) *Service {
	threshold := decimal.Zero
	if cfg.Alerting.Enabled && cfg.Alerting.ThresholdPct > 0 {
		threshold = decimal.NewFromFloat(cfg.Alerting.ThresholdPct)
	}

	var locker storage.AdvisoryLocker
	if l, ok := store.(storage.AdvisoryLocker); ok {
		locker = l
	}

	return &Service{
		scheduler:  sched,
		fetcher:    fetcher,
		engine:     eng,
		store:      store,
		runStore:   runStore,
		notifier:   notifier,
		logger:     logger.With().Str("component", "service").Logger(),
		asins:      cfg.Feed.TrackedASINs,
		engineOpts: opts,
		threshold:  threshold,
		channels:   cfg.Alerting.Channels,
		alertsOn:   cfg.Alerting.Enabled,
		cooldown:   cfg.Alerting.Cooldown,
		lastAlert:  map[string]time.Time{},
		locker:     locker,
		lockKey:    cfg.Scheduler.AdvisoryLockKey,
	}
}

// Run begins the aligned refresh loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.ProcessBucket)
}

// acquireLock takes the cross-instance advisory lock when storage supports
// it. Without storage there is nothing to contend on and the bucket proceeds.
func (s *Service) acquireLock(ctx context.Context) (func(), bool, error) {
	if s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	return unlock, acquired, nil
}

// ProcessBucket 执行单个时间桶的刷新逻辑。
func (s *Service) ProcessBucket(ctx context.Context, bucket time.Time) error {
	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		s.logger.Debug().Time("bucket", bucket).Msg("skip bucket because advisory lock held elsewhere")
		return nil
	}
	if unlock != nil {
		defer unlock()
	}

	if len(s.asins) == 0 {
		s.logger.Warn().Msg("feed.tracked_asins is empty; nothing to refresh")
		return nil
	}

	var failed int
	for _, asin := range s.asins {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if _, err := s.RefreshProduct(ctx, asin); err != nil {
			failed++
			s.logger.Error().Err(err).Str("asin", asin).Msg("refresh failed")
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d products failed to refresh", failed, len(s.asins))
	}
	return nil
}

// RefreshProduct fetches one product's payload, reconciles it, persists the
// timeline and run audit, and raises a Buy Box drop alert when warranted.
func (s *Service) RefreshProduct(ctx context.Context, asin string) (engine.Result, error) {
	product, err := s.fetcher.FetchProduct(ctx, asin)
	if err != nil {
		return engine.Result{}, fmt.Errorf("fetch product %s: %w", asin, err)
	}

	result, err := s.engine.Reconcile(product, s.engineOpts)
	if err != nil {
		return engine.Result{}, fmt.Errorf("reconcile %s: %w", asin, err)
	}

	if !result.Quality.HasData() {
		s.logger.Warn().Str("asin", asin).Msg("payload carried no usable data for any series")
	}

	previous, hasPrevious := s.previousBuyBox(ctx, asin)

	if s.store != nil {
		if err := s.store.UpsertHistoryPoints(ctx, storage.PointsFromRecords(asin, result.Records)); err != nil {
			s.logger.Error().Err(err).Str("asin", asin).Msg("failed to upsert history points")
		}
	}
	if s.runStore != nil {
		if _, err := s.runStore.InsertRun(ctx, buildRun(asin, result)); err != nil {
			s.logger.Error().Err(err).Str("asin", asin).Msg("failed to persist reconcile run")
		}
	}

	s.logger.Info().Str("asin", asin).
		Int("records", len(result.Records)).
		Int("buybox_accepted", result.Quality.BuyBox.Accepted).
		Msg("product refreshed")

	if hasPrevious {
		s.maybeAlert(ctx, asin, product.Title, previous, result)
	}

	return result, nil
}

func (s *Service) previousBuyBox(ctx context.Context, asin string) (decimal.Decimal, bool) {
	if s.store == nil {
		return decimal.Decimal{}, false
	}
	_, price, err := s.store.LatestBuyBox(ctx, asin)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) && !errors.Is(err, storage.ErrNotConfigured) {
			s.logger.Error().Err(err).Str("asin", asin).Msg("failed to load previous buybox price")
		}
		return decimal.Decimal{}, false
	}
	return price, true
}

func (s *Service) maybeAlert(ctx context.Context, asin, title string, previous decimal.Decimal, result engine.Result) {
	if !s.alertsOn || s.notifier == nil || s.threshold.IsZero() || previous.IsZero() {
		return
	}

	rec, ok := latestBuyBoxRecord(result.Records)
	if !ok {
		return
	}
	current := decimal.NewFromFloat(*rec.BuyBox)

	drop := previous.Sub(current).Div(previous).Mul(decimal.NewFromInt(100))
	if !drop.GreaterThan(s.threshold) {
		return
	}

	now := time.Now().UTC()
	if last, seen := s.lastAlert[asin]; seen && s.cooldown > 0 && now.Sub(last) < s.cooldown {
		s.logger.Debug().Str("asin", asin).Msg("alert suppressed by cooldown")
		return
	}

	note := alerting.Notification{
		ASIN:          asin,
		Title:         title,
		Observed:      rec.Time(),
		PreviousPrice: previous,
		CurrentPrice:  current,
		DropPct:       drop,
		ThresholdPct:  s.threshold,
		Channels:      s.channels,
	}
	if sellerID, sellerName, found := attributedSeller(result, rec.TimestampMs); found {
		note.SellerID = sellerID
		note.SellerName = sellerName
	}

	if err := s.notifier.Notify(ctx, note); err != nil {
		s.logger.Error().Err(err).Str("asin", asin).Msg("failed to dispatch alert")
		return
	}
	s.lastAlert[asin] = now
}

func latestBuyBoxRecord(records []timeline.Record) (timeline.Record, bool) {
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].BuyBox != nil {
			return records[i], true
		}
	}
	return timeline.Record{}, false
}

func attributedSeller(result engine.Result, timestampMs int64) (string, string, bool) {
	for i := len(result.BuyBoxPoints) - 1; i >= 0; i-- {
		p := result.BuyBoxPoints[i]
		if series.UnitsToMillis(p.Timestamp) == timestampMs {
			return p.SellerID, p.SellerName, true
		}
	}
	return "", "", false
}

func buildRun(asin string, result engine.Result) storage.ReconcileRun {
	funnel := result.Quality.BuyBox
	bySeller, err := json.Marshal(funnel.BySeller)
	if err != nil {
		bySeller = json.RawMessage("{}")
	}
	return storage.ReconcileRun{
		ASIN:           asin,
		RunTS:          time.Now().UTC(),
		Candidates:     funnel.Candidates,
		SellerResolved: funnel.SellerResolved,
		OfferMatched:   funnel.OfferMatched,
		PriceMatched:   funnel.PriceMatched,
		Accepted:       funnel.Accepted,
		MergedRecords:  len(result.Records),
		BySeller:       bySeller,
	}
}

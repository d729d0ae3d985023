// Package engine runs the full reconciliation pipeline for one product:
// decode, seller extraction, Buy Box reconstruction, merge, aggregation, and
// range filtering. The pipeline is a pure transform of its inputs; it holds
// no state between calls and performs no I/O.
package engine

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"price-history-engine/internal/feed"
	"price-history-engine/internal/reconcile"
	"price-history-engine/internal/seller"
	"price-history-engine/internal/series"
	"price-history-engine/internal/timeline"
)

// Options select the output shape of one reconciliation. Zero values fall
// back to the raw/all-time identity transforms and default tolerances; an
// explicitly invalid granularity or range is a caller error.
type Options struct {
	Layout      feed.Layout
	Granularity timeline.Granularity
	Range       timeline.RangeWindow
	Tolerances  reconcile.Tolerances
	// Now supplies the range-filter clock; wall clock when nil.
	Now func() time.Time
}

// Result is the engine output: the filtered timeline plus every quality
// signal the pipeline produced on the way. Sparse or absent vendor data never
// fails a reconciliation; it shows up here as empty records and zero counts.
type Result struct {
	Records      []timeline.Record
	Quality      timeline.Quality
	DecodeStats  map[series.Kind]series.DecodeStats
	BuyBoxPoints []reconcile.Point
}

// Engine reconciles vendor payloads into analyzable timelines.
type Engine struct {
	logger zerolog.Logger
}

// New constructs an Engine.
func New(logger zerolog.Logger) *Engine {
	return &Engine{logger: logger.With().Str("component", "engine").Logger()}
}

// Reconcile runs the pipeline over one product payload. The only error class
// is invalid caller options; data-quality conditions surface through the
// Result's statistics instead.
func (e *Engine) Reconcile(product feed.Product, opts Options) (Result, error) {
	opts, err := normalizeOptions(opts)
	if err != nil {
		return Result{}, err
	}

	decoded := make(map[series.Kind]series.Series, len(series.Kinds))
	stats := make(map[series.Kind]series.DecodeStats, len(series.Kinds))
	for _, kind := range series.Kinds {
		s, st := series.Decode(opts.Layout.SeriesFor(product.CSV, kind), kind)
		decoded[kind] = s
		stats[kind] = st
	}

	history := seller.ExtractHistory(product.SellerIDHistory)
	offers := seller.ExtractOffers(product.RawOffers())

	buyBox, points, funnel := reconcile.BuyBox(
		decoded[series.KindAmazon],
		decoded[series.KindFBA],
		decoded[series.KindFBM],
		history,
		offers,
		opts.Tolerances,
	)

	records, quality := timeline.Merge(decoded, buyBox, funnel)
	records = timeline.Aggregate(records, opts.Granularity)
	records = timeline.FilterRange(records, opts.Range, opts.Now())

	e.logger.Debug().Str("asin", product.ASIN).
		Int("records", len(records)).
		Int("buybox_candidates", funnel.Candidates).
		Int("buybox_accepted", funnel.Accepted).
		Msg("reconciliation complete")

	return Result{
		Records:      records,
		Quality:      quality,
		DecodeStats:  stats,
		BuyBoxPoints: points,
	}, nil
}

func normalizeOptions(opts Options) (Options, error) {
	if opts.Layout == nil {
		opts.Layout = feed.DefaultLayout()
	}

	if opts.Granularity == "" {
		opts.Granularity = timeline.GranularityRaw
	} else if _, err := timeline.ParseGranularity(string(opts.Granularity)); err != nil {
		return Options{}, fmt.Errorf("engine options: %w", err)
	}

	if opts.Range == "" {
		opts.Range = timeline.RangeAllTime
	} else if _, err := timeline.ParseRange(string(opts.Range)); err != nil {
		return Options{}, fmt.Errorf("engine options: %w", err)
	}

	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}

	return opts, nil
}

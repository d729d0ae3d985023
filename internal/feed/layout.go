package feed

import (
	"fmt"

	"price-history-engine/internal/series"
)

// Layout maps series kinds to their column index in the vendor's csv matrix.
// The assignment is feed-revision configuration, not logic: vendors have moved
// columns between revisions (FBA in particular), so callers can override any
// entry via config.
type Layout map[series.Kind]int

// DefaultLayout matches the current vendor feed revision.
func DefaultLayout() Layout {
	return Layout{
		series.KindAmazon:         0,
		series.KindSalesRank:      3,
		series.KindFBM:            7,
		series.KindFBA:            10,
		series.KindOfferCount:     11,
		series.KindRating:         16,
		series.KindReviewCount:    17,
		series.KindBuyBoxReported: 18,
	}
}

// Merge returns a copy of the layout with the overrides applied.
func (l Layout) Merge(overrides map[string]int) (Layout, error) {
	out := Layout{}
	for kind, idx := range l {
		out[kind] = idx
	}
	for name, idx := range overrides {
		kind := series.Kind(name)
		if _, known := out[kind]; !known {
			return nil, fmt.Errorf("layout override for unknown series kind %q", name)
		}
		if idx < 0 {
			return nil, fmt.Errorf("layout override for %q must be non-negative", name)
		}
		out[kind] = idx
	}
	return out, nil
}

// SeriesFor extracts the raw flat array for a kind from the csv matrix. A
// missing or out-of-range column means the feed simply has no data for that
// series.
func (l Layout) SeriesFor(csv [][]float64, kind series.Kind) []float64 {
	idx, ok := l[kind]
	if !ok || idx < 0 || idx >= len(csv) {
		return nil
	}
	return csv[idx]
}

package feed

import (
	"testing"

	"price-history-engine/internal/series"
)

func TestLayoutMergeOverrides(t *testing.T) {
	base := DefaultLayout()

	merged, err := base.Merge(map[string]int{"fba": 12})
	if err != nil {
		t.Fatalf("valid override rejected: %v", err)
	}
	if merged[series.KindFBA] != 12 {
		t.Fatalf("override not applied: %d", merged[series.KindFBA])
	}
	if base[series.KindFBA] == 12 {
		t.Fatal("merge must not mutate the receiver")
	}

	if _, err := base.Merge(map[string]int{"bogus": 1}); err == nil {
		t.Fatal("unknown kind must be rejected")
	}
	if _, err := base.Merge(map[string]int{"fba": -1}); err == nil {
		t.Fatal("negative index must be rejected")
	}
}

func TestSeriesForOutOfRange(t *testing.T) {
	l := DefaultLayout()
	csv := [][]float64{{0, 2000}}

	if got := l.SeriesFor(csv, series.KindAmazon); len(got) != 2 {
		t.Fatalf("column 0 should resolve: %v", got)
	}
	if got := l.SeriesFor(csv, series.KindBuyBoxReported); got != nil {
		t.Fatalf("out-of-range column should be absent, got %v", got)
	}
	if got := l.SeriesFor(nil, series.KindAmazon); got != nil {
		t.Fatalf("nil matrix should yield no data, got %v", got)
	}
}

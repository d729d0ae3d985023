package timeline

import (
	"testing"

	"price-history-engine/internal/reconcile"
	"price-history-engine/internal/series"
)

func TestMergeCompleteness(t *testing.T) {
	named := map[series.Kind]series.Series{
		series.KindAmazon:    {0: 20.00, 100: 21.00},
		series.KindFBA:       {100: 19.00, 200: 19.50},
		series.KindSalesRank: {50: 1200},
	}
	buyBox := series.Series{100: 19.50}

	records, quality := Merge(named, buyBox, reconcile.Stats{Accepted: 1})

	if len(records) != 4 {
		t.Fatalf("expected 4 distinct timestamps, got %d", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i-1].TimestampMs >= records[i].TimestampMs {
			t.Fatalf("timestamps not strictly increasing: %v", records)
		}
	}

	// Field present iff the source series had that timestamp.
	byUnits := map[int64]Record{}
	for _, rec := range records {
		byUnits[series.MillisToUnits(rec.TimestampMs)] = rec
	}

	r0 := byUnits[0]
	if r0.Amazon == nil || *r0.Amazon != 20.00 {
		t.Fatalf("t=0 should carry amazon price, got %+v", r0)
	}
	if r0.FBA != nil || r0.BuyBox != nil || r0.SalesRank != nil {
		t.Fatalf("t=0 should carry nothing else, got %+v", r0)
	}

	r100 := byUnits[100]
	if r100.Amazon == nil || r100.FBA == nil || r100.BuyBox == nil {
		t.Fatalf("t=100 should carry amazon, fba, and buybox, got %+v", r100)
	}
	if *r100.BuyBox != 19.50 {
		t.Fatalf("buybox value wrong: %+v", r100)
	}

	r50 := byUnits[50]
	if r50.SalesRank == nil || *r50.SalesRank != 1200 {
		t.Fatalf("t=50 should carry the rank, got %+v", r50)
	}

	if quality.PerSeries[series.KindAmazon].Merged != 2 {
		t.Fatalf("amazon merged count wrong: %+v", quality.PerSeries)
	}
	if quality.BuyBox.Accepted != 1 {
		t.Fatalf("buybox stats should pass through verbatim, got %+v", quality.BuyBox)
	}
}

func TestMergeIgnoresReportedBuyBoxColumn(t *testing.T) {
	named := map[series.Kind]series.Series{
		series.KindAmazon:         {0: 20.00},
		series.KindBuyBoxReported: {500: 12.34},
	}

	records, quality := Merge(named, nil, reconcile.Stats{})

	if len(records) != 1 {
		t.Fatalf("reported-buybox-only timestamps must not create records, got %d", len(records))
	}
	if got := series.MillisToUnits(records[0].TimestampMs); got != 0 {
		t.Fatalf("only the amazon timestamp should survive, got unit %d", got)
	}
	if _, ok := quality.PerSeries[series.KindBuyBoxReported]; ok {
		t.Fatalf("informational column must not appear in the merge quality: %+v", quality.PerSeries)
	}
}

func TestMergeEmptyInputs(t *testing.T) {
	records, quality := Merge(nil, nil, reconcile.Stats{})
	if len(records) != 0 {
		t.Fatalf("empty inputs should merge to nothing, got %v", records)
	}
	if quality.HasData() {
		t.Fatal("empty merge should report no data")
	}
}

func TestQualityDistinguishesEmptyRangeFromNoData(t *testing.T) {
	named := map[series.Kind]series.Series{
		series.KindAmazon: {0: 20.00},
	}
	_, quality := Merge(named, nil, reconcile.Stats{})
	if !quality.HasData() {
		t.Fatal("quality should report data even when a later filter empties the output")
	}
}

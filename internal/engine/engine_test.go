package engine

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"price-history-engine/internal/feed"
	"price-history-engine/internal/series"
	"price-history-engine/internal/timeline"
)

func testProduct() feed.Product {
	csv := make([][]float64, 19)
	csv[0] = []float64{0, 2000}  // amazon 20.00
	csv[10] = []float64{0, 1900} // fba 19.00
	return feed.Product{
		ASIN:            "B00TEST000",
		Title:           "test widget",
		CSV:             csv,
		SellerIDHistory: []float64{0, 555},
		Offers: []feed.Offer{
			{
				SellerID:   "555",
				SellerName: "Acme Retail",
				Condition:  "new",
				PriceCSV:   []float64{0, 1950},
			},
		},
	}
}

func TestReconcileEndToEnd(t *testing.T) {
	eng := New(zerolog.Nop())

	res, err := eng.Reconcile(testProduct(), Options{})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if len(res.Records) != 1 {
		t.Fatalf("expected a single merged record, got %d", len(res.Records))
	}
	rec := res.Records[0]
	if rec.TimestampMs != series.UnitsToMillis(0) {
		t.Fatalf("record timestamp %d, want epoch origin %d", rec.TimestampMs, series.UnitsToMillis(0))
	}
	if rec.Amazon == nil || *rec.Amazon != 20.00 {
		t.Fatalf("amazon price not carried through: %+v", rec.Amazon)
	}
	if rec.FBA == nil || *rec.FBA != 19.00 {
		t.Fatalf("fba price not carried through: %+v", rec.FBA)
	}
	if rec.BuyBox == nil || *rec.BuyBox != 19.50 {
		t.Fatalf("reconstructed buy box should be the offer's 19.50, got %+v", rec.BuyBox)
	}

	if got := res.Quality.BuyBox.Accepted; got != 1 {
		t.Fatalf("funnel accepted %d, want 1", got)
	}
	if len(res.BuyBoxPoints) != 1 {
		t.Fatalf("traceability points missing: %d", len(res.BuyBoxPoints))
	}
	p := res.BuyBoxPoints[0]
	if p.SellerID != "555" || p.SellerName != "Acme Retail" || p.Price != 19.50 {
		t.Fatalf("attribution wrong: %+v", p)
	}

	if st, ok := res.DecodeStats[series.KindAmazon]; !ok || st.Accepted != 1 {
		t.Fatalf("decode stats for amazon missing or wrong: %+v", st)
	}
}

func TestReconcileReportedBuyBoxColumnIsInformational(t *testing.T) {
	eng := New(zerolog.Nop())

	product := testProduct()
	// The vendor's own Buy Box column carries a timestamp no other series
	// observes. It is informational only and must never become a timeline
	// record of its own.
	product.CSV[18] = []float64{500, 1234}

	res, err := eng.Reconcile(product, Options{})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if len(res.Records) != 1 {
		t.Fatalf("expected only the corroborated record, got %d", len(res.Records))
	}
	if res.Records[0].TimestampMs != series.UnitsToMillis(0) {
		t.Fatalf("record at unexpected timestamp %d", res.Records[0].TimestampMs)
	}
	for _, rec := range res.Records {
		if rec.Amazon == nil && rec.FBA == nil && rec.FBM == nil && rec.BuyBox == nil &&
			rec.SalesRank == nil && rec.OfferCount == nil && rec.Rating == nil && rec.ReviewCount == nil {
			t.Fatalf("all-empty record emitted at %d", rec.TimestampMs)
		}
	}

	// The column still shows up in the decode diagnostics.
	if st := res.DecodeStats[series.KindBuyBoxReported]; st.Accepted != 1 {
		t.Fatalf("reported column should still be decoded for diagnostics: %+v", st)
	}
}

func TestReconcileAbsentDataDegrades(t *testing.T) {
	eng := New(zerolog.Nop())

	res, err := eng.Reconcile(feed.Product{ASIN: "B00EMPTY00"}, Options{})
	if err != nil {
		t.Fatalf("absent data must not error: %v", err)
	}
	if len(res.Records) != 0 {
		t.Fatalf("expected no records, got %d", len(res.Records))
	}
	if res.Quality.HasData() {
		t.Fatal("quality must report no usable data")
	}
	if res.Quality.BuyBox.Candidates != 0 {
		t.Fatalf("funnel should be all zeros: %+v", res.Quality.BuyBox)
	}
}

func TestReconcileRangeFilterUsesInjectedClock(t *testing.T) {
	eng := New(zerolog.Nop())

	// Clock two days after the only observation: a 1w window keeps it, a 1d
	// window drops it.
	now := series.UnitsToTime(0).Add(48 * time.Hour)

	res, err := eng.Reconcile(testProduct(), Options{
		Range: timeline.RangeWeek,
		Now:   func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(res.Records) != 1 {
		t.Fatalf("1w window should keep the record, got %d", len(res.Records))
	}

	res, err = eng.Reconcile(testProduct(), Options{
		Range: timeline.RangeDay,
		Now:   func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(res.Records) != 0 {
		t.Fatalf("1d window should drop the record, got %d", len(res.Records))
	}
	if !res.Quality.HasData() {
		t.Fatal("quality must still report raw data outside the window")
	}
}

func TestReconcileRejectsInvalidOptions(t *testing.T) {
	eng := New(zerolog.Nop())

	if _, err := eng.Reconcile(testProduct(), Options{Granularity: "hourly"}); err == nil {
		t.Fatal("invalid granularity must be rejected")
	}
	if _, err := eng.Reconcile(testProduct(), Options{Range: "6m"}); err == nil {
		t.Fatal("invalid range must be rejected")
	}
}

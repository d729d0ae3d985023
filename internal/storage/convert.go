package storage

import (
	"math"

	"github.com/shopspring/decimal"

	"price-history-engine/internal/timeline"
)

// PointFromRecord converts one merged timeline record into its persisted form.
// Prices and ratings become decimals at this boundary; rank-like fields round
// to integers since the feed only ever reports whole counts.
func PointFromRecord(asin string, rec timeline.Record) HistoryPoint {
	return HistoryPoint{
		ASIN:        asin,
		ObservedAt:  rec.Time(),
		AmazonPrice: moneyPtr(rec.Amazon),
		FBAPrice:    moneyPtr(rec.FBA),
		FBMPrice:    moneyPtr(rec.FBM),
		BuyBoxPrice: moneyPtr(rec.BuyBox),
		SalesRank:   countPtr(rec.SalesRank),
		OfferCount:  countPtr(rec.OfferCount),
		Rating:      ratingPtr(rec.Rating),
		ReviewCount: countPtr(rec.ReviewCount),
	}
}

// PointsFromRecords converts a whole timeline.
func PointsFromRecords(asin string, records []timeline.Record) []HistoryPoint {
	points := make([]HistoryPoint, 0, len(records))
	for _, rec := range records {
		points = append(points, PointFromRecord(asin, rec))
	}
	return points
}

// RecordFromPoint converts a persisted row back into a timeline record so the
// aggregation stages can run over stored history.
func RecordFromPoint(p HistoryPoint) timeline.Record {
	return timeline.Record{
		TimestampMs: p.ObservedAt.UnixMilli(),
		Amazon:      floatPtr(p.AmazonPrice),
		FBA:         floatPtr(p.FBAPrice),
		FBM:         floatPtr(p.FBMPrice),
		BuyBox:      floatPtr(p.BuyBoxPrice),
		SalesRank:   intFloatPtr(p.SalesRank),
		OfferCount:  intFloatPtr(p.OfferCount),
		Rating:      floatPtr(p.Rating),
		ReviewCount: intFloatPtr(p.ReviewCount),
	}
}

// RecordsFromPoints converts a stored timeline, preserving order.
func RecordsFromPoints(points []HistoryPoint) []timeline.Record {
	records := make([]timeline.Record, 0, len(points))
	for _, p := range points {
		records = append(records, RecordFromPoint(p))
	}
	return records
}

func floatPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	v := d.InexactFloat64()
	return &v
}

func intFloatPtr(n *int64) *float64 {
	if n == nil {
		return nil
	}
	v := float64(*n)
	return &v
}

func moneyPtr(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := decimal.NewFromFloat(*v).Round(2)
	return &d
}

func ratingPtr(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := decimal.NewFromFloat(*v).Round(1)
	return &d
}

func countPtr(v *float64) *int64 {
	if v == nil {
		return nil
	}
	n := int64(math.Round(*v))
	return &n
}

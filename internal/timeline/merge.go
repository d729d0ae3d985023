// Package timeline unions the decoded series onto one ordered timeline and
// downsamples it to caller-chosen granularities and trailing windows.
package timeline

import (
	"sort"
	"time"

	"price-history-engine/internal/reconcile"
	"price-history-engine/internal/series"
)

// Record is one row of the merged timeline. A nil field means no series
// contributed an observation at that timestamp; zero is a real value.
type Record struct {
	TimestampMs int64
	Amazon      *float64
	FBA         *float64
	FBM         *float64
	BuyBox      *float64
	SalesRank   *float64
	OfferCount  *float64
	Rating      *float64
	ReviewCount *float64
}

// Time returns the record timestamp as UTC wall-clock time.
func (r Record) Time() time.Time {
	return time.UnixMilli(r.TimestampMs).UTC()
}

// SeriesQuality counts one series' contribution to the merge.
type SeriesQuality struct {
	RawPoints int
	Merged    int
}

// Quality reports, per series, how much data survived into the timeline, plus
// the Buy Box reconstruction funnel verbatim. It is observational output only.
type Quality struct {
	PerSeries map[series.Kind]SeriesQuality
	BuyBox    reconcile.Stats
}

// HasData reports whether any series contributed at least one point.
func (q Quality) HasData() bool {
	for _, sq := range q.PerSeries {
		if sq.Merged > 0 {
			return true
		}
	}
	return q.BuyBox.Accepted > 0
}

// field binds a merge source kind to its slot in Record. The reported Buy Box
// column is informational only and deliberately has no slot; the reconstructed
// series owns Record.BuyBox.
var fields = []struct {
	kind series.Kind
	slot func(*Record) **float64
}{
	{series.KindAmazon, func(r *Record) **float64 { return &r.Amazon }},
	{series.KindFBA, func(r *Record) **float64 { return &r.FBA }},
	{series.KindFBM, func(r *Record) **float64 { return &r.FBM }},
	{series.KindSalesRank, func(r *Record) **float64 { return &r.SalesRank }},
	{series.KindOfferCount, func(r *Record) **float64 { return &r.OfferCount }},
	{series.KindRating, func(r *Record) **float64 { return &r.Rating }},
	{series.KindReviewCount, func(r *Record) **float64 { return &r.ReviewCount }},
}

// Merge unions every input series (plus the reconstructed Buy Box) onto the
// sorted set of observed timestamps. No interpolation happens here: gaps stay
// gaps. Output timestamps are strictly increasing with no duplicates.
//
// Only kinds with a Record slot contribute timestamps. The reported Buy Box
// column in particular never enters the universe: a timestamp observed only
// there would otherwise produce a record with every field nil.
func Merge(named map[series.Kind]series.Series, buyBox series.Series, buyBoxStats reconcile.Stats) ([]Record, Quality) {
	universe := map[int64]struct{}{}
	for _, f := range fields {
		for ts := range named[f.kind] {
			universe[ts] = struct{}{}
		}
	}
	for ts := range buyBox {
		universe[ts] = struct{}{}
	}

	units := make([]int64, 0, len(universe))
	for ts := range universe {
		units = append(units, ts)
	}
	sort.Slice(units, func(i, j int) bool { return units[i] < units[j] })

	quality := Quality{PerSeries: map[series.Kind]SeriesQuality{}, BuyBox: buyBoxStats}
	for _, f := range fields {
		if s, ok := named[f.kind]; ok {
			quality.PerSeries[f.kind] = SeriesQuality{RawPoints: len(s)}
		}
	}

	records := make([]Record, 0, len(units))
	for _, ts := range units {
		rec := Record{TimestampMs: series.UnitsToMillis(ts)}
		for _, f := range fields {
			src, ok := named[f.kind]
			if !ok {
				continue
			}
			if v, present := src.At(ts); present {
				value := v
				*f.slot(&rec) = &value
				sq := quality.PerSeries[f.kind]
				sq.Merged++
				quality.PerSeries[f.kind] = sq
			}
		}
		if v, present := buyBox.At(ts); present {
			value := v
			rec.BuyBox = &value
		}
		records = append(records, rec)
	}

	return records, quality
}

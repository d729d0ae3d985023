package timeline

import (
	"fmt"
)

// Granularity selects the downsampling bucket width. Weekly and monthly use
// fixed 7- and 30-day buckets, not calendar weeks/months, so bucket boundaries
// drift against the calendar over long ranges.
type Granularity string

const (
	GranularityRaw     Granularity = "raw"
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
)

const dayMs = 24 * 60 * 60 * 1000

// ParseGranularity validates a caller-supplied granularity token. An unknown
// token is a programming error in the caller and fails loudly.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case GranularityRaw, GranularityDaily, GranularityWeekly, GranularityMonthly:
		return Granularity(s), nil
	}
	return "", fmt.Errorf("unknown granularity %q (want raw, daily, weekly, or monthly)", s)
}

func (g Granularity) bucketWidthMs() int64 {
	switch g {
	case GranularityDaily:
		return dayMs
	case GranularityWeekly:
		return 7 * dayMs
	case GranularityMonthly:
		return 30 * dayMs
	}
	return 0
}

// meanFields average within a bucket; lastFields carry running state so the
// chronologically last observation wins.
var (
	meanFields = []func(*Record) **float64{
		func(r *Record) **float64 { return &r.Amazon },
		func(r *Record) **float64 { return &r.FBA },
		func(r *Record) **float64 { return &r.FBM },
		func(r *Record) **float64 { return &r.BuyBox },
		func(r *Record) **float64 { return &r.Rating },
		func(r *Record) **float64 { return &r.OfferCount },
	}
	lastFields = []func(*Record) **float64{
		func(r *Record) **float64 { return &r.SalesRank },
		func(r *Record) **float64 { return &r.ReviewCount },
	}
)

// Aggregate buckets an ordered timeline into fixed-width windows and reduces
// each field: arithmetic mean for price-like values, last observation for
// state-like values. Raw granularity is the identity transform, and buckets
// without input records are never emitted.
func Aggregate(records []Record, g Granularity) []Record {
	width := g.bucketWidthMs()
	if width == 0 {
		return records
	}

	out := make([]Record, 0, len(records))
	i := 0
	for i < len(records) {
		bucketStart := (records[i].TimestampMs / width) * width
		j := i
		for j < len(records) && (records[j].TimestampMs/width)*width == bucketStart {
			j++
		}
		out = append(out, reduceBucket(records[i:j], bucketStart))
		i = j
	}
	return out
}

func reduceBucket(bucket []Record, startMs int64) Record {
	rec := Record{TimestampMs: startMs}

	for _, slot := range meanFields {
		var sum float64
		var n int
		for k := range bucket {
			if v := *slot(&bucket[k]); v != nil {
				sum += *v
				n++
			}
		}
		if n > 0 {
			mean := sum / float64(n)
			*slot(&rec) = &mean
		}
	}

	for _, slot := range lastFields {
		for k := len(bucket) - 1; k >= 0; k-- {
			if v := *slot(&bucket[k]); v != nil {
				value := *v
				*slot(&rec) = &value
				break
			}
		}
	}

	return rec
}

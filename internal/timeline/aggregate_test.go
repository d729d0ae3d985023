package timeline

import (
	"testing"
)

func fp(v float64) *float64 { return &v }

func TestParseGranularity(t *testing.T) {
	for _, token := range []string{"raw", "daily", "weekly", "monthly"} {
		if _, err := ParseGranularity(token); err != nil {
			t.Fatalf("token %q should parse: %v", token, err)
		}
	}
	if _, err := ParseGranularity("hourly"); err == nil {
		t.Fatal("unknown granularity must fail fast")
	}
}

func TestAggregateRawIsIdentity(t *testing.T) {
	records := []Record{
		{TimestampMs: 1000, Amazon: fp(10)},
		{TimestampMs: 2000, Amazon: fp(12)},
	}
	out := Aggregate(records, GranularityRaw)
	if len(out) != 2 || out[0].TimestampMs != 1000 || out[1].TimestampMs != 2000 {
		t.Fatalf("raw must be the identity transform, got %v", out)
	}
}

func TestAggregateReducers(t *testing.T) {
	// Three records inside one daily bucket.
	base := int64(1_700_000_000_000)
	bucketStart := (base / dayMs) * dayMs
	records := []Record{
		{TimestampMs: base, Amazon: fp(10.0), SalesRank: fp(500)},
		{TimestampMs: base + 60_000, Amazon: fp(12.0), SalesRank: fp(300)},
		{TimestampMs: base + 120_000, Amazon: fp(14.0), SalesRank: fp(700)},
	}

	out := Aggregate(records, GranularityDaily)
	if len(out) != 1 {
		t.Fatalf("expected one bucket, got %d", len(out))
	}
	agg := out[0]
	if agg.TimestampMs != bucketStart {
		t.Fatalf("bucket start wrong: %d != %d", agg.TimestampMs, bucketStart)
	}
	if agg.Amazon == nil || *agg.Amazon != 12.0 {
		t.Fatalf("price should reduce to the mean 12.0, got %+v", agg.Amazon)
	}
	if agg.SalesRank == nil || *agg.SalesRank != 700 {
		t.Fatalf("rank should reduce to the last value 700, got %+v", agg.SalesRank)
	}
}

func TestAggregateAbsentFieldsStayAbsent(t *testing.T) {
	records := []Record{
		{TimestampMs: 0, Amazon: fp(10)},
		{TimestampMs: 60_000, FBA: fp(9)},
	}
	out := Aggregate(records, GranularityDaily)
	if len(out) != 1 {
		t.Fatalf("expected one bucket, got %d", len(out))
	}
	if out[0].BuyBox != nil || out[0].SalesRank != nil {
		t.Fatalf("untouched fields must stay absent, got %+v", out[0])
	}
	if out[0].Amazon == nil || out[0].FBA == nil {
		t.Fatalf("contributing fields must survive, got %+v", out[0])
	}
}

func TestAggregateNoEmptyBuckets(t *testing.T) {
	// Two records 10 days apart: exactly two daily buckets, none between.
	records := []Record{
		{TimestampMs: 0, Amazon: fp(10)},
		{TimestampMs: 10 * dayMs, Amazon: fp(20)},
	}
	out := Aggregate(records, GranularityDaily)
	if len(out) != 2 {
		t.Fatalf("empty buckets must never be emitted, got %d records", len(out))
	}
}

func TestAggregateEveryRecordInExactlyOneBucket(t *testing.T) {
	records := make([]Record, 0, 50)
	for i := int64(0); i < 50; i++ {
		records = append(records, Record{TimestampMs: i * 6 * 60 * 60 * 1000, Amazon: fp(float64(i))})
	}

	for _, g := range []Granularity{GranularityDaily, GranularityWeekly, GranularityMonthly} {
		out := Aggregate(records, g)
		width := g.bucketWidthMs()

		seen := map[int64]bool{}
		for _, rec := range out {
			if rec.TimestampMs%width != 0 {
				t.Fatalf("%s bucket start not aligned: %d", g, rec.TimestampMs)
			}
			if seen[rec.TimestampMs] {
				t.Fatalf("%s emitted duplicate bucket %d", g, rec.TimestampMs)
			}
			seen[rec.TimestampMs] = true
		}

		for _, rec := range records {
			if !seen[(rec.TimestampMs/width)*width] {
				t.Fatalf("%s lost record at %d", g, rec.TimestampMs)
			}
		}
	}
}

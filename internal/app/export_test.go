package app

import (
	"testing"

	"price-history-engine/internal/timeline"
)

func recordsWithTimestamps(ts ...int64) []timeline.Record {
	out := make([]timeline.Record, 0, len(ts))
	for _, t := range ts {
		out = append(out, timeline.Record{TimestampMs: t})
	}
	return out
}

func TestDownsampleRecordsIdentity(t *testing.T) {
	records := recordsWithTimestamps(1, 2, 3)

	if got := downsampleRecords(records, 0); len(got) != 3 {
		t.Fatalf("non-positive budget should keep everything, got %d", len(got))
	}
	if got := downsampleRecords(records, 5); len(got) != 3 {
		t.Fatalf("budget above size should keep everything, got %d", len(got))
	}
}

func TestDownsampleRecordsSinglePointBudget(t *testing.T) {
	records := recordsWithTimestamps(1, 2, 3)

	got := downsampleRecords(records, 1)
	if len(got) != 1 {
		t.Fatalf("budget of one should keep exactly one record, got %d", len(got))
	}
	if got[0].TimestampMs != 3 {
		t.Fatalf("budget of one should keep the newest record, got %d", got[0].TimestampMs)
	}
}

func TestDownsampleRecordsKeepsEndpoints(t *testing.T) {
	records := recordsWithTimestamps(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)

	got := downsampleRecords(records, 4)
	if len(got) != 4 {
		t.Fatalf("expected 4 records, got %d", len(got))
	}
	if got[0].TimestampMs != 1 || got[len(got)-1].TimestampMs != 10 {
		t.Fatalf("downsampling must keep both endpoints, got %v", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].TimestampMs >= got[i].TimestampMs {
			t.Fatalf("downsampled records out of order: %v", got)
		}
	}
}

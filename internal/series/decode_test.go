package series

import (
	"math"
	"reflect"
	"testing"
)

func TestDecodeSentinelExcluded(t *testing.T) {
	raw := []float64{100, Sentinel, 200, 50}
	s, stats := Decode(raw, KindAmazon)

	if len(s) != 1 {
		t.Fatalf("expected exactly one point, got %d", len(s))
	}
	if v, ok := s.At(200); !ok || v != 0.50 {
		t.Fatalf("expected {200: 0.50}, got %v", s)
	}
	if stats.Accepted != 1 || stats.Rejected != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestDecodeScaling(t *testing.T) {
	s, _ := Decode([]float64{10, 4999}, KindFBA)
	if v, _ := s.At(10); v != 49.99 {
		t.Fatalf("price raw 4999 should decode to 49.99, got %v", v)
	}

	s, _ = Decode([]float64{10, 45}, KindRating)
	if v, _ := s.At(10); v != 4.5 {
		t.Fatalf("rating raw 45 should decode to 4.5, got %v", v)
	}

	s, _ = Decode([]float64{10, 12345}, KindSalesRank)
	if v, _ := s.At(10); v != 12345 {
		t.Fatalf("rank should pass through unscaled, got %v", v)
	}
}

func TestDecodePriceBounds(t *testing.T) {
	// 1 cent scales to 0.01, which is not strictly above the floor.
	s, stats := Decode([]float64{10, 1, 20, 5_000_001}, KindAmazon)
	if len(s) != 0 {
		t.Fatalf("out-of-bounds prices must be rejected, got %v", s)
	}
	if stats.Rejected != 2 {
		t.Fatalf("expected 2 rejections, got %+v", stats)
	}
}

func TestDecodeNonFiniteAndNegative(t *testing.T) {
	raw := []float64{math.NaN(), 100, 10, math.Inf(1), -5, 100, 20, 300}
	s, stats := Decode(raw, KindSalesRank)
	if len(s) != 1 {
		t.Fatalf("expected one surviving point, got %v", s)
	}
	if stats.Rejected != 3 {
		t.Fatalf("expected 3 rejections, got %+v", stats)
	}
	if len(stats.Reasons) != 3 {
		t.Fatalf("rejection reasons should be recorded, got %v", stats.Reasons)
	}
}

func TestDecodeMalformedInput(t *testing.T) {
	for _, raw := range [][]float64{nil, {}, {100}, {100, 200, 300}} {
		s, stats := Decode(raw, KindAmazon)
		if len(s) != 0 {
			t.Fatalf("malformed input %v should yield empty series", raw)
		}
		if stats.Accepted != 0 {
			t.Fatalf("malformed input %v should accept nothing", raw)
		}
	}
}

func TestDecodeDuplicateTimestampLastWins(t *testing.T) {
	s, _ := Decode([]float64{100, 1000, 100, 2000}, KindAmazon)
	if v, _ := s.At(100); v != 20.00 {
		t.Fatalf("later duplicate should win, got %v", v)
	}
}

func TestDecodeIdempotent(t *testing.T) {
	raw := []float64{100, 1000, 200, Sentinel, 300, 1500, 300, 1600}
	first, firstStats := Decode(raw, KindAmazon)
	second, secondStats := Decode(raw, KindAmazon)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("decode is not deterministic: %v vs %v", first, second)
	}
	if !reflect.DeepEqual(firstStats, secondStats) {
		t.Fatalf("decode stats differ: %+v vs %+v", firstStats, secondStats)
	}
}

package series

import (
	"testing"
	"time"
)

func TestEpochConversionRoundTrip(t *testing.T) {
	if got := UnitsToTime(0); !got.Equal(Epoch) {
		t.Fatalf("unit 0 should be the epoch, got %v", got)
	}

	units := int64(5_000_000)
	if back := MillisToUnits(UnitsToMillis(units)); back != units {
		t.Fatalf("round trip lost precision: %d -> %d", units, back)
	}

	want := Epoch.Add(90 * time.Minute)
	if got := UnitsToTime(90); !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestNearestWithin(t *testing.T) {
	s := Series{100: 1.0, 140: 2.0, 210: 3.0}

	if v, ok := s.NearestWithin(140, 0); !ok || v != 2.0 {
		t.Fatalf("exact hit should win regardless of tolerance, got %v %v", v, ok)
	}
	if v, ok := s.NearestWithin(150, 30); !ok || v != 2.0 {
		t.Fatalf("expected nearest 140 within 30, got %v %v", v, ok)
	}
	if _, ok := s.NearestWithin(170, 20); ok {
		t.Fatal("nothing lies within 20 of 170")
	}
	// Equidistant neighbours: the earlier observation wins.
	if v, ok := s.NearestWithin(175, 40); !ok || v != 2.0 {
		t.Fatalf("tie should go to the earlier point, got %v %v", v, ok)
	}
}

func TestTimestampsSorted(t *testing.T) {
	s := Series{300: 1, 100: 2, 200: 3}
	ts := s.Timestamps()
	if len(ts) != 3 || ts[0] != 100 || ts[1] != 200 || ts[2] != 300 {
		t.Fatalf("timestamps should be ascending, got %v", ts)
	}
}

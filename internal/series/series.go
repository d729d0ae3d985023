package series

import (
	"sort"
	"time"
)

// Epoch is the feed's time origin; raw timestamps are minutes since this instant.
var Epoch = time.Date(2011, time.January, 1, 0, 0, 0, 0, time.UTC)

var epochMs = Epoch.UnixMilli()

// UnitsToMillis converts feed minute units to epoch milliseconds.
func UnitsToMillis(units int64) int64 {
	return epochMs + units*60_000
}

// MillisToUnits converts epoch milliseconds back to feed minute units.
func MillisToUnits(ms int64) int64 {
	return (ms - epochMs) / 60_000
}

// UnitsToTime converts feed minute units to a UTC time.
func UnitsToTime(units int64) time.Time {
	return time.UnixMilli(UnitsToMillis(units)).UTC()
}

// Series maps feed minute units to decoded, scaled values. One entry per
// observation; absent timestamps mean no observation, never zero.
type Series map[int64]float64

// At returns the value observed exactly at units.
func (s Series) At(units int64) (float64, bool) {
	v, ok := s[units]
	return v, ok
}

// NearestWithin returns the value whose timestamp is closest to units inside
// ±tolerance minutes, preferring the exact timestamp. Ties go to the earlier
// observation.
func (s Series) NearestWithin(units, tolerance int64) (float64, bool) {
	if v, ok := s[units]; ok {
		return v, true
	}
	var (
		best     float64
		bestDist int64 = -1
	)
	for ts, v := range s {
		dist := ts - units
		if dist < 0 {
			dist = -dist
		}
		if dist > tolerance {
			continue
		}
		if bestDist == -1 || dist < bestDist || (dist == bestDist && ts < units) {
			best = v
			bestDist = dist
		}
	}
	return best, bestDist != -1
}

// Timestamps returns the observation timestamps in ascending order.
func (s Series) Timestamps() []int64 {
	out := make([]int64, 0, len(s))
	for ts := range s {
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

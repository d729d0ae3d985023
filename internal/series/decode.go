package series

import (
	"fmt"
	"math"
)

// Sentinel is the reserved raw value meaning "no observation".
const Sentinel = -1

// maxRejectionReasons bounds the diagnostic list in DecodeStats.
const maxRejectionReasons = 10

// DecodeStats describes what a single decode pass kept and dropped.
type DecodeStats struct {
	RawPairs int
	Accepted int
	Rejected int
	// Reasons holds the first few rejection descriptions, diagnostics only.
	Reasons []string
}

func (st *DecodeStats) reject(format string, args ...any) {
	st.Rejected++
	if len(st.Reasons) < maxRejectionReasons {
		st.Reasons = append(st.Reasons, fmt.Sprintf(format, args...))
	}
}

// Decode turns one raw flat [timestamp, value, timestamp, value, ...] sequence
// into a Series, applying the kind's sentinel exclusion, unit scaling, and
// validity rules. Malformed or absent input is not an error: it yields an
// empty series, visible downstream only through the stats.
//
// Later duplicate timestamps overwrite earlier ones.
func Decode(raw []float64, kind Kind) (Series, DecodeStats) {
	out := Series{}
	var stats DecodeStats

	if len(raw) < 2 || len(raw)%2 != 0 {
		return out, stats
	}

	stats.RawPairs = len(raw) / 2
	for i := 0; i+1 < len(raw); i += 2 {
		ts, rawVal := raw[i], raw[i+1]

		if !isFinite(ts) || !isFinite(rawVal) {
			stats.reject("pair %d: non-finite element", i/2)
			continue
		}
		if ts != math.Trunc(ts) || ts < 0 {
			stats.reject("pair %d: bad timestamp %v", i/2, ts)
			continue
		}
		if rawVal == Sentinel {
			stats.reject("pair %d: sentinel", i/2)
			continue
		}

		v := rawVal / kind.scale()
		if !kind.valid(v) {
			stats.reject("pair %d: value %v out of range for %s", i/2, v, kind)
			continue
		}

		stats.Accepted++
		out[int64(ts)] = v
	}

	return out, stats
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

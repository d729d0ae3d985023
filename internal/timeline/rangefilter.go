package timeline

import (
	"fmt"
	"time"
)

// RangeWindow is a trailing time window over the aggregated timeline.
type RangeWindow string

const (
	RangeDay     RangeWindow = "1d"
	RangeWeek    RangeWindow = "1w"
	RangeMonth   RangeWindow = "1m"
	Range3Months RangeWindow = "3m"
	RangeYear    RangeWindow = "1y"
	RangeAllTime RangeWindow = "all"
)

// ParseRange validates a caller-supplied range token.
func ParseRange(s string) (RangeWindow, error) {
	switch RangeWindow(s) {
	case RangeDay, RangeWeek, RangeMonth, Range3Months, RangeYear, RangeAllTime:
		return RangeWindow(s), nil
	}
	return "", fmt.Errorf("unknown range %q (want 1d, 1w, 1m, 3m, 1y, or all)", s)
}

func (w RangeWindow) days() int64 {
	switch w {
	case RangeDay:
		return 1
	case RangeWeek:
		return 7
	case RangeMonth:
		return 30
	case Range3Months:
		return 90
	case RangeYear:
		return 365
	}
	return 0
}

// FilterRange keeps records from the trailing window ending at now. All-time
// is the identity. An empty result is valid output, not an error; whether any
// data existed before filtering is answered by the Quality report upstream.
func FilterRange(records []Record, w RangeWindow, now time.Time) []Record {
	days := w.days()
	if days == 0 {
		return records
	}

	cutoff := now.UnixMilli() - days*dayMs
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if rec.TimestampMs >= cutoff {
			out = append(out, rec)
		}
	}
	return out
}

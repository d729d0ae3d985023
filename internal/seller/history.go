// Package seller decodes the feed's seller-identity history and per-seller
// offer price histories into the lookup structures the Buy Box reconstruction
// needs.
package seller

import (
	"math"
	"sort"
	"strconv"
)

// IdentityEvent records which seller took the Buy Box at a point in time.
type IdentityEvent struct {
	Timestamp int64
	SellerID  int64
}

// History is an ascending sequence of identity events.
type History []IdentityEvent

// ExtractHistory decodes the raw seller-identity array. Pairs with a
// non-positive or sentinel seller id are dropped; a malformed array yields an
// empty history, never an error. The result is sorted ascending by timestamp.
func ExtractHistory(raw []float64) History {
	if len(raw) < 2 || len(raw)%2 != 0 {
		return nil
	}

	events := make(History, 0, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		ts, id := raw[i], raw[i+1]
		if math.IsNaN(ts) || math.IsInf(ts, 0) || math.IsNaN(id) || math.IsInf(id, 0) {
			continue
		}
		if ts != math.Trunc(ts) || ts < 0 {
			continue
		}
		if id != math.Trunc(id) || id <= 0 {
			continue
		}
		events = append(events, IdentityEvent{Timestamp: int64(ts), SellerID: int64(id)})
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].Timestamp < events[j].Timestamp })
	return events
}

// HolderAt resolves the seller holding the Buy Box at units. The holder is the
// latest event at or before units; the backward search is deliberately
// unbounded, since an identity event stays in force until the next one
// supersedes it no matter how much later the lookup lands. Tolerance only
// bounds the forward case: when nothing precedes, the first following event
// counts if it lies within tolerance minutes.
func (h History) HolderAt(units, tolerance int64) (int64, bool) {
	idx := sort.Search(len(h), func(i int) bool { return h[i].Timestamp > units })
	if idx > 0 {
		return h[idx-1].SellerID, true
	}
	if idx < len(h) && h[idx].Timestamp-units <= tolerance {
		return h[idx].SellerID, true
	}
	return 0, false
}

// FormatSellerID renders a numeric history seller id in the representation
// offers carry.
func FormatSellerID(id int64) string {
	return strconv.FormatInt(id, 10)
}

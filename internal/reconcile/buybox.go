// Package reconcile rebuilds a trustworthy Buy Box price series. The feed's
// own Buy Box column can reflect phantom or stale listings, so a price is
// accepted only when the seller recorded as holding the box also has a real
// offer priced near that moment.
package reconcile

import (
	"sort"
	"time"

	"price-history-engine/internal/seller"
	"price-history-engine/internal/series"
)

// Tolerances bound the temporal joins between the candidate timeline, the
// seller-identity history, and the holder's own offer price history. The two
// feeds sample at different rates, hence the wider price window.
type Tolerances struct {
	Identity time.Duration
	Price    time.Duration
}

// DefaultTolerances mirror the vendor's observed sampling cadence.
func DefaultTolerances() Tolerances {
	return Tolerances{
		Identity: 5 * time.Minute,
		Price:    45 * time.Minute,
	}
}

func (t Tolerances) normalized() Tolerances {
	d := DefaultTolerances()
	if t.Identity <= 0 {
		t.Identity = d.Identity
	}
	if t.Price <= 0 {
		t.Price = d.Price
	}
	return t
}

// Point is one reconstructed Buy Box observation with its provenance.
type Point struct {
	Timestamp  int64
	Price      float64
	SellerID   string
	SellerName string
}

// Stats is the reconstruction funnel. Each counter is a subset of the one
// above it: Candidates >= SellerResolved >= OfferMatched >= PriceMatched,
// and PriceMatched == Accepted.
type Stats struct {
	Candidates     int
	SellerResolved int
	OfferMatched   int
	PriceMatched   int
	Accepted       int
	// BySeller counts accepted points per contributing seller id.
	BySeller map[string]int
}

// BuyBox cross-references the seller-identity history against per-seller offer
// price histories at every timestamp where a competitive price exists, and
// returns the corroborated price series, the attributed points, and the full
// funnel. Absent identity or offer data degrades to an empty result with zero
// counters.
func BuyBox(amazon, fba, fbm series.Series, history seller.History, offers []seller.Offer, tol Tolerances) (series.Series, []Point, Stats) {
	tol = tol.normalized()
	identityTol := int64(tol.Identity / time.Minute)
	priceTol := int64(tol.Price / time.Minute)

	candidates := candidateTimestamps(amazon, fba, fbm)

	result := series.Series{}
	points := make([]Point, 0, len(candidates))
	stats := Stats{Candidates: len(candidates), BySeller: map[string]int{}}

	for _, ts := range candidates {
		holderID, ok := history.HolderAt(ts, identityTol)
		if !ok {
			continue
		}
		stats.SellerResolved++

		offer, ok := seller.FindByID(offers, seller.FormatSellerID(holderID))
		if !ok {
			continue
		}
		stats.OfferMatched++

		price, ok := offer.PriceHistory.NearestWithin(ts, priceTol)
		if !ok {
			continue
		}
		stats.PriceMatched++
		stats.Accepted++
		stats.BySeller[offer.SellerID]++

		result[ts] = price
		points = append(points, Point{
			Timestamp:  ts,
			Price:      price,
			SellerID:   offer.SellerID,
			SellerName: offer.SellerName,
		})
	}

	return result, points, stats
}

// candidateTimestamps unions the competitive price timelines. Reconstruction
// only happens where at least one real market signal exists, so no point is
// fabricated on an otherwise dead listing.
func candidateTimestamps(inputs ...series.Series) []int64 {
	set := map[int64]struct{}{}
	for _, s := range inputs {
		for ts := range s {
			set[ts] = struct{}{}
		}
	}

	out := make([]int64, 0, len(set))
	for ts := range set {
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

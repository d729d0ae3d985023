package seller

import (
	"price-history-engine/internal/series"
)

// RawOffer is one marketplace offer as delivered by the feed, its price
// history still in the flat columnar encoding.
type RawOffer struct {
	SellerID   string
	SellerName string
	Condition  string
	IsPrime    bool
	PriceCSV   []float64
}

// Offer is a decoded marketplace offer.
type Offer struct {
	SellerID     string
	SellerName   string
	Condition    string
	IsPrime      bool
	PriceHistory series.Series
}

// ExtractOffers decodes every offer's price history with the price-kind rules.
// Offers without a seller id are dropped; an offer whose history decodes empty
// is kept so the reconstruction funnel can still distinguish "holder known,
// no price evidence" from "holder unknown".
func ExtractOffers(raw []RawOffer) []Offer {
	offers := make([]Offer, 0, len(raw))
	for _, ro := range raw {
		if ro.SellerID == "" {
			continue
		}
		history, _ := series.Decode(ro.PriceCSV, series.KindBuyBoxReported)
		offers = append(offers, Offer{
			SellerID:     ro.SellerID,
			SellerName:   ro.SellerName,
			Condition:    ro.Condition,
			IsPrime:      ro.IsPrime,
			PriceHistory: history,
		})
	}
	return offers
}

// FindByID returns the first offer with the given seller id.
func FindByID(offers []Offer, sellerID string) (Offer, bool) {
	for _, o := range offers {
		if o.SellerID == sellerID {
			return o, true
		}
	}
	return Offer{}, false
}

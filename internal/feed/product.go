package feed

import (
	"price-history-engine/internal/seller"
)

// Product is one vendor payload: the columnar series matrix plus the seller
// data the Buy Box reconstruction corroborates against.
type Product struct {
	ASIN            string      `json:"asin"`
	Title           string      `json:"title"`
	CSV             [][]float64 `json:"csv"`
	SellerIDHistory []float64   `json:"sellerIdHistory"`
	Offers          []Offer     `json:"offers"`
}

// Offer is one marketplace offer as shipped in the payload.
type Offer struct {
	SellerID   string    `json:"sellerId"`
	SellerName string    `json:"sellerName"`
	Condition  string    `json:"condition"`
	IsPrime    bool      `json:"isPrime"`
	PriceCSV   []float64 `json:"offerCSV"`
}

// RawOffers converts payload offers into the extractor's input shape.
func (p Product) RawOffers() []seller.RawOffer {
	out := make([]seller.RawOffer, 0, len(p.Offers))
	for _, o := range p.Offers {
		out = append(out, seller.RawOffer{
			SellerID:   o.SellerID,
			SellerName: o.SellerName,
			Condition:  o.Condition,
			IsPrime:    o.IsPrime,
			PriceCSV:   o.PriceCSV,
		})
	}
	return out
}

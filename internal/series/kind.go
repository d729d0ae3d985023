package series

// Kind identifies one logical series inside the vendor's columnar feed.
type Kind string

const (
	KindAmazon         Kind = "amazon"
	KindBuyBoxReported Kind = "buyBox"
	KindSalesRank      Kind = "salesRank"
	KindOfferCount     Kind = "offerCount"
	KindFBA            Kind = "fba"
	KindFBM            Kind = "fbm"
	KindRating         Kind = "rating"
	KindReviewCount    Kind = "reviewCount"
)

// Kinds lists every series the engine tracks, in merge column order.
var Kinds = []Kind{
	KindAmazon,
	KindBuyBoxReported,
	KindSalesRank,
	KindOfferCount,
	KindFBA,
	KindFBM,
	KindRating,
	KindReviewCount,
}

// IsPrice reports whether the kind carries integer-cent price values.
func (k Kind) IsPrice() bool {
	switch k {
	case KindAmazon, KindBuyBoxReported, KindFBA, KindFBM:
		return true
	}
	return false
}

// scale returns the divisor applied to raw values of this kind.
func (k Kind) scale() float64 {
	if k.IsPrice() {
		return 100
	}
	if k == KindRating {
		return 10
	}
	return 1
}

// valid reports whether an already-scaled value is acceptable for this kind.
func (k Kind) valid(v float64) bool {
	if k.IsPrice() {
		return v > 0.01 && v < 50000
	}
	return v >= 0
}

package storage

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// HistoryPoint is one persisted row of a product's reconciled timeline. Nil
// fields record the absence of an observation, never zero.
type HistoryPoint struct {
	ASIN        string
	ObservedAt  time.Time
	AmazonPrice *decimal.Decimal
	FBAPrice    *decimal.Decimal
	FBMPrice    *decimal.Decimal
	BuyBoxPrice *decimal.Decimal
	SalesRank   *int64
	OfferCount  *int64
	Rating      *decimal.Decimal
	ReviewCount *int64
	CreatedAt   time.Time
}

// ReconcileRun audits one reconciliation: the Buy Box funnel plus how many
// timeline records the merge produced.
type ReconcileRun struct {
	ID             int64
	ASIN           string
	RunTS          time.Time
	Candidates     int
	SellerResolved int
	OfferMatched   int
	PriceMatched   int
	Accepted       int
	MergedRecords  int
	BySeller       json.RawMessage
	CreatedAt      time.Time
}

package feed

import (
	"context"
)

// ProductFetcher retrieves one product's full pricing history payload.
type ProductFetcher interface {
	FetchProduct(ctx context.Context, asin string) (Product, error)
}

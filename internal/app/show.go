package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"price-history-engine/internal/storage"
)

// Show prints a product's recent history points, or its recent reconcile runs.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	if opts.ASIN == "" {
		return errors.New("--asin must be provided")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show history")
	}
	if closeStore != nil {
		defer closeStore()
	}

	if opts.Runs {
		return showRuns(ctx, store, opts)
	}
	return showPoints(ctx, store, opts)
}

func showPoints(ctx context.Context, store *storage.Store, opts ShowOptions) error {
	points, err := store.ListRecentPoints(ctx, opts.ASIN, opts.Limit)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		fmt.Fprintln(os.Stdout, "no history points found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tAmazon\tFBA\tFBM\tBuyBox\tRank\tOffers\tRating\tReviews")

	for _, p := range points {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ObservedAt.UTC().Format(time.RFC3339),
			formatMoney(p.AmazonPrice),
			formatMoney(p.FBAPrice),
			formatMoney(p.FBMPrice),
			formatMoney(p.BuyBoxPrice),
			formatCount(p.SalesRank),
			formatCount(p.OfferCount),
			formatRating(p.Rating),
			formatCount(p.ReviewCount),
		)
	}

	writer.Flush()
	return nil
}

func showRuns(ctx context.Context, store *storage.Store, opts ShowOptions) error {
	runs, err := store.ListRecentRuns(ctx, opts.ASIN, opts.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stdout, "no reconcile runs found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Run (UTC)\tCandidates\tSellerResolved\tOfferMatched\tPriceMatched\tAccepted\tRecords\tBySeller")

	for _, run := range runs {
		fmt.Fprintf(
			writer,
			"%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			run.RunTS.UTC().Format(time.RFC3339),
			run.Candidates,
			run.SellerResolved,
			run.OfferMatched,
			run.PriceMatched,
			run.Accepted,
			run.MergedRecords,
			sanitizeInline(string(run.BySeller)),
		)
	}

	writer.Flush()
	return nil
}

func formatMoney(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.StringFixed(2)
}

func formatRating(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.StringFixed(1)
}

func formatCount(n *int64) string {
	if n == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *n)
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}

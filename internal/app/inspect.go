package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"price-history-engine/internal/engine"
	"price-history-engine/internal/feed"
	"price-history-engine/internal/series"
)

// Inspect 读取本地 payload 文件并离线执行一次对账，打印质量漏斗。
// It runs the complete pipeline without touching the network or the database,
// which is the quickest way to answer "why is Buy Box sparse for this
// product".
func (a *App) Inspect(ctx context.Context, opts InspectOptions) error {
	if opts.Path == "" {
		return errors.New("--file must be provided")
	}

	payload, err := os.ReadFile(opts.Path)
	if err != nil {
		return fmt.Errorf("read payload file: %w", err)
	}

	var product feed.Product
	if err := json.Unmarshal(payload, &product); err != nil {
		return fmt.Errorf("decode payload file: %w", err)
	}

	granularity, window, err := a.resolveShape(opts.Granularity, opts.Range)
	if err != nil {
		return err
	}

	engineOpts, err := a.engineOptions(granularity, window)
	if err != nil {
		return err
	}

	result, err := engine.New(a.Logger).Reconcile(product, engineOpts)
	if err != nil {
		return err
	}

	printInspection(product, result)
	return nil
}

func printInspection(product feed.Product, result engine.Result) {
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	fmt.Fprintf(writer, "ASIN\t%s\n", product.ASIN)
	fmt.Fprintf(writer, "Records\t%d\n", len(result.Records))
	fmt.Fprintln(writer)

	fmt.Fprintln(writer, "Series\tRawPairs\tAccepted\tRejected\tMerged")
	for _, kind := range series.Kinds {
		st := result.DecodeStats[kind]
		fmt.Fprintf(writer, "%s\t%d\t%d\t%d\t%d\n",
			kind, st.RawPairs, st.Accepted, st.Rejected, result.Quality.PerSeries[kind].Merged)
	}
	fmt.Fprintln(writer)

	funnel := result.Quality.BuyBox
	fmt.Fprintln(writer, "Buy Box funnel")
	fmt.Fprintf(writer, "  candidates\t%d\n", funnel.Candidates)
	fmt.Fprintf(writer, "  seller resolved\t%d\n", funnel.SellerResolved)
	fmt.Fprintf(writer, "  offer matched\t%d\n", funnel.OfferMatched)
	fmt.Fprintf(writer, "  price matched\t%d\n", funnel.PriceMatched)
	fmt.Fprintf(writer, "  accepted\t%d\n", funnel.Accepted)

	if len(funnel.BySeller) > 0 {
		sellers := make([]string, 0, len(funnel.BySeller))
		for id := range funnel.BySeller {
			sellers = append(sellers, id)
		}
		sort.Strings(sellers)
		fmt.Fprintln(writer)
		fmt.Fprintln(writer, "Seller\tAccepted")
		for _, id := range sellers {
			fmt.Fprintf(writer, "%s\t%d\n", id, funnel.BySeller[id])
		}
	}

	if !result.Quality.HasData() {
		fmt.Fprintln(writer)
		fmt.Fprintln(writer, "payload carried no usable data at all")
	} else if len(result.Records) == 0 {
		fmt.Fprintln(writer)
		fmt.Fprintln(writer, "data exists but none falls inside the requested range")
	}

	writer.Flush()
}

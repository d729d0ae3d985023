package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"

	"price-history-engine/internal/storage"
	"price-history-engine/internal/timeline"
)

// Export renders a product's stored history as CSV and/or PNG, after
// aggregating to the requested granularity and trailing range.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.ASIN == "" {
		return errors.New("--asin must be provided")
	}
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	granularity, window, err := a.resolveShape(opts.Granularity, opts.Range)
	if err != nil {
		return err
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	if closeStore != nil {
		defer closeStore()
	}

	to := time.Now().UTC()
	if opts.To != nil {
		to = opts.To.UTC()
	}

	from := to.AddDate(-10, 0, 0)
	if opts.From != nil {
		from = opts.From.UTC()
	}

	if !from.Before(to) {
		return errors.New("from must be before to")
	}

	points, err := store.ListPointsBetween(ctx, opts.ASIN, from, to)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		a.Logger.Info().Str("asin", opts.ASIN).Msg("no history points found for export window")
		return nil
	}

	records := storage.RecordsFromPoints(points)
	records = timeline.Aggregate(records, granularity)
	records = timeline.FilterRange(records, window, to)
	if len(records) == 0 {
		a.Logger.Info().Str("asin", opts.ASIN).Str("range", string(window)).
			Msg("history exists but none falls inside the requested range")
		return nil
	}

	downsampled := downsampleRecords(records, opts.MaxPoints)
	a.Logger.Info().Int("total", len(records)).Int("exported", len(downsampled)).Msg("exporting records")

	if opts.CSVPath != "" {
		if err := writeRecordsCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeRecordsPNG(opts.PNGPath, opts.ASIN, downsampled); err != nil {
			return err
		}
	}

	return nil
}

// resolveShape parses the requested granularity/range tokens, falling back to
// config defaults when flags are empty.
func (a *App) resolveShape(granularity, window string) (timeline.Granularity, timeline.RangeWindow, error) {
	if granularity == "" {
		granularity = a.Config.Export.DefaultGranularity
	}
	if window == "" {
		window = a.Config.Export.DefaultRange
	}

	g, err := timeline.ParseGranularity(granularity)
	if err != nil {
		return "", "", err
	}
	w, err := timeline.ParseRange(window)
	if err != nil {
		return "", "", err
	}
	return g, w, nil
}

func downsampleRecords(records []timeline.Record, max int) []timeline.Record {
	if max <= 0 || len(records) <= max {
		return records
	}
	// A single-point budget keeps the newest record; the step formula below
	// needs at least two output slots.
	if max == 1 {
		return records[len(records)-1:]
	}

	result := make([]timeline.Record, 0, max)
	step := float64(len(records)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(records) {
			idx = len(records) - 1
		}
		result = append(result, records[idx])
	}
	return result
}

func writeRecordsCSV(path string, records []timeline.Record) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"timestamp", "timestamp_ms", "amazon", "fba", "fbm", "buybox", "sales_rank", "offer_count", "rating", "review_count"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, rec := range records {
		row := []string{
			rec.Time().Format(time.RFC3339),
			strconv.FormatInt(rec.TimestampMs, 10),
			csvCell(rec.Amazon, 2),
			csvCell(rec.FBA, 2),
			csvCell(rec.FBM, 2),
			csvCell(rec.BuyBox, 2),
			csvCell(rec.SalesRank, 0),
			csvCell(rec.OfferCount, 0),
			csvCell(rec.Rating, 1),
			csvCell(rec.ReviewCount, 0),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	return writer.Error()
}

// csvCell renders an optional field; absence stays an empty cell, never zero.
func csvCell(v *float64, places int32) string {
	if v == nil {
		return ""
	}
	return decimal.NewFromFloat(*v).StringFixed(places)
}

func writeRecordsPNG(path, asin string, records []timeline.Record) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(records))
	for i, rec := range records {
		x[i] = rec.Time()
	}

	priceSeries := func(name string, pick func(timeline.Record) *float64) chart.TimeSeries {
		ys := make([]float64, len(records))
		for i, rec := range records {
			if v := pick(rec); v != nil {
				ys[i] = *v
			} else if i > 0 {
				ys[i] = ys[i-1]
			}
		}
		return chart.TimeSeries{Name: name, XValues: x, YValues: ys}
	}

	rank := priceSeries("Sales Rank", func(r timeline.Record) *float64 { return r.SalesRank })
	rank.YAxis = chart.YAxisSecondary

	priceFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Title:  asin,
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Price",
			ValueFormatter: priceFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name: "Sales Rank",
		},
		Series: []chart.Series{
			priceSeries("Amazon", func(r timeline.Record) *float64 { return r.Amazon }),
			priceSeries("FBA", func(r timeline.Record) *float64 { return r.FBA }),
			priceSeries("FBM", func(r timeline.Record) *float64 { return r.FBM }),
			priceSeries("Buy Box", func(r timeline.Record) *float64 { return r.BuyBox }),
			rank,
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	upsertHistoryPointSQL = `INSERT INTO history_points (
        asin,
        observed_at,
        amazon_price,
        fba_price,
        fbm_price,
        buybox_price,
        sales_rank,
        offer_count,
        rating,
        review_count
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
    )
    ON CONFLICT (asin, observed_at) DO UPDATE
    SET
        amazon_price = EXCLUDED.amazon_price,
        fba_price    = EXCLUDED.fba_price,
        fbm_price    = EXCLUDED.fbm_price,
        buybox_price = EXCLUDED.buybox_price,
        sales_rank   = EXCLUDED.sales_rank,
        offer_count  = EXCLUDED.offer_count,
        rating       = EXCLUDED.rating,
        review_count = EXCLUDED.review_count;`

	listPointsBetweenSQL = `SELECT
        asin,
        observed_at,
        amazon_price,
        fba_price,
        fbm_price,
        buybox_price,
        sales_rank,
        offer_count,
        rating,
        review_count,
        created_at
    FROM history_points
    WHERE asin = $1
      AND observed_at >= $2
      AND observed_at < $3
    ORDER BY observed_at;`

	listRecentPointsSQL = `SELECT
        asin,
        observed_at,
        amazon_price,
        fba_price,
        fbm_price,
        buybox_price,
        sales_rank,
        offer_count,
        rating,
        review_count,
        created_at
    FROM history_points
    WHERE asin = $1
    ORDER BY observed_at DESC
    LIMIT $2;`

	latestBuyBoxSQL = `SELECT observed_at, buybox_price
    FROM history_points
    WHERE asin = $1
      AND buybox_price IS NOT NULL
    ORDER BY observed_at DESC
    LIMIT 1;`

	countPointsSQL = `SELECT COUNT(*) FROM history_points WHERE asin = $1;`

	insertRunSQL = `INSERT INTO reconcile_runs (
        asin,
        run_ts,
        candidates,
        seller_resolved,
        offer_matched,
        price_matched,
        accepted,
        merged_records,
        by_seller
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9
    )
    RETURNING id, created_at;`

	listRecentRunsSQL = `SELECT
        id,
        asin,
        run_ts,
        candidates,
        seller_resolved,
        offer_matched,
        price_matched,
        accepted,
        merged_records,
        by_seller,
        created_at
    FROM reconcile_runs
    WHERE asin = $1
    ORDER BY run_ts DESC
    LIMIT $2;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// HistoryStore defines operations for reconciled timeline persistence.
type HistoryStore interface {
	UpsertHistoryPoints(ctx context.Context, points []HistoryPoint) error
	ListPointsBetween(ctx context.Context, asin string, from, to time.Time) ([]HistoryPoint, error)
	ListRecentPoints(ctx context.Context, asin string, limit int) ([]HistoryPoint, error)
	LatestBuyBox(ctx context.Context, asin string) (time.Time, decimal.Decimal, error)
	CountPoints(ctx context.Context, asin string) (int64, error)
}

// RunStore defines operations for reconciliation run auditing.
type RunStore interface {
	InsertRun(ctx context.Context, run ReconcileRun) (ReconcileRun, error)
	ListRecentRuns(ctx context.Context, asin string, limit int) ([]ReconcileRun, error)
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to history points and reconcile runs.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := conn.Exec(ctxUnlock, advisoryUnlockSQL, key); err != nil {
			// unlock best effort; log omitted in storage package
		}
		conn.Release()
	}
	return unlock, true, nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// UpsertHistoryPoints persists or updates a batch of timeline rows.
func (s *Store) UpsertHistoryPoints(ctx context.Context, points []HistoryPoint) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, p := range points {
		batch.Queue(upsertHistoryPointSQL,
			p.ASIN,
			p.ObservedAt,
			decimalArg(p.AmazonPrice),
			decimalArg(p.FBAPrice),
			decimalArg(p.FBMPrice),
			decimalArg(p.BuyBoxPrice),
			int64Arg(p.SalesRank),
			int64Arg(p.OfferCount),
			decimalArg(p.Rating),
			int64Arg(p.ReviewCount),
		)
	}

	results := pool.SendBatch(ctx, batch)
	defer results.Close()

	for range points {
		if _, execErr := results.Exec(); execErr != nil {
			return fmt.Errorf("upsert history point: %w", execErr)
		}
	}
	return nil
}

// ListPointsBetween lists a product's rows within a time window.
func (s *Store) ListPointsBetween(ctx context.Context, asin string, from, to time.Time) ([]HistoryPoint, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listPointsBetweenSQL, asin, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list points between: %w", queryErr)
	}
	defer rows.Close()

	points := make([]HistoryPoint, 0)
	for rows.Next() {
		point, scanErr := scanHistoryPoint(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		points = append(points, point)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return points, nil
}

// ListRecentPoints lists a product's most recent rows ordered by descending time.
func (s *Store) ListRecentPoints(ctx context.Context, asin string, limit int) ([]HistoryPoint, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentPointsSQL, asin, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent points: %w", queryErr)
	}
	defer rows.Close()

	points := make([]HistoryPoint, 0, limit)
	for rows.Next() {
		point, scanErr := scanHistoryPoint(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		points = append(points, point)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return points, nil
}

// LatestBuyBox returns the newest persisted Buy Box observation for a product.
// pgx.ErrNoRows signals that no Buy Box price was ever stored.
func (s *Store) LatestBuyBox(ctx context.Context, asin string) (time.Time, decimal.Decimal, error) {
	pool, err := s.getPool()
	if err != nil {
		return time.Time{}, decimal.Decimal{}, err
	}

	var (
		observed time.Time
		priceStr string
	)
	if scanErr := pool.QueryRow(ctx, latestBuyBoxSQL, asin).Scan(&observed, &priceStr); scanErr != nil {
		return time.Time{}, decimal.Decimal{}, scanErr
	}

	price, convErr := decimal.NewFromString(priceStr)
	if convErr != nil {
		return time.Time{}, decimal.Decimal{}, fmt.Errorf("parse buybox price: %w", convErr)
	}
	return observed, price, nil
}

// CountPoints counts stored rows for a product.
func (s *Store) CountPoints(ctx context.Context, asin string) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countPointsSQL, asin).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count points: %w", scanErr)
	}
	return count, nil
}

// InsertRun persists a reconciliation run audit row.
func (s *Store) InsertRun(ctx context.Context, run ReconcileRun) (ReconcileRun, error) {
	pool, err := s.getPool()
	if err != nil {
		return ReconcileRun{}, err
	}

	bySeller := run.BySeller
	if bySeller == nil {
		bySeller = json.RawMessage("{}")
	}

	row := pool.QueryRow(ctx, insertRunSQL,
		run.ASIN,
		run.RunTS,
		run.Candidates,
		run.SellerResolved,
		run.OfferMatched,
		run.PriceMatched,
		run.Accepted,
		run.MergedRecords,
		[]byte(bySeller),
	)

	rec := run
	if scanErr := row.Scan(&rec.ID, &rec.CreatedAt); scanErr != nil {
		return ReconcileRun{}, fmt.Errorf("insert reconcile run: %w", scanErr)
	}
	return rec, nil
}

// ListRecentRuns lists a product's most recent reconciliation runs.
func (s *Store) ListRecentRuns(ctx context.Context, asin string, limit int) ([]ReconcileRun, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentRunsSQL, asin, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent runs: %w", queryErr)
	}
	defer rows.Close()

	runs := make([]ReconcileRun, 0, limit)
	for rows.Next() {
		var rec ReconcileRun
		var bySeller []byte
		if err := rows.Scan(
			&rec.ID,
			&rec.ASIN,
			&rec.RunTS,
			&rec.Candidates,
			&rec.SellerResolved,
			&rec.OfferMatched,
			&rec.PriceMatched,
			&rec.Accepted,
			&rec.MergedRecords,
			&bySeller,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		rec.BySeller = json.RawMessage(bySeller)
		runs = append(runs, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return runs, nil
}

func scanHistoryPoint(rows pgx.Rows) (HistoryPoint, error) {
	var (
		point     HistoryPoint
		amazon    sql.NullString
		fba       sql.NullString
		fbm       sql.NullString
		buyBox    sql.NullString
		salesRank sql.NullInt64
		offers    sql.NullInt64
		rating    sql.NullString
		reviews   sql.NullInt64
	)

	if err := rows.Scan(
		&point.ASIN,
		&point.ObservedAt,
		&amazon,
		&fba,
		&fbm,
		&buyBox,
		&salesRank,
		&offers,
		&rating,
		&reviews,
		&point.CreatedAt,
	); err != nil {
		return HistoryPoint{}, err
	}

	var err error
	if point.AmazonPrice, err = decimalPtr(amazon, "amazon price"); err != nil {
		return HistoryPoint{}, err
	}
	if point.FBAPrice, err = decimalPtr(fba, "fba price"); err != nil {
		return HistoryPoint{}, err
	}
	if point.FBMPrice, err = decimalPtr(fbm, "fbm price"); err != nil {
		return HistoryPoint{}, err
	}
	if point.BuyBoxPrice, err = decimalPtr(buyBox, "buybox price"); err != nil {
		return HistoryPoint{}, err
	}
	if point.Rating, err = decimalPtr(rating, "rating"); err != nil {
		return HistoryPoint{}, err
	}

	point.SalesRank = int64Ptr(salesRank)
	point.OfferCount = int64Ptr(offers)
	point.ReviewCount = int64Ptr(reviews)

	return point, nil
}

func decimalPtr(v sql.NullString, field string) (*decimal.Decimal, error) {
	if !v.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", field, err)
	}
	return &d, nil
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	value := v.Int64
	return &value
}

func decimalArg(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func int64Arg(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

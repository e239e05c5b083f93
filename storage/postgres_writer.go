package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"bank-review-analytics/models"
	"bank-review-analytics/utils"
)

// ErrBankNotFound reports a fact record referencing a bank with no row in
// the dimension table. Per-record: the batch continues, the record is
// counted in WriteResult.EntityErrors.
var ErrBankNotFound = errors.New("bank not found in dimension table")

// DefaultBatchSize is the number of fact rows committed per transaction.
const DefaultBatchSize = 100

// uniqueViolation is the Postgres error class for duplicate-key conflicts.
const uniqueViolation = "23505"

// PostgresWriter persists banks and enriched reviews to PostgreSQL in a
// star schema: a banks dimension table and a reviews fact table. Fact
// inserts are idempotent — a uniqueness constraint on
// (bank_id, md5(review_text), review_date) turns re-runs over the same
// source data into silent skips.
type PostgresWriter struct {
	db        *sql.DB
	logger    *utils.Logger
	batchSize int
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema
// migrations, and returns a ready-to-use writer.
func NewPostgresWriter(dsn string, batchSize int, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	pw := &PostgresWriter{db: db, logger: logger, batchSize: batchSize}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS banks (
			bank_id    SERIAL PRIMARY KEY,
			bank_name  VARCHAR(100) NOT NULL UNIQUE,
			app_name   VARCHAR(200) NOT NULL,
			created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS reviews (
			review_id       SERIAL PRIMARY KEY,
			bank_id         INTEGER NOT NULL REFERENCES banks(bank_id) ON DELETE CASCADE,
			review_text     TEXT NOT NULL,
			rating          INTEGER CHECK (rating >= 1 AND rating <= 5),
			review_date     DATE NOT NULL,
			sentiment_label VARCHAR(20),
			sentiment_score DECIMAL(5,4),
			theme           VARCHAR(100),
			source          VARCHAR(50) DEFAULT 'Google Play',
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE UNIQUE INDEX IF NOT EXISTS uq_reviews_dedup
			ON reviews(bank_id, md5(review_text), review_date);

		CREATE INDEX IF NOT EXISTS idx_reviews_bank_id   ON reviews(bank_id);
		CREATE INDEX IF NOT EXISTS idx_reviews_rating    ON reviews(rating);
		CREATE INDEX IF NOT EXISTS idx_reviews_sentiment ON reviews(sentiment_label);
		CREATE INDEX IF NOT EXISTS idx_reviews_date      ON reviews(review_date);
		CREATE INDEX IF NOT EXISTS idx_reviews_theme     ON reviews(theme);
	`)
	return err
}

// SeedBanks inserts any missing dimension rows by unique name. Existing
// rows are never rewritten: a name collision is a no-op, so bank identity
// is stable across runs.
func (pw *PostgresWriter) SeedBanks(banks []*models.Bank) error {
	for _, b := range banks {
		_, err := pw.db.Exec(`
			INSERT INTO banks (bank_name, app_name)
			VALUES ($1, $2)
			ON CONFLICT (bank_name) DO NOTHING
		`, b.Name, b.AppName)
		if err != nil {
			return fmt.Errorf("postgres: seed bank %q: %w", b.Name, err)
		}
	}

	ids, err := pw.bankIDs()
	if err != nil {
		return err
	}
	for _, b := range banks {
		b.ID = ids[b.Name]
	}

	pw.logger.Info("[postgres] Dimension table ready — %d banks", len(ids))
	return nil
}

// bankIDs reads the name → surrogate-key mapping from the dimension table.
func (pw *PostgresWriter) bankIDs() (map[string]int64, error) {
	rows, err := pw.db.Query(`SELECT bank_id, bank_name FROM banks`)
	if err != nil {
		return nil, fmt.Errorf("postgres: load bank ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]int64)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("postgres: scan bank row: %w", err)
		}
		ids[name] = id
	}
	return ids, rows.Err()
}

// Write persists enriched reviews in fixed-size batches, one transaction
// per batch — a batch is committed whole or not at all. Records whose bank
// has no dimension row are counted as entity errors and skipped; duplicate
// rows are counted as skips. Connection and transaction errors propagate
// and halt the run.
func (pw *PostgresWriter) Write(reviews []*models.Review) (*WriteResult, error) {
	result := &WriteResult{}
	if len(reviews) == 0 {
		return result, nil
	}

	ids, err := pw.bankIDs()
	if err != nil {
		return result, err
	}

	resolved := make([]*models.Review, 0, len(reviews))
	for _, r := range reviews {
		if _, ok := ids[r.Bank]; !ok {
			pw.logger.Warn("[postgres] %v: %q — record skipped", ErrBankNotFound, r.Bank)
			result.EntityErrors++
			continue
		}
		resolved = append(resolved, r)
	}

	for start := 0; start < len(resolved); start += pw.batchSize {
		end := start + pw.batchSize
		if end > len(resolved) {
			end = len(resolved)
		}

		inserted, err := pw.insertBatch(resolved[start:end], ids)
		if err != nil {
			return result, fmt.Errorf("postgres: batch %d-%d: %w", start, end, err)
		}
		result.Merge(&WriteResult{
			Inserted: inserted,
			Skipped:  (end - start) - inserted,
		})
	}

	pw.logger.Info("[postgres] Write complete — inserted %d, skipped %d duplicates, %d entity errors",
		result.Inserted, result.Skipped, result.EntityErrors)
	return result, nil
}

// insertBatch writes one batch inside a transaction and returns the number
// of rows actually inserted (conflicts with the dedup index are silently
// skipped by the store).
func (pw *PostgresWriter) insertBatch(batch []*models.Review, ids map[string]int64) (int, error) {
	tx, err := pw.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}

	query, args := buildInsert(batch, ids)
	res, err := tx.Exec(query, args...)
	if err != nil {
		_ = tx.Rollback()
		// 23505 outside the dedup target would surface here. The rolled-back
		// batch still holds non-conflicting rows, so fall back to inserting
		// it row by row rather than discarding it.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			pw.logger.Warn("[postgres] Batch hit uniqueness conflict outside ON CONFLICT path: %v — retrying row by row", err)
			return pw.insertRows(batch, ids)
		}
		return 0, fmt.Errorf("exec: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return int(inserted), nil
}

// insertRows retries a batch one row at a time after its multi-row
// statement was rolled back by a uniqueness conflict outside the dedup
// target. Rows run in autocommit so one conflicting row cannot poison
// the rest; batch atomicity is already forfeited on this path.
func (pw *PostgresWriter) insertRows(batch []*models.Review, ids map[string]int64) (int, error) {
	inserted := 0
	for _, r := range batch {
		query, args := buildInsert([]*models.Review{r}, ids)
		res, err := pw.db.Exec(query, args...)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
				pw.logger.Warn("[postgres] Row-level uniqueness conflict — row skipped: %v", err)
				continue
			}
			return inserted, fmt.Errorf("row exec: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("rows affected: %w", err)
		}
		inserted += int(n)
	}
	return inserted, nil
}

// buildInsert renders the multi-row INSERT for one batch.
func buildInsert(batch []*models.Review, ids map[string]int64) (string, []interface{}) {
	const cols = 8
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, r := range batch {
		base := idx * cols
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))

		var label, theme interface{}
		var score interface{}
		if r.SentimentLabel != nil {
			label = *r.SentimentLabel
		}
		if r.SentimentScore != nil {
			score = *r.SentimentScore
		}
		if r.Theme != "" {
			theme = r.Theme
		}

		valueArgs = append(valueArgs,
			ids[r.Bank], r.Text, r.Rating, r.Date.Format("2006-01-02"),
			label, score, theme, r.Source)
	}

	query := fmt.Sprintf(`
		INSERT INTO reviews (
			bank_id, review_text, rating, review_date,
			sentiment_label, sentiment_score, theme, source
		)
		VALUES %s
		ON CONFLICT (bank_id, md5(review_text), review_date) DO NOTHING
	`, strings.Join(valueStrings, ","))

	return query, valueArgs
}

// Close releases the database connection.
func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll retrieves every stored review — feeds the insight aggregator.
func (pw *PostgresWriter) FetchAll() ([]*models.Review, error) {
	rows, err := pw.db.Query(`
		SELECT r.review_id, b.bank_name, r.review_text, r.rating, r.review_date,
		       r.sentiment_label, r.sentiment_score, r.theme, r.source, r.created_at
		FROM reviews r
		JOIN banks b ON b.bank_id = r.bank_id
		ORDER BY r.review_id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var reviews []*models.Review
	for rows.Next() {
		r := &models.Review{}
		var label, theme sql.NullString
		var score sql.NullFloat64
		if err := rows.Scan(
			&r.ID, &r.Bank, &r.Text, &r.Rating, &r.Date,
			&label, &score, &theme, &r.Source, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan review row: %w", err)
		}
		if label.Valid && score.Valid {
			l, s := label.String, score.Float64
			r.SentimentLabel = &l
			r.SentimentScore = &s
		}
		if theme.Valid {
			r.Theme = theme.String
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// CountByBank returns the number of stored facts per bank, including banks
// with zero reviews.
func (pw *PostgresWriter) CountByBank() (map[string]int, error) {
	rows, err := pw.db.Query(`
		SELECT b.bank_name, COUNT(r.review_id)
		FROM banks b
		LEFT JOIN reviews r ON r.bank_id = b.bank_id
		GROUP BY b.bank_name
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: count by bank: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("postgres: scan count row: %w", err)
		}
		counts[name] = count
	}
	return counts, rows.Err()
}

// AvgRatingByBank returns the average stored rating per bank.
func (pw *PostgresWriter) AvgRatingByBank() (map[string]float64, error) {
	rows, err := pw.db.Query(`
		SELECT b.bank_name, AVG(r.rating)
		FROM banks b
		JOIN reviews r ON r.bank_id = b.bank_id
		WHERE r.rating IS NOT NULL
		GROUP BY b.bank_name
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: avg rating by bank: %w", err)
	}
	defer rows.Close()

	avgs := make(map[string]float64)
	for rows.Next() {
		var name string
		var avg float64
		if err := rows.Scan(&name, &avg); err != nil {
			return nil, fmt.Errorf("postgres: scan avg row: %w", err)
		}
		avgs[name] = avg
	}
	return avgs, rows.Err()
}

// SentimentDistribution returns stored fact counts per sentiment label.
func (pw *PostgresWriter) SentimentDistribution() (map[string]int, error) {
	return pw.distribution("sentiment_label")
}

// ThemeDistribution returns stored fact counts per theme.
func (pw *PostgresWriter) ThemeDistribution() (map[string]int, error) {
	return pw.distribution("theme")
}

func (pw *PostgresWriter) distribution(column string) (map[string]int, error) {
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*)
		FROM reviews
		WHERE %s IS NOT NULL
		GROUP BY %s
	`, column, column, column)

	rows, err := pw.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("postgres: %s distribution: %w", column, err)
	}
	defer rows.Close()

	dist := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("postgres: scan distribution row: %w", err)
		}
		dist[key] = count
	}
	return dist, rows.Err()
}

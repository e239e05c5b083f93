package storage

import (
	"strings"
	"testing"
	"time"

	"bank-review-analytics/models"
)

func TestBuildInsertArgs(t *testing.T) {
	label := models.SentimentPositive
	score := 0.9123
	ids := map[string]int64{"Bank of Abyssinia": 7}

	batch := []*models.Review{
		{
			Bank:           "Bank of Abyssinia",
			Text:           "fast and simple",
			Rating:         5,
			Date:           time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC),
			Source:         models.DefaultSource,
			SentimentLabel: &label,
			SentimentScore: &score,
			Theme:          "Transaction Performance",
		},
		{
			Bank:   "Bank of Abyssinia",
			Text:   "unscored record",
			Rating: 3,
			Date:   time.Date(2025, 11, 4, 0, 0, 0, 0, time.UTC),
			Source: models.DefaultSource,
		},
	}

	query, args := buildInsert(batch, ids)

	if !strings.Contains(query, "ON CONFLICT (bank_id, md5(review_text), review_date) DO NOTHING") {
		t.Error("insert must target the dedup uniqueness constraint")
	}
	if got := len(args); got != 16 {
		t.Fatalf("args: got %d, want 16", got)
	}
	if args[0] != int64(7) {
		t.Errorf("bank_id arg: got %v, want 7", args[0])
	}
	if args[3] != "2025-11-03" {
		t.Errorf("date arg: got %v, want 2025-11-03", args[3])
	}
	if args[4] != models.SentimentPositive || args[5] != 0.9123 {
		t.Errorf("sentiment args: got %v %v", args[4], args[5])
	}
	// Unset enrichment maps to SQL NULL, not empty strings.
	if args[12] != nil || args[13] != nil || args[14] != nil {
		t.Errorf("missing enrichment must bind NULL: got %v %v %v", args[12], args[13], args[14])
	}
}

// The row-by-row fallback reuses buildInsert with one-row slices; the
// statement must stay conflict-tolerant so a lone duplicate is a no-op,
// not an error.
func TestBuildInsertSingleRow(t *testing.T) {
	ids := map[string]int64{"Dashen Bank": 3}
	row := &models.Review{
		Bank:   "Dashen Bank",
		Text:   "keeps logging me out",
		Rating: 2,
		Date:   time.Date(2025, 11, 5, 0, 0, 0, 0, time.UTC),
		Source: models.DefaultSource,
	}

	query, args := buildInsert([]*models.Review{row}, ids)

	if got := len(args); got != 8 {
		t.Fatalf("args: got %d, want 8", got)
	}
	if !strings.Contains(query, "($1,$2,$3,$4,$5,$6,$7,$8)") {
		t.Errorf("single-row placeholders malformed:\n%s", query)
	}
	if !strings.Contains(query, "ON CONFLICT (bank_id, md5(review_text), review_date) DO NOTHING") {
		t.Error("single-row insert must keep the dedup conflict target")
	}
}

func TestWriteResultMerge(t *testing.T) {
	total := &WriteResult{}
	total.Merge(&WriteResult{Inserted: 3, Skipped: 1})
	total.Merge(&WriteResult{Inserted: 2, EntityErrors: 4})

	if total.Inserted != 5 || total.Skipped != 1 || total.EntityErrors != 4 {
		t.Errorf("merge: got %+v", total)
	}
}

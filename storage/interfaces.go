package storage

import "bank-review-analytics/models"

// ReviewWriter is the durable write path any storage backend must satisfy.
type ReviewWriter interface {
	SeedBanks(banks []*models.Bank) error
	Write(reviews []*models.Review) (*WriteResult, error)
	Close() error
}

// RawReviewWriter is the interface for persisting unprocessed source data.
type RawReviewWriter interface {
	WriteRaw(reviews []*models.RawReview) error
	Close() error
}

// WriteResult reports the outcome of a persistence run. Skipped counts the
// benign duplicate-suppression path; EntityErrors counts records whose
// bank could not be resolved against the dimension table.
type WriteResult struct {
	Inserted     int
	Skipped      int
	EntityErrors int
}

// Merge folds another result into this one.
func (w *WriteResult) Merge(other *WriteResult) {
	w.Inserted += other.Inserted
	w.Skipped += other.Skipped
	w.EntityErrors += other.EntityErrors
}

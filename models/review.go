package models

import "time"

// DefaultSource is the provenance tag applied when the review source
// doesn't report one.
const DefaultSource = "Google Play"

// Sentiment labels produced by the labeler (or passed through from the
// external scoring service).
const (
	SentimentPositive = "POSITIVE"
	SentimentNegative = "NEGATIVE"
	SentimentNeutral  = "NEUTRAL"
)

// Bank is one reviewed banking app — a row in the dimension table.
// Seeded once from the rules file; immutable afterwards.
type Bank struct {
	ID        int64
	Name      string // unique, never empty
	AppName   string // display name of the mobile app
	AppID     string // Play Store package id, used only by the scraper
	CreatedAt time.Time
}

// RawReview holds one unprocessed review tuple as the source yielded it.
// Everything is a string until the Normalizer has validated it.
type RawReview struct {
	Bank      string
	Text      string
	Rating    string
	Date      string
	Source    string
	ScrapedAt time.Time
}

// Review is a normalized review record, optionally enriched with a
// sentiment label/score and a theme. SentimentLabel and SentimentScore
// are either both set or both nil — nil means the scoring stage did not
// run or was unavailable for this record, which is distinct from a
// neutral result. Theme is empty until classification runs and never
// empty afterwards ("Other" is the catch-all).
type Review struct {
	ID             int64
	Bank           string
	Text           string
	Rating         int
	Date           time.Time // calendar date, midnight UTC
	Source         string
	SentimentLabel *string
	SentimentScore *float64
	Theme          string
	CreatedAt      time.Time
}

// HasSentiment reports whether the scoring stage produced a result for
// this record.
func (r *Review) HasSentiment() bool {
	return r.SentimentLabel != nil && r.SentimentScore != nil
}

// Rejection reasons counted by the Normalizer.
const (
	ReasonEmptyText     = "empty_text"
	ReasonInvalidRating = "invalid_rating"
	ReasonBadDate       = "unparseable_date"
	ReasonDuplicate     = "duplicate"
	ReasonMissingBank   = "missing_bank"
)

// RejectionReport counts records dropped during normalization, by reason.
type RejectionReport struct {
	Counts map[string]int
}

// NewRejectionReport returns an empty report.
func NewRejectionReport() *RejectionReport {
	return &RejectionReport{Counts: make(map[string]int)}
}

// Add increments the count for the given reason.
func (r *RejectionReport) Add(reason string) {
	r.Counts[reason]++
}

// Total returns the number of dropped records across all reasons.
func (r *RejectionReport) Total() int {
	n := 0
	for _, c := range r.Counts {
		n += c
	}
	return n
}

package services

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"bank-review-analytics/models"
	"bank-review-analytics/utils"
)

// dateLayouts are the input date formats the source is known to produce.
// Whatever matches is canonicalized to a midnight-UTC calendar date.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"02-01-2006",
}

// Normalizer validates raw review tuples and deduplicates them into
// canonical records ready for enrichment.
type Normalizer struct {
	logger *utils.Logger
}

// NewNormalizer creates a Normalizer with the given logger.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize processes raw reviews in encounter order and returns the
// surviving canonical records plus a report counting every drop by reason.
// Duplicates are detected on (bank, lowercased text, date); the first
// occurrence is kept.
func (n *Normalizer) Normalize(raw []*models.RawReview) ([]*models.Review, *models.RejectionReport) {
	report := models.NewRejectionReport()
	seen := make(map[string]struct{})
	result := make([]*models.Review, 0, len(raw))

	for _, r := range raw {
		bank := strings.TrimSpace(r.Bank)
		if bank == "" {
			report.Add(models.ReasonMissingBank)
			continue
		}

		text := collapseWhitespace(r.Text)
		if text == "" {
			report.Add(models.ReasonEmptyText)
			continue
		}

		rating, ok := parseRating(r.Rating)
		if !ok {
			n.logger.Debug("[normalizer] Invalid rating %q for bank %s", r.Rating, bank)
			report.Add(models.ReasonInvalidRating)
			continue
		}

		date, ok := parseDate(r.Date)
		if !ok {
			n.logger.Debug("[normalizer] Unparseable date %q for bank %s", r.Date, bank)
			report.Add(models.ReasonBadDate)
			continue
		}

		key := dedupKey(bank, text, date)
		if _, dup := seen[key]; dup {
			report.Add(models.ReasonDuplicate)
			continue
		}
		seen[key] = struct{}{}

		source := strings.TrimSpace(r.Source)
		if source == "" {
			source = models.DefaultSource
		}

		result = append(result, &models.Review{
			Bank:   bank,
			Text:   text,
			Rating: rating,
			Date:   date,
			Source: source,
		})
	}

	n.logger.Info("[normalizer] Normalized %d → %d reviews (dropped %d)",
		len(raw), len(result), report.Total())
	return result, report
}

// dedupKey builds the composite duplicate-detection key.
func dedupKey(bank, text string, date time.Time) string {
	return bank + "\x00" + strings.ToLower(text) + "\x00" + date.Format("2006-01-02")
}

// parseRating accepts integer ratings in the 1–5 range. Float-formatted
// whole numbers ("5.0") are tolerated since some exports render them that way.
func parseRating(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}

	val, err := strconv.Atoi(raw)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, false
		}
		val = int(f)
	}

	if val < 1 || val > 5 {
		return 0, false
	}
	return val, true
}

// parseDate tries the known input layouts and truncates the result to a
// calendar date in UTC.
func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// collapseWhitespace strips leading/trailing whitespace and collapses
// internal whitespace runs to single spaces.
func collapseWhitespace(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}

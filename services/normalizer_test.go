package services

import (
	"testing"
	"time"

	"bank-review-analytics/models"
	"bank-review-analytics/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLogger() }

func rawReview(bank, text, rating, date string) *models.RawReview {
	return &models.RawReview{Bank: bank, Text: text, Rating: rating, Date: date}
}

func TestNormalizerDropsEmptyText(t *testing.T) {
	n := NewNormalizer(newTestLogger())
	raw := []*models.RawReview{
		rawReview("CBE", "", "3", "2025-11-03"),
		rawReview("CBE", "   \t ", "3", "2025-11-03"),
		rawReview("CBE", "works fine", "3", "2025-11-03"),
	}

	got, report := n.Normalize(raw)
	if len(got) != 1 {
		t.Fatalf("expected 1 surviving review, got %d", len(got))
	}
	if report.Counts[models.ReasonEmptyText] != 2 {
		t.Errorf("empty_text count: got %d, want 2", report.Counts[models.ReasonEmptyText])
	}
}

func TestNormalizerRatingBounds(t *testing.T) {
	n := NewNormalizer(newTestLogger())

	tests := []struct {
		rating string
		keep   bool
	}{
		{"1", true},
		{"5", true},
		{"5.0", true},
		{"0", false},
		{"6", false},
		{"-1", false},
		{"4.5", false},
		{"five", false},
		{"", false},
	}

	for _, tt := range tests {
		got, _ := n.Normalize([]*models.RawReview{
			rawReview("BOA", "some text", tt.rating, "2025-11-03"),
		})
		kept := len(got) == 1
		if kept != tt.keep {
			t.Errorf("rating %q: kept=%v, want %v", tt.rating, kept, tt.keep)
		}
	}
}

func TestNormalizerDateFormats(t *testing.T) {
	n := NewNormalizer(newTestLogger())
	want := time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		date string
		keep bool
	}{
		{"2025-11-03", true},
		{"2025-11-03T14:22:01Z", true},
		{"2025/11/03", true},
		{"Nov 3, 2025", true},
		{"03-11-2025", true},
		{"not a date", false},
		{"", false},
	}

	for _, tt := range tests {
		got, _ := n.Normalize([]*models.RawReview{
			rawReview("Dashen", "text "+tt.date, "4", tt.date),
		})
		if !tt.keep {
			if len(got) != 0 {
				t.Errorf("date %q: expected drop", tt.date)
			}
			continue
		}
		if len(got) != 1 {
			t.Errorf("date %q: expected keep", tt.date)
			continue
		}
		if !got[0].Date.Equal(want) {
			t.Errorf("date %q: canonicalized to %v, want %v", tt.date, got[0].Date, want)
		}
	}
}

func TestNormalizerDeduplicates(t *testing.T) {
	n := NewNormalizer(newTestLogger())
	raw := []*models.RawReview{
		rawReview("CBE", "Great app", "5", "2025-11-03"),
		rawReview("CBE", "great APP", "1", "2025-11-03"), // case-insensitive dup, first wins
		rawReview("BOA", "Great app", "5", "2025-11-03"), // different bank, kept
		rawReview("CBE", "Great app", "5", "2025-11-04"), // different date, kept
	}

	got, report := n.Normalize(raw)
	if len(got) != 3 {
		t.Fatalf("expected 3 surviving reviews, got %d", len(got))
	}
	if report.Counts[models.ReasonDuplicate] != 1 {
		t.Errorf("duplicate count: got %d, want 1", report.Counts[models.ReasonDuplicate])
	}
	if got[0].Rating != 5 {
		t.Errorf("first occurrence should win: got rating %d, want 5", got[0].Rating)
	}
}

func TestNormalizerCollapsesWhitespaceAndDefaultsSource(t *testing.T) {
	n := NewNormalizer(newTestLogger())
	got, _ := n.Normalize([]*models.RawReview{
		rawReview("CBE", "  fast \n\t and   simple  ", "5", "2025-11-03"),
	})

	if len(got) != 1 {
		t.Fatal("expected 1 review")
	}
	if got[0].Text != "fast and simple" {
		t.Errorf("text: got %q, want %q", got[0].Text, "fast and simple")
	}
	if got[0].Source != models.DefaultSource {
		t.Errorf("source: got %q, want default %q", got[0].Source, models.DefaultSource)
	}
}

func TestNormalizerReportTotals(t *testing.T) {
	n := NewNormalizer(newTestLogger())
	raw := []*models.RawReview{
		rawReview("", "orphan", "3", "2025-11-03"),
		rawReview("CBE", "", "3", "2025-11-03"),
		rawReview("CBE", "bad rating", "9", "2025-11-03"),
		rawReview("CBE", "bad date", "3", "soon"),
		rawReview("CBE", "ok", "3", "2025-11-03"),
		rawReview("CBE", "ok", "3", "2025-11-03"),
	}

	got, report := n.Normalize(raw)
	if len(got) != 1 {
		t.Errorf("survivors: got %d, want 1", len(got))
	}
	if report.Total() != 5 {
		t.Errorf("report total: got %d, want 5", report.Total())
	}
}

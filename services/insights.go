package services

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"bank-review-analytics/models"
	"bank-review-analytics/utils"
)

// DefaultMinShare is the minimum fraction of the qualifying subset a theme
// must reach to count as a driver or pain point. The bar is deliberately
// low: thematic signal is sparse and diffuse across free text.
const DefaultMinShare = 0.02

// InsightAggregator derives per-bank satisfaction drivers and pain points
// from the enriched review set. It is read-only: the same input always
// produces the same report.
type InsightAggregator struct {
	logger     *utils.Logger
	minShare   float64
	themeOrder map[string]int
}

// NewInsightAggregator creates an aggregator. themeOrder is the theme
// enumeration in declared priority order; it makes ranking ties and report
// ordering deterministic across runs.
func NewInsightAggregator(themeOrder []string, minShare float64, logger *utils.Logger) *InsightAggregator {
	order := make(map[string]int, len(themeOrder))
	for i, name := range themeOrder {
		order[name] = i
	}
	return &InsightAggregator{logger: logger, minShare: minShare, themeOrder: order}
}

// Aggregate builds the full cross-bank insight report, one section per
// bank, banks ordered by name.
func (a *InsightAggregator) Aggregate(reviews []*models.Review) *models.InsightReport {
	report := &models.InsightReport{TotalReviews: len(reviews)}

	byBank := make(map[string][]*models.Review)
	for _, r := range reviews {
		byBank[r.Bank] = append(byBank[r.Bank], r)
	}

	names := make([]string, 0, len(byBank))
	for name := range byBank {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		bankReviews := byBank[name]
		report.Banks = append(report.Banks, &models.BankInsights{
			Bank:       name,
			Metrics:    a.metrics(bankReviews),
			Drivers:    a.themeInsights(positiveQualifying(bankReviews), models.RoleDriver),
			PainPoints: a.themeInsights(negativeQualifying(bankReviews), models.RolePainPoint),
		})
	}

	a.logger.Info("[insights] Aggregated %d reviews across %d banks", len(reviews), len(names))
	return report
}

// positiveQualifying selects the reviews that count toward drivers:
// rated 4+ or labeled POSITIVE.
func positiveQualifying(reviews []*models.Review) []*models.Review {
	var out []*models.Review
	for _, r := range reviews {
		if r.Rating >= 4 || hasLabel(r, models.SentimentPositive) {
			out = append(out, r)
		}
	}
	return out
}

// negativeQualifying selects the reviews that count toward pain points:
// rated 2 or below, or labeled NEGATIVE.
func negativeQualifying(reviews []*models.Review) []*models.Review {
	var out []*models.Review
	for _, r := range reviews {
		if r.Rating <= 2 || hasLabel(r, models.SentimentNegative) {
			out = append(out, r)
		}
	}
	return out
}

func hasLabel(r *models.Review, label string) bool {
	return r.SentimentLabel != nil && *r.SentimentLabel == label
}

// themeInsights computes the per-theme share of the qualifying subset,
// keeps themes at or above the minimum share, and ranks them descending
// by fraction (ties resolved by theme declaration order). Each insight
// carries one representative quote: the qualifying review with the
// longest text, earliest date on a tie.
func (a *InsightAggregator) themeInsights(qualifying []*models.Review, role string) []*models.ThemeInsight {
	if len(qualifying) == 0 {
		return nil
	}

	byTheme := make(map[string][]*models.Review)
	for _, r := range qualifying {
		byTheme[r.Theme] = append(byTheme[r.Theme], r)
	}

	var insights []*models.ThemeInsight
	for name, themeReviews := range byTheme {
		fraction := float64(len(themeReviews)) / float64(len(qualifying))
		if fraction < a.minShare {
			continue
		}

		var ratingSum int
		for _, r := range themeReviews {
			ratingSum += r.Rating
		}

		insights = append(insights, &models.ThemeInsight{
			Theme:     name,
			Role:      role,
			Count:     len(themeReviews),
			Fraction:  fraction,
			AvgRating: float64(ratingSum) / float64(len(themeReviews)),
			Quote:     representativeQuote(themeReviews),
		})
	}

	sort.Slice(insights, func(i, j int) bool {
		if insights[i].Fraction != insights[j].Fraction {
			return insights[i].Fraction > insights[j].Fraction
		}
		return a.themeOrder[insights[i].Theme] < a.themeOrder[insights[j].Theme]
	})
	return insights
}

// representativeQuote picks the longest review text, measured in runes so
// multi-byte scripts don't skew selection; the earliest posted date wins
// a length tie.
func representativeQuote(reviews []*models.Review) string {
	best := reviews[0]
	bestLen := utf8.RuneCountInString(best.Text)

	for _, r := range reviews[1:] {
		l := utf8.RuneCountInString(r.Text)
		if l > bestLen || (l == bestLen && r.Date.Before(best.Date)) {
			best = r
			bestLen = l
		}
	}
	return best.Text
}

// metrics computes the headline numbers for one bank's review set.
func (a *InsightAggregator) metrics(reviews []*models.Review) models.BankMetrics {
	m := models.BankMetrics{
		TotalReviews:       len(reviews),
		RatingDistribution: make(map[int]int),
	}
	if len(reviews) == 0 {
		return m
	}

	var ratingSum int
	var scoreSum float64
	var scored, positive, negative int
	for _, r := range reviews {
		ratingSum += r.Rating
		m.RatingDistribution[r.Rating]++
		if r.SentimentScore != nil {
			scoreSum += *r.SentimentScore
			scored++
		}
		if hasLabel(r, models.SentimentPositive) {
			positive++
		}
		if hasLabel(r, models.SentimentNegative) {
			negative++
		}
	}

	m.AvgRating = float64(ratingSum) / float64(len(reviews))
	m.PositivePct = 100 * float64(positive) / float64(len(reviews))
	m.NegativePct = 100 * float64(negative) / float64(len(reviews))
	if scored > 0 {
		m.AvgSentimentScore = scoreSum / float64(scored)
	}
	return m
}

// Print renders the report to the terminal.
func (a *InsightAggregator) Print(report *models.InsightReport) {
	sep := strings.Repeat("═", 62)
	thin := strings.Repeat("─", 62)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  📊 BANK APP REVIEW INSIGHTS\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)
	fmt.Printf("  Total reviews analyzed : \033[1m%d\033[0m\n", report.TotalReviews)

	for _, b := range report.Banks {
		fmt.Printf("\n\033[1;33m  %s\033[0m\n", b.Bank)
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  Reviews            : \033[1m%d\033[0m\n", b.Metrics.TotalReviews)
		fmt.Printf("  Average rating     : \033[1m%.2f\033[0m\n", b.Metrics.AvgRating)
		fmt.Printf("  Positive sentiment : \033[1;32m%.1f%%\033[0m\n", b.Metrics.PositivePct)
		fmt.Printf("  Negative sentiment : \033[1;31m%.1f%%\033[0m\n", b.Metrics.NegativePct)

		fmt.Printf("\n  Satisfaction drivers\n")
		if len(b.Drivers) == 0 {
			fmt.Printf("    (none above minimum share)\n")
		}
		for i, d := range b.Drivers {
			fmt.Printf("    \033[1m%d.\033[0m %-32s \033[1;32m%5.1f%%\033[0m (%d mentions)\n",
				i+1, d.Theme, d.Fraction*100, d.Count)
			fmt.Printf("       \"%s\"\n", truncate(d.Quote, 70))
		}

		fmt.Printf("\n  Pain points\n")
		if len(b.PainPoints) == 0 {
			fmt.Printf("    (none above minimum share)\n")
		}
		for i, p := range b.PainPoints {
			fmt.Printf("    \033[1m%d.\033[0m %-32s \033[1;31m%5.1f%%\033[0m (%d mentions)\n",
				i+1, p.Theme, p.Fraction*100, p.Count)
			fmt.Printf("       \"%s\"\n", truncate(p.Quote, 70))
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-3]) + "..."
}

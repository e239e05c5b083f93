package storage

import (
	"fmt"
	"sort"
	"strings"
)

// Verification snapshots the stored fact set after a persistence run: rows
// per bank, average rating per bank, and the sentiment/theme distributions.
// It is the integrity check an operator would otherwise run by hand.
type Verification struct {
	Counts     map[string]int
	AvgRatings map[string]float64
	Sentiments map[string]int
	Themes     map[string]int
}

// Verify reads the post-write aggregates from the store.
func (pw *PostgresWriter) Verify() (*Verification, error) {
	counts, err := pw.CountByBank()
	if err != nil {
		return nil, err
	}
	avgs, err := pw.AvgRatingByBank()
	if err != nil {
		return nil, err
	}
	sentiments, err := pw.SentimentDistribution()
	if err != nil {
		return nil, err
	}
	themes, err := pw.ThemeDistribution()
	if err != nil {
		return nil, err
	}
	return &Verification{
		Counts:     counts,
		AvgRatings: avgs,
		Sentiments: sentiments,
		Themes:     themes,
	}, nil
}

// Render formats the verification block for the terminal. Keys are sorted
// so successive runs diff cleanly.
func (v *Verification) Render() string {
	var b strings.Builder
	thin := strings.Repeat("─", 62)

	fmt.Fprintf(&b, "\n  Database verification\n")
	fmt.Fprintf(&b, "  %s\n", thin)

	for _, bank := range sortedKeys(v.Counts) {
		if avg, ok := v.AvgRatings[bank]; ok {
			fmt.Fprintf(&b, "  %-38s %5d reviews | avg rating %.2f\n", bank, v.Counts[bank], avg)
		} else {
			fmt.Fprintf(&b, "  %-38s %5d reviews\n", bank, v.Counts[bank])
		}
	}

	fmt.Fprintf(&b, "\n  Sentiment labels\n")
	for _, label := range sortedKeys(v.Sentiments) {
		fmt.Fprintf(&b, "    %-20s %d\n", label, v.Sentiments[label])
	}

	fmt.Fprintf(&b, "\n  Themes\n")
	for _, theme := range sortedKeys(v.Themes) {
		fmt.Fprintf(&b, "    %-32s %d\n", theme, v.Themes[theme])
	}
	fmt.Fprintf(&b, "\n")

	return b.String()
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

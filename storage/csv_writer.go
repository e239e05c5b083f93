package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"bank-review-analytics/models"
)

// CSVWriter writes raw (unprocessed) reviews to a CSV file as a snapshot of
// what the source yielded. It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"review_text", "rating", "date", "bank", "source", "scraped_at",
	}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteRaw appends raw reviews to the CSV file.
func (c *CSVWriter) WriteRaw(reviews []*models.RawReview) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range reviews {
		row := []string{
			r.Text,
			r.Rating,
			r.Date,
			r.Bank,
			r.Source,
			r.ScrapedAt.Format(time.RFC3339),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

// WriteEnrichedCSV writes reviews in the tabular interchange format:
// review_text, rating, date, bank, source, then sentiment_label and
// sentiment_score only if the scoring stage produced any values, then theme
// only if classification ran. Optional column groups a stage never produced
// are absent entirely, not present as empty — downstream stages read column
// presence as "this stage has run".
func WriteEnrichedCSV(path string, reviews []*models.Review) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", path, err)
	}
	defer f.Close()

	hasSentiment, hasTheme := false, false
	for _, r := range reviews {
		if r.HasSentiment() {
			hasSentiment = true
		}
		if r.Theme != "" {
			hasTheme = true
		}
	}

	header := []string{"review_text", "rating", "date", "bank", "source"}
	if hasSentiment {
		header = append(header, "sentiment_label", "sentiment_score")
	}
	if hasTheme {
		header = append(header, "theme")
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for _, r := range reviews {
		row := []string{
			r.Text,
			strconv.Itoa(r.Rating),
			r.Date.Format("2006-01-02"),
			r.Bank,
			r.Source,
		}
		if hasSentiment {
			if r.HasSentiment() {
				row = append(row, *r.SentimentLabel, strconv.FormatFloat(*r.SentimentScore, 'f', 4, 64))
			} else {
				row = append(row, "", "")
			}
		}
		if hasTheme {
			row = append(row, r.Theme)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

// ReadRawCSV reads an interchange CSV back into raw review tuples. Only the
// base columns are consumed — any enrichment columns present are ignored,
// since the pipeline recomputes them (the transformation is repeatable).
func ReadRawCSV(path string) ([]*models.RawReview, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"review_text", "rating", "date", "bank"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("csv: missing required column %q", required)
		}
	}

	field := func(record []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: read rows: %w", err)
	}

	reviews := make([]*models.RawReview, 0, len(records))
	for _, record := range records {
		reviews = append(reviews, &models.RawReview{
			Text:   field(record, "review_text"),
			Rating: field(record, "rating"),
			Date:   field(record, "date"),
			Bank:   field(record, "bank"),
			Source: field(record, "source"),
		})
	}
	return reviews, nil
}

package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"bank-review-analytics/models"
	"bank-review-analytics/utils"
)

// ErrScoringUnavailable signals that the external sentiment capability
// could not score a record. The record proceeds through the pipeline with
// both sentiment fields unset.
var ErrScoringUnavailable = errors.New("sentiment scoring unavailable")

// Scorer is the external sentiment capability: text in, score in [0,1]
// out (higher = more positive). Implementations may also return a label
// directly; when they don't, the labeler derives one from the score.
type Scorer interface {
	Score(text string) (ScoreResult, error)
}

// ScoreResult is one scoring outcome. Label is optional — an empty label
// means "derive from the score".
type ScoreResult struct {
	Score float64
	Label string
}

// SentimentLabeler enriches reviews with a sentiment label and score.
type SentimentLabeler struct {
	scorer Scorer
	logger *utils.Logger
}

// NewSentimentLabeler creates a labeler around the given scorer.
func NewSentimentLabeler(scorer Scorer, logger *utils.Logger) *SentimentLabeler {
	return &SentimentLabeler{scorer: scorer, logger: logger}
}

// Label scores one review in place. A scoring failure leaves both
// sentiment fields nil and returns ErrScoringUnavailable (wrapped); that
// is a per-record condition, never fatal to the batch.
func (s *SentimentLabeler) Label(r *models.Review) error {
	res, err := s.scorer.Score(r.Text)
	if err != nil {
		r.SentimentLabel = nil
		r.SentimentScore = nil
		return fmt.Errorf("%w: %v", ErrScoringUnavailable, err)
	}

	score := round4(res.Score)
	label := res.Label
	if label == "" {
		label = deriveLabel(score)
	}

	r.SentimentLabel = &label
	r.SentimentScore = &score
	return nil
}

// deriveLabel maps a score to the three-way label. The exact midpoint is
// the only score that maps to NEUTRAL; the external model may still report
// NEUTRAL directly and that passes through unchanged.
func deriveLabel(score float64) string {
	switch {
	case score > 0.5:
		return models.SentimentPositive
	case score < 0.5:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}

// LexiconScorer is the deterministic word-list fallback used when no
// external model service is configured. The score is centred on 0.5 and
// shifted by the balance of distinct positive vs negative hits.
type LexiconScorer struct {
	positive []string
	negative []string
}

// NewLexiconScorer builds a scorer from positive/negative word lists.
func NewLexiconScorer(positive, negative []string) *LexiconScorer {
	lower := func(words []string) []string {
		out := make([]string, len(words))
		for i, w := range words {
			out[i] = strings.ToLower(w)
		}
		return out
	}
	return &LexiconScorer{positive: lower(positive), negative: lower(negative)}
}

// Score counts distinct lexicon hits in the text. No hits scores the exact
// midpoint, which the labeler maps to NEUTRAL.
func (l *LexiconScorer) Score(text string) (ScoreResult, error) {
	prepared := " " + PreprocessText(text) + " "

	pos := countDistinctHits(prepared, l.positive)
	neg := countDistinctHits(prepared, l.negative)

	if pos+neg == 0 {
		return ScoreResult{Score: 0.5}, nil
	}

	score := 0.5 + 0.5*float64(pos-neg)/float64(pos+neg)
	return ScoreResult{Score: score}, nil
}

// countDistinctHits counts words that occur at least once as a whole token.
func countDistinctHits(prepared string, words []string) int {
	hits := 0
	for _, w := range words {
		if strings.Contains(prepared, " "+w+" ") {
			hits++
		}
	}
	return hits
}

// HTTPScorer delegates scoring to the model service over HTTP. The wire
// shape matches the model API: request {"review_text": ...}, response
// {"sentiment_label": ..., "sentiment_score": ...}.
type HTTPScorer struct {
	url    string
	client *http.Client
	retry  *utils.RetryConfig
}

// NewHTTPScorer creates a scorer that POSTs to the given endpoint.
func NewHTTPScorer(url string, retry *utils.RetryConfig) *HTTPScorer {
	return &HTTPScorer{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
		retry:  retry,
	}
}

type scoreRequest struct {
	ReviewText string `json:"review_text"`
}

type scoreResponse struct {
	SentimentLabel string  `json:"sentiment_label"`
	SentimentScore float64 `json:"sentiment_score"`
}

// Score calls the model service, retrying transient failures. Any final
// failure is reported as-is; the labeler classes it as unavailability.
func (h *HTTPScorer) Score(text string) (ScoreResult, error) {
	body, err := json.Marshal(scoreRequest{ReviewText: text})
	if err != nil {
		return ScoreResult{}, fmt.Errorf("sentiment: marshal request: %w", err)
	}

	var parsed scoreResponse
	err = h.retry.Do("sentiment-score", func() error {
		resp, err := h.client.Post(h.url, "application/json", bytes.NewReader(body))
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("sentiment: status %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&parsed)
	})
	if err != nil {
		return ScoreResult{}, err
	}

	if parsed.SentimentScore < 0 || parsed.SentimentScore > 1 {
		return ScoreResult{}, fmt.Errorf("sentiment: score %.4f out of [0,1]", parsed.SentimentScore)
	}

	// Only the three known labels pass through. Anything else the service
	// invents is dropped so the labeler derives one from the score.
	label := strings.ToUpper(parsed.SentimentLabel)
	switch label {
	case models.SentimentPositive, models.SentimentNegative, models.SentimentNeutral:
	default:
		label = ""
	}

	return ScoreResult{Score: parsed.SentimentScore, Label: label}, nil
}

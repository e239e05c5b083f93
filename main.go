package main

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"bank-review-analytics/config"
	"bank-review-analytics/models"
	"bank-review-analytics/scraper/gplay"
	"bank-review-analytics/services"
	"bank-review-analytics/storage"
	"bank-review-analytics/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== Bank App Review Analytics starting ===")
	logger.Info("Config — reviews/bank: %d | concurrency: %d | batch size: %d",
		cfg.ReviewsPerBank, cfg.MaxConcurrency, cfg.BatchSize)

	rules, err := config.LoadRules(cfg.RulesPath)
	if err != nil {
		logger.Error("Failed to load rules file: %v", err)
		os.Exit(1)
	}
	logger.Info("Rules loaded — %d banks, %d themes", len(rules.Banks), len(rules.Themes))

	// ── Acquire ──────────────────────────────────────────────────────────
	var rawReviews []*models.RawReview
	if cfg.InputCSVPath != "" {
		logger.Info("Reading reviews from %s (scrape skipped)", cfg.InputCSVPath)
		rawReviews, err = storage.ReadRawCSV(cfg.InputCSVPath)
		if err != nil {
			logger.Error("Failed to read input CSV: %v", err)
			os.Exit(1)
		}
	} else {
		scraper := gplay.New(cfg, rules.Banks, logger)
		rawReviews, err = scraper.Scrape()
		if err != nil {
			logger.Error("Play Store scrape failed: %v", err)
		}

		if len(rawReviews) > 0 {
			csvWriter, err := storage.NewCSVWriter(cfg.RawCSVPath)
			if err != nil {
				logger.Error("Failed to create raw CSV writer: %v", err)
			} else {
				if err := csvWriter.WriteRaw(rawReviews); err != nil {
					logger.Error("Raw CSV write failed: %v", err)
				} else {
					logger.Info("Raw reviews saved to %s", cfg.RawCSVPath)
				}
				csvWriter.Close()
			}
		}
	}

	if len(rawReviews) == 0 {
		logger.Error("No reviews to process. Exiting.")
		os.Exit(1)
	}

	// ── Normalize ────────────────────────────────────────────────────────
	normalizer := services.NewNormalizer(logger)
	reviews, rejections := normalizer.Normalize(rawReviews)

	if len(reviews) == 0 {
		logger.Error("All reviews were dropped during normalization. Exiting.")
		os.Exit(1)
	}

	// Resolve short bank codes from interchange files to canonical names;
	// names the rules don't know stay as-is and surface as entity errors
	// at persistence time.
	for _, r := range reviews {
		if canonical, ok := rules.CanonicalBank(r.Bank); ok {
			r.Bank = canonical
		}
	}

	// ── Enrich ───────────────────────────────────────────────────────────
	var scorer services.Scorer
	if cfg.SentimentAPIURL != "" {
		logger.Info("Sentiment scoring via model service at %s", cfg.SentimentAPIURL)
		scorer = services.NewHTTPScorer(cfg.SentimentAPIURL, &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   time.Second,
			Logger:      logger,
		})
	} else {
		logger.Info("No model service configured — using built-in lexicon scorer")
		scorer = services.NewLexiconScorer(rules.Sentiment.Positive, rules.Sentiment.Negative)
	}

	labeler := services.NewSentimentLabeler(scorer, logger)
	classifier := services.NewThemeClassifier(rules.Themes)

	var scoringMisses int64
	pool := utils.NewWorkerPool(cfg.MaxConcurrency, 0)
	for _, r := range reviews {
		r := r
		pool.Submit(func() {
			if err := labeler.Label(r); err != nil {
				atomic.AddInt64(&scoringMisses, 1)
			}
			r.Theme = classifier.Classify(r.Text)
		})
	}
	pool.Wait()

	logger.Info("Enrichment complete — %d reviews, %d scoring misses",
		len(reviews), scoringMisses)

	if err := storage.WriteEnrichedCSV(cfg.EnrichedCSVPath, reviews); err != nil {
		logger.Error("Enriched CSV write failed: %v", err)
	} else {
		logger.Info("Enriched reviews saved to %s", cfg.EnrichedCSVPath)
	}

	// ── Persist ──────────────────────────────────────────────────────────
	pgWriter, err := storage.NewPostgresWriter(cfg.DSN(), cfg.BatchSize, logger)
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		logger.Error("Make sure the database is running and credentials are set")
		os.Exit(1)
	}
	defer pgWriter.Close()

	if err := pgWriter.SeedBanks(rules.BankEntities()); err != nil {
		logger.Error("Failed to seed banks: %v", err)
		os.Exit(1)
	}

	result, err := pgWriter.Write(reviews)
	if err != nil {
		logger.Error("PostgreSQL write failed: %v", err)
		os.Exit(1)
	}

	// Read the aggregates back so a run ends with what the database actually
	// holds, not just what this run tried to insert.
	verification, err := pgWriter.Verify()
	if err != nil {
		logger.Error("Post-write verification failed: %v", err)
	} else {
		fmt.Print(verification.Render())
	}

	// ── Aggregate ────────────────────────────────────────────────────────
	dbReviews, err := pgWriter.FetchAll()
	if err != nil {
		logger.Error("Failed to fetch reviews from DB for insights: %v", err)
		dbReviews = reviews
	}

	aggregator := services.NewInsightAggregator(classifier.Themes(), services.DefaultMinShare, logger)
	report := aggregator.Aggregate(dbReviews)
	aggregator.Print(report)

	// ── Summary ──────────────────────────────────────────────────────────
	fmt.Printf("  Run summary: rejected %d | scoring misses %d | inserted %d | "+
		"skipped %d duplicates | entity errors %d\n\n",
		rejections.Total(), scoringMisses, result.Inserted, result.Skipped, result.EntityErrors)

	// Duplicate skips are the expected idempotence path; entity errors are not.
	if result.EntityErrors > 0 {
		os.Exit(1)
	}
}

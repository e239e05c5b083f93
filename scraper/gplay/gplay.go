// Package gplay collects Google Play reviews for the configured banking
// apps with a headless browser. It is acquisition glue: one bank failing
// to scrape is tolerated as missing input, never a crash.
package gplay

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"bank-review-analytics/config"
	"bank-review-analytics/models"
	"bank-review-analytics/utils"
)

const detailURL = "https://play.google.com/store/apps/details?id=%s&hl=en&gl=us"

// Scraper drives review collection across all configured banks.
type Scraper struct {
	cfg    *config.Config
	banks  []config.BankRule
	logger *utils.Logger
	pool   *utils.WorkerPool
	retry  *utils.RetryConfig

	mu      sync.Mutex
	reviews []*models.RawReview
}

// New creates a ready-to-use Play Store scraper for the given banks.
func New(cfg *config.Config, banks []config.BankRule, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:    cfg,
		banks:  banks,
		logger: logger,
		pool:   utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		reviews: make([]*models.RawReview, 0),
	}
}

// Scrape fetches reviews for every configured bank, fanning out across the
// worker pool. Banks that fail are logged and skipped; the combined result
// is whatever could be collected.
func (s *Scraper) Scrape() ([]*models.RawReview, error) {
	s.logger.Info("[gplay] Starting scrape — %d banks, target %d reviews each",
		len(s.banks), s.cfg.ReviewsPerBank)

	chromeBin := findChromeBinary(s.cfg.ChromeBin)
	s.logger.Info("[gplay] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	silentCtx, cancelSilent := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelSilent()
	allocCtx = silentCtx

	for _, bank := range s.banks {
		bank := bank
		s.pool.Submit(func() {
			reviews, err := s.scrapeBank(allocCtx, bank)
			if err != nil {
				s.logger.Error("[gplay] %s failed: %v — continuing without it", bank.Name, err)
				return
			}
			s.mu.Lock()
			s.reviews = append(s.reviews, reviews...)
			s.mu.Unlock()
			s.logger.Info("[gplay] %s done — %d reviews", bank.Name, len(reviews))
		})
	}
	s.pool.Wait()

	s.logger.Info("[gplay] Scrape complete — total raw reviews: %d", len(s.reviews))
	return s.reviews, nil
}

// reviewData is the shape the in-page extraction script returns.
type reviewData struct {
	Text   string `json:"text"`
	Rating string `json:"rating"`
	Date   string `json:"date"`
}

// scrapeBank opens the app's store page, expands the reviews dialog, and
// scrolls until the target count is reached or the page stops yielding
// new reviews.
func (s *Scraper) scrapeBank(allocCtx context.Context, bank config.BankRule) ([]*models.RawReview, error) {
	var extracted []reviewData

	err := s.retry.Do("scrape-"+bank.Name, func() error {
		ctx, cancel := chromedp.NewContext(allocCtx)
		defer cancel()

		ctx, cancelTimeout := context.WithTimeout(ctx, 5*time.Minute)
		defer cancelTimeout()

		url := fmt.Sprintf(detailURL, bank.AppID)
		if err := chromedp.Run(ctx,
			chromedp.Navigate(url),
			chromedp.Sleep(4*time.Second),
			// Open the "See all reviews" dialog; the button has no stable
			// id, so match it by text.
			chromedp.Evaluate(`
				(function() {
					var buttons = document.querySelectorAll('button, span[role="button"]');
					for (var i = 0; i < buttons.length; i++) {
						var text = (buttons[i].textContent || '').toLowerCase();
						if (text.indexOf('see all reviews') !== -1) {
							buttons[i].click();
							return true;
						}
					}
					return false;
				})()
			`, nil),
			chromedp.Sleep(3*time.Second),
		); err != nil {
			return fmt.Errorf("open reviews: %w", err)
		}

		// Scroll-and-extract loop: the dialog lazy-loads as it scrolls.
		previous := 0
		stalled := 0
		for len(extracted) < s.cfg.ReviewsPerBank && stalled < 3 {
			if err := chromedp.Run(ctx,
				chromedp.Evaluate(extractScript, &extracted),
				chromedp.Evaluate(scrollScript, nil),
				chromedp.Sleep(2*time.Second),
			); err != nil {
				return fmt.Errorf("extract reviews: %w", err)
			}

			if len(extracted) == previous {
				stalled++
			} else {
				stalled = 0
			}
			previous = len(extracted)
		}

		if len(extracted) == 0 {
			return fmt.Errorf("no reviews extracted for %s", bank.AppID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(extracted) > s.cfg.ReviewsPerBank {
		extracted = extracted[:s.cfg.ReviewsPerBank]
	}

	now := time.Now()
	reviews := make([]*models.RawReview, 0, len(extracted))
	for _, e := range extracted {
		reviews = append(reviews, &models.RawReview{
			Bank:      bank.Name,
			Text:      e.Text,
			Rating:    parseStarRating(e.Rating),
			Date:      e.Date,
			Source:    models.DefaultSource,
			ScrapedAt: now,
		})
	}
	return reviews, nil
}

// extractScript pulls (text, star aria-label, date) from every review card
// currently rendered in the dialog.
const extractScript = `
	(function() {
		var out = [];
		var cards = document.querySelectorAll('div[data-review-id], div[jscontroller][data-review-id]');
		if (cards.length === 0) {
			// Fallback: review cards inside the dialog without the data attribute.
			var dialog = document.querySelector('div[role="dialog"]');
			if (dialog) cards = dialog.querySelectorAll('header ~ div, div[jscontroller]');
		}
		cards.forEach(function(card) {
			var star = card.querySelector('div[role="img"][aria-label*="star"], span[role="img"][aria-label*="star"]');
			if (!star) return;

			var text = '';
			var blocks = card.querySelectorAll('div, span');
			for (var i = 0; i < blocks.length; i++) {
				var t = (blocks[i].textContent || '').trim();
				if (t.length > text.length && blocks[i].children.length === 0) text = t;
			}

			var date = '';
			var spans = card.querySelectorAll('span');
			for (var j = 0; j < spans.length; j++) {
				var d = (spans[j].textContent || '').trim();
				if (/^[A-Z][a-z]+ \d{1,2}, \d{4}$/.test(d)) { date = d; break; }
			}

			out.push({
				text: text,
				rating: star.getAttribute('aria-label') || '',
				date: date
			});
		});
		return out;
	})()
`

// scrollScript advances the reviews dialog (or the page, when the dialog
// selector changes) to trigger lazy loading.
const scrollScript = `
	(function() {
		var dialog = document.querySelector('div[role="dialog"]');
		var scrollable = null;
		if (dialog) {
			var divs = dialog.querySelectorAll('div');
			for (var i = 0; i < divs.length; i++) {
				if (divs[i].scrollHeight > divs[i].clientHeight + 50) { scrollable = divs[i]; break; }
			}
		}
		if (scrollable) {
			scrollable.scrollTop = scrollable.scrollHeight;
		} else {
			window.scrollTo(0, document.body.scrollHeight);
		}
		return true;
	})()
`

// parseStarRating turns the star widget's aria-label ("Rated 4 stars out
// of five stars") into a bare digit the Normalizer can validate.
func parseStarRating(label string) string {
	for _, field := range strings.Fields(label) {
		if len(field) == 1 && field[0] >= '1' && field[0] <= '5' {
			return field
		}
	}
	return ""
}

// findChromeBinary returns the configured browser path, or the first
// well-known binary found on PATH.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
	candidates := []string{
		"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "chrome",
	}
	for _, c := range candidates {
		if path, err := exec.LookPath(c); err == nil {
			return path
		}
	}
	return ""
}

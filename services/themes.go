package services

import (
	"regexp"
	"strings"

	"bank-review-analytics/config"
	"bank-review-analytics/models"
)

// ThemeOther is the catch-all theme assigned when no trigger matches.
const ThemeOther = "Other"

var (
	// nonWordRegexp matches everything that is not a word character or space.
	nonWordRegexp = regexp.MustCompile(`[^\w\s]`)
	// spaceRegexp collapses whitespace runs.
	spaceRegexp = regexp.MustCompile(`\s+`)
)

// PreprocessText lowercases the text, replaces punctuation with spaces and
// collapses whitespace, so triggers and lexicon words match on a uniform
// surface.
func PreprocessText(text string) string {
	text = strings.ToLower(text)
	text = nonWordRegexp.ReplaceAllString(text, " ")
	return strings.TrimSpace(spaceRegexp.ReplaceAllString(text, " "))
}

// theme is one compiled rule-table entry.
type theme struct {
	name     string
	triggers []string
}

// ThemeClassifier assigns exactly one theme per review text by counting
// trigger hits. It is a pure function of (text, rule table): repeated
// invocation always returns the same theme.
type ThemeClassifier struct {
	themes []theme
}

// NewThemeClassifier compiles the rule table. Declaration order is the
// tie-break priority: when two themes hit the same number of triggers,
// the one declared earlier wins.
func NewThemeClassifier(rules []config.ThemeRule) *ThemeClassifier {
	themes := make([]theme, 0, len(rules))
	for _, r := range rules {
		triggers := make([]string, 0, len(r.Triggers))
		for _, trig := range r.Triggers {
			trig = PreprocessText(trig)
			if trig != "" {
				triggers = append(triggers, trig)
			}
		}
		themes = append(themes, theme{name: r.Name, triggers: triggers})
	}
	return &ThemeClassifier{themes: themes}
}

// Classify returns the theme for the given review text. Each distinct
// trigger counts at most once per review, so a repeated word cannot skew
// the score. Zero hits across all themes yields ThemeOther.
func (c *ThemeClassifier) Classify(text string) string {
	prepared := PreprocessText(text)
	if prepared == "" {
		return ThemeOther
	}

	best := ThemeOther
	bestScore := 0
	for _, t := range c.themes {
		score := 0
		for _, trig := range t.triggers {
			if strings.Contains(prepared, trig) {
				score++
			}
		}
		if score > bestScore {
			best = t.name
			bestScore = score
		}
	}
	return best
}

// Themes returns the theme names in declared priority order, with
// ThemeOther appended. This is the full enumeration a classified review
// can carry, used by the aggregator for stable ordering.
func (c *ThemeClassifier) Themes() []string {
	names := make([]string, 0, len(c.themes)+1)
	for _, t := range c.themes {
		names = append(names, t.name)
	}
	return append(names, ThemeOther)
}

// ClassifyAll applies the classifier to every review in place.
func (c *ThemeClassifier) ClassifyAll(reviews []*models.Review) {
	for _, r := range reviews {
		r.Theme = c.Classify(r.Text)
	}
}

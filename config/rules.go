package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"bank-review-analytics/models"
)

// Rules validation errors.
var (
	ErrNoBanks          = errors.New("at least one bank is required")
	ErrBankMissingName  = errors.New("bank name is required")
	ErrBankMissingAppID = errors.New("bank app_id is required")
	ErrNoThemes         = errors.New("at least one theme is required")
	ErrThemeMissingName = errors.New("theme name is required")
	ErrThemeNoTriggers  = errors.New("theme requires at least one trigger")
	ErrDuplicateTheme   = errors.New("duplicate theme name")
	ErrEmptyLexicon     = errors.New("sentiment lexicon requires positive and negative word lists")
)

// BankRule declares one tracked bank. Aliases cover the short codes used
// in interchange CSV files (e.g. "CBE" for "Commercial Bank of Ethiopia").
type BankRule struct {
	Name    string   `yaml:"name"`
	AppName string   `yaml:"app_name"`
	AppID   string   `yaml:"app_id"`
	Aliases []string `yaml:"aliases"`
}

// ThemeRule maps one theme to its trigger keywords/phrases. Declaration
// order in the file is the tie-break priority order.
type ThemeRule struct {
	Name     string   `yaml:"name"`
	Triggers []string `yaml:"triggers"`
}

// Lexicon is the word-list fallback used when no external sentiment
// service is configured.
type Lexicon struct {
	Positive []string `yaml:"positive"`
	Negative []string `yaml:"negative"`
}

// Rules is the data-driven part of the pipeline: which banks to track,
// which keyword triggers map to which theme, and the fallback sentiment
// lexicon. Keeping them in a YAML file lets the classification rules be
// tested and evolved without touching classifier code.
type Rules struct {
	Banks     []BankRule  `yaml:"banks"`
	Themes    []ThemeRule `yaml:"themes"`
	Sentiment Lexicon     `yaml:"sentiment"`
}

// LoadRules reads and validates the rules file at the given path.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: read %q: %w", path, err)
	}
	return ParseRules(data)
}

// ParseRules parses and validates rules from raw YAML.
func ParseRules(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("rules: parse: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("rules: invalid: %w", err)
	}
	return &r, nil
}

// Validate checks the rules for structural problems.
func (r *Rules) Validate() error {
	if len(r.Banks) == 0 {
		return ErrNoBanks
	}
	for _, b := range r.Banks {
		if strings.TrimSpace(b.Name) == "" {
			return ErrBankMissingName
		}
		if strings.TrimSpace(b.AppID) == "" {
			return ErrBankMissingAppID
		}
	}

	if len(r.Themes) == 0 {
		return ErrNoThemes
	}
	seen := make(map[string]struct{}, len(r.Themes))
	for _, t := range r.Themes {
		if strings.TrimSpace(t.Name) == "" {
			return ErrThemeMissingName
		}
		if len(t.Triggers) == 0 {
			return fmt.Errorf("%w: %s", ErrThemeNoTriggers, t.Name)
		}
		if _, dup := seen[t.Name]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateTheme, t.Name)
		}
		seen[t.Name] = struct{}{}
	}

	if len(r.Sentiment.Positive) == 0 || len(r.Sentiment.Negative) == 0 {
		return ErrEmptyLexicon
	}
	return nil
}

// CanonicalBank resolves a bank name or alias to the canonical bank name.
// Matching is case-insensitive.
func (r *Rules) CanonicalBank(name string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, b := range r.Banks {
		if strings.ToLower(b.Name) == needle {
			return b.Name, true
		}
		for _, a := range b.Aliases {
			if strings.ToLower(a) == needle {
				return b.Name, true
			}
		}
	}
	return "", false
}

// BankEntities converts the bank rules into dimension rows ready for seeding.
func (r *Rules) BankEntities() []*models.Bank {
	banks := make([]*models.Bank, 0, len(r.Banks))
	for _, b := range r.Banks {
		appName := b.AppName
		if appName == "" {
			appName = b.Name
		}
		banks = append(banks, &models.Bank{
			Name:    b.Name,
			AppName: appName,
			AppID:   b.AppID,
		})
	}
	return banks
}

package services

import (
	"testing"

	"bank-review-analytics/config"
	"bank-review-analytics/models"
)

func testThemeRules() []config.ThemeRule {
	return []config.ThemeRule{
		{Name: "Account Access Issues", Triggers: []string{"login", "password", "locked"}},
		{Name: "Transaction Performance", Triggers: []string{"transfer", "fast", "simple", "slow", "payment"}},
		{Name: "User Interface & Experience", Triggers: []string{"ui", "design", "easy to use"}},
		{Name: "Customer Support", Triggers: []string{"support", "customer service", "help"}},
		{Name: "App Reliability", Triggers: []string{"crash", "bug", "freeze"}},
	}
}

func TestClassifyTransactionPerformanceScenario(t *testing.T) {
	c := NewThemeClassifier(testThemeRules())
	got := c.Classify("fast and simple")
	if got != "Transaction Performance" {
		t.Errorf("Classify(%q) = %q, want Transaction Performance", "fast and simple", got)
	}
}

func TestClassifyAssignsOther(t *testing.T) {
	c := NewThemeClassifier(testThemeRules())

	for _, text := range []string{"nothing topical here", "", "   "} {
		if got := c.Classify(text); got != ThemeOther {
			t.Errorf("Classify(%q) = %q, want %q", text, got, ThemeOther)
		}
	}
}

func TestClassifyDistinctTriggerCountedOnce(t *testing.T) {
	c := NewThemeClassifier(testThemeRules())

	// "login" repeated three times is still one hit for Account Access;
	// "fast" + "transfer" are two distinct hits for Transaction Performance.
	got := c.Classify("login login login but fast transfer")
	if got != "Transaction Performance" {
		t.Errorf("got %q, want Transaction Performance (repeated word must not skew score)", got)
	}
}

func TestClassifyTieBreaksByDeclarationOrder(t *testing.T) {
	c := NewThemeClassifier(testThemeRules())

	// One hit each for Account Access ("password") and App Reliability ("crash"):
	// the earlier-declared theme wins.
	got := c.Classify("password crash")
	if got != "Account Access Issues" {
		t.Errorf("got %q, want Account Access Issues (declaration order tie-break)", got)
	}
}

func TestClassifyIgnoresCaseAndPunctuation(t *testing.T) {
	c := NewThemeClassifier(testThemeRules())

	got := c.Classify("LOGIN?! My PASSWORD is locked...")
	if got != "Account Access Issues" {
		t.Errorf("got %q, want Account Access Issues", got)
	}
}

func TestClassifyPhraseTrigger(t *testing.T) {
	c := NewThemeClassifier(testThemeRules())

	got := c.Classify("very easy to use, and the design is nice")
	if got != "User Interface & Experience" {
		t.Errorf("got %q, want User Interface & Experience", got)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	c := NewThemeClassifier(testThemeRules())
	text := "app crashes during transfer, support never helps"

	first := c.Classify(text)
	for i := 0; i < 20; i++ {
		if got := c.Classify(text); got != first {
			t.Fatalf("classification not deterministic: %q then %q", first, got)
		}
	}
}

func TestClassifyAllSetsThemeOnEveryReview(t *testing.T) {
	c := NewThemeClassifier(testThemeRules())
	reviews := []*models.Review{
		{Text: "fast transfer"},
		{Text: "random words"},
		{Text: "app keeps crashing"},
	}

	c.ClassifyAll(reviews)

	valid := make(map[string]struct{})
	for _, name := range c.Themes() {
		valid[name] = struct{}{}
	}
	for _, r := range reviews {
		if r.Theme == "" {
			t.Error("every review must carry a theme after classification")
		}
		if _, ok := valid[r.Theme]; !ok {
			t.Errorf("theme %q not in the declared enumeration", r.Theme)
		}
	}
}

func TestDefaultRulesFileClassifies(t *testing.T) {
	rules, err := config.LoadRules("../configs/rules.yaml")
	if err != nil {
		t.Fatalf("load shipped rules: %v", err)
	}
	c := NewThemeClassifier(rules.Themes)

	if got := c.Classify("fast and simple"); got != "Transaction Performance" {
		t.Errorf("shipped rules: Classify(%q) = %q, want Transaction Performance", "fast and simple", got)
	}
}

package storage

import (
	"strings"
	"testing"
)

func TestVerificationRenderSortedAndComplete(t *testing.T) {
	v := &Verification{
		Counts: map[string]int{
			"Dashen Bank":                 120,
			"Bank of Abyssinia":           95,
			"Commercial Bank of Ethiopia": 0,
		},
		AvgRatings: map[string]float64{
			"Dashen Bank":       4.1,
			"Bank of Abyssinia": 2.75,
		},
		Sentiments: map[string]int{"POSITIVE": 130, "NEGATIVE": 60, "NEUTRAL": 25},
		Themes:     map[string]int{"Other": 40, "App Reliability": 80},
	}

	out := v.Render()

	for _, want := range []string{
		"Database verification",
		"95 reviews | avg rating 2.75",
		"120 reviews | avg rating 4.10",
		"POSITIVE",
		"App Reliability",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q in:\n%s", want, out)
		}
	}

	// A bank with no facts still appears, with no rating average.
	cbeLine := ""
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Commercial Bank of Ethiopia") {
			cbeLine = line
		}
	}
	if cbeLine == "" {
		t.Fatalf("zero-review bank missing from render:\n%s", out)
	}
	if !strings.Contains(cbeLine, "0 reviews") || strings.Contains(cbeLine, "avg rating") {
		t.Errorf("zero-review bank line malformed: %q", cbeLine)
	}

	// Bank sections come out alphabetically regardless of map order.
	abyssinia := strings.Index(out, "Bank of Abyssinia")
	cbe := strings.Index(out, "Commercial Bank of Ethiopia")
	dashen := strings.Index(out, "Dashen Bank")
	if !(abyssinia < cbe && cbe < dashen) {
		t.Errorf("banks not sorted: positions %d, %d, %d", abyssinia, cbe, dashen)
	}
}

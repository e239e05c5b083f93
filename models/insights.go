package models

// Theme roles in an insight report.
const (
	RoleDriver    = "driver"
	RolePainPoint = "pain_point"
)

// ThemeInsight is one theme's standing for a bank: either a satisfaction
// driver (disproportionately positive) or a pain point (disproportionately
// negative). Fraction is the theme's share of the qualifying subset.
type ThemeInsight struct {
	Theme     string
	Role      string
	Count     int
	Fraction  float64
	AvgRating float64
	Quote     string // representative review text
}

// BankMetrics holds headline numbers for one bank's review set.
type BankMetrics struct {
	TotalReviews       int
	AvgRating          float64
	PositivePct        float64
	NegativePct        float64
	AvgSentimentScore  float64
	RatingDistribution map[int]int
}

// BankInsights collects everything the aggregator derives for one bank.
type BankInsights struct {
	Bank       string
	Metrics    BankMetrics
	Drivers    []*ThemeInsight
	PainPoints []*ThemeInsight
}

// InsightReport is the full cross-bank analysis, ordered by bank name.
type InsightReport struct {
	TotalReviews int
	Banks        []*BankInsights
}

package analysis

// Rule emits Insight when When holds for the facts. Rules are evaluated in
// declaration order.
type Rule[F any] struct {
	Name    string
	When    func(F) bool
	Insight string
}

// EvaluateRules returns the insights of every matching rule, in order.
func EvaluateRules[F any](rules []Rule[F], facts F) []string {
	insights := make([]string, 0, len(rules))
	for _, rule := range rules {
		if rule.When(facts) {
			insights = append(insights, rule.Insight)
		}
	}
	return insights
}

// PaidFacts are the observations the paid-competition rules read.
type PaidFacts struct {
	AdsCount       int
	DomainCount    int
	AverageQuality float64
	TopShare       float64
}

// PaidInsightRules is the paid-competition insight table.
var PaidInsightRules = []Rule[PaidFacts]{
	{
		Name:    "saturated",
		When:    func(f PaidFacts) bool { return f.AdsCount >= 8 },
		Insight: "Saturated ad market: expect high CPCs and aggressive bidding",
	},
	{
		Name:    "strong_interest",
		When:    func(f PaidFacts) bool { return f.AdsCount >= 5 && f.AdsCount < 8 },
		Insight: "Strong advertiser interest signals commercial value",
	},
	{
		Name:    "moderate",
		When:    func(f PaidFacts) bool { return f.AdsCount >= 3 && f.AdsCount < 5 },
		Insight: "Moderate paid competition: budget for mid-range CPCs",
	},
	{
		Name:    "limited",
		When:    func(f PaidFacts) bool { return f.AdsCount > 0 && f.AdsCount < 3 },
		Insight: "Limited paid competition leaves room for affordable placements",
	},
	{
		Name:    "single_advertiser",
		When:    func(f PaidFacts) bool { return f.DomainCount == 1 && f.AdsCount > 1 },
		Insight: "A single advertiser dominates the paid results",
	},
	{
		Name:    "diverse",
		When:    func(f PaidFacts) bool { return f.DomainCount >= 4 },
		Insight: "Diverse advertiser pool: no single brand controls the auction",
	},
	{
		Name:    "high_quality",
		When:    func(f PaidFacts) bool { return f.AdsCount > 0 && f.AverageQuality >= 7 },
		Insight: "High-quality ads raise the bar for copy and extensions",
	},
	{
		Name:    "weak_quality",
		When:    func(f PaidFacts) bool { return f.AdsCount > 0 && f.AverageQuality < 4 },
		Insight: "Weak ad quality: well-crafted ads can win placements cheaply",
	},
	{
		Name:    "top_advertiser_majority",
		When:    func(f PaidFacts) bool { return f.DomainCount > 1 && f.TopShare > 0.5 },
		Insight: "The top advertiser holds the majority of ad slots",
	},
}

// NoAdsInsights are reported when the page has no paid results.
var NoAdsInsights = []string{
	"No paid ads detected: the keyword is open for first-mover advertisers",
	"Low CPC expected while there is no ad competition",
	"Organic results receive the full click share",
}

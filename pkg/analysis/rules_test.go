package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateRules_KeepsDeclarationOrder(t *testing.T) {
	rules := []Rule[int]{
		{Name: "positive", When: func(v int) bool { return v > 0 }, Insight: "positive"},
		{Name: "even", When: func(v int) bool { return v%2 == 0 }, Insight: "even"},
		{Name: "large", When: func(v int) bool { return v > 100 }, Insight: "large"},
	}

	assert.Equal(t, []string{"positive", "even"}, EvaluateRules(rules, 4))
	assert.Equal(t, []string{"positive", "large"}, EvaluateRules(rules, 101))
	assert.Empty(t, EvaluateRules(rules, -3))
}

func TestPaidInsightRules_AdCountBands(t *testing.T) {
	tests := []struct {
		name  string
		facts PaidFacts
		want  []string
	}{
		{
			name:  "two ads",
			facts: PaidFacts{AdsCount: 2, DomainCount: 2, AverageQuality: 5, TopShare: 0.5},
			want:  []string{"Limited paid competition leaves room for affordable placements"},
		},
		{
			name:  "three ads",
			facts: PaidFacts{AdsCount: 3, DomainCount: 3, AverageQuality: 5, TopShare: 1.0 / 3},
			want:  []string{"Moderate paid competition: budget for mid-range CPCs"},
		},
		{
			name:  "four ads split evenly",
			facts: PaidFacts{AdsCount: 4, DomainCount: 2, AverageQuality: 5.5, TopShare: 0.5},
			want:  []string{"Moderate paid competition: budget for mid-range CPCs"},
		},
		{
			name:  "five ads",
			facts: PaidFacts{AdsCount: 5, DomainCount: 2, AverageQuality: 5, TopShare: 0.6},
			want: []string{
				"Strong advertiser interest signals commercial value",
				"The top advertiser holds the majority of ad slots",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateRules(PaidInsightRules, tt.facts))
		})
	}
}

func TestPaidInsightRules_NamesUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, rule := range PaidInsightRules {
		assert.False(t, seen[rule.Name], "duplicate rule %s", rule.Name)
		seen[rule.Name] = true
		assert.NotEmpty(t, rule.Insight)
	}
}

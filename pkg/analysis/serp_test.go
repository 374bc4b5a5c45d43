package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func items(types ...string) []SerpItem {
	out := make([]SerpItem, len(types))
	for i, typ := range types {
		out[i] = SerpItem{Type: typ}
	}
	return out
}

func TestDetectSerpFeatures_Deduplicates(t *testing.T) {
	got := DetectSerpFeatures(items("organic", "featured_snippet", "organic", "featured_snippet", "featured_snippet"))

	assert.Equal(t, []string{"featured_snippet"}, got.Features)
	assert.Equal(t, -8, got.EstimatedCTRImpactPct)
	assert.Equal(t, "low", got.OrganicDifficulty)
	assert.Len(t, got.ContentOpportunities, 1)
	assert.Len(t, got.CompetitionIndicators, 1)
}

func TestDetectSerpFeatures_Empty(t *testing.T) {
	got := DetectSerpFeatures(nil)

	assert.Empty(t, got.Features)
	assert.NotNil(t, got.Features)
	assert.Zero(t, got.EstimatedCTRImpactPct)
	assert.Equal(t, "low", got.OrganicDifficulty)
}

func TestDetectSerpFeatures_OrganicDifficultyByCount(t *testing.T) {
	tests := []struct {
		types []string
		want  string
	}{
		{[]string{"people_also_ask"}, "low"},
		{[]string{"people_also_ask", "images"}, "medium"},
		{[]string{"people_also_ask", "images", "video"}, "high"},
		{[]string{"people_also_ask", "images", "video", "local_pack"}, "very_high"},
		{[]string{"people_also_ask", "images", "video", "local_pack", "ai_overview"}, "very_high"},
	}

	for _, tt := range tests {
		got := DetectSerpFeatures(items(tt.types...))
		assert.Equal(t, tt.want, got.OrganicDifficulty, "types=%v", tt.types)
	}
}

func TestDetectSerpFeatures_AliasesAndOrdering(t *testing.T) {
	got := DetectSerpFeatures(items("video", "videos", "Popular_Products", "images"))

	assert.Equal(t, []string{"images", "shopping", "videos"}, got.Features)
	assert.Equal(t, -2-7-4, got.EstimatedCTRImpactPct)
}

func TestDetectSerpFeatures_PenaltyFloor(t *testing.T) {
	got := DetectSerpFeatures(items(
		"featured_snippet", "people_also_ask", "local_pack", "shopping", "images",
		"videos", "knowledge_graph", "ai_overview", "top_stories", "answer_box",
	))

	assert.Equal(t, -50, got.EstimatedCTRImpactPct)
	assert.Len(t, got.Features, 10)
}

func TestDetectSerpFeatures_RelatedSearchesHasNoPenalty(t *testing.T) {
	got := DetectSerpFeatures(items("related_searches"))

	assert.Equal(t, []string{"related_searches"}, got.Features)
	assert.Zero(t, got.EstimatedCTRImpactPct)
	assert.Len(t, got.ContentOpportunities, 1)
	assert.Empty(t, got.CompetitionIndicators)
}

func TestNormalizeDomain(t *testing.T) {
	assert.Equal(t, "example.com", NormalizeDomain("WWW.Example.com", ""))
	assert.Equal(t, "shop.example.com", NormalizeDomain("", "https://shop.example.com/path?q=1"))
	assert.Equal(t, "", NormalizeDomain("", ""))
}

package analysis

import (
	"net/url"
	"sort"
	"strings"

	"keyword-intel/pkg/model"
)

// SerpItem is the subset of a results-page item the analysers read.
type SerpItem struct {
	Type           string
	Domain         string
	Title          string
	Description    string
	URL            string
	Rating         *float64
	SitelinkCount  int
	HighlightCount int
}

type featureInsight struct {
	opportunity string
	indicator   string
	ctrImpact   int
}

// serpFeatures maps each recognised feature to its strategic reading.
var serpFeatures = map[string]featureInsight{
	"featured_snippet": {
		opportunity: "Structure content as concise answers to win the featured snippet",
		indicator:   "Featured snippet captures position-zero clicks",
		ctrImpact:   -8,
	},
	"people_also_ask": {
		opportunity: "Answer related questions in FAQ sections",
		indicator:   "People Also Ask expands above organic results",
		ctrImpact:   -3,
	},
	"local_pack": {
		opportunity: "Optimise the business profile for local pack visibility",
		indicator:   "Local pack dominates the top of the page",
		ctrImpact:   -10,
	},
	"shopping": {
		opportunity: "List products in shopping feeds",
		indicator:   "Shopping results compete for transactional clicks",
		ctrImpact:   -7,
	},
	"images": {
		opportunity: "Publish optimised original images",
		indicator:   "Image pack pushes organic results down",
		ctrImpact:   -2,
	},
	"videos": {
		opportunity: "Produce video content for the video carousel",
		indicator:   "Video results draw attention away from text results",
		ctrImpact:   -4,
	},
	"knowledge_graph": {
		opportunity: "Strengthen entity signals with structured data",
		indicator:   "Knowledge panel answers the query directly",
		ctrImpact:   -6,
	},
	"ai_overview": {
		opportunity: "Write authoritative content likely to be cited by AI overviews",
		indicator:   "AI overview satisfies the query before organic results",
		ctrImpact:   -12,
	},
	"top_stories": {
		opportunity: "Publish timely news coverage for top stories",
		indicator:   "Top stories favour fresh publisher content",
		ctrImpact:   -5,
	},
	"answer_box": {
		opportunity: "Provide direct answers in the first paragraph",
		indicator:   "Answer box resolves the query on the results page",
		ctrImpact:   -6,
	},
	"related_searches": {
		opportunity: "Cover related searches as supporting content",
	},
}

var featureAliases = map[string]string{
	"video":            "videos",
	"popular_products": "shopping",
	"local_services":   "local_pack",
	"knowledge_panel":  "knowledge_graph",
}

const maxCTRPenalty = -50

// CanonicalFeature maps a raw item type onto a recognised feature name.
func CanonicalFeature(itemType string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(itemType))
	if alias, ok := featureAliases[name]; ok {
		name = alias
	}
	_, ok := serpFeatures[name]
	return name, ok
}

// DetectSerpFeatures deduplicates recognised features and scores their
// combined effect on organic click-through.
func DetectSerpFeatures(items []SerpItem) model.SerpFeatureSet {
	present := make(map[string]bool)
	for _, item := range items {
		if name, ok := CanonicalFeature(item.Type); ok {
			present[name] = true
		}
	}

	features := make([]string, 0, len(present))
	for name := range present {
		features = append(features, name)
	}
	sort.Strings(features)

	set := model.SerpFeatureSet{
		Features:              features,
		ContentOpportunities:  []string{},
		CompetitionIndicators: []string{},
		OrganicDifficulty:     organicDifficulty(len(features)),
	}

	for _, name := range features {
		insight := serpFeatures[name]
		if insight.opportunity != "" {
			set.ContentOpportunities = append(set.ContentOpportunities, insight.opportunity)
		}
		if insight.indicator != "" {
			set.CompetitionIndicators = append(set.CompetitionIndicators, insight.indicator)
		}
		set.EstimatedCTRImpactPct += insight.ctrImpact
	}
	if set.EstimatedCTRImpactPct < maxCTRPenalty {
		set.EstimatedCTRImpactPct = maxCTRPenalty
	}

	return set
}

func organicDifficulty(featureCount int) string {
	switch {
	case featureCount >= 4:
		return "very_high"
	case featureCount >= 3:
		return "high"
	case featureCount >= 2:
		return "medium"
	default:
		return "low"
	}
}

// NormalizeDomain lowercases the advertiser domain and strips "www.",
// falling back to the URL host when the item carries no domain.
func NormalizeDomain(domain, rawURL string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	if d == "" && rawURL != "" {
		if u, err := url.Parse(rawURL); err == nil {
			d = strings.ToLower(u.Hostname())
		}
	}
	return strings.TrimPrefix(d, "www.")
}

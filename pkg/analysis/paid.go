package analysis

import (
	"sort"
	"strings"
	"unicode/utf8"

	"keyword-intel/pkg/model"
)

const (
	maxAdQuality      = 10.0
	maxTopAdvertisers = 5
	paidItemType      = "paid"
)

// ScoreAd rates one ad on an additive 0..10 rubric.
func ScoreAd(ad SerpItem) float64 {
	score := 3.0

	if n := utf8.RuneCountInString(strings.TrimSpace(ad.Title)); n >= 30 && n <= 60 {
		score++
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(ad.Description)); n >= 70 && n <= 160 {
		score++
	}
	if ad.Rating != nil && *ad.Rating >= 4.0 {
		score += 1.5
	}
	if ad.SitelinkCount > 0 {
		score++
	}
	if ad.HighlightCount > 0 {
		score++
	}
	if strings.HasPrefix(strings.ToLower(ad.URL), "https://") {
		score += 0.5
	}

	if score > maxAdQuality {
		return maxAdQuality
	}
	return score
}

// AnalyzePaidCompetition summarises the items of type "paid".
func AnalyzePaidCompetition(items []SerpItem) model.PaidCompetitionSnapshot {
	var ads []SerpItem
	for _, item := range items {
		if strings.EqualFold(item.Type, paidItemType) {
			ads = append(ads, item)
		}
	}

	if len(ads) == 0 {
		return model.PaidCompetitionSnapshot{
			CompetitionLevel:  "none",
			AdvertiserDomains: []string{},
			TopAdvertisers:    []model.AdvertiserShare{},
			StrategicInsights: append([]string(nil), NoAdsInsights...),
		}
	}

	counts := make(map[string]int)
	var qualitySum float64
	for _, ad := range ads {
		domain := NormalizeDomain(ad.Domain, ad.URL)
		if domain == "" {
			domain = "unknown"
		}
		counts[domain]++
		qualitySum += ScoreAd(ad)
	}

	shares := make([]model.AdvertiserShare, 0, len(counts))
	domains := make([]string, 0, len(counts))
	for domain, count := range counts {
		shares = append(shares, model.AdvertiserShare{Domain: domain, Count: count})
		domains = append(domains, domain)
	}
	sort.Strings(domains)
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Count != shares[j].Count {
			return shares[i].Count > shares[j].Count
		}
		return shares[i].Domain < shares[j].Domain
	})

	facts := PaidFacts{
		AdsCount:       len(ads),
		DomainCount:    len(domains),
		AverageQuality: round1(qualitySum / float64(len(ads))),
		TopShare:       float64(shares[0].Count) / float64(len(ads)),
	}

	if len(shares) > maxTopAdvertisers {
		shares = shares[:maxTopAdvertisers]
	}

	return model.PaidCompetitionSnapshot{
		AdsCount:          facts.AdsCount,
		CompetitionLevel:  adsCountLevel(facts.AdsCount),
		AdvertiserDomains: domains,
		AverageAdQuality:  facts.AverageQuality,
		TopAdvertisers:    shares,
		StrategicInsights: EvaluateRules(PaidInsightRules, facts),
	}
}

func adsCountLevel(count int) string {
	switch {
	case count == 0:
		return "none"
	case count < 3:
		return "low"
	case count < 5:
		return "medium"
	case count < 8:
		return "high"
	default:
		return "very_high"
	}
}

package model

import "time"

// Level is a three-step competition or difficulty tier.
type Level string

const (
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"
)

// InsufficientData marks a derived field that lacks enough history.
const InsufficientData = "insufficient_data"

// MonthPoint is one month of search volume.
type MonthPoint struct {
	Year         int   `json:"year"`
	Month        int   `json:"month"`
	SearchVolume int64 `json:"searchVolume"`
}

// SearchIntent is a classified intent with its probability.
type SearchIntent struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// KeywordCoreMetrics holds volume, competition, difficulty and intent.
// Pointer fields are nil when the provider had no data for them.
type KeywordCoreMetrics struct {
	SearchVolume         *int64         `json:"searchVolume,omitempty"`
	CompetitionScore     *float64       `json:"competitionScore,omitempty"`
	CompetitionLevel     Level          `json:"competitionLevel,omitempty"`
	CPC                  *float64       `json:"cpc,omitempty"`
	MonthlySearches      []MonthPoint   `json:"monthlySearches,omitempty"`
	DifficultyScore      *float64       `json:"difficultyScore,omitempty"`
	DifficultyLevel      Level          `json:"difficultyLevel,omitempty"`
	DifficultyComplexity string         `json:"difficultyComplexity,omitempty"`
	SearchIntent         *SearchIntent  `json:"searchIntent,omitempty"`
	SecondaryIntents     []SearchIntent `json:"secondaryIntents,omitempty"`
}

// TrendSummary describes how search volume moves over time. Text fields
// carry a signed percentage such as "+12.5%", "stable", or InsufficientData.
type TrendSummary struct {
	LatestTrend    string   `json:"latestTrend"`
	Direction      string   `json:"direction"`
	Period         string   `json:"period"`
	MonthlyTrend   string   `json:"monthlyTrend"`
	QuarterlyTrend string   `json:"quarterlyTrend"`
	YearlyTrend    string   `json:"yearlyTrend"`
	MonthlyPct     *float64 `json:"monthlyPct,omitempty"`
	QuarterlyPct   *float64 `json:"quarterlyPct,omitempty"`
	YearlyPct      *float64 `json:"yearlyPct,omitempty"`
	Seasonality    string   `json:"seasonality"`
	Volatility     string   `json:"volatility"`
	DataPoints     int      `json:"dataPoints"`
}

// SerpFeatureSet summarises the non-organic features on a results page.
type SerpFeatureSet struct {
	Features              []string `json:"features"`
	ContentOpportunities  []string `json:"contentOpportunities"`
	CompetitionIndicators []string `json:"competitionIndicators"`
	EstimatedCTRImpactPct int      `json:"estimatedCtrImpactPct"`
	OrganicDifficulty     string   `json:"organicDifficulty"`
}

// AdvertiserShare counts ads per advertiser domain.
type AdvertiserShare struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

// PaidCompetitionSnapshot summarises the paid ads on a results page.
type PaidCompetitionSnapshot struct {
	AdsCount          int               `json:"adsCount"`
	CompetitionLevel  string            `json:"competitionLevel"`
	AdvertiserDomains []string          `json:"advertiserDomains"`
	AverageAdQuality  float64           `json:"averageAdQuality"`
	TopAdvertisers    []AdvertiserShare `json:"topAdvertisers"`
	StrategicInsights []string          `json:"strategicInsights"`
}

// ChannelShare counts videos per channel.
type ChannelShare struct {
	Channel string `json:"channel"`
	Videos  int    `json:"videos"`
}

// VideoInsights summarises video results for a keyword.
type VideoInsights struct {
	VideoCount             int            `json:"videoCount"`
	TopChannels            []ChannelShare `json:"topChannels"`
	AverageViews           int64          `json:"averageViews"`
	AverageDurationSeconds int64          `json:"averageDurationSeconds"`
}

// SourceMetrics is one adapter's normalised output.
type SourceMetrics struct {
	Source          Source                   `json:"source"`
	Core            *KeywordCoreMetrics      `json:"coreMetrics,omitempty"`
	Trend           *TrendSummary            `json:"trend,omitempty"`
	SerpFeatures    *SerpFeatureSet          `json:"serpFeatures,omitempty"`
	PaidCompetition *PaidCompetitionSnapshot `json:"paidCompetition,omitempty"`
	Video           *VideoInsights           `json:"video,omitempty"`
	Cost            float64                  `json:"cost"`
}

// PartialError records a source that failed inside a multi-source request.
type PartialError struct {
	Source     Source  `json:"source"`
	Message    string  `json:"message"`
	StatusCode int     `json:"statusCode,omitempty"`
	Retryable  bool    `json:"retryable"`
	Cost       float64 `json:"cost"`
}

// KeywordIntelligenceResult is the merged response for one request.
type KeywordIntelligenceResult struct {
	RequestID       string                    `json:"requestId,omitempty"`
	Keyword         string                    `json:"keyword"`
	LocationCode    int                       `json:"locationCode"`
	LanguageCode    string                    `json:"languageCode"`
	CoreMetrics     *KeywordCoreMetrics       `json:"coreMetrics,omitempty"`
	Trend           *TrendSummary             `json:"trend,omitempty"`
	SerpFeatures    *SerpFeatureSet           `json:"serpFeatures,omitempty"`
	PaidCompetition *PaidCompetitionSnapshot  `json:"paidCompetition,omitempty"`
	Video           *VideoInsights            `json:"video,omitempty"`
	Sources         map[Source]*SourceMetrics `json:"sources"`
	SourcesQueried  []Source                  `json:"sourcesQueried"`
	TotalCost       float64                   `json:"totalCost"`
	PartialErrors   []PartialError            `json:"partialErrors,omitempty"`
	Cached          bool                      `json:"cached"`
	GeneratedAt     time.Time                 `json:"generatedAt"`
}

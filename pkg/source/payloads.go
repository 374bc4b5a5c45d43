package source

import "keyword-intel/pkg/model"

// keywordsPayload is the task body shared by the keyword-list endpoints.
type keywordsPayload struct {
	Keywords     []string `json:"keywords"`
	LocationCode int      `json:"location_code,omitempty"`
	LanguageCode string   `json:"language_code,omitempty"`
}

type serpPayload struct {
	Keyword      string `json:"keyword"`
	LocationCode int    `json:"location_code"`
	LanguageCode string `json:"language_code"`
	Device       string `json:"device,omitempty"`
	Depth        int    `json:"depth,omitempty"`
}

type trendsPayload struct {
	Keywords     []string `json:"keywords"`
	LocationCode int      `json:"location_code,omitempty"`
	LanguageCode string   `json:"language_code,omitempty"`
	Type         string   `json:"type"`
	TimeRange    string   `json:"time_range"`
	ItemTypes    []string `json:"item_types"`
}

const serpDepth = 20

func newKeywordsPayload(req model.MetricRequest) keywordsPayload {
	return keywordsPayload{
		Keywords:     []string{req.Keyword()},
		LocationCode: req.LocationCode(),
		LanguageCode: req.LanguageCode(),
	}
}

// newIntentPayload omits the location; intent is language scoped.
func newIntentPayload(req model.MetricRequest) keywordsPayload {
	return keywordsPayload{
		Keywords:     []string{req.Keyword()},
		LanguageCode: req.LanguageCode(),
	}
}

func newSerpPayload(req model.MetricRequest) serpPayload {
	return serpPayload{
		Keyword:      req.Keyword(),
		LocationCode: req.LocationCode(),
		LanguageCode: req.LanguageCode(),
		Device:       "desktop",
		Depth:        serpDepth,
	}
}

func newTrendsPayload(req model.MetricRequest) trendsPayload {
	return trendsPayload{
		Keywords:     []string{req.Keyword()},
		LocationCode: req.LocationCode(),
		LanguageCode: req.LanguageCode(),
		Type:         "youtube",
		TimeRange:    "past_5_years",
		ItemTypes:    []string{trendsGraphType},
	}
}

package source

import (
	"encoding/json"

	"keyword-intel/pkg/analysis"
	"keyword-intel/pkg/model"
)

// labsResult wraps the item list returned by the labs endpoints.
type labsResult[T any] struct {
	TotalCount int `json:"total_count"`
	ItemsCount int `json:"items_count"`
	Items      []T `json:"items"`
}

type monthlySearch struct {
	Year         int    `json:"year"`
	Month        int    `json:"month"`
	SearchVolume *int64 `json:"search_volume"`
}

type keywordInfo struct {
	SearchVolume     *int64          `json:"search_volume"`
	Competition      *float64        `json:"competition"`
	CompetitionLevel string          `json:"competition_level"`
	CPC              *float64        `json:"cpc"`
	MonthlySearches  []monthlySearch `json:"monthly_searches"`
}

type historicalItem struct {
	Keyword     string       `json:"keyword"`
	KeywordInfo *keywordInfo `json:"keyword_info"`
}

type intentLabel struct {
	Label       string   `json:"label"`
	Probability *float64 `json:"probability"`
}

type intentItem struct {
	Keyword                 string        `json:"keyword"`
	KeywordIntent           *intentLabel  `json:"keyword_intent"`
	SecondaryKeywordIntents []intentLabel `json:"secondary_keyword_intents"`
}

type difficultyItem struct {
	Keyword           string   `json:"keyword"`
	KeywordDifficulty *float64 `json:"keyword_difficulty"`
}

// bingVolumeResult is flat: one result entry per requested keyword.
type bingVolumeResult struct {
	Keyword         string          `json:"keyword"`
	SearchVolume    *int64          `json:"search_volume"`
	Competition     *float64        `json:"competition"`
	CPC             *float64        `json:"cpc"`
	MonthlySearches []monthlySearch `json:"monthly_searches"`
}

type serpRating struct {
	Value      *float64 `json:"value"`
	VotesCount *int64   `json:"votes_count"`
}

// serpItem covers organic, paid, feature and video items. Links and
// highlighted vary in shape between item types and are only counted.
type serpItem struct {
	Type                string          `json:"type"`
	RankGroup           int             `json:"rank_group"`
	RankAbsolute        int             `json:"rank_absolute"`
	Domain              string          `json:"domain"`
	Title               string          `json:"title"`
	Description         string          `json:"description"`
	URL                 string          `json:"url"`
	Rating              *serpRating     `json:"rating"`
	Links               json.RawMessage `json:"links"`
	Highlighted         json.RawMessage `json:"highlighted"`
	ChannelName         string          `json:"channel_name"`
	ViewsCount          *int64          `json:"views_count"`
	DurationTimeSeconds *int64          `json:"duration_time_seconds"`
}

type serpResult struct {
	Keyword        string     `json:"keyword"`
	SeResultsCount int64      `json:"se_results_count"`
	ItemTypes      []string   `json:"item_types"`
	ItemsCount     int        `json:"items_count"`
	Items          []serpItem `json:"items"`
}

const trendsGraphType = "google_trends_graph"

// trendsItem keeps Data raw: graph, map and query-list items disagree on its shape.
type trendsItem struct {
	Type     string          `json:"type"`
	Keywords []string        `json:"keywords"`
	Data     json.RawMessage `json:"data"`
}

type trendsPoint struct {
	DateFrom    string   `json:"date_from"`
	DateTo      string   `json:"date_to"`
	Timestamp   int64    `json:"timestamp"`
	MissingData bool     `json:"missing_data"`
	Values      []*int64 `json:"values"`
}

type trendsResult struct {
	Keywords []string     `json:"keywords"`
	Type     string       `json:"type"`
	Items    []trendsItem `json:"items"`
}

func toMonthPoints(raw []monthlySearch) []model.MonthPoint {
	points := make([]model.MonthPoint, 0, len(raw))
	for _, m := range raw {
		if m.SearchVolume == nil || m.Month < 1 || m.Month > 12 {
			continue
		}
		points = append(points, model.MonthPoint{Year: m.Year, Month: m.Month, SearchVolume: *m.SearchVolume})
	}
	return points
}

func countElements(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return 0
	}
	return len(elems)
}

func toSerpItems(raw []serpItem) []analysis.SerpItem {
	items := make([]analysis.SerpItem, len(raw))
	for i, it := range raw {
		items[i] = analysis.SerpItem{
			Type:           it.Type,
			Domain:         it.Domain,
			Title:          it.Title,
			Description:    it.Description,
			URL:            it.URL,
			SitelinkCount:  countElements(it.Links),
			HighlightCount: countElements(it.Highlighted),
		}
		if it.Rating != nil {
			items[i].Rating = it.Rating.Value
		}
	}
	return items
}

func toVideoItems(raw []serpItem) []analysis.VideoItem {
	items := make([]analysis.VideoItem, 0, len(raw))
	for _, it := range raw {
		v := analysis.VideoItem{Type: it.Type, Channel: it.ChannelName}
		if it.ViewsCount != nil {
			v.Views = *it.ViewsCount
		}
		if it.DurationTimeSeconds != nil {
			v.DurationSeconds = *it.DurationTimeSeconds
		}
		items = append(items, v)
	}
	return items
}

// graphSeries pulls the first keyword's values out of the trends graph item.
func graphSeries(result trendsResult) ([]analysis.SeriesPoint, error) {
	for _, item := range result.Items {
		if item.Type != trendsGraphType || len(item.Data) == 0 {
			continue
		}
		var points []trendsPoint
		if err := json.Unmarshal(item.Data, &points); err != nil {
			return nil, err
		}

		series := make([]analysis.SeriesPoint, 0, len(points))
		for _, p := range points {
			if p.MissingData || len(p.Values) == 0 || p.Values[0] == nil {
				continue
			}
			series = append(series, analysis.SeriesPoint{Timestamp: p.Timestamp, Value: *p.Values[0]})
		}
		return series, nil
	}
	return nil, nil
}

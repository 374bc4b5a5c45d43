package aggregator

import (
	"sort"

	"keyword-intel/pkg/model"
)

// outcome is one adapter's result inside a request.
type outcome struct {
	source  model.Source
	metrics *model.SourceMetrics
	err     error
	cost    float64
}

// merged is the fan-in of every outcome, independent of completion order.
type merged struct {
	result   *model.KeywordIntelligenceResult
	partials []model.PartialError
	cost     float64
}

// merge folds outcomes in canonical source order. Root sections come from
// the first successful source that provides them; cost is summed in the same
// order so the float total is reproducible.
func merge(req model.MetricRequest, outcomes []outcome) merged {
	ordered := append([]outcome(nil), outcomes...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].source.Rank() < ordered[j].source.Rank()
	})

	result := &model.KeywordIntelligenceResult{
		Keyword:        req.Keyword(),
		LocationCode:   req.LocationCode(),
		LanguageCode:   req.LanguageCode(),
		Sources:        make(map[model.Source]*model.SourceMetrics),
		SourcesQueried: []model.Source{},
	}
	var out merged

	for _, o := range ordered {
		out.cost += o.cost

		if o.err != nil {
			out.partials = append(out.partials, classifySourceError(o.source, o.err))
			continue
		}

		m := o.metrics
		result.Sources[o.source] = m
		result.SourcesQueried = append(result.SourcesQueried, o.source)

		if result.CoreMetrics == nil {
			result.CoreMetrics = m.Core
		}
		if result.Trend == nil {
			result.Trend = m.Trend
		}
		if result.SerpFeatures == nil {
			result.SerpFeatures = m.SerpFeatures
		}
		if result.PaidCompetition == nil {
			result.PaidCompetition = m.PaidCompetition
		}
		if result.Video == nil {
			result.Video = m.Video
		}
	}

	result.TotalCost = out.cost
	result.PartialErrors = out.partials
	out.result = result
	return out
}

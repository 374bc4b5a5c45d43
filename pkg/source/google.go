package source

import (
	"context"

	"keyword-intel/pkg/analysis"
	"keyword-intel/pkg/model"
)

// GoogleAdapter combines labs historical volume, search intent and keyword
// difficulty, plus the organic SERP when requested.
type GoogleAdapter struct {
	f *Fetcher
}

// NewGoogleAdapter creates the Google source adapter.
func NewGoogleAdapter(f *Fetcher) *GoogleAdapter {
	return &GoogleAdapter{f: f}
}

func (a *GoogleAdapter) Source() model.Source {
	return model.SourceGoogle
}

func (a *GoogleAdapter) Fetch(ctx context.Context, req model.MetricRequest) (*model.SourceMetrics, error) {
	src := a.Source()
	ctx, span := a.f.startSpan(ctx, src, req)
	defer span.End()

	var (
		historical lookup[labsResult[historicalItem]]
		intent     lookup[labsResult[intentItem]]
		difficulty lookup[labsResult[difficultyItem]]
		serp       lookup[serpResult]
	)

	tasks := []task{
		fetchTask(a.f, src, CallHistorical, EndpointGoogleHistorical, newKeywordsPayload(req), &historical),
		fetchTask(a.f, src, CallIntent, EndpointGoogleIntent, newIntentPayload(req), &intent),
		fetchTask(a.f, src, CallDifficulty, EndpointGoogleDifficulty, newKeywordsPayload(req), &difficulty),
	}
	if req.IncludeSERP() {
		tasks = append(tasks, fetchTask(a.f, src, CallSERP, EndpointGoogleSERP, newSerpPayload(req), &serp))
	}

	cost, err := a.f.runAll(ctx, src, tasks)
	a.f.finish(span, src, cost, err)
	if err != nil {
		return nil, err
	}

	metrics := &model.SourceMetrics{Source: src, Cost: cost}

	core := &model.KeywordCoreMetrics{}
	hasCore := false

	if item, ok := firstLabsItem(historical); ok && item.KeywordInfo != nil {
		info := item.KeywordInfo
		applyVolume(core, info.SearchVolume, info.Competition, info.CPC)
		core.MonthlySearches = toMonthPoints(info.MonthlySearches)
		trend := analysis.ComputeTrend(core.MonthlySearches)
		metrics.Trend = &trend
		hasCore = true
	}
	if item, ok := firstLabsItem(intent); ok && item.KeywordIntent != nil {
		core.SearchIntent = toIntent(*item.KeywordIntent)
		for _, secondary := range item.SecondaryKeywordIntents {
			core.SecondaryIntents = append(core.SecondaryIntents, *toIntent(secondary))
		}
		hasCore = true
	}
	if item, ok := firstLabsItem(difficulty); ok && item.KeywordDifficulty != nil {
		applyDifficulty(core, *item.KeywordDifficulty)
		hasCore = true
	}
	if hasCore {
		metrics.Core = core
	}

	applySERP(metrics, serp)
	return metrics, nil
}

func applyVolume(core *model.KeywordCoreMetrics, volume *int64, competition, cpc *float64) {
	if volume != nil {
		v := *volume
		if v < 0 {
			v = 0
		}
		core.SearchVolume = &v
	}
	if competition != nil {
		c := analysis.ClampUnit(*competition)
		core.CompetitionScore = &c
		core.CompetitionLevel = analysis.ClassifyCompetition(c)
	}
	if cpc != nil {
		c := *cpc
		if c < 0 {
			c = 0
		}
		core.CPC = &c
	}
}

func applyDifficulty(core *model.KeywordCoreMetrics, score float64) {
	d := analysis.ClampPercent(score)
	core.DifficultyScore = &d
	core.DifficultyLevel = analysis.ClassifyDifficulty(d)
	core.DifficultyComplexity = analysis.DifficultyComplexity(d)
}

func toIntent(label intentLabel) *model.SearchIntent {
	intent := &model.SearchIntent{Label: label.Label}
	if label.Probability != nil {
		intent.Probability = analysis.ClampUnit(*label.Probability)
	}
	return intent
}

func applySERP(metrics *model.SourceMetrics, serp lookup[serpResult]) {
	if !serp.Found {
		return
	}
	items := toSerpItems(serp.Item.Items)
	features := analysis.DetectSerpFeatures(items)
	paid := analysis.AnalyzePaidCompetition(items)
	metrics.SerpFeatures = &features
	metrics.PaidCompetition = &paid
}

package source

import (
	"context"

	"keyword-intel/pkg/analysis"
	"keyword-intel/pkg/model"
)

// BingAdapter combines Bing search volume and keyword difficulty, plus the
// organic SERP when requested. Bing has no intent endpoint.
type BingAdapter struct {
	f *Fetcher
}

// NewBingAdapter creates the Bing source adapter.
func NewBingAdapter(f *Fetcher) *BingAdapter {
	return &BingAdapter{f: f}
}

func (a *BingAdapter) Source() model.Source {
	return model.SourceBing
}

func (a *BingAdapter) Fetch(ctx context.Context, req model.MetricRequest) (*model.SourceMetrics, error) {
	src := a.Source()
	ctx, span := a.f.startSpan(ctx, src, req)
	defer span.End()

	var (
		historical lookup[bingVolumeResult]
		difficulty lookup[labsResult[difficultyItem]]
		serp       lookup[serpResult]
	)

	tasks := []task{
		fetchTask(a.f, src, CallHistorical, EndpointBingHistorical, newKeywordsPayload(req), &historical),
		fetchTask(a.f, src, CallDifficulty, EndpointBingDifficulty, newKeywordsPayload(req), &difficulty),
	}
	if req.IncludeSERP() {
		tasks = append(tasks, fetchTask(a.f, src, CallSERP, EndpointBingSERP, newSerpPayload(req), &serp))
	}

	cost, err := a.f.runAll(ctx, src, tasks)
	a.f.finish(span, src, cost, err)
	if err != nil {
		return nil, err
	}

	metrics := &model.SourceMetrics{Source: src, Cost: cost}

	core := &model.KeywordCoreMetrics{}
	hasCore := false

	if historical.Found {
		item := historical.Item
		applyVolume(core, item.SearchVolume, item.Competition, item.CPC)
		core.MonthlySearches = toMonthPoints(item.MonthlySearches)
		trend := analysis.ComputeTrend(core.MonthlySearches)
		metrics.Trend = &trend
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

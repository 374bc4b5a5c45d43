package source

import (
	"context"

	"keyword-intel/pkg/analysis"
	"keyword-intel/pkg/api"
	"keyword-intel/pkg/envelope"
	"keyword-intel/pkg/model"
)

// YouTubeAdapter combines video results with YouTube search interest over
// time. It reports no volume, competition or difficulty.
type YouTubeAdapter struct {
	f *Fetcher
}

// NewYouTubeAdapter creates the YouTube source adapter.
func NewYouTubeAdapter(f *Fetcher) *YouTubeAdapter {
	return &YouTubeAdapter{f: f}
}

func (a *YouTubeAdapter) Source() model.Source {
	return model.SourceYouTube
}

func (a *YouTubeAdapter) Fetch(ctx context.Context, req model.MetricRequest) (*model.SourceMetrics, error) {
	src := a.Source()
	ctx, span := a.f.startSpan(ctx, src, req)
	defer span.End()

	var (
		videos lookup[serpResult]
		trends lookup[trendsResult]
	)

	tasks := []task{
		fetchTask(a.f, src, CallSERP, EndpointYouTubeSERP, newSerpPayload(req), &videos),
		fetchTask(a.f, src, CallTrends, EndpointYouTubeTrends, newTrendsPayload(req), &trends),
	}

	cost, err := a.f.runAll(ctx, src, tasks)

	var series []analysis.SeriesPoint
	if err == nil && trends.Found {
		var parseErr error
		if series, parseErr = graphSeries(trends.Item); parseErr != nil {
			classified := api.NewErrorClassifier().Classify(&envelope.ValidationError{Reason: "trends graph data", Err: parseErr})
			classified.Attempts = 1
			classified.Cost = cost
			err = &SourceError{Source: src, Call: CallTrends, Cost: cost, Err: classified}
		}
	}

	a.f.finish(span, src, cost, err)
	if err != nil {
		return nil, err
	}

	metrics := &model.SourceMetrics{Source: src, Cost: cost}
	if videos.Found {
		insights := analysis.AnalyzeVideos(toVideoItems(videos.Item.Items))
		metrics.Video = &insights
	}
	if len(series) > 0 {
		trend := analysis.ComputeTrend(analysis.MonthlyFromSeries(series))
		metrics.Trend = &trend
	}
	return metrics, nil
}

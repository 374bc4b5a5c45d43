package analysis

import (
	"sort"
	"strings"
	"time"

	"keyword-intel/pkg/model"
)

const (
	videoItemType  = "youtube_video"
	maxTopChannels = 5
)

// VideoItem is the subset of a video result the analyser reads.
type VideoItem struct {
	Type            string
	Channel         string
	Views           int64
	DurationSeconds int64
}

// AnalyzeVideos summarises video results: count, leading channels and
// average views and duration.
func AnalyzeVideos(items []VideoItem) model.VideoInsights {
	insights := model.VideoInsights{TopChannels: []model.ChannelShare{}}

	counts := make(map[string]int)
	var views, duration int64
	for _, item := range items {
		if item.Type != "" && item.Type != videoItemType {
			continue
		}
		insights.VideoCount++
		views += item.Views
		duration += item.DurationSeconds
		if channel := strings.TrimSpace(item.Channel); channel != "" {
			counts[channel]++
		}
	}
	if insights.VideoCount == 0 {
		return insights
	}

	insights.AverageViews = views / int64(insights.VideoCount)
	insights.AverageDurationSeconds = duration / int64(insights.VideoCount)

	for channel, n := range counts {
		insights.TopChannels = append(insights.TopChannels, model.ChannelShare{Channel: channel, Videos: n})
	}
	sort.Slice(insights.TopChannels, func(i, j int) bool {
		a, b := insights.TopChannels[i], insights.TopChannels[j]
		if a.Videos != b.Videos {
			return a.Videos > b.Videos
		}
		return a.Channel < b.Channel
	})
	if len(insights.TopChannels) > maxTopChannels {
		insights.TopChannels = insights.TopChannels[:maxTopChannels]
	}
	return insights
}

// SeriesPoint is one sample of an interest-over-time series.
type SeriesPoint struct {
	Timestamp int64
	Value     int64
}

// MonthlyFromSeries averages a (possibly weekly) series into calendar months
// so it can feed ComputeTrend.
func MonthlyFromSeries(series []SeriesPoint) []model.MonthPoint {
	type bucket struct {
		sum   int64
		count int64
	}
	type monthKey struct {
		year  int
		month int
	}

	buckets := make(map[monthKey]*bucket)
	for _, p := range series {
		t := time.Unix(p.Timestamp, 0).UTC()
		key := monthKey{year: t.Year(), month: int(t.Month())}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.sum += p.Value
		b.count++
	}

	points := make([]model.MonthPoint, 0, len(buckets))
	for key, b := range buckets {
		points = append(points, model.MonthPoint{
			Year:         key.year,
			Month:        key.month,
			SearchVolume: b.sum / b.count,
		})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Year != points[j].Year {
			return points[i].Year < points[j].Year
		}
		return points[i].Month < points[j].Month
	})
	return points
}

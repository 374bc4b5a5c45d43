package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyword-intel/pkg/model"
)

func TestAnalyzeVideos(t *testing.T) {
	got := AnalyzeVideos([]VideoItem{
		{Type: "youtube_video", Channel: "Ahrefs", Views: 1000, DurationSeconds: 600},
		{Type: "youtube_video", Channel: "Ahrefs", Views: 3000, DurationSeconds: 300},
		{Type: "youtube_video", Channel: "Moz", Views: 2000, DurationSeconds: 900},
		{Type: "youtube_channel", Channel: "Semrush"},
	})

	assert.Equal(t, 3, got.VideoCount)
	assert.Equal(t, int64(2000), got.AverageViews)
	assert.Equal(t, int64(600), got.AverageDurationSeconds)
	require.Len(t, got.TopChannels, 2)
	assert.Equal(t, model.ChannelShare{Channel: "Ahrefs", Videos: 2}, got.TopChannels[0])
}

func TestAnalyzeVideos_Empty(t *testing.T) {
	got := AnalyzeVideos(nil)
	assert.Zero(t, got.VideoCount)
	assert.NotNil(t, got.TopChannels)
}

func TestMonthlyFromSeries(t *testing.T) {
	ts := func(y int, m time.Month, d int) int64 {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix()
	}

	got := MonthlyFromSeries([]SeriesPoint{
		{Timestamp: ts(2024, time.February, 4), Value: 80},
		{Timestamp: ts(2024, time.January, 7), Value: 40},
		{Timestamp: ts(2024, time.January, 14), Value: 60},
	})

	assert.Equal(t, []model.MonthPoint{
		{Year: 2024, Month: 1, SearchVolume: 50},
		{Year: 2024, Month: 2, SearchVolume: 80},
	}, got)
}

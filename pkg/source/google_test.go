package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyword-intel/pkg/api"
	"keyword-intel/pkg/logger"
	"keyword-intel/pkg/model"
)

func googleStub() *stubCaller {
	return newStubCaller().
		on(EndpointGoogleHistorical, okEnvelope(0.01, googleHistoricalResult)).
		on(EndpointGoogleIntent, okEnvelope(0.001, googleIntentResult)).
		on(EndpointGoogleDifficulty, okEnvelope(0.0101, googleDifficultyResult))
}

func TestGoogleAdapter_Fetch(t *testing.T) {
	caller := googleStub()
	observer := &recordingObserver{}
	adapter := NewGoogleAdapter(newTestFetcher(caller, observer))

	got, err := adapter.Fetch(context.Background(), newTestRequest(t, false, model.SourceGoogle))
	require.NoError(t, err)

	assert.Equal(t, model.SourceGoogle, got.Source)
	assert.InDelta(t, 0.0211, got.Cost, 1e-9)

	core := got.Core
	require.NotNil(t, core)
	require.NotNil(t, core.SearchVolume)
	assert.Equal(t, int64(12000), *core.SearchVolume)
	require.NotNil(t, core.CompetitionScore)
	assert.Equal(t, 0.55, *core.CompetitionScore)
	assert.Equal(t, model.LevelMedium, core.CompetitionLevel)
	require.NotNil(t, core.CPC)
	assert.Equal(t, 14.2, *core.CPC)
	require.NotNil(t, core.DifficultyScore)
	assert.Equal(t, 62.0, *core.DifficultyScore)
	assert.Equal(t, model.LevelMedium, core.DifficultyLevel)
	assert.Equal(t, "hard", core.DifficultyComplexity)
	assert.Equal(t, &model.SearchIntent{Label: "commercial", Probability: 0.8}, core.SearchIntent)
	assert.Equal(t, []model.SearchIntent{{Label: "informational", Probability: 0.35}}, core.SecondaryIntents)
	assert.Len(t, core.MonthlySearches, 6)

	require.NotNil(t, got.Trend)
	assert.Equal(t, "+31.3%", got.Trend.MonthlyTrend)
	assert.Equal(t, "up", got.Trend.Direction)

	assert.Nil(t, got.SerpFeatures)
	assert.Nil(t, got.PaidCompetition)
	assert.Zero(t, caller.callCount(EndpointGoogleSERP))
	assert.Len(t, observer.calls, 3)
}

func TestGoogleAdapter_Payloads(t *testing.T) {
	caller := googleStub()
	adapter := NewGoogleAdapter(newTestFetcher(caller, nil))

	_, err := adapter.Fetch(context.Background(), newTestRequest(t, false))
	require.NoError(t, err)

	historical, ok := caller.payloads[EndpointGoogleHistorical].(keywordsPayload)
	require.True(t, ok)
	assert.Equal(t, []string{"digital marketing"}, historical.Keywords)
	assert.Equal(t, 2840, historical.LocationCode)
	assert.Equal(t, "en", historical.LanguageCode)

	intent, ok := caller.payloads[EndpointGoogleIntent].(keywordsPayload)
	require.True(t, ok)
	assert.Zero(t, intent.LocationCode)
}

func TestGoogleAdapter_NoResultsIsAbsentNotFailure(t *testing.T) {
	caller := googleStub().on(EndpointGoogleDifficulty, okEnvelope(0.0101, emptyLabsResult))
	adapter := NewGoogleAdapter(newTestFetcher(caller, nil))

	got, err := adapter.Fetch(context.Background(), newTestRequest(t, false))
	require.NoError(t, err)

	require.NotNil(t, got.Core)
	assert.Nil(t, got.Core.DifficultyScore)
	assert.Empty(t, got.Core.DifficultyLevel)
	assert.NotNil(t, got.Core.SearchVolume)
	assert.InDelta(t, 0.0211, got.Cost, 1e-9)
}

func TestGoogleAdapter_TerminalFailureFailsSource(t *testing.T) {
	caller := newStubCaller().
		onFunc(EndpointGoogleHistorical, blockUntilCancelled).
		onFunc(EndpointGoogleIntent, blockUntilCancelled).
		on(EndpointGoogleDifficulty, failedTaskEnvelope(0.05, 40200, "Payment Required."))
	adapter := NewGoogleAdapter(newTestFetcher(caller, nil))

	got, err := adapter.Fetch(context.Background(), newTestRequest(t, false))
	require.Error(t, err)
	assert.Nil(t, got)

	var se *SourceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, model.SourceGoogle, se.Source)
	assert.Equal(t, CallDifficulty, se.Call)
	assert.InDelta(t, 0.05, se.Cost, 1e-9)

	classified := se.Classified()
	require.NotNil(t, classified)
	assert.Equal(t, 402, classified.StatusCode)
	assert.Equal(t, "Insufficient credits", classified.Message)
	assert.False(t, classified.Retryable)
	assert.Equal(t, 1, caller.callCount(EndpointGoogleDifficulty))
}

func TestGoogleAdapter_RetriesRateLimit(t *testing.T) {
	attempts := 0
	caller := googleStub().onFunc(EndpointGoogleIntent, func(ctx context.Context) ([]byte, error) {
		attempts++
		if attempts < 3 {
			return nil, &api.TransportError{Kind: api.KindHTTPStatus, HTTPStatus: 429, Endpoint: EndpointGoogleIntent}
		}
		return okEnvelope(0.001, googleIntentResult), nil
	})
	adapter := NewGoogleAdapter(newTestFetcher(caller, nil))

	got, err := adapter.Fetch(context.Background(), newTestRequest(t, false))
	require.NoError(t, err)
	assert.Equal(t, 3, caller.callCount(EndpointGoogleIntent))
	require.NotNil(t, got.Core.SearchIntent)
	assert.Equal(t, "commercial", got.Core.SearchIntent.Label)
}

func TestGoogleAdapter_WithSERP(t *testing.T) {
	caller := googleStub().on(EndpointGoogleSERP, okEnvelope(0.002, googleSerpResult))
	adapter := NewGoogleAdapter(newTestFetcher(caller, nil))

	got, err := adapter.Fetch(context.Background(), newTestRequest(t, true))
	require.NoError(t, err)
	assert.InDelta(t, 0.0231, got.Cost, 1e-9)

	require.NotNil(t, got.SerpFeatures)
	assert.Equal(t, []string{"featured_snippet", "people_also_ask"}, got.SerpFeatures.Features)
	assert.Equal(t, -11, got.SerpFeatures.EstimatedCTRImpactPct)
	assert.Equal(t, "medium", got.SerpFeatures.OrganicDifficulty)

	require.NotNil(t, got.PaidCompetition)
	assert.Equal(t, 2, got.PaidCompetition.AdsCount)
	assert.Equal(t, "low", got.PaidCompetition.CompetitionLevel)
	assert.Equal(t, []string{"hubspot.com", "semrush.com"}, got.PaidCompetition.AdvertiserDomains)
	assert.Equal(t, 5.3, got.PaidCompetition.AverageAdQuality)
	assert.Equal(t, []string{"Limited paid competition leaves room for affordable placements"}, got.PaidCompetition.StrategicInsights)
}

func TestGoogleAdapter_MalformedEnvelopeIsTerminal(t *testing.T) {
	caller := googleStub().on(EndpointGoogleHistorical, []byte(`<html>502 Bad Gateway</html>`))
	adapter := NewGoogleAdapter(newTestFetcher(caller, nil))

	_, err := adapter.Fetch(context.Background(), newTestRequest(t, false))

	var se *SourceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, CallHistorical, se.Call)
	assert.Equal(t, 502, se.Classified().StatusCode)
	assert.Equal(t, 1, caller.callCount(EndpointGoogleHistorical))
}

func TestGoogleAdapter_ItemShapeMismatchKeepsBilledCost(t *testing.T) {
	mismatched := `[{"se_type":"google","items_count":1,"items":[{"keyword":"digital marketing","keyword_difficulty":"hard"}]}]`
	caller := newStubCaller().
		onFunc(EndpointGoogleHistorical, blockUntilCancelled).
		onFunc(EndpointGoogleIntent, blockUntilCancelled).
		on(EndpointGoogleDifficulty, okEnvelope(0.05, mismatched))
	adapter := NewGoogleAdapter(newTestFetcher(caller, nil))

	_, err := adapter.Fetch(context.Background(), newTestRequest(t, false))

	var se *SourceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, CallDifficulty, se.Call)
	assert.InDelta(t, 0.05, se.Cost, 1e-9)

	classified := se.Classified()
	require.NotNil(t, classified)
	assert.Equal(t, 502, classified.StatusCode)
	assert.InDelta(t, 0.05, classified.Cost, 1e-9)
	assert.Equal(t, 1, caller.callCount(EndpointGoogleDifficulty))
}

// lockedBuffer serialises log writes from concurrent calls.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestGoogleAdapter_FailedSecondaryTaskIsLogged(t *testing.T) {
	historical := []byte(fmt.Sprintf(`{
		"status_code":20000,"status_message":"Ok.","cost":0.02,"tasks_count":2,"tasks_error":1,
		"tasks":[
			{"id":"task-1","status_code":20000,"status_message":"Ok.","cost":0.01,"result":%s},
			{"id":"task-2","status_code":40501,"status_message":"Invalid Field.","cost":0.01,"result":null}
		]
	}`, googleHistoricalResult))
	caller := googleStub().on(EndpointGoogleHistorical, historical)

	out := &lockedBuffer{}
	log := logger.NewWithWriter(logger.Config{Level: "debug"}, out)
	retrier := api.NewRetrier(api.DefaultRetryPolicy(), nil)
	adapter := NewGoogleAdapter(NewFetcher(caller, retrier, nil, log))

	got, err := adapter.Fetch(context.Background(), newTestRequest(t, false))
	require.NoError(t, err)
	require.NotNil(t, got.Core)
	assert.InDelta(t, 0.0311, got.Cost, 1e-9)

	logged := out.String()
	assert.Contains(t, logged, `"level":"warn"`)
	assert.Contains(t, logged, "Upstream envelope has failed tasks")
	assert.Contains(t, logged, `"call":"historical"`)
	assert.Contains(t, logged, `"failed_tasks":1`)
	assert.Contains(t, logged, `"successful_tasks":1`)
	assert.Contains(t, logged, "task task-2 failed with status 40501")
}

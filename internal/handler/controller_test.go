package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyword-intel/pkg/aggregator"
	"keyword-intel/pkg/model"
)

// fakeKeywordService records the request it was given.
type fakeKeywordService struct {
	got       model.MetricRequest
	gotSource model.Source
	result    *model.KeywordIntelligenceResult
	err       error
}

func (f *fakeKeywordService) GetKeywordIntelligence(ctx context.Context, req model.MetricRequest) (*model.KeywordIntelligenceResult, error) {
	f.got = req
	return f.result, f.err
}

func (f *fakeKeywordService) GetSourceKeywordData(ctx context.Context, src model.Source, req model.MetricRequest) (*model.KeywordIntelligenceResult, error) {
	f.got = req
	f.gotSource = src
	return f.result, f.err
}

func newTestApp(svc *fakeKeywordService, gatherer prometheus.Gatherer) *Controller {
	return NewController(svc, ControllerConfig{Defaults: model.DefaultDefaults(), Gatherer: gatherer}, nil)
}

func doGet(t *testing.T, c *Controller, target string) (*http.Response, []byte) {
	t.Helper()
	resp, err := NewApp(c).Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHandleIntelligence(t *testing.T) {
	svc := &fakeKeywordService{result: &model.KeywordIntelligenceResult{
		RequestID:      "req-42",
		Keyword:        "digital marketing",
		SourcesQueried: []model.Source{model.SourceGoogle, model.SourceBing},
		TotalCost:      0.0211,
	}}

	resp, body := doGet(t, newTestApp(svc, nil), "/api/v1/keywords/intelligence?keyword=Digital%20%20Marketing&source=bing,google&location_code=2826&language_code=EN&serp=true")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "req-42", resp.Header.Get("X-Request-ID"))

	assert.Equal(t, "Digital Marketing", svc.got.Keyword())
	assert.Equal(t, 2826, svc.got.LocationCode())
	assert.Equal(t, "en", svc.got.LanguageCode())
	assert.True(t, svc.got.IncludeSERP())
	assert.Equal(t, []model.Source{model.SourceGoogle, model.SourceBing}, svc.got.Sources())

	var decoded model.KeywordIntelligenceResult
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, 0.0211, decoded.TotalCost)
}

func TestHandleIntelligence_DefaultsToGoogle(t *testing.T) {
	svc := &fakeKeywordService{result: &model.KeywordIntelligenceResult{}}

	resp, _ := doGet(t, newTestApp(svc, nil), "/api/v1/keywords/intelligence?keyword=seo")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []model.Source{model.SourceGoogle}, svc.got.Sources())
	assert.Equal(t, 2840, svc.got.LocationCode())
}

func TestHandleIntelligence_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"missing keyword", "", "invalid keyword"},
		{"bad location", "keyword=seo&location_code=us", "invalid location_code"},
		{"bad serp flag", "keyword=seo&serp=maybe", "invalid serp"},
		{"unknown source", "keyword=seo&source=yahoo", "invalid source"},
		{"keyword too long", "keyword=" + strings.Repeat("a", 201), "invalid keyword"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeKeywordService{}
			resp, body := doGet(t, newTestApp(svc, nil), "/api/v1/keywords/intelligence?"+tt.query)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var er ErrorResponse
			require.NoError(t, json.Unmarshal(body, &er))
			assert.Contains(t, er.Error, tt.want)
			assert.False(t, er.Retryable)
		})
	}
}

func TestHandleIntelligence_AggregationError(t *testing.T) {
	svc := &fakeKeywordService{err: &aggregator.AggregationError{
		Kind:       aggregator.KindAllSourcesFailed,
		Message:    "all 2 sources failed",
		StatusCode: 503,
		Retryable:  true,
		Cost:       0.04,
		PartialErrors: []model.PartialError{
			{Source: model.SourceGoogle, Message: "Upstream server error", StatusCode: 503, Retryable: true, Cost: 0.02},
			{Source: model.SourceBing, Message: "Upstream server error", StatusCode: 503, Retryable: true, Cost: 0.02},
		},
	}}

	resp, body := doGet(t, newTestApp(svc, nil), "/api/v1/keywords/intelligence?keyword=seo&source=all")

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	var er ErrorResponse
	require.NoError(t, json.Unmarshal(body, &er))
	assert.Equal(t, "all 2 sources failed", er.Error)
	assert.True(t, er.Retryable)
	assert.Equal(t, 0.04, er.Cost)
	assert.Len(t, er.PartialErrors, 2)
}

func TestHandleSource(t *testing.T) {
	svc := &fakeKeywordService{result: &model.KeywordIntelligenceResult{RequestID: "req-1"}}

	resp, _ := doGet(t, newTestApp(svc, nil), "/api/v1/keywords/youtube?keyword=seo")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, model.SourceYouTube, svc.gotSource)
	assert.Equal(t, []model.Source{model.SourceYouTube}, svc.got.Sources())
}

func TestHandleSource_SourceFailure(t *testing.T) {
	svc := &fakeKeywordService{err: &aggregator.AggregationError{
		Source:     model.SourceBing,
		Kind:       aggregator.KindSourceFailed,
		Message:    "Insufficient credits",
		StatusCode: 402,
		Cost:       0.05,
	}}

	resp, body := doGet(t, newTestApp(svc, nil), "/api/v1/keywords/bing?keyword=seo")

	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	var er ErrorResponse
	require.NoError(t, json.Unmarshal(body, &er))
	assert.Equal(t, ErrorResponse{Error: "Insufficient credits", Source: "bing", Cost: 0.05}, er)
}

func TestHandleSource_Unknown(t *testing.T) {
	resp, _ := doGet(t, newTestApp(&fakeKeywordService{}, nil), "/api/v1/keywords/yahoo?keyword=seo")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	aggregator.NewMetrics(reg).ObserveCall(model.SourceGoogle, "intent", 1, 0.001, nil)
	c := newTestApp(&fakeKeywordService{}, reg)

	resp, body := doGet(t, c, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)

	resp, body = doGet(t, c, "/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "keyword_intel_upstream_calls_total")
}

func TestMetricsRouteDisabledWithoutGatherer(t *testing.T) {
	resp, _ := doGet(t, newTestApp(&fakeKeywordService{}, nil), "/metrics")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

package source

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"keyword-intel/pkg/api"
	"keyword-intel/pkg/model"
)

// okEnvelope wraps a single successful task whose result is resultJSON.
func okEnvelope(cost float64, resultJSON string) []byte {
	return []byte(fmt.Sprintf(`{
		"version":"0.1.20240801","status_code":20000,"status_message":"Ok.","cost":%g,
		"tasks_count":1,"tasks_error":0,
		"tasks":[{"id":"task-1","status_code":20000,"status_message":"Ok.","cost":%g,"result_count":1,"result":%s}]
	}`, cost, cost, resultJSON))
}

// failedTaskEnvelope reports a task-level provider failure.
func failedTaskEnvelope(cost float64, code int, message string) []byte {
	return []byte(fmt.Sprintf(`{
		"status_code":20000,"status_message":"Ok.","cost":%g,"tasks_count":1,"tasks_error":1,
		"tasks":[{"id":"task-1","status_code":%d,"status_message":%q,"cost":%g,"result":null}]
	}`, cost, code, message, cost))
}

const (
	googleHistoricalResult = `[{"se_type":"google","location_code":2840,"language_code":"en","total_count":1,"items_count":1,"items":[
		{"keyword":"digital marketing","keyword_info":{"se_type":"google","search_volume":12000,"competition":0.55,"competition_level":"MEDIUM","cpc":14.2,
		"monthly_searches":[
			{"year":2024,"month":6,"search_volume":14800},
			{"year":2024,"month":5,"search_volume":12100},
			{"year":2024,"month":4,"search_volume":12100},
			{"year":2024,"month":3,"search_volume":9900},
			{"year":2024,"month":2,"search_volume":9900},
			{"year":2024,"month":1,"search_volume":9900}
		]}}]}]`

	googleIntentResult = `[{"language_code":"en","items_count":1,"items":[
		{"keyword":"digital marketing","keyword_intent":{"label":"commercial","probability":0.8},
		 "secondary_keyword_intents":[{"label":"informational","probability":0.35}]}]}]`

	googleDifficultyResult = `[{"se_type":"google","location_code":2840,"language_code":"en","total_count":1,"items_count":1,"items":[
		{"se_type":"google","keyword":"digital marketing","keyword_difficulty":62}]}]`

	emptyLabsResult = `[{"se_type":"google","total_count":0,"items_count":0,"items":[]}]`

	googleSerpResult = `[{"keyword":"digital marketing","se_results_count":1250000000,"item_types":["paid","featured_snippet","people_also_ask","organic"],"items_count":6,"items":[
		{"type":"paid","rank_group":1,"rank_absolute":1,"domain":"www.hubspot.com","title":"Digital Marketing Software | Start Free Today","description":"Grow traffic, convert leads and report on ROI with an all-in-one marketing platform trusted by teams.","url":"https://www.hubspot.com/marketing","highlighted":["marketing"],"links":[{"title":"Pricing","url":"https://www.hubspot.com/pricing"}]},
		{"type":"paid","rank_group":2,"rank_absolute":2,"domain":"semrush.com","title":"Semrush","description":"Tools","url":"http://semrush.com"},
		{"type":"featured_snippet","rank_group":1,"rank_absolute":3,"domain":"en.wikipedia.org","title":"Digital marketing","url":"https://en.wikipedia.org/wiki/Digital_marketing"},
		{"type":"people_also_ask","rank_group":1,"rank_absolute":4,"items":[{"type":"people_also_ask_element","title":"What is digital marketing?"}]},
		{"type":"organic","rank_group":1,"rank_absolute":5,"domain":"mailchimp.com","title":"What Is Digital Marketing?","url":"https://mailchimp.com/marketing-glossary/digital-marketing/","rating":{"rating_type":"Max5","value":4.6,"votes_count":120}},
		{"type":"featured_snippet","rank_group":2,"rank_absolute":6,"domain":"example.com","title":"dup"}
	]}]`

	bingHistoricalResult = `[{"keyword":"digital marketing","location_code":2840,"language_code":"en","search_partners":false,"device":"all",
		"search_volume":3100,"competition":0.82,"cpc":6.5,
		"monthly_searches":[{"year":2024,"month":5,"search_volume":3000},{"year":2024,"month":6,"search_volume":3200}]}]`

	bingDifficultyResult = `[{"se_type":"bing","total_count":1,"items_count":1,"items":[{"keyword":"digital marketing","keyword_difficulty":48}]}]`

	youtubeSerpResult = `[{"keyword":"digital marketing","se_domain":"youtube.com","item_types":["youtube_video"],"items_count":3,"items":[
		{"type":"youtube_video","rank_group":1,"rank_absolute":1,"title":"Digital Marketing In 5 Minutes","channel_name":"Simplilearn","views_count":900000,"duration_time_seconds":300},
		{"type":"youtube_video","rank_group":2,"rank_absolute":2,"title":"Digital Marketing Course","channel_name":"Simplilearn","views_count":300000,"duration_time_seconds":36000},
		{"type":"youtube_video","rank_group":3,"rank_absolute":3,"title":"How I'd learn digital marketing","channel_name":"Neil Patel","views_count":600000,"duration_time_seconds":900}
	]}]`

	youtubeTrendsResult = `[{"keywords":["digital marketing"],"type":"youtube","location_code":2840,"language_code":"en","items_count":2,"items":[
		{"position":1,"type":"google_trends_graph","keywords":["digital marketing"],"data":[
			{"date_from":"2024-01-07","date_to":"2024-01-13","timestamp":1704585600,"missing_data":false,"values":[40]},
			{"date_from":"2024-01-14","date_to":"2024-01-20","timestamp":1705190400,"missing_data":false,"values":[60]},
			{"date_from":"2024-02-04","date_to":"2024-02-10","timestamp":1707004800,"missing_data":false,"values":[100]},
			{"date_from":"2024-02-11","date_to":"2024-02-17","timestamp":1707609600,"missing_data":true,"values":[null]}
		],"averages":[55]},
		{"position":2,"type":"google_trends_queries_list","keywords":["digital marketing"],"data":{"top":[],"rising":[]}}
	]}]`
)

// stubCaller answers by endpoint and records what it was sent.
type stubCaller struct {
	mu        sync.Mutex
	responses map[string]func(ctx context.Context) ([]byte, error)
	calls     map[string]int
	payloads  map[string]interface{}
}

func newStubCaller() *stubCaller {
	return &stubCaller{
		responses: make(map[string]func(ctx context.Context) ([]byte, error)),
		calls:     make(map[string]int),
		payloads:  make(map[string]interface{}),
	}
}

func (s *stubCaller) on(endpoint string, body []byte) *stubCaller {
	s.responses[endpoint] = func(context.Context) ([]byte, error) { return body, nil }
	return s
}

func (s *stubCaller) onFunc(endpoint string, fn func(ctx context.Context) ([]byte, error)) *stubCaller {
	s.responses[endpoint] = fn
	return s
}

func (s *stubCaller) Call(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	s.mu.Lock()
	s.calls[endpoint]++
	s.payloads[endpoint] = payload
	fn, ok := s.responses[endpoint]
	s.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("unexpected endpoint %s", endpoint)
	}
	return fn(ctx)
}

func (s *stubCaller) callCount(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[endpoint]
}

// blockUntilCancelled simulates a slow call that only ends when its sibling fails.
func blockUntilCancelled(ctx context.Context) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// recordingObserver captures ObserveCall invocations.
type recordingObserver struct {
	mu    sync.Mutex
	calls []string
}

func (o *recordingObserver) ObserveCall(src model.Source, call string, attempts int, cost float64, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, string(src)+"."+call)
}

func newTestFetcher(caller api.Caller, observer CallObserver) *Fetcher {
	retrier := api.NewRetrier(api.DefaultRetryPolicy(), nil, api.WithSleeper(func(ctx context.Context, d time.Duration) error {
		return ctx.Err()
	}))
	return NewFetcher(caller, retrier, observer, nil)
}

func newTestRequest(t *testing.T, serp bool, sources ...model.Source) model.MetricRequest {
	t.Helper()
	req, err := model.NewMetricRequest(model.RequestParams{
		Keyword:     "digital marketing",
		Sources:     sources,
		IncludeSERP: serp,
	}, model.DefaultDefaults())
	require.NoError(t, err)
	return req
}

package aggregator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"keyword-intel/pkg/api"
	"keyword-intel/pkg/model"
	"keyword-intel/pkg/source"
)

var fixedNow = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

func envelopeJSON(cost float64, resultJSON string) []byte {
	return []byte(fmt.Sprintf(`{"status_code":20000,"status_message":"Ok.","cost":%g,"tasks_count":1,"tasks_error":0,
		"tasks":[{"id":"t1","status_code":20000,"status_message":"Ok.","cost":%g,"result":%s}]}`, cost, cost, resultJSON))
}

const (
	historicalResult = `[{"items":[{"keyword":"digital marketing","keyword_info":{"search_volume":12000,"competition":0.55,"cpc":14.2,
		"monthly_searches":[{"year":2024,"month":5,"search_volume":11000},{"year":2024,"month":6,"search_volume":12000}]}}]}]`
	intentResult     = `[{"items":[{"keyword":"digital marketing","keyword_intent":{"label":"commercial","probability":0.8}}]}]`
	difficultyResult = `[{"items":[{"keyword":"digital marketing","keyword_difficulty":62}]}]`
	bingVolumeResult = `[{"keyword":"digital marketing","search_volume":3100,"competition":0.82,"cpc":6.5,"monthly_searches":[]}]`
)

// routeCaller answers upstream calls by endpoint.
type routeCaller struct {
	mu     sync.Mutex
	routes map[string]func(ctx context.Context) ([]byte, error)
	calls  map[string]int
}

func newRouteCaller() *routeCaller {
	return &routeCaller{
		routes: make(map[string]func(ctx context.Context) ([]byte, error)),
		calls:  make(map[string]int),
	}
}

func (c *routeCaller) respond(endpoint string, body []byte) *routeCaller {
	c.routes[endpoint] = func(context.Context) ([]byte, error) { return body, nil }
	return c
}

func (c *routeCaller) fail(endpoint string, status int) *routeCaller {
	c.routes[endpoint] = func(context.Context) ([]byte, error) {
		return nil, &api.TransportError{Kind: api.KindHTTPStatus, HTTPStatus: status, Endpoint: endpoint}
	}
	return c
}

func (c *routeCaller) block(endpoint string) *routeCaller {
	c.routes[endpoint] = func(ctx context.Context) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return c
}

func (c *routeCaller) Call(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	c.mu.Lock()
	c.calls[endpoint]++
	route, ok := c.routes[endpoint]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no route for %s", endpoint)
	}
	return route(ctx)
}

func (c *routeCaller) count(endpoint string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[endpoint]
}

func googleRoutes(c *routeCaller) *routeCaller {
	return c.
		respond(source.EndpointGoogleHistorical, envelopeJSON(0.01, historicalResult)).
		respond(source.EndpointGoogleIntent, envelopeJSON(0.001, intentResult)).
		respond(source.EndpointGoogleDifficulty, envelopeJSON(0.0101, difficultyResult))
}

func noWaitRetrier() *api.Retrier {
	return api.NewRetrier(api.DefaultRetryPolicy(), nil, api.WithSleeper(func(ctx context.Context, d time.Duration) error {
		return ctx.Err()
	}))
}

// realAdapters wires the production adapters over caller.
func realAdapters(caller api.Caller, observer source.CallObserver) []source.Adapter {
	f := source.NewFetcher(caller, noWaitRetrier(), observer, nil)
	return []source.Adapter{
		source.NewGoogleAdapter(f),
		source.NewBingAdapter(f),
		source.NewYouTubeAdapter(f),
	}
}

// fakeAdapter returns canned metrics or errors after an optional delay.
type fakeAdapter struct {
	src   model.Source
	delay time.Duration
	fetch func(ctx context.Context) (*model.SourceMetrics, error)

	mu    sync.Mutex
	calls int
}

func (a *fakeAdapter) Source() model.Source { return a.src }

func (a *fakeAdapter) Fetch(ctx context.Context, req model.MetricRequest) (*model.SourceMetrics, error) {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()

	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
		}
	}
	return a.fetch(ctx)
}

func (a *fakeAdapter) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func succeeding(src model.Source, cost float64, volume int64) *fakeAdapter {
	return &fakeAdapter{src: src, fetch: func(context.Context) (*model.SourceMetrics, error) {
		v := volume
		return &model.SourceMetrics{
			Source: src,
			Cost:   cost,
			Core:   &model.KeywordCoreMetrics{SearchVolume: &v},
			Trend:  &model.TrendSummary{MonthlyTrend: "+20.0%", DataPoints: 2},
		}, nil
	}}
}

func failing(src model.Source, cost float64, status int, message string) *fakeAdapter {
	return &fakeAdapter{src: src, fetch: func(context.Context) (*model.SourceMetrics, error) {
		return nil, &source.SourceError{
			Source: src,
			Call:   source.CallDifficulty,
			Cost:   cost,
			Err:    &api.ClassifiedError{StatusCode: status, Message: message, Attempts: 1, Cost: cost},
		}
	}}
}

func newService(adapters []source.Adapter, opts ...Option) *Service {
	opts = append([]Option{
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { return "req-1" }),
	}, opts...)
	return NewService(adapters, Config{RequestTimeout: 5 * time.Second}, nil, opts...)
}

func request(t *testing.T, serp bool, sources ...model.Source) model.MetricRequest {
	t.Helper()
	req, err := model.NewMetricRequest(model.RequestParams{
		Keyword:     "digital marketing",
		Sources:     sources,
		IncludeSERP: serp,
	}, model.DefaultDefaults())
	require.NoError(t, err)
	return req
}

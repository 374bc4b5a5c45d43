package source

// Upstream endpoint paths, relative to the provider base URL.
const (
	EndpointGoogleHistorical = "/v3/dataforseo_labs/google/historical_search_volume/live"
	EndpointGoogleIntent     = "/v3/dataforseo_labs/google/search_intent/live"
	EndpointGoogleDifficulty = "/v3/dataforseo_labs/google/bulk_keyword_difficulty/live"
	EndpointGoogleSERP       = "/v3/serp/google/organic/live/advanced"

	EndpointBingHistorical = "/v3/keywords_data/bing/search_volume/live"
	EndpointBingDifficulty = "/v3/dataforseo_labs/bing/bulk_keyword_difficulty/live"
	EndpointBingSERP       = "/v3/serp/bing/organic/live/advanced"

	EndpointYouTubeSERP   = "/v3/serp/youtube/organic/live/advanced"
	EndpointYouTubeTrends = "/v3/keywords_data/google_trends/explore/live"
)

// Call names used in logs, metrics and errors.
const (
	CallHistorical = "historical"
	CallIntent     = "intent"
	CallDifficulty = "difficulty"
	CallSERP       = "serp"
	CallTrends     = "trends"
)

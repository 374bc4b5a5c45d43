package model

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// MaxKeywordLength is the maximum keyword length in characters.
const MaxKeywordLength = 200

// ValidationError reports an invalid request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Defaults fills request fields the caller left empty.
type Defaults struct {
	LocationCode int    `mapstructure:"location_code"`
	LanguageCode string `mapstructure:"language_code"`
}

// DefaultDefaults targets the United States in English.
func DefaultDefaults() Defaults {
	return Defaults{LocationCode: 2840, LanguageCode: "en"}
}

// RequestParams is the unvalidated input to NewMetricRequest.
type RequestParams struct {
	Keyword      string
	LocationCode int
	LanguageCode string
	Sources      []Source
	IncludeSERP  bool
}

// MetricRequest is a validated, immutable keyword query. Pass it by value.
type MetricRequest struct {
	keyword      string
	locationCode int
	languageCode string
	sources      []Source
	includeSERP  bool
}

// NormalizeKeyword applies NFC normalisation and collapses whitespace.
func NormalizeKeyword(keyword string) string {
	return strings.Join(strings.Fields(norm.NFC.String(keyword)), " ")
}

// NewMetricRequest validates p and applies defaults. Without sources the
// request targets google only.
func NewMetricRequest(p RequestParams, defaults Defaults) (MetricRequest, error) {
	keyword := NormalizeKeyword(p.Keyword)
	if keyword == "" {
		return MetricRequest{}, &ValidationError{Field: "keyword", Message: "must not be empty"}
	}
	if n := utf8.RuneCountInString(keyword); n > MaxKeywordLength {
		return MetricRequest{}, &ValidationError{
			Field:   "keyword",
			Message: fmt.Sprintf("must be at most %d characters, got %d", MaxKeywordLength, n),
		}
	}

	location := p.LocationCode
	if location == 0 {
		location = defaults.LocationCode
	}
	if location <= 0 {
		return MetricRequest{}, &ValidationError{Field: "location_code", Message: "must be a positive integer"}
	}

	// cases.Caser is stateful, so one is built per call.
	lang := cases.Lower(language.Und).String(strings.TrimSpace(p.LanguageCode))
	if lang == "" {
		lang = cases.Lower(language.Und).String(defaults.LanguageCode)
	}
	if lang == "" {
		return MetricRequest{}, &ValidationError{Field: "language_code", Message: "must not be empty"}
	}

	sources := make([]Source, 0, len(p.Sources))
	seen := make(map[Source]bool, len(p.Sources))
	for _, s := range p.Sources {
		if !s.Valid() {
			return MetricRequest{}, &ValidationError{Field: "source", Message: fmt.Sprintf("unknown source %q", s)}
		}
		if !seen[s] {
			seen[s] = true
			sources = append(sources, s)
		}
	}
	if len(sources) == 0 {
		sources = append(sources, SourceGoogle)
	}
	SortSources(sources)

	return MetricRequest{
		keyword:      keyword,
		locationCode: location,
		languageCode: lang,
		sources:      sources,
		includeSERP:  p.IncludeSERP,
	}, nil
}

func (r MetricRequest) Keyword() string      { return r.keyword }
func (r MetricRequest) LocationCode() int    { return r.locationCode }
func (r MetricRequest) LanguageCode() string { return r.languageCode }
func (r MetricRequest) IncludeSERP() bool    { return r.includeSERP }

// Sources returns a copy of the requested sources in canonical order.
func (r MetricRequest) Sources() []Source {
	return append([]Source(nil), r.sources...)
}

// IsMultiSource reports whether more than one source was requested.
func (r MetricRequest) IsMultiSource() bool {
	return len(r.sources) > 1
}

// ForSource returns a copy of r narrowed to a single source.
func (r MetricRequest) ForSource(s Source) MetricRequest {
	narrowed := r
	narrowed.sources = []Source{s}
	return narrowed
}

// CacheKeyParts identifies the request for result caching. The keyword is
// case folded so "SEO" and "seo" share an entry.
func (r MetricRequest) CacheKeyParts() []string {
	names := make([]string, len(r.sources))
	for i, s := range r.sources {
		names[i] = string(s)
	}
	return []string{
		cases.Fold().String(r.keyword),
		strconv.Itoa(r.locationCode),
		r.languageCode,
		strings.Join(names, ","),
		strconv.FormatBool(r.includeSERP),
	}
}

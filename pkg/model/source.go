package model

import (
	"fmt"
	"sort"
	"strings"
)

// Source names an upstream metrics provider adapter.
type Source string

const (
	SourceGoogle  Source = "google"
	SourceBing    Source = "bing"
	SourceYouTube Source = "youtube"
)

// SourceAll expands to every known source.
const SourceAll = "all"

// AllSources lists every source in canonical order.
func AllSources() []Source {
	return []Source{SourceGoogle, SourceBing, SourceYouTube}
}

// Rank is the canonical merge position of s; unknown sources sort last.
func (s Source) Rank() int {
	switch s {
	case SourceGoogle:
		return 0
	case SourceBing:
		return 1
	case SourceYouTube:
		return 2
	}
	return 100
}

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	return s.Rank() < 100
}

func (s Source) String() string {
	return string(s)
}

// SortSources orders sources canonically in place.
func SortSources(sources []Source) {
	sort.SliceStable(sources, func(i, j int) bool {
		if sources[i].Rank() != sources[j].Rank() {
			return sources[i].Rank() < sources[j].Rank()
		}
		return sources[i] < sources[j]
	})
}

// ParseSources parses a comma separated list such as "google,bing" or "all".
// The result is deduplicated and canonically ordered.
func ParseSources(raw string) ([]Source, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, &ValidationError{Field: "source", Message: "at least one source is required"}
	}

	seen := make(map[Source]bool)
	var sources []Source
	for _, part := range strings.Split(raw, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		if name == SourceAll {
			for _, s := range AllSources() {
				if !seen[s] {
					seen[s] = true
					sources = append(sources, s)
				}
			}
			continue
		}

		s := Source(name)
		if !s.Valid() {
			return nil, &ValidationError{Field: "source", Message: fmt.Sprintf("unknown source %q", name)}
		}
		if !seen[s] {
			seen[s] = true
			sources = append(sources, s)
		}
	}

	if len(sources) == 0 {
		return nil, &ValidationError{Field: "source", Message: "at least one source is required"}
	}
	SortSources(sources)
	return sources, nil
}

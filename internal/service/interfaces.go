package service

import (
	"context"

	"keyword-intel/pkg/model"
)

// KeywordService is what the HTTP and CLI layers need from the engine.
// *aggregator.Service implements it.
type KeywordService interface {
	GetKeywordIntelligence(ctx context.Context, req model.MetricRequest) (*model.KeywordIntelligenceResult, error)
	GetSourceKeywordData(ctx context.Context, src model.Source, req model.MetricRequest) (*model.KeywordIntelligenceResult, error)
}


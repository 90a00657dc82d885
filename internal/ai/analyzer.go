package ai

import (
	"context"

	"github.com/opsintel/backend/internal/models"
)

// Period is one completed dataset analysis handed to synthesis.
type Period struct {
	DatasetID string
	Result    models.AnalysisResult
}

// Analyzer is the boundary to the external text-generation service. One call
// is one request; implementations never retry or deduplicate.
type Analyzer interface {
	Analyze(ctx context.Context, content string) (models.AnalysisResult, error)
	Synthesize(ctx context.Context, periods []Period) (models.GlobalSynthesisResult, error)
}

package core

import (
	"context"
)

// Explainer produces a human readable explanation for a verdict. It never
// changes the verdict itself.
type Explainer interface {
	// Explain describes why text received the given analysis
	Explain(ctx context.Context, text string, analysis Analysis) (string, error)

	// Name identifies the model behind the explanation
	Name() string
}

// HistoryRepository stores analyses made by the service
type HistoryRepository interface {
	// Add stores a record
	Add(ctx context.Context, record *AnalysisRecord) error

	// Recent returns up to limit records, newest first
	Recent(ctx context.Context, limit int) ([]*AnalysisRecord, error)

	// Cleanup removes records older than the retention period
	Cleanup(ctx context.Context) error
}

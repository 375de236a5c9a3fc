package ports

import (
	"context"

	"github.com/mikey/trie-spam-filter/internal/core"
)

// EmailFilter is a front end that feeds messages to the spam filter service
type EmailFilter interface {
	// ProcessEmail analyzes a single email outside the front end's own transport
	ProcessEmail(ctx context.Context, email *core.Email) (*core.SpamAnalysisResult, error)

	// Start begins accepting work; it must not block
	Start() error

	// Stop releases listeners
	Stop() error
}

package filter

import (
	"testing"
	"time"

	"github.com/mikey/trie-spam-filter/internal/adapters/history"
	"github.com/mikey/trie-spam-filter/internal/core"
	"github.com/mikey/trie-spam-filter/internal/utils"
	"github.com/mikey/trie-spam-filter/internal/whitelist"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T, withHistory bool, domains ...string) *core.SpamFilterService {
	t.Helper()
	logger := zaptest.NewLogger(t)

	opts := core.ServiceOptions{MaxTextSize: 4096}
	if withHistory {
		h := history.NewMemoryHistory(logger, 10, time.Hour, time.Hour)
		t.Cleanup(h.Stop)
		opts.History = h
	}

	return core.NewSpamFilterService(
		core.NewDefaultDictionary(),
		whitelist.NewChecker(domains, logger),
		utils.NewTextProcessor(logger),
		logger,
		opts,
	)
}

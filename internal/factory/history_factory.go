package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/trie-spam-filter/internal/adapters/history"
	"github.com/mikey/trie-spam-filter/internal/config"
	"github.com/mikey/trie-spam-filter/internal/core"
	"go.uber.org/zap"
)

// HistoryFactory creates history repositories based on configuration
type HistoryFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewHistoryFactory creates a new history factory
func NewHistoryFactory(cfg *config.Config, logger *zap.Logger) *HistoryFactory {
	return &HistoryFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateHistoryRepository creates a history repository based on the
// configuration. It returns nil when history is disabled.
func (f *HistoryFactory) CreateHistoryRepository() (core.HistoryRepository, error) {
	historyCfg, err := f.cfg.GetHistory()
	if err != nil {
		return nil, err
	}

	switch historyCfg.Type {
	case "none":
		f.logger.Info("Analysis history disabled")
		return nil, nil
	case "memory":
		return history.NewMemoryHistory(f.logger, historyCfg.MaxEntries, historyCfg.Retention, historyCfg.CleanupFrequency), nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(historyCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return history.NewSQLiteHistory(historyCfg.SQLitePath, f.logger, historyCfg.Retention, historyCfg.CleanupFrequency)
	case "mysql":
		return history.NewMySQLHistory(historyCfg.MySQLDSN, f.logger, historyCfg.Retention, historyCfg.CleanupFrequency)
	default:
		return nil, fmt.Errorf("unsupported history type: %s", historyCfg.Type)
	}
}

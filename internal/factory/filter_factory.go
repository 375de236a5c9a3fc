package factory

import (
	"fmt"
	"os"

	"github.com/mikey/trie-spam-filter/internal/adapters/filter"
	"github.com/mikey/trie-spam-filter/internal/config"
	"github.com/mikey/trie-spam-filter/internal/core"
	"github.com/mikey/trie-spam-filter/internal/ports"
	"go.uber.org/zap"
)

// FilterFactory creates email filters based on configuration
type FilterFactory struct {
	cfg         *config.Config
	logger      *zap.Logger
	spamService *core.SpamFilterService
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(cfg *config.Config, logger *zap.Logger, spamService *core.SpamFilterService) *FilterFactory {
	return &FilterFactory{
		cfg:         cfg,
		logger:      logger,
		spamService: spamService,
	}
}

// CreateEmailFilter creates an email filter based on the configuration
func (f *FilterFactory) CreateEmailFilter() (ports.EmailFilter, error) {
	filterType := f.cfg.GetString("server.filter_type")

	switch filterType {
	case "postfix":
		return filter.NewPostfixFilter(f.spamService, f.logger, f.cfg.GetPostfix()), nil
	case "http":
		return filter.NewHTTPFilter(f.spamService, f.logger, f.cfg.GetHTTP()), nil
	case "cli":
		return f.CreateCliFilter(), nil
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", filterType)
	}
}

// CreateCliFilter creates the command line filter writing to stdout
func (f *FilterFactory) CreateCliFilter() *filter.CliFilter {
	return filter.NewCliFilter(
		f.spamService,
		f.logger,
		os.Stdout,
		f.cfg.GetBool("cli.verbose"),
		f.cfg.GetBool("cli.json"),
	)
}

package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/trie-spam-filter/internal/config"
	"github.com/mikey/trie-spam-filter/internal/core"
	"github.com/mikey/trie-spam-filter/internal/factory"
	"github.com/mikey/trie-spam-filter/internal/logging"
	"github.com/mikey/trie-spam-filter/internal/ports"
	"github.com/mikey/trie-spam-filter/internal/utils"
	"github.com/mikey/trie-spam-filter/internal/whitelist"
)

// BuildContainer creates and configures a dependency injection container
// for the filter daemon
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	if err := container.Provide(config.New); err != nil {
		return nil, err
	}
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}
	if err := provideCommon(container); err != nil {
		return nil, err
	}

	// Register history repository
	if err := container.Provide(factory.NewHistoryFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.HistoryFactory) (core.HistoryRepository, error) {
		return f.CreateHistoryRepository()
	}); err != nil {
		return nil, err
	}

	// Register service options
	if err := container.Provide(func(
		cfg *config.Config,
		history core.HistoryRepository,
		explainer core.Explainer,
	) (core.ServiceOptions, error) {
		historyCfg, err := cfg.GetHistory()
		if err != nil {
			return core.ServiceOptions{}, err
		}
		return core.ServiceOptions{
			History:         history,
			Explainer:       explainer,
			ExplainOnlySpam: cfg.GetExplainer().OnlySpam,
			MaxTextSize:     historyCfg.MaxTextSize,
		}, nil
	}); err != nil {
		return nil, err
	}

	if err := provideService(container); err != nil {
		return nil, err
	}

	// Register email filter
	if err := container.Provide(func(f *factory.FilterFactory) (ports.EmailFilter, error) {
		return f.CreateEmailFilter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideCommon registers the text processor, dictionary, explainer and
// whitelist. The config and logger must already be provided.
func provideCommon(container *dig.Container) error {
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewDictionaryFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewExplainerFactory); err != nil {
		return err
	}

	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.DictionaryFactory) (*core.Dictionary, error) {
		return f.CreateDictionary()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.ExplainerFactory) (core.Explainer, error) {
		return f.CreateExplainer()
	}); err != nil {
		return err
	}

	// Register whitelist
	return container.Provide(func(cfg *config.Config, logger *zap.Logger) *whitelist.Checker {
		domains := cfg.GetStringSlice("spam.whitelisted_domains")
		if len(domains) > 0 {
			logger.Info("Loaded whitelisted domains", zap.Strings("domains", domains))
		}
		return whitelist.NewChecker(domains, logger)
	})
}

// provideService registers the spam filter service and the filter factory.
// core.ServiceOptions must already be provided.
func provideService(container *dig.Container) error {
	if err := container.Provide(core.NewSpamFilterService); err != nil {
		return err
	}
	return container.Provide(factory.NewFilterFactory)
}

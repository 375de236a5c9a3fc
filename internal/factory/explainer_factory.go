package factory

import (
	"fmt"

	"github.com/mikey/trie-spam-filter/internal/adapters/bedrock"
	"github.com/mikey/trie-spam-filter/internal/adapters/gemini"
	"github.com/mikey/trie-spam-filter/internal/adapters/openai"
	"github.com/mikey/trie-spam-filter/internal/config"
	"github.com/mikey/trie-spam-filter/internal/core"
	"github.com/mikey/trie-spam-filter/internal/utils"
	"go.uber.org/zap"
)

// ExplainerFactory creates verdict explainers
type ExplainerFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewExplainerFactory creates a new explainer factory
func NewExplainerFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *ExplainerFactory {
	return &ExplainerFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateExplainer creates the configured explainer, or nil for "none"
func (f *ExplainerFactory) CreateExplainer() (core.Explainer, error) {
	provider := f.cfg.GetExplainer().Provider

	var (
		explainer core.Explainer
		err       error
	)
	switch provider {
	case "", "none":
		return nil, nil
	case "bedrock":
		explainer, err = bedrock.NewFactory(f.cfg, f.logger, f.textProcessor).CreateExplainer()
	case "gemini":
		explainer, err = gemini.NewFactory(f.cfg, f.logger, f.textProcessor).CreateExplainer()
	case "openai":
		explainer, err = openai.NewFactory(f.cfg, f.logger, f.textProcessor).CreateExplainer()
	default:
		return nil, fmt.Errorf("unsupported explainer provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s explainer: %w", provider, err)
	}

	f.logger.Info("Verdict explainer enabled",
		zap.String("provider", provider),
		zap.String("model", explainer.Name()))
	return explainer, nil
}

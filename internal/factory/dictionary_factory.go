package factory

import (
	"github.com/mikey/trie-spam-filter/internal/config"
	"github.com/mikey/trie-spam-filter/internal/core"
	"go.uber.org/zap"
)

// DictionaryFactory builds the indicator term dictionary
type DictionaryFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewDictionaryFactory creates a new dictionary factory
func NewDictionaryFactory(cfg *config.Config, logger *zap.Logger) *DictionaryFactory {
	return &DictionaryFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateDictionary seeds the bootstrap terms at the configured base score,
// then applies the configured extra terms on top
func (f *DictionaryFactory) CreateDictionary() (*core.Dictionary, error) {
	dictCfg, err := f.cfg.GetDictionary()
	if err != nil {
		return nil, err
	}

	dict := core.NewDictionary(core.IndicatorTerms, dictCfg.BaseScore)
	for term, score := range dictCfg.ExtraTerms {
		dict.Insert(term, score)
	}

	f.logger.Info("Dictionary loaded",
		zap.Int("seed_terms", len(core.IndicatorTerms)),
		zap.Int("extra_terms", len(dictCfg.ExtraTerms)),
		zap.Float64("base_score", dictCfg.BaseScore))
	return dict, nil
}

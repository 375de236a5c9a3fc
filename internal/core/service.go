package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/trie-spam-filter/internal/trie"
	"github.com/mikey/trie-spam-filter/internal/utils"
	"github.com/mikey/trie-spam-filter/internal/whitelist"
	"go.uber.org/zap"
)

// ModelTrie names results produced by the dictionary analyzer
const ModelTrie = "trie"

// ModelWhitelist names results short-circuited by the sender whitelist
const ModelWhitelist = "whitelist"

// ServiceOptions holds the optional collaborators of SpamFilterService
type ServiceOptions struct {
	// History stores every analysis; nil disables it
	History HistoryRepository

	// Explainer adds explanations; nil disables it
	Explainer Explainer

	// ExplainOnlySpam limits explanations to spam verdicts
	ExplainOnlySpam bool

	// MaxTextSize caps the text kept in history, in bytes
	MaxTextSize int
}

// SpamFilterService is the core service for spam detection
type SpamFilterService struct {
	dictionary    *Dictionary
	whitelist     *whitelist.Checker
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
	opts          ServiceOptions
}

// NewSpamFilterService creates a new spam filter service
func NewSpamFilterService(
	dictionary *Dictionary,
	whitelistChecker *whitelist.Checker,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
	opts ServiceOptions,
) *SpamFilterService {
	return &SpamFilterService{
		dictionary:    dictionary,
		whitelist:     whitelistChecker,
		textProcessor: textProcessor,
		logger:        logger,
		opts:          opts,
	}
}

// AnalyzeText classifies a free-text message
func (s *SpamFilterService) AnalyzeText(ctx context.Context, text string) (*SpamAnalysisResult, error) {
	analysis := AnalyzeText(s.dictionary, text)
	result := &SpamAnalysisResult{
		Analysis:     analysis,
		AnalyzedAt:   time.Now(),
		ModelUsed:    ModelTrie,
		ProcessingID: uuid.NewString(),
	}

	s.logger.Debug("Analyzed text",
		zap.String("processing_id", result.ProcessingID),
		zap.Float64("score", analysis.Score),
		zap.Bool("is_spam", analysis.IsSpam),
		zap.Int("confidence", analysis.Confidence),
		zap.Strings("detected_words", analysis.DetectedWords))

	if s.opts.Explainer != nil && (analysis.IsSpam || !s.opts.ExplainOnlySpam) {
		explanation, err := s.opts.Explainer.Explain(ctx, text, analysis)
		if err != nil {
			s.logger.Warn("Failed to explain verdict",
				zap.String("processing_id", result.ProcessingID),
				zap.String("explainer", s.opts.Explainer.Name()),
				zap.Error(err))
		} else {
			result.Explanation = explanation
		}
	}

	if s.opts.History != nil {
		record := &AnalysisRecord{
			ID:          result.ProcessingID,
			Text:        s.textProcessor.ProcessText(text, s.opts.MaxTextSize),
			Analysis:    analysis,
			Explanation: result.Explanation,
			AnalyzedAt:  result.AnalyzedAt,
		}
		if err := s.opts.History.Add(ctx, record); err != nil {
			s.logger.Error("Failed to record analysis",
				zap.String("processing_id", result.ProcessingID),
				zap.Error(err))
		}
	}

	return result, nil
}

// AnalyzeEmail checks if an email is spam
func (s *SpamFilterService) AnalyzeEmail(ctx context.Context, email *Email) (*SpamAnalysisResult, error) {
	if s.whitelist != nil && s.whitelist.IsWhitelisted(email.From) {
		s.logger.Info("Skipping spam check for whitelisted domain",
			zap.String("sender", email.From),
			zap.String("action", "whitelist_bypass"))

		return &SpamAnalysisResult{
			Analysis:     Analysis{DetectedWords: []string{}},
			Explanation:  "Sender domain is whitelisted",
			AnalyzedAt:   time.Now(),
			ModelUsed:    ModelWhitelist,
			ProcessingID: uuid.NewString(),
		}, nil
	}

	return s.AnalyzeText(ctx, email.Text())
}

// AddTerm inserts or rescores an indicator term at runtime
func (s *SpamFilterService) AddTerm(word string, score float64) {
	s.dictionary.Insert(word, score)
	s.logger.Info("Dictionary term updated",
		zap.String("word", word),
		zap.Float64("score", score))
}

// LookupTerm searches the dictionary for a single term
func (s *SpamFilterService) LookupTerm(word string) trie.Match {
	return s.dictionary.Search(word)
}

// DictionarySnapshot copies the dictionary tree for display
func (s *SpamFilterService) DictionarySnapshot() *trie.NodeSnapshot {
	return s.dictionary.Snapshot()
}

// RecentHistory returns up to limit past analyses, newest first. It
// returns an empty list when history is disabled.
func (s *SpamFilterService) RecentHistory(ctx context.Context, limit int) ([]*AnalysisRecord, error) {
	if s.opts.History == nil {
		return []*AnalysisRecord{}, nil
	}
	return s.opts.History.Recent(ctx, limit)
}

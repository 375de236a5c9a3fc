package filter

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/mikey/trie-spam-filter/internal/core"
	"go.uber.org/zap"
)

const previewLength = 500

// CliFilter prints analyses for the command line tool
type CliFilter struct {
	service    *core.SpamFilterService
	logger     *zap.Logger
	out        io.Writer
	verbose    bool
	jsonOutput bool
}

// NewCliFilter creates a new CLI filter writing to out
func NewCliFilter(service *core.SpamFilterService, logger *zap.Logger, out io.Writer, verbose, jsonOutput bool) *CliFilter {
	return &CliFilter{
		service:    service,
		logger:     logger,
		out:        out,
		verbose:    verbose,
		jsonOutput: jsonOutput,
	}
}

// ProcessEmail analyzes an email and prints the result
func (f *CliFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.SpamAnalysisResult, error) {
	f.logger.Debug("Processing email", zap.String("sender", email.From))

	startTime := time.Now()
	result, err := f.service.AnalyzeEmail(ctx, email)
	if err != nil {
		f.logger.Error("Failed to analyze email", zap.Error(err))
		return nil, err
	}
	duration := time.Since(startTime)

	if f.jsonOutput {
		return result, f.writeJSON(result)
	}

	fmt.Fprintf(f.out, "\n=== Message Summary ===\n")
	if email.From != "" {
		fmt.Fprintf(f.out, "From: %s\n", email.From)
	}
	if len(email.To) > 0 {
		fmt.Fprintf(f.out, "To: %s\n", strings.Join(email.To, ", "))
	}
	if email.Subject != "" {
		fmt.Fprintf(f.out, "Subject: %s\n", email.Subject)
	}
	fmt.Fprintf(f.out, "Body length: %d bytes\n", len(email.Body))

	if f.verbose {
		preview := []rune(email.Body)
		if len(preview) > previewLength {
			preview = append(preview[:previewLength], []rune("...")...)
		}
		fmt.Fprintf(f.out, "\nBody preview:\n%s\n", string(preview))
	}

	fmt.Fprintf(f.out, "\n=== Results ===\n")
	fmt.Fprintf(f.out, "Is spam: %t\n", result.IsSpam)
	fmt.Fprintf(f.out, "Spam score: %.2f (threshold %.2f)\n", result.Score, core.SpamThreshold)
	fmt.Fprintf(f.out, "Confidence: %d%%\n", result.Confidence)
	if len(result.DetectedWords) > 0 {
		fmt.Fprintf(f.out, "Detected words: %s\n", strings.Join(result.DetectedWords, ", "))
	} else {
		fmt.Fprintf(f.out, "Detected words: none\n")
	}
	if result.Explanation != "" {
		fmt.Fprintf(f.out, "Explanation: %s\n", result.Explanation)
	}
	fmt.Fprintf(f.out, "Model used: %s\n", result.ModelUsed)
	if f.verbose {
		fmt.Fprintf(f.out, "Processing time: %v\n", duration)
	}

	return result, nil
}

// DumpDictionary prints the indicator terms, or the whole tree as JSON
func (f *CliFilter) DumpDictionary() error {
	snapshot := f.service.DictionarySnapshot()
	if f.jsonOutput {
		return f.writeJSON(snapshot)
	}

	words := snapshot.Words()
	sort.Strings(words)
	fmt.Fprintf(f.out, "%d indicator terms\n", len(words))
	for _, word := range words {
		match := f.service.LookupTerm(word)
		fmt.Fprintf(f.out, "  %-20s %.2f\n", word, match.Score)
	}
	return nil
}

func (f *CliFilter) writeJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(f.out, string(data))
	return err
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}

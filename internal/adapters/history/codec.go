package history

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/mikey/trie-spam-filter/internal/core"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

const selectColumns = `id, text, score, is_spam, confidence, detected_words, explanation, analyzed_at`

func encodeWords(words []string) (string, error) {
	if words == nil {
		words = []string{}
	}
	data, err := json.Marshal(words)
	if err != nil {
		return "", fmt.Errorf("failed to encode detected words: %w", err)
	}
	return string(data), nil
}

func scanRecord(row rowScanner) (*core.AnalysisRecord, error) {
	var (
		record     core.AnalysisRecord
		words      string
		analyzedAt int64
	)
	err := row.Scan(
		&record.ID,
		&record.Text,
		&record.Analysis.Score,
		&record.Analysis.IsSpam,
		&record.Analysis.Confidence,
		&words,
		&record.Explanation,
		&analyzedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Analysis.DetectedWords = []string{}
	if err := json.Unmarshal([]byte(words), &record.Analysis.DetectedWords); err != nil {
		return nil, fmt.Errorf("failed to decode detected words for %s: %w", record.ID, err)
	}
	record.AnalyzedAt = time.Unix(0, analyzedAt)

	return &record, nil
}

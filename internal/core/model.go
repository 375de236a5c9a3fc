package core

import (
	"time"
)

// Email represents an email message
type Email struct {
	From    string
	To      []string
	Subject string
	Body    string
	Headers map[string][]string
}

// Text returns the part of the email that is analyzed
func (e *Email) Text() string {
	if e.Subject == "" {
		return e.Body
	}
	return e.Subject + "\n" + e.Body
}

// Analysis is the verdict produced by AnalyzeText
type Analysis struct {
	Score         float64  `json:"score"`
	IsSpam        bool     `json:"isSpam"`
	Confidence    int      `json:"confidence"`
	DetectedWords []string `json:"detectedWords"`
}

// SpamAnalysisResult is an analysis together with where and when it was made
type SpamAnalysisResult struct {
	Analysis
	Explanation  string    `json:"explanation,omitempty"`
	AnalyzedAt   time.Time `json:"analyzedAt"`
	ModelUsed    string    `json:"modelUsed"`
	ProcessingID string    `json:"processingId"`
}

// AnalysisRecord is a stored history entry
type AnalysisRecord struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	Analysis    Analysis  `json:"analysis"`
	Explanation string    `json:"explanation,omitempty"`
	AnalyzedAt  time.Time `json:"analyzedAt"`
}

package core

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// SpamThreshold is the score at which a message is considered spam
	SpamThreshold = 1.5

	// URLWeight is added for every URL found in the message
	URLWeight = 0.5

	// PunctuationWeight is added once when the message has more than
	// MaxPunctuation of the characters ! ? $
	PunctuationWeight = 0.5
	MaxPunctuation    = 3

	// AllCapsWeight is added once when the message has more than
	// MaxAllCapsWords shouting words longer than three characters
	AllCapsWeight   = 0.5
	MaxAllCapsWords = 3

	minTokenLength = 3
)

// urlPattern stops at any rune unicode.IsSpace reports, matching strings.Fields
var urlPattern = regexp.MustCompile(`(?i)https?://[^\s\v\x{85}\p{Z}]+`)

// AnalyzeText scores text against the dictionary and the structural
// heuristics. It never fails and keeps no state between calls.
func AnalyzeText(dict WordLookup, text string) Analysis {
	var score float64
	detected := make([]string, 0)

	for _, token := range strings.Fields(strings.ToLower(text)) {
		word := cleanToken(token)
		if len(word) < minTokenLength {
			continue
		}
		if match := dict.Search(word); match.Found {
			score += match.Score
			detected = append(detected, word)
		}
	}

	score += URLWeight * float64(countURLs(text))

	if countPunctuation(text) > MaxPunctuation {
		score += PunctuationWeight
	}

	if countAllCapsWords(text) > MaxAllCapsWords {
		score += AllCapsWeight
	}

	return Analysis{
		Score:         score,
		IsSpam:        score >= SpamThreshold,
		Confidence:    confidence(score),
		DetectedWords: detected,
	}
}

// cleanToken keeps ASCII letters, digits and underscores
func cleanToken(token string) string {
	var b strings.Builder
	b.Grow(len(token))
	for i := 0; i < len(token); i++ {
		c := token[i]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func countURLs(text string) int {
	return len(urlPattern.FindAllStringIndex(text, -1))
}

func countPunctuation(text string) int {
	count := 0
	for _, r := range text {
		switch r {
		case '!', '?', '$':
			count++
		}
	}
	return count
}

// countAllCapsWords counts original-case tokens longer than three
// characters that are unchanged by upper-casing
func countAllCapsWords(text string) int {
	count := 0
	for _, token := range strings.Fields(text) {
		if utf8.RuneCountInString(token) > 3 && token == strings.ToUpper(token) {
			count++
		}
	}
	return count
}

// confidence normalizes score against the threshold as a 0-100 percentage
func confidence(score float64) int {
	pct := math.Round(score / SpamThreshold * 100)
	if !(pct > 0) {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return int(pct)
}

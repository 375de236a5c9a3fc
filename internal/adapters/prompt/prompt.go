// Package prompt builds the explanation request shared by the LLM
// explainers and parses their replies.
package prompt

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/mikey/trie-spam-filter/internal/core"
	"github.com/mikey/trie-spam-filter/internal/utils"
)

// SystemMessage is sent as the system role where the API supports one
const SystemMessage = "You explain the verdicts of a keyword based spam filter. Respond only with JSON."

const explanationFormat = `A keyword based spam filter classified the message below.
Verdict: %s
Score: %.2f (threshold %.2f)
Confidence: %d%%
Matched indicator terms: %s

Explain in one or two sentences, for the recipient of the message, why it
received this verdict. Do not change the verdict.
Respond with a JSON object containing:
- explanation: string

Message:
%s

Respond only with the JSON object and nothing else.`

// explanationResponse represents the structured response from the LLM
type explanationResponse struct {
	Explanation string `json:"explanation"`
}

// Build formats the explanation prompt for text and its analysis
func Build(text string, analysis core.Analysis) string {
	verdict := "legitimate"
	if analysis.IsSpam {
		verdict = "spam"
	}
	words := "none"
	if len(analysis.DetectedWords) > 0 {
		words = strings.Join(analysis.DetectedWords, ", ")
	}
	return fmt.Sprintf(explanationFormat, verdict, analysis.Score, core.SpamThreshold, analysis.Confidence, words, text)
}

// Parse extracts the explanation from a model reply
func Parse(response string) (string, error) {
	var parsed explanationResponse
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		object, extractErr := utils.ExtractJSONObject(response)
		if extractErr != nil {
			return "", fmt.Errorf("failed to extract JSON from LLM response: %w", extractErr)
		}
		if err := json.Unmarshal([]byte(object), &parsed); err != nil {
			return "", fmt.Errorf("failed to parse LLM response as JSON: %w", err)
		}
	}

	explanation := strings.TrimSpace(parsed.Explanation)
	if explanation == "" {
		return "", fmt.Errorf("LLM response has no explanation")
	}
	return explanation, nil
}

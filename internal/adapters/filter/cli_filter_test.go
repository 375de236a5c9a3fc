package filter

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/mikey/trie-spam-filter/internal/core"
	"github.com/mikey/trie-spam-filter/internal/trie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCliFilterText(t *testing.T) {
	var out bytes.Buffer
	f := NewCliFilter(newTestService(t, false), zaptest.NewLogger(t), &out, false, false)

	result, err := f.ProcessEmail(context.Background(), &core.Email{Body: core.SampleSpamMessages[0]})
	require.NoError(t, err)
	assert.True(t, result.IsSpam)

	printed := out.String()
	assert.Contains(t, printed, "Is spam: true")
	assert.Contains(t, printed, "Spam score: 5.50 (threshold 1.50)")
	assert.Contains(t, printed, "Confidence: 100%")
	assert.Contains(t, printed, "Detected words: congratulations, lottery, click, claim, prize")
	assert.NotContains(t, printed, "From:")
	assert.NotContains(t, printed, "Body preview")
}

func TestCliFilterHamVerbose(t *testing.T) {
	var out bytes.Buffer
	f := NewCliFilter(newTestService(t, false), zaptest.NewLogger(t), &out, true, false)

	_, err := f.ProcessEmail(context.Background(), &core.Email{
		From:    "carol@example.org",
		Subject: "Coffee",
		Body:    core.SampleNormalMessages[0],
	})
	require.NoError(t, err)

	printed := out.String()
	assert.Contains(t, printed, "From: carol@example.org")
	assert.Contains(t, printed, "Subject: Coffee")
	assert.Contains(t, printed, "Body preview:\n"+core.SampleNormalMessages[0])
	assert.Contains(t, printed, "Is spam: false")
	assert.Contains(t, printed, "Detected words: none")
	assert.Contains(t, printed, "Processing time:")
}

func TestCliFilterJSON(t *testing.T) {
	var out bytes.Buffer
	f := NewCliFilter(newTestService(t, false), zaptest.NewLogger(t), &out, false, true)

	_, err := f.ProcessEmail(context.Background(), &core.Email{Body: "free money"})
	require.NoError(t, err)

	var result core.SpamAnalysisResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, 2.0, result.Score)
	assert.Equal(t, []string{"free", "money"}, result.DetectedWords)
}

func TestCliFilterDumpDictionary(t *testing.T) {
	var out bytes.Buffer
	f := NewCliFilter(newTestService(t, false), zaptest.NewLogger(t), &out, false, false)
	require.NoError(t, f.DumpDictionary())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, len(core.IndicatorTerms)+1)
	assert.Equal(t, "35 indicator terms", lines[0])
	assert.Equal(t, "account", strings.Fields(lines[1])[0])
	assert.Equal(t, "1.00", strings.Fields(lines[1])[1])
}

func TestCliFilterDumpDictionaryJSON(t *testing.T) {
	var out bytes.Buffer
	f := NewCliFilter(newTestService(t, false), zaptest.NewLogger(t), &out, false, true)
	require.NoError(t, f.DumpDictionary())

	var snapshot trie.NodeSnapshot
	require.NoError(t, json.Unmarshal(out.Bytes(), &snapshot))
	assert.ElementsMatch(t, core.IndicatorTerms, snapshot.Words())
}

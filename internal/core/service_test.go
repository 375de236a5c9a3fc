package core

import (
	"context"
	"errors"
	"testing"

	"github.com/mikey/trie-spam-filter/internal/utils"
	"github.com/mikey/trie-spam-filter/internal/whitelist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type recordingHistory struct {
	records []*AnalysisRecord
	err     error
}

func (h *recordingHistory) Add(_ context.Context, record *AnalysisRecord) error {
	if h.err != nil {
		return h.err
	}
	h.records = append(h.records, record)
	return nil
}

func (h *recordingHistory) Recent(_ context.Context, limit int) ([]*AnalysisRecord, error) {
	out := make([]*AnalysisRecord, 0, len(h.records))
	for i := len(h.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, h.records[i])
	}
	return out, nil
}

func (h *recordingHistory) Cleanup(context.Context) error { return nil }

type stubExplainer struct {
	calls int
	err   error
}

func (e *stubExplainer) Explain(_ context.Context, _ string, analysis Analysis) (string, error) {
	e.calls++
	if e.err != nil {
		return "", e.err
	}
	return "matched " + analysis.DetectedWords[0], nil
}

func (e *stubExplainer) Name() string { return "stub" }

func newTestService(t *testing.T, logger *zap.Logger, opts ServiceOptions) *SpamFilterService {
	t.Helper()
	return NewSpamFilterService(
		NewDefaultDictionary(),
		whitelist.NewChecker([]string{"example.com"}, logger),
		utils.NewTextProcessor(logger),
		logger,
		opts,
	)
}

func TestServiceAnalyzeText(t *testing.T) {
	history := &recordingHistory{}
	svc := newTestService(t, zaptest.NewLogger(t), ServiceOptions{History: history, MaxTextSize: 16})

	text := "Urgent: verify your account password now"
	result, err := svc.AnalyzeText(context.Background(), text)
	require.NoError(t, err)

	assert.Equal(t, AnalyzeText(NewDefaultDictionary(), text), result.Analysis)
	assert.Equal(t, ModelTrie, result.ModelUsed)
	assert.NotEmpty(t, result.ProcessingID)
	assert.False(t, result.AnalyzedAt.IsZero())
	assert.Empty(t, result.Explanation)

	require.Len(t, history.records, 1)
	record := history.records[0]
	assert.Equal(t, result.ProcessingID, record.ID)
	assert.Equal(t, "Urgent: verify y"+utils.TruncationMarker, record.Text)
	assert.Equal(t, result.Analysis, record.Analysis)
}

func TestServiceExplainer(t *testing.T) {
	explainer := &stubExplainer{}
	history := &recordingHistory{}
	svc := newTestService(t, zaptest.NewLogger(t), ServiceOptions{
		History:         history,
		Explainer:       explainer,
		ExplainOnlySpam: true,
	})

	ham, err := svc.AnalyzeText(context.Background(), "lunch tomorrow?")
	require.NoError(t, err)
	assert.Empty(t, ham.Explanation)
	assert.Equal(t, 0, explainer.calls)

	spam, err := svc.AnalyzeText(context.Background(), "claim your free prize")
	require.NoError(t, err)
	assert.Equal(t, "matched claim", spam.Explanation)
	assert.Equal(t, 1, explainer.calls)
	assert.Equal(t, "matched claim", history.records[1].Explanation)
}

func TestServiceDependencyFailuresDoNotFailAnalysis(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	svc := newTestService(t, zap.New(core), ServiceOptions{
		History:   &recordingHistory{err: errors.New("disk full")},
		Explainer: &stubExplainer{err: errors.New("quota exceeded")},
	})

	result, err := svc.AnalyzeText(context.Background(), "free cash")
	require.NoError(t, err)
	assert.True(t, result.IsSpam)
	assert.Empty(t, result.Explanation)

	assert.Equal(t, 1, logs.FilterMessage("Failed to explain verdict").Len())
	assert.Equal(t, 1, logs.FilterMessage("Failed to record analysis").Len())
}

func TestServiceAnalyzeEmail(t *testing.T) {
	svc := newTestService(t, zaptest.NewLogger(t), ServiceOptions{})

	email := &Email{
		From:    "promo@lottery.biz",
		Subject: "URGENT winner",
		Body:    "Claim your prize",
	}
	result, err := svc.AnalyzeEmail(context.Background(), email)
	require.NoError(t, err)
	assert.Equal(t, []string{"urgent", "winner", "claim", "prize"}, result.DetectedWords)
	assert.True(t, result.IsSpam)

	email.From = "Boss <boss@mail.example.com>"
	result, err = svc.AnalyzeEmail(context.Background(), email)
	require.NoError(t, err)
	assert.Equal(t, ModelWhitelist, result.ModelUsed)
	assert.False(t, result.IsSpam)
	assert.Zero(t, result.Score)
	assert.NotNil(t, result.DetectedWords)
}

func TestServiceDictionaryOperations(t *testing.T) {
	svc := newTestService(t, zaptest.NewLogger(t), ServiceOptions{})

	assert.False(t, svc.LookupTerm("giveaway").Found)
	svc.AddTerm("Giveaway", 2)
	assert.Equal(t, 2.0, svc.LookupTerm("GIVEAWAY").Score)

	result, err := svc.AnalyzeText(context.Background(), "giveaway")
	require.NoError(t, err)
	assert.True(t, result.IsSpam)

	assert.Contains(t, svc.DictionarySnapshot().Words(), "giveaway")
}

func TestServiceRecentHistory(t *testing.T) {
	svc := newTestService(t, zaptest.NewLogger(t), ServiceOptions{})
	records, err := svc.RecentHistory(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, records)

	history := &recordingHistory{}
	svc = newTestService(t, zaptest.NewLogger(t), ServiceOptions{History: history})
	for _, msg := range SampleSpamMessages {
		_, err := svc.AnalyzeText(context.Background(), msg)
		require.NoError(t, err)
	}

	records, err = svc.RecentHistory(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, SampleSpamMessages[4], records[0].Text)
	assert.Equal(t, SampleSpamMessages[3], records[1].Text)
}

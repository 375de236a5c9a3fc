package filter

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/mikey/trie-spam-filter/internal/config"
	"github.com/mikey/trie-spam-filter/internal/core"
	"github.com/mikey/trie-spam-filter/internal/trie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestHTTPFilter(t *testing.T, allowInsert bool) *HTTPFilter {
	t.Helper()
	return NewHTTPFilter(newTestService(t, true, "trusted.test"), zaptest.NewLogger(t), config.HTTPConfig{
		ListenAddress: "127.0.0.1:0",
		Mode:          gin.TestMode,
		AllowInsert:   allowInsert,
	})
}

func doRequest(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	f := newTestHTTPFilter(t, true)
	w := doRequest(t, f.Handler(), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAnalyzeText(t *testing.T) {
	f := newTestHTTPFilter(t, true)

	t.Run("spam", func(t *testing.T) {
		w := doRequest(t, f.Handler(), http.MethodPost, "/api/v1/analyze", map[string]string{
			"text": "You won the lottery prize",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var result core.SpamAnalysisResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.True(t, result.IsSpam)
		assert.Equal(t, 2.0, result.Score)
		assert.Equal(t, 100, result.Confidence)
		assert.Equal(t, []string{"lottery", "prize"}, result.DetectedWords)
		assert.Equal(t, core.ModelTrie, result.ModelUsed)
		assert.NotEmpty(t, result.ProcessingID)
	})

	t.Run("empty text is legitimate", func(t *testing.T) {
		w := doRequest(t, f.Handler(), http.MethodPost, "/api/v1/analyze", map[string]string{"text": ""})
		require.Equal(t, http.StatusOK, w.Code)

		var result core.SpamAnalysisResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.False(t, result.IsSpam)
		assert.Zero(t, result.Score)
		assert.Empty(t, result.DetectedWords)
	})

	t.Run("missing text", func(t *testing.T) {
		w := doRequest(t, f.Handler(), http.MethodPost, "/api/v1/analyze", map[string]string{"subject": "hi"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("whitelisted sender", func(t *testing.T) {
		w := doRequest(t, f.Handler(), http.MethodPost, "/api/v1/analyze", map[string]string{
			"text": "lottery prize winner",
			"from": "billing@trusted.test",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var result core.SpamAnalysisResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.False(t, result.IsSpam)
		assert.Equal(t, core.ModelWhitelist, result.ModelUsed)
	})
}

func TestWordsRoutes(t *testing.T) {
	f := newTestHTTPFilter(t, true)

	w := doRequest(t, f.Handler(), http.MethodGet, "/api/v1/words/Lottery", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp WordResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, WordResponse{Word: "Lottery", Found: true, Score: 1}, resp)

	w = doRequest(t, f.Handler(), http.MethodGet, "/api/v1/words/lott", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Found)

	w = doRequest(t, f.Handler(), http.MethodPut, "/api/v1/words", map[string]interface{}{"word": "casino", "score": 2.5})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, WordResponse{Word: "casino", Found: true, Score: 2.5}, resp)

	w = doRequest(t, f.Handler(), http.MethodPut, "/api/v1/words", map[string]interface{}{"word": "jackpot"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, core.DefaultBaseScore, resp.Score)

	// inserted terms take part in later analyses
	w = doRequest(t, f.Handler(), http.MethodPost, "/api/v1/analyze", map[string]string{"text": "casino night"})
	var result core.SpamAnalysisResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 2.5, result.Score)
	assert.True(t, result.IsSpam)

	w = doRequest(t, f.Handler(), http.MethodPut, "/api/v1/words", map[string]interface{}{"score": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInsertWordDisabled(t *testing.T) {
	f := newTestHTTPFilter(t, false)
	w := doRequest(t, f.Handler(), http.MethodPut, "/api/v1/words", map[string]interface{}{"word": "casino"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, f.Handler(), http.MethodGet, "/api/v1/words/casino", nil)
	var resp WordResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Found)
}

func TestRequestBodyLimit(t *testing.T) {
	f := NewHTTPFilter(newTestService(t, true), zaptest.NewLogger(t), config.HTTPConfig{
		Mode:        gin.TestMode,
		AllowInsert: true,
		MaxBodySize: 64,
	})

	w := doRequest(t, f.Handler(), http.MethodPost, "/api/v1/analyze", map[string]string{"text": "free prize"})
	assert.Equal(t, http.StatusOK, w.Code)

	big := map[string]string{"text": strings.Repeat("lottery ", 100)}
	w = doRequest(t, f.Handler(), http.MethodPost, "/api/v1/analyze", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "exceeds 64 bytes")

	w = doRequest(t, f.Handler(), http.MethodPut, "/api/v1/words", map[string]string{"word": strings.Repeat("x", 100)})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	// nothing oversized reached the service
	w = doRequest(t, f.Handler(), http.MethodGet, "/api/v1/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Entries []core.AnalysisRecord `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Entries, 1)
}

func TestTrieRoute(t *testing.T) {
	f := newTestHTTPFilter(t, true)
	w := doRequest(t, f.Handler(), http.MethodGet, "/api/v1/trie", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Terms []string           `json:"terms"`
		Root  *trie.NodeSnapshot `json:"root"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.ElementsMatch(t, core.IndicatorTerms, resp.Terms)
	require.Contains(t, resp.Root.Children, "w")
	assert.Contains(t, resp.Root.Children["w"].Children, "i")
}

func TestHistoryRoute(t *testing.T) {
	f := newTestHTTPFilter(t, true)

	for _, text := range []string{"first message", "second lottery prize", "third"} {
		w := doRequest(t, f.Handler(), http.MethodPost, "/api/v1/analyze", map[string]string{"text": text})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doRequest(t, f.Handler(), http.MethodGet, "/api/v1/history?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Entries []*core.AnalysisRecord `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "third", resp.Entries[0].Text)
	assert.Equal(t, "second lottery prize", resp.Entries[1].Text)
	assert.True(t, resp.Entries[1].Analysis.IsSpam)

	for _, bad := range []string{"0", "101", "abc"} {
		w = doRequest(t, f.Handler(), http.MethodGet, "/api/v1/history?limit="+bad, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "limit=%s", bad)
	}
}

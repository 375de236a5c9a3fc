package openai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/mikey/trie-spam-filter/internal/config"
	"github.com/mikey/trie-spam-filter/internal/core"
	"github.com/mikey/trie-spam-filter/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestServer(t *testing.T, content string, captured *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, captured))

		resp := map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestExplainer(t *testing.T, baseURL string) core.Explainer {
	t.Helper()
	v := config.NewEmptyViper()
	v.Set("openai.api_key", "test-key")
	v.Set("openai.base_url", baseURL+"/v1")
	v.Set("openai.max_body_size", 8)

	logger := zaptest.NewLogger(t)
	explainer, err := NewFactory(config.NewFromViper(v), logger, utils.NewTextProcessor(logger)).CreateExplainer()
	require.NoError(t, err)
	return explainer
}

func TestExplain(t *testing.T) {
	var captured map[string]any
	srv := newTestServer(t, `{"explanation": "It promises a lottery prize."}`, &captured)
	explainer := newTestExplainer(t, srv.URL)

	got, err := explainer.Explain(context.Background(), "You won the lottery prize", core.Analysis{
		Score: 2, IsSpam: true, Confidence: 100, DetectedWords: []string{"lottery", "prize"},
	})
	require.NoError(t, err)
	assert.Equal(t, "It promises a lottery prize.", got)
	assert.Equal(t, "gpt-4", explainer.Name())

	assert.Equal(t, "gpt-4", captured["model"])
	messages := captured["messages"].([]any)
	require.Len(t, messages, 2)
	user := messages[1].(map[string]any)["content"].(string)
	assert.Contains(t, user, "Matched indicator terms: lottery, prize")
	// body cut to max_body_size
	assert.Contains(t, user, "You won "+utils.TruncationMarker)
}

func TestExplainBadResponse(t *testing.T) {
	var captured map[string]any
	srv := newTestServer(t, "no json at all", &captured)
	explainer := newTestExplainer(t, srv.URL)

	_, err := explainer.Explain(context.Background(), "hello", core.Analysis{DetectedWords: []string{}})
	assert.Error(t, err)
}

func TestFactoryRequiresAPIKey(t *testing.T) {
	logger := zaptest.NewLogger(t)
	_, err := NewFactory(config.NewFromViper(config.NewEmptyViper()), logger, utils.NewTextProcessor(logger)).CreateExplainer()
	assert.ErrorContains(t, err, "API key")
}

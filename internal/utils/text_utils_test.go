package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestTruncateText(t *testing.T) {
	tp := NewTextProcessor(zaptest.NewLogger(t))

	assert.Equal(t, "short", tp.TruncateText("short", 10))
	assert.Equal(t, "no limit", tp.TruncateText("no limit", 0))
	assert.Equal(t, "abc"+TruncationMarker, tp.TruncateText("abcdef", 3))

	// "é" is two bytes; cutting through it must drop the partial rune
	assert.Equal(t, "a"+TruncationMarker, tp.TruncateText("aé", 2))
}

func TestSanitizeUTF8(t *testing.T) {
	tp := NewTextProcessor(zaptest.NewLogger(t))

	assert.Equal(t, "valid ü", tp.SanitizeUTF8("valid ü"))
	assert.Equal(t, "ab", tp.SanitizeUTF8("a\xffb"))
	assert.Equal(t, "ab"+TruncationMarker, tp.ProcessText("ab\xff\xfe", 3))
}

func TestExtractJSONObject(t *testing.T) {
	got, err := ExtractJSONObject("Sure! ```json\n{\"explanation\": \"x {y}\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, `{"explanation": "x {y}"}`, got)

	_, err = ExtractJSONObject("no json here")
	assert.ErrorIs(t, err, ErrNoJSONObject)

	_, err = ExtractJSONObject("} backwards {")
	assert.ErrorIs(t, err, ErrNoJSONObject)
}

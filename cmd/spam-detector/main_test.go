package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mikey/trie-spam-filter/internal/adapters/filter"
	"github.com/mikey/trie-spam-filter/internal/core"
	"github.com/mikey/trie-spam-filter/internal/di"
	"github.com/mikey/trie-spam-filter/internal/utils"
	"github.com/mikey/trie-spam-filter/internal/whitelist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newCli(t *testing.T, out *bytes.Buffer, jsonOutput bool) *filter.CliFilter {
	logger := zaptest.NewLogger(t)
	svc := core.NewSpamFilterService(core.NewDefaultDictionary(), whitelist.NewChecker(nil, logger),
		utils.NewTextProcessor(logger), logger, core.ServiceOptions{})
	return filter.NewCliFilter(svc, logger, out, false, jsonOutput)
}

func parse(t *testing.T, args ...string) *di.CLIFlags {
	flags, err := di.ParseFlags(args, &bytes.Buffer{})
	require.NoError(t, err)
	return flags
}

func TestRunText(t *testing.T) {
	var out bytes.Buffer
	err := run(parse(t, "-text", "free money"), newCli(t, &out, false), zaptest.NewLogger(t), strings.NewReader(""))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Is spam: true")
}

func TestRunStdinEmail(t *testing.T) {
	var out bytes.Buffer
	raw := "From: alice@example.org\r\nSubject: Lottery\r\n\r\nClaim your prize\r\n"
	err := run(parse(t, "-email"), newCli(t, &out, false), zaptest.NewLogger(t), strings.NewReader(raw))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "From: alice@example.org")
	assert.Contains(t, out.String(), "Detected words: lottery, claim, prize")
}

func TestRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "msg.txt")
	require.NoError(t, os.WriteFile(path, []byte(core.SampleNormalMessages[1]), 0o644))

	var out bytes.Buffer
	err := run(parse(t, "-file", path), newCli(t, &out, false), zaptest.NewLogger(t), strings.NewReader(""))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Is spam: false")
}

func TestRunMissingFile(t *testing.T) {
	var out bytes.Buffer
	err := run(parse(t, "-file", filepath.Join(t.TempDir(), "missing")), newCli(t, &out, false), zaptest.NewLogger(t), strings.NewReader(""))
	assert.Error(t, err)
}

func TestRunExamples(t *testing.T) {
	var out bytes.Buffer
	err := run(parse(t, "-example", "spam"), newCli(t, &out, false), zaptest.NewLogger(t), strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, len(core.SampleSpamMessages), strings.Count(out.String(), "Is spam: true"))

	out.Reset()
	err = run(parse(t, "-example", "ham"), newCli(t, &out, false), zaptest.NewLogger(t), strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, len(core.SampleNormalMessages), strings.Count(out.String(), "Is spam: false"))
}

func TestRunDumpTrie(t *testing.T) {
	var out bytes.Buffer
	err := run(parse(t, "-dump-trie"), newCli(t, &out, false), zaptest.NewLogger(t), strings.NewReader(""))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "35 indicator terms")
}

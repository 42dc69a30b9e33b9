package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glyphkey/internal/store"
	"glyphkey/internal/translator"
)

const sampleConfig = `
[info]
name = "sample"
version = "0.1.0"

[core]
auto_capitalize = false

[data]
cc = "ç"
af = "ɑ"

[translation]
hello = "hi"
help = ["aid", "assist"]
`

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCheck(t *testing.T) {
	path := writeFile(t, "config.toml", sampleConfig)

	out, _, err := run(t, "check", path)
	require.NoError(t, err)
	assert.Equal(t, "sample 0.1.0\ndata: 2\ntranslation: 2\ntranslators: 0\n", out)
}

func TestCheckInvalid(t *testing.T) {
	path := writeFile(t, "config.toml", "[core]\npage_size = 0\n")

	_, _, err := run(t, "check", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page_size")
}

func TestCheckArgs(t *testing.T) {
	_, _, err := run(t, "check")
	assert.Error(t, err)
}

func TestTranslate(t *testing.T) {
	path := writeFile(t, "config.toml", sampleConfig)

	out, _, err := run(t, "translate", "--log-level", "error", path, "hel")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	var first translator.Predicate
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, translator.Predicate{Code: "hello", RemainingCode: "lo", Texts: []string{"hi"}}, first)
	assert.Contains(t, lines[0], `"remaining_code":"lo"`)
}

func TestTranslateBadLogFormat(t *testing.T) {
	path := writeFile(t, "config.toml", sampleConfig)
	_, _, err := run(t, "translate", "--log-format", "xml", path, "hel")
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	journal := filepath.Join(t.TempDir(), "journal.db")
	s, err := store.Open(journal)
	require.NoError(t, err)

	ctx := context.Background()
	now := time.Now()
	require.NoError(t, s.StartSession(ctx, "s1", now))
	require.NoError(t, s.RecordUsage(ctx, "s1", "cc", "ç", now))
	require.NoError(t, s.RecordUsage(ctx, "s1", "cc", "ç", now))
	require.NoError(t, s.RecordUsage(ctx, "s1", "af", "ɑ", now))
	require.NoError(t, s.Close())

	out, _, err := run(t, "stats", "--journal", journal, "--limit", "1", "--verify")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "journal ok", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "CODE"))
	assert.Equal(t, []string{"cc", "ç", "2"}, strings.Fields(lines[2])[:3])
}

func TestStatsEmpty(t *testing.T) {
	journal := filepath.Join(t.TempDir(), "journal.db")
	s, err := store.Open(journal)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	out, _, err := run(t, "stats", "--journal", journal)
	require.NoError(t, err)
	assert.Equal(t, "no usage recorded\n", out)
}

func TestStatsNoJournal(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	journal := filepath.Join(dir, "journal.db")

	out, _, err := run(t, "stats", "--journal", journal)
	require.NoError(t, err)
	assert.Equal(t, "no journal at "+journal+"\n", out)

	_, err = os.Stat(dir)
	assert.True(t, errors.Is(err, os.ErrNotExist), "stats must not create the data directory")
}

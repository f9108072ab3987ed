package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func newBufferedLogger(t *testing.T, format string, verbose bool) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	log, err := New(format, zapcore.AddSync(buf), verbose)
	require.NoError(t, err)

	log.Infow("No new GitHub commits.", "cycle", "c-1")
	log.Errorw("There was an error pulling from github.", "cycle", "c-1", "error", errors.New("sync error:\nnon-fast-forward"))
	log.Debug("debug detail")
	require.NoError(t, log.Sync())
	return buf
}

func TestConsoleFormat(t *testing.T) {
	buf := newBufferedLogger(t, FormatConsole, false)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	require.Len(t, lines, 2)
	assert.Equal(t, "No new GitHub commits.", lines[0])
	assert.Regexp(t,
		regexp.MustCompile(`^ERROR: \d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}, There was an error pulling from github\. Cause: sync error: non-fast-forward$`),
		lines[1])
}

func TestConsoleFormat_Verbose(t *testing.T) {
	buf := newBufferedLogger(t, "", true)

	assert.Contains(t, buf.String(), "debug detail")
}

func TestJSONFormat(t *testing.T) {
	buf := newBufferedLogger(t, FormatJSON, false)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "c-1", entry["cycle"])
	assert.Contains(t, entry["error"], "non-fast-forward")
}

func TestUnknownFormat(t *testing.T) {
	_, err := New("xml", zapcore.AddSync(&bytes.Buffer{}), false)
	assert.Error(t, err)
}

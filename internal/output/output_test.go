package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bridgeerr "github.com/mrz1836/litebridge/pkg/errors"
)

func TestFormatter_Print(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatJSON, &buf).Print(map[string]int{"height": 7}))
	assert.JSONEq(t, `{"height":7}`, buf.String())

	buf.Reset()
	require.NoError(t, NewFormatter(FormatText, &buf).Print("hello"))
	assert.Equal(t, "hello\n", buf.String())
}

func TestFormatter_PrintRaw(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	f := NewFormatter(FormatJSON, &buf)
	require.NoError(t, f.PrintRaw(`{"a":1}`))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())

	buf.Reset()
	require.NoError(t, f.PrintRaw("OK"))
	assert.JSONEq(t, `{"result":"OK"}`, buf.String())

	buf.Reset()
	require.NoError(t, NewFormatter(FormatText, &buf).PrintRaw("line\n"))
	assert.Equal(t, "line\n", buf.String())
}

func TestParseAndDetectFormat(t *testing.T) {
	t.Parallel()
	assert.Equal(t, FormatJSON, ParseFormat(" JSON "))
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatAuto, ParseFormat("yaml"))

	assert.Equal(t, FormatText, DetectFormat(&bytes.Buffer{}, FormatText))
	assert.Equal(t, FormatJSON, DetectFormat(&bytes.Buffer{}, FormatAuto))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, FormatJSON, DetectFormat(f, FormatAuto), "regular files are not terminals")
}

func TestFormatError(t *testing.T) {
	t.Parallel()

	err := bridgeerr.WithSuggestion(
		bridgeerr.WithDetails(bridgeerr.ErrWalletExists, map[string]string{"path": "/w", "chain": "main"}),
		"use initialize_existing",
	)

	var text bytes.Buffer
	require.NoError(t, FormatError(&text, err, FormatText))
	assert.Equal(t, "Error: wallet already exists\n\nDetails:\n  chain: main\n  path: /w\n\nSuggestion: use initialize_existing\n", text.String())

	var js bytes.Buffer
	require.NoError(t, FormatError(&js, err, FormatJSON))
	var out ErrorOutput
	require.NoError(t, json.Unmarshal(js.Bytes(), &out))
	assert.Equal(t, "WALLET_EXISTS", out.Error.Code)
	assert.Equal(t, "use initialize_existing", out.Error.Suggestion)

	var plain bytes.Buffer
	require.NoError(t, FormatError(&plain, errors.New("boom"), FormatText))
	assert.Equal(t, "Error: boom\n", plain.String())

	require.NoError(t, FormatError(&plain, nil, FormatText))
}

func TestTable(t *testing.T) {
	t.Parallel()

	table := NewTable("ID", "COMMAND", "RESULT")
	table.AddRow("1", "sync", "{\n  \"result\": \"success\"\n}")
	table.AddRow("12", "rescan", strings.Repeat("x", 100))

	lines := strings.Split(strings.TrimSuffix(table.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "ID  COMMAND  RESULT", strings.TrimRight(lines[0][:19], " "))
	assert.True(t, strings.HasPrefix(lines[1], "--  -------  ------"))
	assert.Contains(t, lines[2], `{ "result": "success" }`)
	assert.True(t, strings.HasSuffix(lines[3], "..."))

	assert.Empty(t, NewTable().String())
}

package main

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestNewLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "json", "info").Info("store.opened", "backend", "local")
	assert.Contains(t, buf.String(), `"msg":"store.opened"`)

	buf.Reset()
	newLogger(&buf, "text", "warn").Info("hidden")
	assert.Empty(t, buf.String())
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"serve", "extract", "ingest", "export", "check"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}

	extract, _, err := root.Find([]string{"extract"})
	require.NoError(t, err)
	assert.Equal(t, "event", extract.Flags().Lookup("schema").DefValue)
}

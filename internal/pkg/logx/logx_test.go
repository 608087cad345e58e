package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T, level zerolog.Level) *bytes.Buffer {
	t.Helper()

	previous := log.Logger
	t.Cleanup(func() { log.Logger = previous })

	var buf bytes.Buffer
	initWith(&buf, level)
	return &buf
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestInfo_WritesKeyValueFields(t *testing.T) {
	req := require.New(t)
	buf := captureLogs(t, zerolog.InfoLevel)

	Info("room opened", "room_token", "AbC12", "participants", 2)

	entry := lastLine(t, buf)
	req.Equal("info", entry["level"])
	req.Equal("room opened", entry["message"])
	req.Equal("AbC12", entry["room_token"])
	req.EqualValues(2, entry["participants"])
	req.Contains(entry["caller"], "logx_test.go")
}

func TestError_IncludesError(t *testing.T) {
	req := require.New(t)
	buf := captureLogs(t, zerolog.InfoLevel)

	Error(errors.New("boom"), "write failed")

	entry := lastLine(t, buf)
	req.Equal("error", entry["level"])
	req.Equal("boom", entry["error"])
}

func TestOddFieldsAreDropped(t *testing.T) {
	req := require.New(t)
	buf := captureLogs(t, zerolog.InfoLevel)

	Warn("dangling", "room_token")

	entry := lastLine(t, buf)
	req.Equal("dangling", entry["message"])
	req.NotContains(entry, "room_token")
}

func TestDebug_SuppressedAtInfoLevel(t *testing.T) {
	req := require.New(t)
	buf := captureLogs(t, zerolog.InfoLevel)

	Debug("fanout", "recipients", 3)

	req.Zero(buf.Len())
}

func TestComponent_TagsLogger(t *testing.T) {
	req := require.New(t)
	buf := captureLogs(t, zerolog.InfoLevel)

	logger := Component("Manager")
	logger.Info().Msg("started")

	req.Equal("Manager", lastLine(t, buf)["component"])
}

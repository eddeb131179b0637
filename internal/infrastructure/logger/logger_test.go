package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	for _, cfg := range []*Config{
		{Level: "info", Format: "console", Output: "stdout"},
		{Level: "info", Format: "json", Output: "stdout"},
		{Level: "debug", Format: "json", Output: "stderr", TimeFormat: "2006-01-02T15:04:05Z07:00"},
	} {
		log, err := New(cfg)
		require.NoError(t, err)
		assert.NotNil(t, log)
	}
}

func TestConfigLevel(t *testing.T) {
	cases := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"verbose", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}
	for _, tc := range cases {
		cfg := &Config{Level: tc.level}
		assert.Equal(t, tc.want, cfg.level(), tc.level)
	}
}

func TestConfigWriter(t *testing.T) {
	t.Run("standard streams", func(t *testing.T) {
		assert.NotNil(t, (&Config{Output: "stdout"}).writer())
		assert.NotNil(t, (&Config{Output: "stderr"}).writer())
		assert.NotNil(t, (&Config{Output: "STDOUT"}).writer())
		assert.NotNil(t, (&Config{}).writer())
	})

	t.Run("file path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "returns.log")
		w := (&Config{Output: path}).writer()
		require.NotNil(t, w)

		_, err := w.Write([]byte("settlement completed\n"))
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "settlement completed")
	})

	t.Run("unwritable path falls back to stdout", func(t *testing.T) {
		assert.NotNil(t, (&Config{Output: "/nonexistent-dir/returns.log"}).writer())
	})
}

func TestJSONOutputShape(t *testing.T) {
	cfg := &Config{Format: "json"}
	var buf bytes.Buffer
	log := zap.New(zapcore.NewCore(cfg.encoder(), zapcore.AddSync(&buf), zapcore.InfoLevel))

	log.Info("Refund settled",
		zap.String("return_number", "SR-20260831-0001"),
		zap.String("refund_type", "CASH"),
	)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Refund settled", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "SR-20260831-0001", entry["return_number"])
	assert.Equal(t, "CASH", entry["refund_type"])
	assert.Contains(t, entry, "time")
}

func TestLevelFiltering(t *testing.T) {
	cfg := &Config{Level: "info", Format: "json"}
	var buf bytes.Buffer
	log := zap.New(zapcore.NewCore(cfg.encoder(), zapcore.AddSync(&buf), cfg.level()))

	log.Debug("idempotency cache hit")
	assert.Empty(t, buf.String())

	log.Info("return approved")
	assert.Contains(t, buf.String(), "return approved")
}

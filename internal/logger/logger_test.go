package logger

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitWritesRotatingFile(t *testing.T) {
	dir := t.TempDir()
	Init(Options{Dir: dir})
	t.Cleanup(func() { Init(Options{}) })

	Component("test").Info("hello from test", "key", "value")

	data, err := os.ReadFile(filepath.Join(dir, "newsbot.log"))
	require.NoError(t, err)
	require.Contains(t, string(data), "hello from test")
	require.Contains(t, string(data), "component=test")
}

func TestInitDebugLevel(t *testing.T) {
	Init(Options{Debug: true})
	t.Cleanup(func() { Init(Options{}) })

	require.True(t, Logger.Enabled(context.Background(), slog.LevelDebug))
}

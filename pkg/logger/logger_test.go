package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatch/pkg/logger"
)

type ctxKey struct{}

func extractKey(ctx context.Context) (slog.Attr, bool) {
	v, ok := ctx.Value(ctxKey{}).(string)
	if !ok || v == "" {
		return slog.Attr{}, false
	}
	return slog.String("key", v), true
}

func TestNew_ExtractsContextValues(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewTo(&buf, logger.Config{}, extractKey, nil)

	ctx := context.WithValue(context.Background(), ctxKey{}, "abc")
	log.InfoContext(ctx, "hello", slog.Int("n", 1))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "hello", rec["msg"])
	require.Equal(t, "abc", rec["key"])
	require.InDelta(t, 1, rec["n"], 0)
}

func TestNew_Level(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewTo(&buf, logger.Config{Level: "warn", Format: "text"})

	log.Info("dropped")
	require.Zero(t, buf.Len())

	log.Warn("kept")
	require.Contains(t, buf.String(), "msg=kept")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	require.Equal(t, slog.LevelDebug, logger.ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, logger.ParseLevel("warning"))
	require.Equal(t, slog.LevelError, logger.ParseLevel(" error "))
	require.Equal(t, slog.LevelInfo, logger.ParseLevel("chatty"))
}

func TestNewWithSentry_NoDSNFallsBack(t *testing.T) {
	t.Parallel()

	log := logger.NewWithSentry(logger.Config{Level: "error"})
	require.True(t, log.Enabled(context.Background(), slog.LevelError))
	require.False(t, log.Enabled(context.Background(), slog.LevelInfo))
}

func TestNewNope(t *testing.T) {
	t.Parallel()

	require.NotPanics(t, func() {
		logger.NewNope().Error("nothing")
	})
}

func TestNewContextHandler(t *testing.T) {
	t.Parallel()

	t.Run("no extractors returns the handler as is", func(t *testing.T) {
		t.Parallel()
		base := slog.NewJSONHandler(&bytes.Buffer{}, nil)
		require.Same(t, base, logger.NewContextHandler(base, nil))
	})

	t.Run("derived loggers keep extracting", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := slog.New(logger.NewContextHandler(slog.NewJSONHandler(&buf, nil), extractKey)).
			With("component", "web").
			WithGroup("req")

		ctx := context.WithValue(context.Background(), ctxKey{}, "xyz")
		log.InfoContext(ctx, "hello")
		require.Contains(t, buf.String(), `"component":"web"`)
		require.Contains(t, buf.String(), `"key":"xyz"`)
	})
}

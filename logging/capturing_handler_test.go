package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamHandler_MirrorsRecords(t *testing.T) {
	var buf bytes.Buffer
	underlying := slog.NewTextHandler(&buf, nil)
	stream := NewStream(10)

	logger := slog.New(NewStreamHandler(underlying, stream, "crawl-pages"))
	logger.Info("crawl started", "pages", 12)

	entries := stream.Entries()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Message, "[crawl-pages]")
	assert.Contains(t, entries[0].Message, "crawl started")
	assert.Contains(t, entries[0].Message, "pages=12")
	assert.Equal(t, SeverityInfo, entries[0].Severity)

	// Passed through to the underlying handler too.
	assert.Contains(t, buf.String(), "crawl started")
}

func TestStreamHandler_SeverityMapping(t *testing.T) {
	stream := NewStream(10)
	logger := slog.New(NewStreamHandler(slog.NewTextHandler(&bytes.Buffer{}, nil), stream, "s"))

	logger.Warn("slow")
	logger.Error("broken")

	entries := stream.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, SeverityWarn, entries[0].Severity)
	assert.Equal(t, SeverityError, entries[1].Severity)
}

func TestStreamHandler_CapturesBelowUnderlyingLevel(t *testing.T) {
	var buf bytes.Buffer
	underlying := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError})
	stream := NewStream(10)

	logger := slog.New(NewStreamHandler(underlying, stream, "s"))
	logger.Info("quiet")

	assert.Equal(t, 1, stream.Len(), "stream captures records the underlying handler filters")
	assert.Empty(t, buf.String())
}

func TestStreamHandler_WithPreservesCapture(t *testing.T) {
	stream := NewStream(10)
	logger := slog.New(NewStreamHandler(slog.NewTextHandler(&bytes.Buffer{}, nil), stream, "s"))

	logger.With("run", "abc").WithGroup("sync").Info("chained")

	require.Equal(t, 1, stream.Len(), ".With() chains must keep capturing")
}

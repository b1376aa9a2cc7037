package logging

import (
	"context"
	"log/slog"
	"strings"
)

// StreamHandler wraps an slog.Handler and mirrors records into a Stream,
// tagged with a step ID. Step handlers log through a logger built on this
// handler so that their output both reaches the process log and shows up
// in the wizard's user-visible stream.
type StreamHandler struct {
	underlying slog.Handler
	stream     *Stream
	stepID     string
	attrs      []slog.Attr
	groups     []string
}

// NewStreamHandler creates a StreamHandler that mirrors records for stepID
// into the given stream while passing them through to the underlying handler.
func NewStreamHandler(underlying slog.Handler, stream *Stream, stepID string) *StreamHandler {
	return &StreamHandler{
		underlying: underlying,
		stream:     stream,
		stepID:     stepID,
	}
}

// Enabled always returns true so every record reaches the stream regardless
// of the underlying handler's level. The underlying handler still filters
// its own output in Handle().
func (h *StreamHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

// Handle mirrors the record into the stream and passes it through.
func (h *StreamHandler) Handle(ctx context.Context, r slog.Record) error {
	sev := SeverityInfo
	switch {
	case r.Level >= slog.LevelError:
		sev = SeverityError
	case r.Level >= slog.LevelWarn:
		sev = SeverityWarn
	}

	msg := r.Message
	var parts []string
	r.Attrs(func(a slog.Attr) bool {
		parts = append(parts, a.String())
		return true
	})
	if len(parts) > 0 {
		msg = msg + " (" + strings.Join(parts, " ") + ")"
	}

	h.stream.Append(sev, "["+h.stepID+"] "+msg)

	if h.underlying.Enabled(ctx, r.Level) {
		return h.underlying.Handle(ctx, r)
	}
	return nil
}

// WithAttrs must return a new StreamHandler, not the underlying handler,
// to preserve stream capture through .With() chains.
func (h *StreamHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &StreamHandler{
		underlying: h.underlying.WithAttrs(attrs),
		stream:     h.stream,
		stepID:     h.stepID,
		attrs:      newAttrs,
		groups:     h.groups,
	}
}

// WithGroup must return a new StreamHandler for the same reason as WithAttrs.
func (h *StreamHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups[len(h.groups)] = name

	return &StreamHandler{
		underlying: h.underlying.WithGroup(name),
		stream:     h.stream,
		stepID:     h.stepID,
		attrs:      h.attrs,
		groups:     newGroups,
	}
}

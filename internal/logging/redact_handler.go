package logging

import (
	"context"
	"log/slog"

	"github.com/dedsec-deck/deckd/internal/redaction"
)

// RedactingHandler wraps a slog.Handler and redacts sensitive attributes
// before they reach the underlying handler. Every handler in the chain sits
// behind one of these so a cached credential can never be written out.
type RedactingHandler struct {
	inner  slog.Handler
	config *redaction.Config
}

// NewRedactingHandler creates a handler that redacts attributes using config.
// A nil config uses redaction.DefaultConfig.
func NewRedactingHandler(inner slog.Handler, config *redaction.Config) *RedactingHandler {
	if config == nil {
		config = redaction.DefaultConfig()
	}
	return &RedactingHandler{inner: inner, config: config}
}

// Enabled reports whether the underlying handler is enabled at the level.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle redacts the record's message and attributes, then delegates.
func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	redacted := slog.NewRecord(r.Time, r.Level, h.config.RedactText(r.Message), r.PC)
	r.Attrs(func(attr slog.Attr) bool {
		redacted.AddAttrs(h.config.RedactAttr(attr))
		return true
	})
	return h.inner.Handle(ctx, redacted)
}

// WithAttrs returns a new handler with the given (redacted) attributes added.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		redacted = append(redacted, h.config.RedactAttr(attr))
	}
	return &RedactingHandler{inner: h.inner.WithAttrs(redacted), config: h.config}
}

// WithGroup returns a new handler with the given group name.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{inner: h.inner.WithGroup(name), config: h.config}
}

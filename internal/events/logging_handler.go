package events

import (
	"context"
	"log/slog"
)

// LoggingHandler writes every session event to the structured log. It is the
// default consumer wired in at startup; richer consumers (websockets,
// analytics) register alongside it.
type LoggingHandler struct {
	logger *slog.Logger
}

// NewLoggingHandler creates a handler that logs events at debug level.
func NewLoggingHandler(logger *slog.Logger) *LoggingHandler {
	return &LoggingHandler{
		logger: logger.With(slog.String("component", "event_log")),
	}
}

var _ EventHandler = (*LoggingHandler)(nil)

// HandleEvent implements EventHandler.
func (h *LoggingHandler) HandleEvent(ctx context.Context, event *SessionEvent) error {
	attrs := []any{
		slog.String("event_type", string(event.Type)),
		slog.String("session_id", event.SessionID.String()),
		slog.String("identity", event.IdentityKey),
	}
	if event.Type == EventTotalsUpdated {
		attrs = append(attrs, slog.Int("total_xp", event.TotalXP), slog.Int("level", event.Level))
	}
	h.logger.DebugContext(ctx, "session event", attrs...)
	return nil
}

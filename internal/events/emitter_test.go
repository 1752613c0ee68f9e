package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	events []*SessionEvent
	err    error
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *SessionEvent) error {
	h.events = append(h.events, event)
	return h.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEmitEventReachesAllHandlers(t *testing.T) {
	emitter := NewInMemoryEventEmitter(discardLogger())
	first := &recordingHandler{}
	second := &recordingHandler{}
	emitter.RegisterHandler(first)
	emitter.RegisterHandler(second)

	event := NewSessionEvent(EventStateChanged, uuid.New(), "user:abc")
	require.NoError(t, emitter.EmitEvent(context.Background(), event))

	require.Len(t, first.events, 1)
	require.Len(t, second.events, 1)
	assert.Equal(t, event.ID, first.events[0].ID)
	assert.Equal(t, EventStateChanged, second.events[0].Type)
}

func TestEmitEventContinuesPastFailingHandler(t *testing.T) {
	emitter := NewInMemoryEventEmitter(discardLogger())
	failErr := errors.New("handler broke")
	failing := &recordingHandler{err: failErr}
	healthy := &recordingHandler{}
	emitter.RegisterHandler(failing)
	emitter.RegisterHandler(healthy)

	err := emitter.EmitEvent(context.Background(), NewSessionEvent(EventSessionCompleted, uuid.New(), "guest:tok"))

	assert.ErrorIs(t, err, failErr)
	assert.Len(t, healthy.events, 1)
}

func TestNewSessionEventPopulatesFields(t *testing.T) {
	sessionID := uuid.New()
	event := NewSessionEvent(EventTotalsUpdated, sessionID, "user:abc")

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, sessionID, event.SessionID)
	assert.Equal(t, "user:abc", event.IdentityKey)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestLoggingHandlerAcceptsEvents(t *testing.T) {
	handler := NewLoggingHandler(discardLogger())

	event := NewSessionEvent(EventTotalsUpdated, uuid.New(), "user:abc")
	event.TotalXP = 750
	event.Level = 2
	assert.NoError(t, handler.HandleEvent(context.Background(), event))
}

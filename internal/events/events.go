package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType names the kinds of session events the engine emits.
type EventType string

// Event types emitted by the session engine.
const (
	// EventStateChanged fires after any engine operation mutates live
	// session state (answer, skip, navigation, shuffle, restart, hint).
	EventStateChanged EventType = "session.state_changed"

	// EventSnapshotPersisted fires after the autosaver successfully pushes a
	// snapshot to the persistence collaborator.
	EventSnapshotPersisted EventType = "session.snapshot_persisted"

	// EventTotalsUpdated fires when persistence reports updated learner
	// totals (cumulative XP, level). Consumers reconcile their own views
	// from this event instead of a global callback.
	EventTotalsUpdated EventType = "session.totals_updated"

	// EventSessionCompleted fires once a session reaches its completed state.
	EventSessionCompleted EventType = "session.completed"

	// EventSessionAbandoned fires once a session reaches its abandoned state.
	EventSessionAbandoned EventType = "session.abandoned"
)

// SessionEvent describes one observable change in a live session.
type SessionEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type indicates what changed
	Type EventType `json:"type"`

	// SessionID identifies the session the event belongs to
	SessionID uuid.UUID `json:"session_id"`

	// IdentityKey is the learner key the session is addressed by
	IdentityKey string `json:"identity_key"`

	// TotalXP and Level carry updated learner totals for EventTotalsUpdated;
	// zero otherwise.
	TotalXP int `json:"total_xp,omitempty"`
	Level   int `json:"level,omitempty"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewSessionEvent creates an event for the given session.
func NewSessionEvent(eventType EventType, sessionID uuid.UUID, identityKey string) *SessionEvent {
	return &SessionEvent{
		ID:          uuid.New(),
		Type:        eventType,
		SessionID:   sessionID,
		IdentityKey: identityKey,
		CreatedAt:   time.Now().UTC(),
	}
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *SessionEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows the engine to publish state changes without direct knowledge
// of who consumes them.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *SessionEvent) error
}

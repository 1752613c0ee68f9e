package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mnemohq/mnemo-api/internal/domain"
	"github.com/mnemohq/mnemo-api/internal/domain/srs"
	"github.com/mnemohq/mnemo-api/internal/events"
	"github.com/mnemohq/mnemo-api/internal/reward"
	"github.com/mnemohq/mnemo-api/internal/store"
)

// Common errors
var (
	// ErrSessionFinished is returned when an operation targets a session
	// that has already completed or been abandoned.
	ErrSessionFinished = errors.New("session already finished")

	// ErrCardNotInSession is returned when an operation references a card
	// that was never selected into the session.
	ErrCardNotInSession = errors.New("card is not part of this session")

	// ErrFinalizeFailed is returned when complete or abandon could not reach
	// the persistence collaborator. The session stays open and resumable;
	// the caller must surface this to the learner.
	ErrFinalizeFailed = errors.New("failed to finalize session")
)

// MaxCardSeconds caps a single card's contribution to active time so idle or
// backgrounded stretches are not attributed to study.
const MaxCardSeconds = 300

// Observed recall qualities handed to the scheduler at completion. A correct
// answer is a confident recall unless the learner needed the hint; an
// incorrect answer is a lapse with partial recognition.
const (
	qualityCorrect         = 5
	qualityCorrectWithHint = 4
	qualityIncorrect       = 2
)

// Engine owns the live state of exactly one study session and applies
// learner actions to it.
//
// The engine is a single-writer state machine: all operations are plain
// synchronous transitions, and the only concurrent reader is the autosaver
// goroutine taking snapshots. The internal mutex exists solely for that
// boundary; no operation ever blocks on a persistence push.
type Engine struct {
	mu sync.Mutex

	session    *domain.Session
	cards      map[uuid.UUID]*domain.Card
	states     map[uuid.UUID]*domain.ReviewState
	difficulty domain.Difficulty

	scheduler srs.Service
	sessions  store.SessionStore
	emitter   events.EventEmitter
	clock     Clock
	rng       *rand.Rand
	logger    *slog.Logger

	dirty         bool
	hintsRevealed map[uuid.UUID]bool
	perCardSecs   map[uuid.UUID]int
	windowStart   time.Time
}

// Config carries the collaborators an Engine needs.
type Config struct {
	Session *domain.Session

	// Cards are the selected cards in session order.
	Cards []*domain.Card

	// States holds prior review state by card id; absent entries mean the
	// card has never been answered.
	States map[uuid.UUID]*domain.ReviewState

	// Difficulty is the deck tier used for rewards.
	Difficulty domain.Difficulty

	Scheduler srs.Service
	Sessions  store.SessionStore
	Emitter   events.EventEmitter
	Clock     Clock
	RNG       *rand.Rand
	Logger    *slog.Logger
}

// NewEngine creates an engine around a freshly created session.
func NewEngine(cfg Config) *Engine {
	if cfg.Session == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("session cannot be nil")
	}
	if cfg.Scheduler == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("scheduler cannot be nil")
	}
	if cfg.Sessions == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("session store cannot be nil")
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.RNG == nil {
		cfg.RNG = rand.New(rand.NewSource(cfg.Clock.Now().UnixNano()))
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	cards := make(map[uuid.UUID]*domain.Card, len(cfg.Cards))
	for _, card := range cfg.Cards {
		cards[card.ID] = card
	}

	states := cfg.States
	if states == nil {
		states = make(map[uuid.UUID]*domain.ReviewState)
	}

	return &Engine{
		session:       cfg.Session,
		cards:         cards,
		states:        states,
		difficulty:    cfg.Difficulty,
		scheduler:     cfg.Scheduler,
		sessions:      cfg.Sessions,
		emitter:       cfg.Emitter,
		clock:         cfg.Clock,
		rng:           cfg.RNG,
		logger:        cfg.Logger.With(slog.String("component", "session_engine"), slog.String("session_id", cfg.Session.ID.String())),
		hintsRevealed: make(map[uuid.UUID]bool),
		perCardSecs:   make(map[uuid.UUID]int),
		windowStart:   cfg.Clock.Now(),
	}
}

// Resume reopens a saved session inside a fresh engine.
//
// The stored card index is never trusted blindly: the starting card is
// recomputed as the first unanswered card, falling back to the first skipped
// card. If every card already has a terminal answer the session has been
// fully cycled, so the answer map is cleared and study starts over. Session
// XP and streak always reset to zero on resume - they measure this viewing,
// and previously earned XP was already credited when it was earned. The
// recomputed state is pushed back to persistence immediately so the two
// sides agree.
func Resume(ctx context.Context, cfg Config) (*Engine, error) {
	e := NewEngine(cfg)

	e.mu.Lock()
	s := e.session
	if s.Terminal() {
		e.mu.Unlock()
		return nil, ErrSessionFinished
	}

	idx := s.FirstUnansweredIndex()
	if idx < 0 {
		idx = s.FirstSkippedIndex()
	}
	if idx < 0 {
		// Fully cycled: every card has a terminal answer. Start over.
		s.Answers = make(map[uuid.UUID]domain.AnswerStatus)
		idx = 0
	}

	s.CurrentIndex = idx
	s.Streak = 0
	s.SessionXP = 0
	e.windowStart = e.clock.Now()
	e.dirty = true
	snap := e.snapshotLocked()
	e.mu.Unlock()

	if err := e.pushSnapshot(ctx, snap); err != nil {
		// Not fatal: the autosaver retries on its next tick.
		e.logger.Warn("failed to push resume snapshot", slog.String("error", err.Error()))
	}

	return e, nil
}

// Answer records the learner's answer for a card.
//
// A card that already holds a terminal answer is left untouched, which guards
// against double-awarding XP; a previously skipped card may still be answered
// and earns XP normally. A correct answer extends the streak and earns a
// streak-scaled reward; an incorrect answer resets the streak to zero.
func (e *Engine) Answer(cardID uuid.UUID, isCorrect bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkLiveLocked(cardID); err != nil {
		return err
	}

	if prev, ok := e.session.Answers[cardID]; ok && prev.Terminal() {
		return nil
	}

	e.bankElapsedLocked()

	if isCorrect {
		e.session.Answers[cardID] = domain.AnswerCorrect
		e.session.SessionXP += reward.ForAnswer(true, e.session.Streak, e.difficulty)
		e.session.Streak++
	} else {
		e.session.Answers[cardID] = domain.AnswerIncorrect
		e.session.Streak = 0
	}

	e.touchLocked()
	return nil
}

// Skip marks a card skipped without touching streak or XP. Skips are not
// terminal: the card can still be answered later in this session.
func (e *Engine) Skip(cardID uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkLiveLocked(cardID); err != nil {
		return err
	}

	if prev, ok := e.session.Answers[cardID]; ok && prev.Terminal() {
		return nil
	}

	e.bankElapsedLocked()
	e.session.Answers[cardID] = domain.AnswerSkipped
	e.touchLocked()
	return nil
}

// Advance moves the cursor forward one card, clamped to the last index, and
// opens a fresh elapsed-time window for the newly current card.
func (e *Engine) Advance() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Terminal() {
		return ErrSessionFinished
	}

	e.bankElapsedLocked()
	if e.session.CurrentIndex < len(e.session.CardIDs)-1 {
		e.session.CurrentIndex++
	}
	e.touchLocked()
	return nil
}

// Undo moves the cursor back one card. It is a no-op at index zero, and it
// does not erase the previous answer: answers are preserved so aggregate
// progress indicators stay accurate.
func (e *Engine) Undo() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Terminal() {
		return ErrSessionFinished
	}

	e.bankElapsedLocked()
	if e.session.CurrentIndex > 0 {
		e.session.CurrentIndex--
	}
	e.touchLocked()
	return nil
}

// Shuffle re-permutes the card order with a fresh uniform shuffle and resets
// the viewing: index, answers, streak, and session XP all return to zero.
// Active time already banked is preserved.
func (e *Engine) Shuffle() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Terminal() {
		return ErrSessionFinished
	}

	e.bankElapsedLocked()
	e.rng.Shuffle(len(e.session.CardIDs), func(i, j int) {
		e.session.CardIDs[i], e.session.CardIDs[j] = e.session.CardIDs[j], e.session.CardIDs[i]
	})
	e.resetViewingLocked()
	e.touchLocked()
	return nil
}

// Restart resets the viewing like Shuffle but keeps the card order.
func (e *Engine) Restart() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Terminal() {
		return ErrSessionFinished
	}

	e.bankElapsedLocked()
	e.resetViewingLocked()
	e.touchLocked()
	return nil
}

// RevealHint charges the one-time hint cost for a card. The first reveal in
// a session deducts a flat amount from session XP, floored at zero; every
// later reveal of the same card is free.
func (e *Engine) RevealHint(cardID uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkLiveLocked(cardID); err != nil {
		return err
	}

	if e.hintsRevealed[cardID] {
		return nil
	}
	e.hintsRevealed[cardID] = true

	e.session.SessionXP -= reward.HintCost
	if e.session.SessionXP < 0 {
		e.session.SessionXP = 0
	}

	e.touchLocked()
	return nil
}

// Complete runs the terminal completion transition.
//
// Every answered, non-skipped card is handed to the scheduler with its
// observed recall quality, and the resulting review states are submitted to
// persistence as one batch together with the session's aggregate results.
// Unlike autosave failures, a failure here is surfaced: the session stays
// open and resumable until persistence accepts the batch.
func (e *Engine) Complete(ctx context.Context) (*store.CompletionSummary, error) {
	e.mu.Lock()

	if e.session.Terminal() {
		e.mu.Unlock()
		return nil, ErrSessionFinished
	}

	e.bankElapsedLocked()
	today := e.clock.Now()

	var updated []*domain.ReviewState
	var cardResults []store.CardResult
	for _, cardID := range e.session.CardIDs {
		status, ok := e.session.Answers[cardID]
		if !ok || status == domain.AnswerSkipped {
			continue
		}
		wasCorrect := status == domain.AnswerCorrect

		state, err := e.stateFor(cardID)
		if err != nil {
			e.mu.Unlock()
			return nil, err
		}
		next, err := e.scheduler.Schedule(state, e.qualityForLocked(cardID, wasCorrect), today)
		if err != nil {
			e.mu.Unlock()
			return nil, fmt.Errorf("scheduling card %s: %w", cardID, err)
		}

		updated = append(updated, next)
		cardResults = append(cardResults, store.CardResult{
			CardID:           cardID,
			WasCorrect:       wasCorrect,
			TimeSpentSeconds: e.perCardSecs[cardID],
		})
	}

	correct, incorrect, skipped := e.session.Counts()
	result := store.CompletionResult{
		SessionID:       e.session.ID,
		Score:           scorePercent(correct, incorrect),
		CorrectCount:    correct,
		IncorrectCount:  incorrect,
		SkippedCount:    skipped,
		DurationSeconds: e.session.ActiveSeconds,
		XPEarned:        e.session.SessionXP,
		CardResults:     cardResults,
		States:          updated,
	}
	identityKey := e.session.Identity.Key()
	e.mu.Unlock()

	summary, err := e.sessions.Finalize(ctx, identityKey, result)
	if err != nil {
		e.logger.Error("session completion did not reach persistence", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrFinalizeFailed, err)
	}

	e.mu.Lock()
	e.session.Phase = domain.PhaseCompleted
	e.dirty = false
	e.mu.Unlock()

	e.emit(ctx, events.EventSessionCompleted)
	if summary != nil && summary.TotalXP > 0 {
		e.emitTotals(ctx, summary.TotalXP, summary.NewLevel)
	}

	e.logger.Info("session completed",
		slog.Int("correct", correct),
		slog.Int("incorrect", incorrect),
		slog.Int("skipped", skipped),
		slog.Int("xp_earned", result.XPEarned))

	return summary, nil
}

// Abandon runs the terminal abandon transition. The scheduler is never
// invoked; review state is untouched. Like Complete, the persistence write
// must succeed before the session is considered closed.
func (e *Engine) Abandon(ctx context.Context) error {
	e.mu.Lock()
	if e.session.Terminal() {
		e.mu.Unlock()
		return ErrSessionFinished
	}
	e.bankElapsedLocked()
	identityKey := e.session.Identity.Key()
	sessionID := e.session.ID
	e.mu.Unlock()

	if err := e.sessions.Abandon(ctx, identityKey, sessionID); err != nil {
		e.logger.Error("session abandon did not reach persistence", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %v", ErrFinalizeFailed, err)
	}

	e.mu.Lock()
	e.session.Phase = domain.PhaseAbandoned
	e.dirty = false
	e.mu.Unlock()

	e.emit(ctx, events.EventSessionAbandoned)
	return nil
}

// Session returns a copy of the current session state.
func (e *Engine) Session() domain.Session {
	e.mu.Lock()
	defer e.mu.Unlock()

	copied := *e.session
	copied.CardIDs = append([]uuid.UUID(nil), e.session.CardIDs...)
	copied.Answers = make(map[uuid.UUID]domain.AnswerStatus, len(e.session.Answers))
	for id, status := range e.session.Answers {
		copied.Answers[id] = status
	}
	return copied
}

// Card returns the card with the given id, if it belongs to this session.
func (e *Engine) Card(id uuid.UUID) (*domain.Card, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	card, ok := e.cards[id]
	return card, ok
}

// Dirty reports whether local state has changed since the last successful
// snapshot push.
func (e *Engine) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

// Snapshot captures the current persistable state and clears the dirty flag.
// If the subsequent push fails the caller re-marks the engine dirty, so a
// mutation that lands mid-push is never lost: it sets the flag again and the
// next tick pushes the newer state (last write wins).
func (e *Engine) Snapshot() store.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dirty = false
	return e.snapshotLocked()
}

// MarkDirty re-arms the dirty flag, typically after a failed push.
func (e *Engine) MarkDirty() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.session.Terminal() {
		e.dirty = true
	}
}

// checkLiveLocked validates that the session can still accept card operations.
func (e *Engine) checkLiveLocked(cardID uuid.UUID) error {
	if e.session.Terminal() {
		return ErrSessionFinished
	}
	if !e.session.Contains(cardID) {
		return fmt.Errorf("%w: %s", ErrCardNotInSession, cardID)
	}
	return nil
}

// bankElapsedLocked closes the current elapsed-time window, attributing at
// most MaxCardSeconds to the currently viewed card, and opens a new window.
func (e *Engine) bankElapsedLocked() {
	now := e.clock.Now()
	secs := int(now.Sub(e.windowStart).Seconds())
	if secs < 0 {
		secs = 0
	}
	if secs > MaxCardSeconds {
		secs = MaxCardSeconds
	}

	current := e.session.CurrentCardID()
	e.perCardSecs[current] += secs
	e.session.ActiveSeconds += secs
	e.windowStart = now
}

// resetViewingLocked clears the per-viewing state: cursor, answers, streak,
// session XP, and hint charges. Banked active time survives.
func (e *Engine) resetViewingLocked() {
	e.session.CurrentIndex = 0
	e.session.Answers = make(map[uuid.UUID]domain.AnswerStatus)
	e.session.Streak = 0
	e.session.SessionXP = 0
	e.hintsRevealed = make(map[uuid.UUID]bool)
	e.windowStart = e.clock.Now()
}

// touchLocked records a mutation: timestamps, dirty flag, and a state-changed
// event for observers.
func (e *Engine) touchLocked() {
	e.session.UpdatedAt = e.clock.Now()
	e.dirty = true
	go e.emit(context.Background(), events.EventStateChanged)
}

// stateFor returns the learner's review state for a card, creating fresh
// state on the first ever answer.
func (e *Engine) stateFor(cardID uuid.UUID) (*domain.ReviewState, error) {
	if state, ok := e.states[cardID]; ok {
		return state, nil
	}
	state, err := domain.NewReviewState(e.session.Identity.Key(), cardID)
	if err != nil {
		return nil, fmt.Errorf("creating review state for card %s: %w", cardID, err)
	}
	e.states[cardID] = state
	return state, nil
}

// qualityForLocked maps an observed answer onto a recall quality for the
// scheduler. Needing the hint downgrades a correct recall one notch.
func (e *Engine) qualityForLocked(cardID uuid.UUID, wasCorrect bool) int {
	if !wasCorrect {
		return qualityIncorrect
	}
	if e.hintsRevealed[cardID] {
		return qualityCorrectWithHint
	}
	return qualityCorrect
}

// snapshotLocked builds a deep-copied snapshot of the persistable state.
func (e *Engine) snapshotLocked() store.Snapshot {
	answers := make(map[uuid.UUID]domain.AnswerStatus, len(e.session.Answers))
	for id, status := range e.session.Answers {
		answers[id] = status
	}
	return store.Snapshot{
		SessionID:       e.session.ID,
		CurrentIndex:    e.session.CurrentIndex,
		Answers:         answers,
		Streak:          e.session.Streak,
		SessionXP:       e.session.SessionXP,
		DurationSeconds: e.session.ActiveSeconds,
	}
}

// pushSnapshot sends one snapshot to persistence and emits follow-up events.
func (e *Engine) pushSnapshot(ctx context.Context, snap store.Snapshot) error {
	ack, err := e.sessions.SaveSnapshot(ctx, e.session.Identity.Key(), snap)
	if err != nil {
		return err
	}

	e.emit(ctx, events.EventSnapshotPersisted)
	if ack != nil {
		e.emitTotals(ctx, ack.TotalXP, ack.Level)
	}
	return nil
}

// emit publishes a plain session event when an emitter is wired.
func (e *Engine) emit(ctx context.Context, eventType events.EventType) {
	if e.emitter == nil {
		return
	}
	event := events.NewSessionEvent(eventType, e.session.ID, e.session.Identity.Key())
	if err := e.emitter.EmitEvent(ctx, event); err != nil {
		e.logger.Warn("event emission failed",
			slog.String("event_type", string(eventType)),
			slog.String("error", err.Error()))
	}
}

// emitTotals publishes updated learner totals for consumers to reconcile.
func (e *Engine) emitTotals(ctx context.Context, totalXP, level int) {
	if e.emitter == nil {
		return
	}
	event := events.NewSessionEvent(events.EventTotalsUpdated, e.session.ID, e.session.Identity.Key())
	event.TotalXP = totalXP
	event.Level = level
	if err := e.emitter.EmitEvent(ctx, event); err != nil {
		e.logger.Warn("event emission failed",
			slog.String("event_type", string(events.EventTotalsUpdated)),
			slog.String("error", err.Error()))
	}
}

// scorePercent computes the percentage of answered cards that were correct.
func scorePercent(correct, incorrect int) int {
	answered := correct + incorrect
	if answered == 0 {
		return 0
	}
	return correct * 100 / answered
}

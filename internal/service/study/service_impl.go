package study

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mnemohq/mnemo-api/internal/domain"
	"github.com/mnemohq/mnemo-api/internal/domain/srs"
	"github.com/mnemohq/mnemo-api/internal/events"
	"github.com/mnemohq/mnemo-api/internal/selection"
	"github.com/mnemohq/mnemo-api/internal/session"
	"github.com/mnemohq/mnemo-api/internal/store"
)

// studyServiceImpl implements the Service interface. Live engines are held
// in memory, one per identity; a newer session for the same identity evicts
// the older one after flushing it.
type studyServiceImpl struct {
	decks     store.DeckStore
	states    store.ReviewStateStore
	sessions  store.SessionStore
	totals    store.TotalsStore
	scheduler srs.Service
	emitter   events.EventEmitter
	clock     session.Clock
	logger    *slog.Logger

	autosaveInterval time.Duration
	defaultCardCount int

	mu   sync.Mutex
	live map[string]*liveSession
}

// liveSession pairs an engine with the autosaver that persists it.
type liveSession struct {
	engine *session.Engine
	saver  *session.Autosaver
}

// Ensure studyServiceImpl implements Service
var _ Service = (*studyServiceImpl)(nil)

// Config collects the dependencies for NewService.
type Config struct {
	Decks     store.DeckStore
	States    store.ReviewStateStore
	Sessions  store.SessionStore
	Totals    store.TotalsStore
	Scheduler srs.Service
	Emitter   events.EventEmitter
	Clock     session.Clock
	Logger    *slog.Logger

	// AutosaveInterval between dirty checks; zero means the engine default.
	AutosaveInterval time.Duration

	// DefaultCardCount caps random and smart selections when the request
	// does not name a count.
	DefaultCardCount int
}

// NewService creates the study session orchestrator.
func NewService(cfg Config) Service {
	if cfg.Decks == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("deck store cannot be nil")
	}
	if cfg.States == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("review state store cannot be nil")
	}
	if cfg.Sessions == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("session store cannot be nil")
	}
	if cfg.Totals == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("totals store cannot be nil")
	}
	if cfg.Scheduler == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("scheduler cannot be nil")
	}
	if cfg.Clock == nil {
		cfg.Clock = session.SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.AutosaveInterval <= 0 {
		cfg.AutosaveInterval = session.DefaultAutosaveInterval
	}
	if cfg.DefaultCardCount <= 0 {
		cfg.DefaultCardCount = 20
	}

	return &studyServiceImpl{
		decks:            cfg.Decks,
		states:           cfg.States,
		sessions:         cfg.Sessions,
		totals:           cfg.Totals,
		scheduler:        cfg.Scheduler,
		emitter:          cfg.Emitter,
		clock:            cfg.Clock,
		logger:           cfg.Logger.With(slog.String("component", "study_service")),
		autosaveInterval: cfg.AutosaveInterval,
		defaultCardCount: cfg.DefaultCardCount,
		live:             make(map[string]*liveSession),
	}
}

// guestMethodAllowed reports whether a guest may use the strategy. Smart and
// manual selection depend on review history and deck browsing, which guest
// sessions do not expose.
func guestMethodAllowed(method domain.SelectionMethod) bool {
	return method == domain.SelectionRandom || method == domain.SelectionAll
}

func (s *studyServiceImpl) Start(
	ctx context.Context,
	identity domain.Identity,
	req StartRequest,
) (*StartResult, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	if identity.IsGuest() && !guestMethodAllowed(req.Method) {
		return nil, ErrStrategyNotAllowed
	}

	deck, err := s.decks.GetByID(ctx, req.DeckID)
	if err != nil {
		return nil, err
	}
	cards, err := s.decks.GetCards(ctx, req.DeckID)
	if err != nil {
		return nil, err
	}
	states, err := s.states.GetForDeck(ctx, identity.Key(), req.DeckID)
	if err != nil {
		return nil, err
	}

	count := req.CardCount
	if count <= 0 {
		count = s.defaultCardCount
	}

	now := s.clock.Now()
	rng := rand.New(rand.NewSource(now.UnixNano()))
	selected, err := selection.Select(cards, states, req.Method, selection.Options{
		TargetCount:     count,
		ExplicitCardIDs: req.CardIDs,
		ExcludeMastered: req.ExcludeMastered,
	}, rng, now)
	if err != nil {
		return nil, err
	}

	cardIDs := make([]uuid.UUID, len(selected.Cards))
	for i, card := range selected.Cards {
		cardIDs[i] = card.ID
	}

	deckID := deck.ID
	sess, err := domain.NewSession(identity, &deckID, req.Method, cardIDs)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	engine := session.NewEngine(session.Config{
		Session:    sess,
		Cards:      selected.Cards,
		States:     states,
		Difficulty: deck.Difficulty,
		Scheduler:  s.scheduler,
		Sessions:   s.sessions,
		Emitter:    s.emitter,
		Clock:      s.clock,
		RNG:        rng,
		Logger:     s.logger,
	})

	s.register(ctx, identity.Key(), engine)

	s.logger.Info("started session",
		slog.String("session_id", sess.ID.String()),
		slog.String("identity", identity.Key()),
		slog.String("method", string(req.Method)),
		slog.Int("card_count", len(cardIDs)))

	return &StartResult{
		View:           s.viewOf(engine),
		AvailableCount: selected.AvailableCount,
		MasteredCount:  selected.MasteredCount,
	}, nil
}

func (s *studyServiceImpl) Resume(
	ctx context.Context,
	identity domain.Identity,
	sessionID uuid.UUID,
) (*View, error) {
	engine, err := s.engineFor(ctx, identity, sessionID)
	if err != nil {
		return nil, err
	}
	view := s.viewOf(engine)
	return &view, nil
}

func (s *studyServiceImpl) Get(
	ctx context.Context,
	identity domain.Identity,
	sessionID uuid.UUID,
) (*View, error) {
	return s.Resume(ctx, identity, sessionID)
}

func (s *studyServiceImpl) Answer(
	ctx context.Context,
	identity domain.Identity,
	sessionID, cardID uuid.UUID,
	isCorrect bool,
) (*View, error) {
	return s.act(ctx, identity, sessionID, func(e *session.Engine) error {
		return e.Answer(cardID, isCorrect)
	})
}

func (s *studyServiceImpl) Skip(
	ctx context.Context,
	identity domain.Identity,
	sessionID, cardID uuid.UUID,
) (*View, error) {
	return s.act(ctx, identity, sessionID, func(e *session.Engine) error {
		return e.Skip(cardID)
	})
}

func (s *studyServiceImpl) Advance(
	ctx context.Context,
	identity domain.Identity,
	sessionID uuid.UUID,
) (*View, error) {
	return s.act(ctx, identity, sessionID, func(e *session.Engine) error {
		return e.Advance()
	})
}

func (s *studyServiceImpl) Undo(
	ctx context.Context,
	identity domain.Identity,
	sessionID uuid.UUID,
) (*View, error) {
	return s.act(ctx, identity, sessionID, func(e *session.Engine) error {
		return e.Undo()
	})
}

func (s *studyServiceImpl) Shuffle(
	ctx context.Context,
	identity domain.Identity,
	sessionID uuid.UUID,
) (*View, error) {
	return s.act(ctx, identity, sessionID, func(e *session.Engine) error {
		return e.Shuffle()
	})
}

func (s *studyServiceImpl) Restart(
	ctx context.Context,
	identity domain.Identity,
	sessionID uuid.UUID,
) (*View, error) {
	return s.act(ctx, identity, sessionID, func(e *session.Engine) error {
		return e.Restart()
	})
}

func (s *studyServiceImpl) RevealHint(
	ctx context.Context,
	identity domain.Identity,
	sessionID, cardID uuid.UUID,
) (*View, error) {
	return s.act(ctx, identity, sessionID, func(e *session.Engine) error {
		return e.RevealHint(cardID)
	})
}

func (s *studyServiceImpl) Complete(
	ctx context.Context,
	identity domain.Identity,
	sessionID uuid.UUID,
) (*store.CompletionSummary, error) {
	engine, err := s.engineFor(ctx, identity, sessionID)
	if err != nil {
		return nil, err
	}

	summary, err := engine.Complete(ctx)
	if err != nil {
		// The session stays live and retryable.
		return nil, err
	}

	s.evict(identity.Key(), sessionID)
	return summary, nil
}

func (s *studyServiceImpl) Abandon(
	ctx context.Context,
	identity domain.Identity,
	sessionID uuid.UUID,
) error {
	engine, err := s.engineFor(ctx, identity, sessionID)
	if err != nil {
		return err
	}

	if err := engine.Abandon(ctx); err != nil {
		return err
	}

	s.evict(identity.Key(), sessionID)
	return nil
}

func (s *studyServiceImpl) Totals(
	ctx context.Context,
	identity domain.Identity,
) (*store.Totals, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	if identity.IsGuest() {
		// Guests keep XP inside the session only.
		return &store.Totals{IdentityKey: identity.Key(), TotalXP: 0, Level: 1}, nil
	}
	return s.totals.Get(ctx, identity.Key())
}

func (s *studyServiceImpl) Close(ctx context.Context) {
	s.mu.Lock()
	open := make([]*liveSession, 0, len(s.live))
	for _, live := range s.live {
		open = append(open, live)
	}
	s.live = make(map[string]*liveSession)
	s.mu.Unlock()

	for _, live := range open {
		live.saver.Stop()
	}
	s.logger.Info("closed study service", slog.Int("flushed_sessions", len(open)))
}

// act runs one engine operation and returns the refreshed view.
func (s *studyServiceImpl) act(
	ctx context.Context,
	identity domain.Identity,
	sessionID uuid.UUID,
	op func(*session.Engine) error,
) (*View, error) {
	engine, err := s.engineFor(ctx, identity, sessionID)
	if err != nil {
		return nil, err
	}
	if err := op(engine); err != nil {
		return nil, err
	}
	view := s.viewOf(engine)
	return &view, nil
}

// engineFor returns the live engine for the session, resuming it from the
// store when it is not in memory. A server restart therefore never strands a
// client: the first action on a saved session transparently reopens it.
func (s *studyServiceImpl) engineFor(
	ctx context.Context,
	identity domain.Identity,
	sessionID uuid.UUID,
) (*session.Engine, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}

	key := identity.Key()

	s.mu.Lock()
	live, ok := s.live[key]
	s.mu.Unlock()
	if ok && live.engine.Session().ID == sessionID {
		return live.engine, nil
	}

	sess, err := s.sessions.Get(ctx, key, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Terminal() {
		return nil, session.ErrSessionFinished
	}
	if sess.DeckID == nil {
		return nil, ErrDeckGone
	}

	cards, err := s.decks.GetCards(ctx, *sess.DeckID)
	if err != nil {
		return nil, err
	}
	deck, err := s.decks.GetByID(ctx, *sess.DeckID)
	if err != nil {
		return nil, err
	}
	states, err := s.states.GetForDeck(ctx, key, *sess.DeckID)
	if err != nil {
		return nil, err
	}

	// Keep only the cards the saved session still references. Cards deleted
	// from the deck since the session was created simply drop out.
	sessionCards := make([]*domain.Card, 0, len(sess.CardIDs))
	for _, card := range cards {
		if sess.Contains(card.ID) {
			sessionCards = append(sessionCards, card)
		}
	}

	engine, err := session.Resume(ctx, session.Config{
		Session:    sess,
		Cards:      sessionCards,
		States:     states,
		Difficulty: deck.Difficulty,
		Scheduler:  s.scheduler,
		Sessions:   s.sessions,
		Emitter:    s.emitter,
		Clock:      s.clock,
		Logger:     s.logger,
	})
	if err != nil {
		return nil, err
	}

	s.register(ctx, key, engine)

	s.logger.Info("resumed session",
		slog.String("session_id", sessionID.String()),
		slog.String("identity", key))

	return engine, nil
}

// register installs a live engine for the identity, flushing and evicting
// any previous one. The evicted session stays in progress in the store.
func (s *studyServiceImpl) register(ctx context.Context, key string, engine *session.Engine) {
	saver := session.NewAutosaver(engine, s.autosaveInterval, s.logger)

	s.mu.Lock()
	previous := s.live[key]
	s.live[key] = &liveSession{engine: engine, saver: saver}
	s.mu.Unlock()

	if previous != nil {
		previous.saver.Stop()
	}
	saver.Start()
}

// evict removes the live entry if it still holds the given session.
func (s *studyServiceImpl) evict(key string, sessionID uuid.UUID) {
	s.mu.Lock()
	live, ok := s.live[key]
	if ok && live.engine.Session().ID == sessionID {
		delete(s.live, key)
	} else {
		live = nil
	}
	s.mu.Unlock()

	if live != nil {
		live.saver.Stop()
	}
}

func (s *studyServiceImpl) viewOf(engine *session.Engine) View {
	sess := engine.Session()
	correct, incorrect, skipped := sess.Counts()

	view := View{
		Session:   sess,
		Correct:   correct,
		Incorrect: incorrect,
		Skipped:   skipped,
	}
	if len(sess.CardIDs) > 0 {
		if card, ok := engine.Card(sess.CurrentCardID()); ok {
			view.CurrentCard = card
		}
	}
	return view
}

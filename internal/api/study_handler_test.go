package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemohq/mnemo-api/internal/api/shared"
	"github.com/mnemohq/mnemo-api/internal/domain"
	"github.com/mnemohq/mnemo-api/internal/selection"
	"github.com/mnemohq/mnemo-api/internal/service/study"
	"github.com/mnemohq/mnemo-api/internal/store"
)

// stubStudyService implements study.Service with overridable functions for
// the methods a test exercises. Unstubbed methods fail the call.
type stubStudyService struct {
	startFn    func(ctx context.Context, identity domain.Identity, req study.StartRequest) (*study.StartResult, error)
	answerFn   func(ctx context.Context, identity domain.Identity, sessionID, cardID uuid.UUID, isCorrect bool) (*study.View, error)
	completeFn func(ctx context.Context, identity domain.Identity, sessionID uuid.UUID) (*store.CompletionSummary, error)
	viewFn     func(ctx context.Context, identity domain.Identity, sessionID uuid.UUID) (*study.View, error)
}

var _ study.Service = (*stubStudyService)(nil)

var errNotStubbed = store.ErrNotFound

func (s *stubStudyService) Start(ctx context.Context, identity domain.Identity, req study.StartRequest) (*study.StartResult, error) {
	if s.startFn == nil {
		return nil, errNotStubbed
	}
	return s.startFn(ctx, identity, req)
}

func (s *stubStudyService) Resume(ctx context.Context, identity domain.Identity, sessionID uuid.UUID) (*study.View, error) {
	if s.viewFn == nil {
		return nil, errNotStubbed
	}
	return s.viewFn(ctx, identity, sessionID)
}

func (s *stubStudyService) Get(ctx context.Context, identity domain.Identity, sessionID uuid.UUID) (*study.View, error) {
	return s.Resume(ctx, identity, sessionID)
}

func (s *stubStudyService) Answer(ctx context.Context, identity domain.Identity, sessionID, cardID uuid.UUID, isCorrect bool) (*study.View, error) {
	if s.answerFn == nil {
		return nil, errNotStubbed
	}
	return s.answerFn(ctx, identity, sessionID, cardID, isCorrect)
}

func (s *stubStudyService) Skip(ctx context.Context, identity domain.Identity, sessionID, cardID uuid.UUID) (*study.View, error) {
	return nil, errNotStubbed
}

func (s *stubStudyService) Advance(ctx context.Context, identity domain.Identity, sessionID uuid.UUID) (*study.View, error) {
	if s.viewFn == nil {
		return nil, errNotStubbed
	}
	return s.viewFn(ctx, identity, sessionID)
}

func (s *stubStudyService) Undo(ctx context.Context, identity domain.Identity, sessionID uuid.UUID) (*study.View, error) {
	return nil, errNotStubbed
}

func (s *stubStudyService) Shuffle(ctx context.Context, identity domain.Identity, sessionID uuid.UUID) (*study.View, error) {
	return nil, errNotStubbed
}

func (s *stubStudyService) Restart(ctx context.Context, identity domain.Identity, sessionID uuid.UUID) (*study.View, error) {
	return nil, errNotStubbed
}

func (s *stubStudyService) RevealHint(ctx context.Context, identity domain.Identity, sessionID, cardID uuid.UUID) (*study.View, error) {
	return nil, errNotStubbed
}

func (s *stubStudyService) Complete(ctx context.Context, identity domain.Identity, sessionID uuid.UUID) (*store.CompletionSummary, error) {
	if s.completeFn == nil {
		return nil, errNotStubbed
	}
	return s.completeFn(ctx, identity, sessionID)
}

func (s *stubStudyService) Abandon(ctx context.Context, identity domain.Identity, sessionID uuid.UUID) error {
	return errNotStubbed
}

func (s *stubStudyService) Totals(ctx context.Context, identity domain.Identity) (*store.Totals, error) {
	return &store.Totals{IdentityKey: identity.Key(), Level: 1}, nil
}

func (s *stubStudyService) Close(ctx context.Context) {}

func testView(identity domain.Identity) *study.View {
	deckID := uuid.New()
	card, _ := domain.NewCard(deckID, "hola", "hello", domain.CardTypeStandard, 0)
	return &study.View{
		Session: domain.Session{
			ID:           uuid.New(),
			Identity:     identity,
			DeckID:       &deckID,
			Method:       domain.SelectionAll,
			CardIDs:      []uuid.UUID{card.ID},
			Answers:      map[uuid.UUID]domain.AnswerStatus{},
			Phase:        domain.PhaseInProgress,
			CreatedAt:    time.Now().UTC(),
			CurrentIndex: 0,
		},
		CurrentCard: card,
	}
}

// serveAuthed routes the request through the handler with an identity
// already in the context, the way the middleware would leave it.
func serveAuthed(t *testing.T, handler *StudyHandler, identity domain.Identity, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	router := chi.NewRouter()
	router.Mount("/sessions", handler.Routes())

	rec := httptest.NewRecorder()
	req = req.WithContext(shared.WithIdentity(req.Context(), identity))
	router.ServeHTTP(rec, req)
	return rec
}

func TestStartSessionReturns201(t *testing.T) {
	identity := domain.UserIdentity(uuid.New())
	view := testView(identity)
	svc := &stubStudyService{
		startFn: func(_ context.Context, _ domain.Identity, req study.StartRequest) (*study.StartResult, error) {
			assert.Equal(t, domain.SelectionAll, req.Method)
			return &study.StartResult{View: *view, AvailableCount: 1}, nil
		},
	}
	handler := NewStudyHandler(svc, slog.Default())

	body, _ := json.Marshal(StartSessionRequest{
		DeckID: uuid.New().String(),
		Method: "all",
	})
	req := httptest.NewRequest(http.MethodPost, "/sessions/", bytes.NewReader(body))
	rec := serveAuthed(t, handler, identity, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp StartSessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, view.Session.ID.String(), resp.ID)
	assert.Equal(t, 1, resp.AvailableCount)
	require.NotNil(t, resp.CurrentCard)
	assert.Equal(t, "hola", resp.CurrentCard.Front)
}

func TestStartSessionRejectsUnknownMethod(t *testing.T) {
	handler := NewStudyHandler(&stubStudyService{}, slog.Default())

	body, _ := json.Marshal(StartSessionRequest{
		DeckID: uuid.New().String(),
		Method: "newest-first",
	})
	req := httptest.NewRequest(http.MethodPost, "/sessions/", bytes.NewReader(body))
	rec := serveAuthed(t, handler, domain.UserIdentity(uuid.New()), req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartSessionMapsEmptyDeckTo422(t *testing.T) {
	svc := &stubStudyService{
		startFn: func(context.Context, domain.Identity, study.StartRequest) (*study.StartResult, error) {
			return nil, selection.ErrNoCardsAvailable
		},
	}
	handler := NewStudyHandler(svc, slog.Default())

	body, _ := json.Marshal(StartSessionRequest{
		DeckID: uuid.New().String(),
		Method: "smart",
	})
	req := httptest.NewRequest(http.MethodPost, "/sessions/", bytes.NewReader(body))
	rec := serveAuthed(t, handler, domain.UserIdentity(uuid.New()), req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAnswerCardReturnsUpdatedView(t *testing.T) {
	identity := domain.UserIdentity(uuid.New())
	view := testView(identity)
	view.Session.SessionXP = 20
	view.Session.Streak = 1
	view.Correct = 1

	svc := &stubStudyService{
		answerFn: func(_ context.Context, _ domain.Identity, _, cardID uuid.UUID, isCorrect bool) (*study.View, error) {
			assert.True(t, isCorrect)
			assert.Equal(t, view.Session.CardIDs[0], cardID)
			return view, nil
		},
	}
	handler := NewStudyHandler(svc, slog.Default())

	correct := true
	body, _ := json.Marshal(AnswerRequest{
		CardID:  view.Session.CardIDs[0].String(),
		Correct: &correct,
	})
	req := httptest.NewRequest(
		http.MethodPost,
		"/sessions/"+view.Session.ID.String()+"/answer",
		bytes.NewReader(body))
	rec := serveAuthed(t, handler, identity, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 20, resp.SessionXP)
	assert.Equal(t, 1, resp.Correct)
}

func TestAnswerCardRequiresCorrectField(t *testing.T) {
	handler := NewStudyHandler(&stubStudyService{}, slog.Default())

	body := []byte(`{"card_id":"` + uuid.New().String() + `"}`)
	req := httptest.NewRequest(
		http.MethodPost,
		"/sessions/"+uuid.New().String()+"/answer",
		bytes.NewReader(body))
	rec := serveAuthed(t, handler, domain.UserIdentity(uuid.New()), req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompleteSessionReturnsSummary(t *testing.T) {
	identity := domain.UserIdentity(uuid.New())
	sessionID := uuid.New()
	svc := &stubStudyService{
		completeFn: func(_ context.Context, _ domain.Identity, id uuid.UUID) (*store.CompletionSummary, error) {
			assert.Equal(t, sessionID, id)
			return &store.CompletionSummary{
				XPEarned:        42,
				TotalXP:         542,
				NewLevel:        2,
				LeveledUp:       true,
				NewAchievements: []string{},
			}, nil
		},
	}
	handler := NewStudyHandler(svc, slog.Default())

	req := httptest.NewRequest(http.MethodPost, "/sessions/"+sessionID.String()+"/complete", nil)
	rec := serveAuthed(t, handler, identity, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp CompletionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 42, resp.XPEarned)
	assert.Equal(t, 2, resp.Level)
	assert.True(t, resp.LeveledUp)
}

func TestSessionRoutesRejectBadSessionID(t *testing.T) {
	handler := NewStudyHandler(&stubStudyService{}, slog.Default())

	req := httptest.NewRequest(http.MethodPost, "/sessions/not-a-uuid/complete", nil)
	rec := serveAuthed(t, handler, domain.UserIdentity(uuid.New()), req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoutesRequireIdentity(t *testing.T) {
	handler := NewStudyHandler(&stubStudyService{}, slog.Default())
	router := chi.NewRouter()
	router.Mount("/sessions", handler.Routes())

	req := httptest.NewRequest(http.MethodGet, "/sessions/totals", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMintGuestToken(t *testing.T) {
	handler := NewStudyHandler(&stubStudyService{}, slog.Default())

	req := httptest.NewRequest(http.MethodPost, "/guest/token", nil)
	rec := httptest.NewRecorder()
	handler.MintGuestToken(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp GuestTokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.GuestToken)
}

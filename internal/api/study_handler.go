// Package api provides HTTP handlers for the API.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mnemohq/mnemo-api/internal/api/shared"
	"github.com/mnemohq/mnemo-api/internal/domain"
	"github.com/mnemohq/mnemo-api/internal/platform/logger"
	"github.com/mnemohq/mnemo-api/internal/service/auth"
	"github.com/mnemohq/mnemo-api/internal/service/study"
)

// StudyHandler handles study session HTTP requests for both authenticated
// learners and guests; the middleware decides which identity lands in the
// request context.
type StudyHandler struct {
	studyService study.Service
	logger       *slog.Logger
}

// NewStudyHandler creates a new StudyHandler.
func NewStudyHandler(studyService study.Service, logger *slog.Logger) *StudyHandler {
	if studyService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("studyService cannot be nil for StudyHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for StudyHandler")
	}

	return &StudyHandler{
		studyService: studyService,
		logger:       logger.With(slog.String("component", "study_handler")),
	}
}

// Routes mounts the session lifecycle endpoints on a router. The same tree
// serves /sessions and /guest/sessions; only the middleware differs.
func (h *StudyHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.StartSession)
	r.Get("/totals", h.GetTotals)
	r.Route("/{sessionID}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Post("/resume", h.ResumeSession)
		r.Post("/answer", h.AnswerCard)
		r.Post("/skip", h.SkipCard)
		r.Post("/advance", h.Advance)
		r.Post("/undo", h.Undo)
		r.Post("/shuffle", h.Shuffle)
		r.Post("/restart", h.Restart)
		r.Post("/hint", h.RevealHint)
		r.Post("/complete", h.CompleteSession)
		r.Post("/abandon", h.AbandonSession)
	})
	return r
}

// StartSession handles POST /sessions requests.
func (h *StudyHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	var req StartSessionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	deckID, err := uuid.Parse(req.DeckID)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "deck_id has invalid format", err)
		return
	}
	cardIDs, err := parseUUIDs(req.CardIDs)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "card_ids contain an invalid id", err)
		return
	}

	result, err := h.studyService.Start(r.Context(), identity, study.StartRequest{
		DeckID:          deckID,
		Method:          domain.SelectionMethod(req.Method),
		CardCount:       req.CardCount,
		CardIDs:         cardIDs,
		ExcludeMastered: req.ExcludeMastered,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("session started",
		slog.String("session_id", result.Session.ID.String()),
		slog.String("method", req.Method))

	response := StartSessionResponse{
		SessionResponse: viewToResponse(&result.View),
		AvailableCount:  result.AvailableCount,
		MasteredCount:   result.MasteredCount,
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, response)
}

// GetSession handles GET /sessions/{sessionID} requests.
func (h *StudyHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, h.studyService.Get)
}

// ResumeSession handles POST /sessions/{sessionID}/resume requests.
func (h *StudyHandler) ResumeSession(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, h.studyService.Resume)
}

// AnswerCard handles POST /sessions/{sessionID}/answer requests.
func (h *StudyHandler) AnswerCard(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}
	sessionID, ok := getPathUUID(w, r, "sessionID")
	if !ok {
		return
	}

	var req AnswerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	cardID, err := uuid.Parse(req.CardID)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "card_id has invalid format", err)
		return
	}

	view, err := h.studyService.Answer(r.Context(), identity, sessionID, cardID, *req.Correct)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, viewToResponse(view))
}

// SkipCard handles POST /sessions/{sessionID}/skip requests.
func (h *StudyHandler) SkipCard(w http.ResponseWriter, r *http.Request) {
	h.cardAction(w, r, h.studyService.Skip)
}

// RevealHint handles POST /sessions/{sessionID}/hint requests.
func (h *StudyHandler) RevealHint(w http.ResponseWriter, r *http.Request) {
	h.cardAction(w, r, h.studyService.RevealHint)
}

// Advance handles POST /sessions/{sessionID}/advance requests.
func (h *StudyHandler) Advance(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, h.studyService.Advance)
}

// Undo handles POST /sessions/{sessionID}/undo requests.
func (h *StudyHandler) Undo(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, h.studyService.Undo)
}

// Shuffle handles POST /sessions/{sessionID}/shuffle requests.
func (h *StudyHandler) Shuffle(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, h.studyService.Shuffle)
}

// Restart handles POST /sessions/{sessionID}/restart requests.
func (h *StudyHandler) Restart(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, h.studyService.Restart)
}

// CompleteSession handles POST /sessions/{sessionID}/complete requests.
func (h *StudyHandler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}
	sessionID, ok := getPathUUID(w, r, "sessionID")
	if !ok {
		return
	}

	summary, err := h.studyService.Complete(r.Context(), identity, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("session completed",
		slog.String("session_id", sessionID.String()),
		slog.Int("xp_earned", summary.XPEarned))
	shared.RespondWithJSON(w, r, http.StatusOK, summaryToResponse(summary))
}

// AbandonSession handles POST /sessions/{sessionID}/abandon requests.
func (h *StudyHandler) AbandonSession(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}
	sessionID, ok := getPathUUID(w, r, "sessionID")
	if !ok {
		return
	}

	if err := h.studyService.Abandon(r.Context(), identity, sessionID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetTotals handles GET /sessions/totals requests.
func (h *StudyHandler) GetTotals(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	totals, err := h.studyService.Totals(r.Context(), identity)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, TotalsResponse{
		TotalXP: totals.TotalXP,
		Level:   totals.Level,
	})
}

// MintGuestToken handles POST /guest/token requests. It hands out an opaque
// token a device can use for guest study without an account.
func (h *StudyHandler) MintGuestToken(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusCreated, GuestTokenResponse{
		GuestToken: auth.MintGuestToken(),
	})
}

// sessionAction runs one session-scoped service call and writes the
// refreshed view.
func (h *StudyHandler) sessionAction(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, identity domain.Identity, sessionID uuid.UUID) (*study.View, error),
) {
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}
	sessionID, ok := getPathUUID(w, r, "sessionID")
	if !ok {
		return
	}

	view, err := op(r.Context(), identity, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, viewToResponse(view))
}

// cardAction runs one card-scoped service call and writes the refreshed view.
func (h *StudyHandler) cardAction(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, identity domain.Identity, sessionID, cardID uuid.UUID) (*study.View, error),
) {
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}
	sessionID, ok := getPathUUID(w, r, "sessionID")
	if !ok {
		return
	}

	var req CardActionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	cardID, err := uuid.Parse(req.CardID)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "card_id has invalid format", err)
		return
	}

	view, err := op(r.Context(), identity, sessionID, cardID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, viewToResponse(view))
}

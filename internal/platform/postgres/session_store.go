package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mnemohq/mnemo-api/internal/domain"
	"github.com/mnemohq/mnemo-api/internal/store"
)

// PostgresSessionStore implements the store.SessionStore interface using a
// PostgreSQL database as the storage backend.
//
// It holds a *sql.DB rather than a DBTX because Finalize and Abandon manage
// their own transactions: session results, review state batches, and XP
// totals must land atomically.
type PostgresSessionStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresSessionStore creates a new PostgreSQL implementation of the
// SessionStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresSessionStore(db *sql.DB, logger *slog.Logger) *PostgresSessionStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSessionStore{
		db:     db,
		logger: logger.With(slog.String("component", "session_store")),
	}
}

// Ensure PostgresSessionStore implements store.SessionStore interface
var _ store.SessionStore = (*PostgresSessionStore)(nil)

// Create implements store.SessionStore.Create
func (s *PostgresSessionStore) Create(ctx context.Context, session *domain.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	cardIDs, err := json.Marshal(session.CardIDs)
	if err != nil {
		return fmt.Errorf("failed to encode card ids: %w", err)
	}
	answers, err := json.Marshal(session.Answers)
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}

	query := `
		INSERT INTO study_sessions (
			id, identity_key, deck_id, method, card_ids, current_index, answers,
			streak, session_xp, active_seconds, phase, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = s.db.ExecContext(ctx, query,
		session.ID,
		session.Identity.Key(),
		session.DeckID,
		session.Method,
		cardIDs,
		session.CurrentIndex,
		answers,
		session.Streak,
		session.SessionXP,
		session.ActiveSeconds,
		session.Phase,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	s.logger.Debug("created session",
		slog.String("session_id", session.ID.String()),
		slog.Int("card_count", len(session.CardIDs)))

	return nil
}

// Get implements store.SessionStore.Get
// Sessions are scoped by identity key, so one learner can never read
// another's session.
func (s *PostgresSessionStore) Get(ctx context.Context, identityKey string, id uuid.UUID) (*domain.Session, error) {
	query := `
		SELECT id, identity_key, deck_id, method, card_ids, current_index, answers,
		       streak, session_xp, active_seconds, phase, created_at, updated_at
		FROM study_sessions
		WHERE id = $1 AND identity_key = $2`

	var (
		session     domain.Session
		storedKey   string
		deckID      uuid.NullUUID
		cardIDsJSON []byte
		answersJSON []byte
	)
	err := s.db.QueryRowContext(ctx, query, id, identityKey).Scan(
		&session.ID,
		&storedKey,
		&deckID,
		&session.Method,
		&cardIDsJSON,
		&session.CurrentIndex,
		&answersJSON,
		&session.Streak,
		&session.SessionXP,
		&session.ActiveSeconds,
		&session.Phase,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	session.Identity = identityFromKey(storedKey)
	if deckID.Valid {
		d := deckID.UUID
		session.DeckID = &d
	}
	if err := json.Unmarshal(cardIDsJSON, &session.CardIDs); err != nil {
		return nil, fmt.Errorf("%w: session card ids: %v", store.ErrInvalidEntity, err)
	}
	if err := json.Unmarshal(answersJSON, &session.Answers); err != nil {
		return nil, fmt.Errorf("%w: session answers: %v", store.ErrInvalidEntity, err)
	}

	return &session, nil
}

// SaveSnapshot implements store.SessionStore.SaveSnapshot
// For authenticated learners the acknowledgement echoes current totals so
// the caller can reconcile level displays.
func (s *PostgresSessionStore) SaveSnapshot(
	ctx context.Context,
	identityKey string,
	snap store.Snapshot,
) (*store.ProgressAck, error) {
	answers, err := json.Marshal(snap.Answers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answers: %w", err)
	}

	query := `
		UPDATE study_sessions
		SET current_index = $1, answers = $2, streak = $3, session_xp = $4,
		    active_seconds = $5, updated_at = NOW()
		WHERE id = $6 AND identity_key = $7 AND phase = 'in_progress'`

	result, err := s.db.ExecContext(ctx, query,
		snap.CurrentIndex, answers, snap.Streak, snap.SessionXP,
		snap.DurationSeconds, snap.SessionID, identityKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot result: %w", err)
	}
	if affected == 0 {
		return nil, s.classifyMissingWrite(ctx, identityKey, snap.SessionID)
	}

	ack := &store.ProgressAck{}
	if strings.HasPrefix(identityKey, "user:") {
		var totalXP int
		err := s.db.QueryRowContext(ctx,
			`SELECT total_xp FROM user_totals WHERE identity_key = $1`, identityKey,
		).Scan(&totalXP)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to read totals for ack: %w", err)
		}
		ack.TotalXP = totalXP
		ack.Level = store.LevelForXP(totalXP)
	}

	return ack, nil
}

// Finalize implements store.SessionStore.Finalize
// Session results, the review state batch, and XP totals land in a single
// transaction.
func (s *PostgresSessionStore) Finalize(
	ctx context.Context,
	identityKey string,
	result store.CompletionResult,
) (*store.CompletionSummary, error) {
	var summary *store.CompletionSummary

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		query := `
			UPDATE study_sessions
			SET phase = 'completed', score = $1, correct_count = $2, incorrect_count = $3,
			    skipped_count = $4, active_seconds = $5, xp_earned = $6,
			    finished_at = NOW(), updated_at = NOW()
			WHERE id = $7 AND identity_key = $8 AND phase = 'in_progress'`

		res, err := tx.ExecContext(ctx, query,
			result.Score, result.CorrectCount, result.IncorrectCount,
			result.SkippedCount, result.DurationSeconds, result.XPEarned,
			result.SessionID, identityKey,
		)
		if err != nil {
			return fmt.Errorf("failed to finalize session: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read finalize result: %w", err)
		}
		if affected == 0 {
			return s.classifyMissingWrite(ctx, identityKey, result.SessionID)
		}

		if err := upsertStatesTx(ctx, tx, result.States); err != nil {
			return err
		}

		summary = &store.CompletionSummary{
			XPEarned:        result.XPEarned,
			CardsLearned:    countMastered(result.States),
			NewAchievements: []string{}, // achievement rules live outside this service
		}

		// Guests earn XP within the session but have no durable totals.
		if strings.HasPrefix(identityKey, "user:") {
			before, err := totalXPTx(ctx, tx, identityKey)
			if err != nil {
				return err
			}
			totals, err := addXPTx(ctx, tx, identityKey, result.XPEarned)
			if err != nil {
				return err
			}
			summary.TotalXP = totals.TotalXP
			summary.NewLevel = totals.Level
			summary.LeveledUp = totals.Level > store.LevelForXP(before)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("finalized session",
		slog.String("session_id", result.SessionID.String()),
		slog.Int("score", result.Score),
		slog.Int("xp_earned", result.XPEarned))

	return summary, nil
}

// Abandon implements store.SessionStore.Abandon
func (s *PostgresSessionStore) Abandon(ctx context.Context, identityKey string, id uuid.UUID) error {
	query := `
		UPDATE study_sessions
		SET phase = 'abandoned', finished_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND identity_key = $2 AND phase = 'in_progress'`

	result, err := s.db.ExecContext(ctx, query, id, identityKey)
	if err != nil {
		return fmt.Errorf("failed to abandon session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read abandon result: %w", err)
	}
	if affected == 0 {
		return s.classifyMissingWrite(ctx, identityKey, id)
	}

	return nil
}

// classifyMissingWrite distinguishes "no such session" from "session already
// finalized" after a guarded update touched zero rows.
func (s *PostgresSessionStore) classifyMissingWrite(ctx context.Context, identityKey string, id uuid.UUID) error {
	var phase string
	err := s.db.QueryRowContext(ctx,
		`SELECT phase FROM study_sessions WHERE id = $1 AND identity_key = $2`, id, identityKey,
	).Scan(&phase)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to classify session write: %w", err)
	}
	return store.ErrSessionFinalized
}

// totalXPTx reads a learner's current XP inside a transaction, defaulting to
// zero when no totals row exists yet.
func totalXPTx(ctx context.Context, tx *sql.Tx, identityKey string) (int, error) {
	var totalXP int
	err := tx.QueryRowContext(ctx,
		`SELECT total_xp FROM user_totals WHERE identity_key = $1`, identityKey,
	).Scan(&totalXP)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read totals: %w", err)
	}
	return totalXP, nil
}

// countMastered tallies states that reached mastered in this batch.
func countMastered(states []*domain.ReviewState) int {
	count := 0
	for _, state := range states {
		if state.Status == domain.ReviewStatusMastered {
			count++
		}
	}
	return count
}

// identityFromKey rebuilds an Identity from a stored identity key.
func identityFromKey(key string) domain.Identity {
	if token, ok := strings.CutPrefix(key, "guest:"); ok {
		return domain.GuestIdentity(token)
	}
	if raw, ok := strings.CutPrefix(key, "user:"); ok {
		if id, err := uuid.Parse(raw); err == nil {
			return domain.UserIdentity(id)
		}
	}
	return domain.Identity{}
}

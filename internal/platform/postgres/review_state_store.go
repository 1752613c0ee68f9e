package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mnemohq/mnemo-api/internal/domain"
	"github.com/mnemohq/mnemo-api/internal/store"
)

// PostgresReviewStateStore implements the store.ReviewStateStore interface
// using a PostgreSQL database as the storage backend.
type PostgresReviewStateStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresReviewStateStore creates a new PostgreSQL implementation of the
// ReviewStateStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresReviewStateStore(db *sql.DB, logger *slog.Logger) *PostgresReviewStateStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewStateStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_state_store")),
	}
}

// Ensure PostgresReviewStateStore implements store.ReviewStateStore interface
var _ store.ReviewStateStore = (*PostgresReviewStateStore)(nil)

// GetForDeck implements store.ReviewStateStore.GetForDeck
func (s *PostgresReviewStateStore) GetForDeck(
	ctx context.Context,
	identityKey string,
	deckID uuid.UUID,
) (map[uuid.UUID]*domain.ReviewState, error) {
	query := `
		SELECT rs.id, rs.identity_key, rs.card_id, rs.status, rs.ease_factor, rs.interval_days,
		       rs.repetitions, rs.next_review_at, rs.times_seen, rs.times_correct, rs.times_incorrect,
		       rs.created_at, rs.updated_at
		FROM review_states rs
		JOIN cards c ON c.id = rs.card_id
		WHERE rs.identity_key = $1 AND c.deck_id = $2`

	rows, err := s.db.QueryContext(ctx, query, identityKey, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to query review states: %w", err)
	}
	defer func() { _ = rows.Close() }()

	states := make(map[uuid.UUID]*domain.ReviewState)
	for rows.Next() {
		var (
			state      domain.ReviewState
			nextReview sql.NullTime
		)
		err := rows.Scan(
			&state.ID,
			&state.IdentityKey,
			&state.CardID,
			&state.Status,
			&state.EaseFactor,
			&state.IntervalDays,
			&state.Repetitions,
			&nextReview,
			&state.TimesSeen,
			&state.TimesCorrect,
			&state.TimesIncorrect,
			&state.CreatedAt,
			&state.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review state row: %w", err)
		}
		if nextReview.Valid {
			t := nextReview.Time
			state.NextReviewAt = &t
		}
		states[state.CardID] = &state
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate review states: %w", err)
	}

	return states, nil
}

// UpsertBatch implements store.ReviewStateStore.UpsertBatch
// The whole batch is written in one transaction: either every state lands or
// none does.
func (s *PostgresReviewStateStore) UpsertBatch(ctx context.Context, states []*domain.ReviewState) error {
	if len(states) == 0 {
		return nil
	}

	for _, state := range states {
		if err := state.Validate(); err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
	}

	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return upsertStatesTx(ctx, tx, states)
	})
}

// upsertStatesTx writes the batch inside an existing transaction. It is
// shared with the session store's finalize path.
func upsertStatesTx(ctx context.Context, tx *sql.Tx, states []*domain.ReviewState) error {
	query := `
		INSERT INTO review_states (
			id, identity_key, card_id, status, ease_factor, interval_days, repetitions,
			next_review_at, times_seen, times_correct, times_incorrect, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (identity_key, card_id) DO UPDATE SET
			status = EXCLUDED.status,
			ease_factor = EXCLUDED.ease_factor,
			interval_days = EXCLUDED.interval_days,
			repetitions = EXCLUDED.repetitions,
			next_review_at = EXCLUDED.next_review_at,
			times_seen = EXCLUDED.times_seen,
			times_correct = EXCLUDED.times_correct,
			times_incorrect = EXCLUDED.times_incorrect,
			updated_at = EXCLUDED.updated_at`

	for _, state := range states {
		var nextReview sql.NullTime
		if state.NextReviewAt != nil {
			nextReview = sql.NullTime{Time: *state.NextReviewAt, Valid: true}
		}

		_, err := tx.ExecContext(ctx, query,
			state.ID,
			state.IdentityKey,
			state.CardID,
			state.Status,
			state.EaseFactor,
			state.IntervalDays,
			state.Repetitions,
			nextReview,
			state.TimesSeen,
			state.TimesCorrect,
			state.TimesIncorrect,
			state.CreatedAt,
			state.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert review state for card %s: %w", state.CardID, err)
		}
	}

	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/mnemohq/mnemo-api/internal/store"
)

// PostgresTotalsStore implements the store.TotalsStore interface using a
// PostgreSQL database as the storage backend.
type PostgresTotalsStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresTotalsStore creates a new PostgreSQL implementation of the
// TotalsStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresTotalsStore(db *sql.DB, logger *slog.Logger) *PostgresTotalsStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTotalsStore{
		db:     db,
		logger: logger.With(slog.String("component", "totals_store")),
	}
}

// Ensure PostgresTotalsStore implements store.TotalsStore interface
var _ store.TotalsStore = (*PostgresTotalsStore)(nil)

// Get implements store.TotalsStore.Get
// A learner with no totals row yet gets a zero row created on first read.
func (s *PostgresTotalsStore) Get(ctx context.Context, identityKey string) (*store.Totals, error) {
	query := `
		INSERT INTO user_totals (identity_key, total_xp)
		VALUES ($1, 0)
		ON CONFLICT (identity_key) DO UPDATE SET identity_key = EXCLUDED.identity_key
		RETURNING identity_key, total_xp`

	var totals store.Totals
	if err := s.db.QueryRowContext(ctx, query, identityKey).Scan(&totals.IdentityKey, &totals.TotalXP); err != nil {
		return nil, fmt.Errorf("failed to get totals: %w", err)
	}

	totals.Level = store.LevelForXP(totals.TotalXP)
	return &totals, nil
}

// AddXP implements store.TotalsStore.AddXP
func (s *PostgresTotalsStore) AddXP(ctx context.Context, identityKey string, xp int) (*store.Totals, error) {
	var totals *store.Totals
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		totals, err = addXPTx(ctx, tx, identityKey, xp)
		return err
	})
	if err != nil {
		return nil, err
	}
	return totals, nil
}

// addXPTx credits XP inside an existing transaction. It is shared with the
// session store's finalize path.
func addXPTx(ctx context.Context, tx *sql.Tx, identityKey string, xp int) (*store.Totals, error) {
	query := `
		INSERT INTO user_totals (identity_key, total_xp)
		VALUES ($1, $2)
		ON CONFLICT (identity_key) DO UPDATE SET
			total_xp = user_totals.total_xp + EXCLUDED.total_xp,
			updated_at = NOW()
		RETURNING identity_key, total_xp`

	var totals store.Totals
	if err := tx.QueryRowContext(ctx, query, identityKey, xp).Scan(&totals.IdentityKey, &totals.TotalXP); err != nil {
		return nil, fmt.Errorf("failed to credit xp: %w", err)
	}

	totals.Level = store.LevelForXP(totals.TotalXP)
	return &totals, nil
}

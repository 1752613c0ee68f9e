package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mnemohq/mnemo-api/internal/domain"
	"github.com/mnemohq/mnemo-api/internal/store"
)

// PostgresDeckStore implements the store.DeckStore interface using a
// PostgreSQL database as the storage backend.
type PostgresDeckStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDeckStore creates a new PostgreSQL implementation of the
// DeckStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresDeckStore(db store.DBTX, logger *slog.Logger) *PostgresDeckStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDeckStore{
		db:     db,
		logger: logger.With(slog.String("component", "deck_store")),
	}
}

// Ensure PostgresDeckStore implements store.DeckStore interface
var _ store.DeckStore = (*PostgresDeckStore)(nil)

// GetByID implements store.DeckStore.GetByID
func (s *PostgresDeckStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	query := `
		SELECT id, owner_id, title, difficulty, created_at, updated_at
		FROM decks
		WHERE id = $1`

	var deck domain.Deck
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&deck.ID,
		&deck.OwnerID,
		&deck.Title,
		&deck.Difficulty,
		&deck.CreatedAt,
		&deck.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrDeckNotFound
		}
		return nil, fmt.Errorf("failed to get deck: %w", err)
	}

	return &deck, nil
}

// GetCards implements store.DeckStore.GetCards
// Cards are returned ordered by their display position.
func (s *PostgresDeckStore) GetCards(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error) {
	// Confirm the deck exists so an empty deck and a missing deck are
	// distinguishable to the caller.
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM decks WHERE id = $1)`, deckID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check deck existence: %w", err)
	}
	if !exists {
		return nil, store.ErrDeckNotFound
	}

	query := `
		SELECT id, deck_id, front, back, context, card_type, options, correct_options, position, created_at, updated_at
		FROM cards
		WHERE deck_id = $1
		ORDER BY position ASC`

	rows, err := s.db.QueryContext(ctx, query, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to query deck cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cards []*domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deck cards: %w", err)
	}

	s.logger.Debug("loaded deck cards",
		slog.String("deck_id", deckID.String()),
		slog.Int("card_count", len(cards)))

	return cards, nil
}

// scanCard reads one card row, decoding the JSONB option columns.
func scanCard(rows *sql.Rows) (*domain.Card, error) {
	var (
		card        domain.Card
		contextText sql.NullString
		optionsJSON []byte
		correctJSON []byte
	)

	err := rows.Scan(
		&card.ID,
		&card.DeckID,
		&card.Front,
		&card.Back,
		&contextText,
		&card.Type,
		&optionsJSON,
		&correctJSON,
		&card.Position,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan card row: %w", err)
	}

	if contextText.Valid {
		card.Context = contextText.String
	}
	if len(optionsJSON) > 0 {
		if err := json.Unmarshal(optionsJSON, &card.Options); err != nil {
			return nil, fmt.Errorf("%w: card options: %v", store.ErrInvalidEntity, err)
		}
	}
	if len(correctJSON) > 0 {
		if err := json.Unmarshal(correctJSON, &card.CorrectOptions); err != nil {
			return nil, fmt.Errorf("%w: card correct options: %v", store.ErrInvalidEntity, err)
		}
	}

	return &card, nil
}

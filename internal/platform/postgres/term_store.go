package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lexiday/lexiday-api/internal/domain"
	"github.com/lexiday/lexiday-api/internal/platform/logger"
	"github.com/lexiday/lexiday-api/internal/store"
)

// TermStore implements the store.TermStore interface using PostgreSQL.
// The examples/synonyms/antonyms lists are stored as JSONB.
type TermStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewTermStore creates a new PostgreSQL implementation of store.TermStore.
func NewTermStore(db store.DBTX, log *slog.Logger) *TermStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &TermStore{
		db:     db,
		logger: log.With(slog.String("component", "term_store")),
	}
}

var _ store.TermStore = (*TermStore)(nil)

// CreateWithFacts implements store.TermStore.CreateWithFacts.
// Callers must wrap this in a transaction; the generation pipeline relies on
// all-or-nothing persistence of a batch.
func (s *TermStore) CreateWithFacts(
	ctx context.Context,
	terms []*domain.Term,
	facts []*domain.Fact,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	termQuery := `
		INSERT INTO terms (id, topic_id, word, definition, examples, synonyms, antonyms, source, confidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	for _, term := range terms {
		if err := term.Validate(); err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}

		examples, err := json.Marshal(term.Examples)
		if err != nil {
			return fmt.Errorf("failed to marshal examples: %w", err)
		}
		synonyms, err := json.Marshal(term.Synonyms)
		if err != nil {
			return fmt.Errorf("failed to marshal synonyms: %w", err)
		}
		antonyms, err := json.Marshal(term.Antonyms)
		if err != nil {
			return fmt.Errorf("failed to marshal antonyms: %w", err)
		}

		if _, err := s.db.ExecContext(ctx, termQuery,
			term.ID,
			term.TopicID,
			term.Word,
			term.Definition,
			examples,
			synonyms,
			antonyms,
			term.Source,
			term.Confidence,
			term.CreatedAt,
		); err != nil {
			if isUniqueViolation(err) {
				return store.ErrDuplicate
			}
			log.Error("failed to insert term",
				"term_id", term.ID,
				"word", term.Word,
				"error", err)
			return fmt.Errorf("failed to insert term: %w", err)
		}
	}

	factQuery := `
		INSERT INTO facts (id, term_id, type, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	for _, fact := range facts {
		if err := fact.Validate(); err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}

		if _, err := s.db.ExecContext(ctx, factQuery,
			fact.ID,
			fact.TermID,
			fact.Type,
			fact.Content,
			fact.CreatedAt,
		); err != nil {
			log.Error("failed to insert fact",
				"fact_id", fact.ID,
				"term_id", fact.TermID,
				"error", err)
			return fmt.Errorf("failed to insert fact: %w", err)
		}
	}

	return nil
}

// GetByID implements store.TermStore.GetByID.
func (s *TermStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Term, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, topic_id, word, definition, examples, synonyms, antonyms, source, confidence, created_at
		FROM terms
		WHERE id = $1
	`

	term, err := scanTerm(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTermNotFound
		}
		log.Error("failed to get term",
			"term_id", id,
			"error", err)
		return nil, fmt.Errorf("failed to get term: %w", err)
	}

	return term, nil
}

// ListFactsByTerm implements store.TermStore.ListFactsByTerm.
func (s *TermStore) ListFactsByTerm(ctx context.Context, termID uuid.UUID) ([]*domain.Fact, error) {
	query := `
		SELECT id, term_id, type, content, created_at
		FROM facts
		WHERE term_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, termID)
	if err != nil {
		return nil, fmt.Errorf("failed to list facts: %w", err)
	}
	defer rows.Close()

	var facts []*domain.Fact
	for rows.Next() {
		var fact domain.Fact
		if err := rows.Scan(&fact.ID, &fact.TermID, &fact.Type, &fact.Content, &fact.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fact row: %w", err)
		}
		facts = append(facts, &fact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fact rows: %w", err)
	}

	return facts, nil
}

// CountUnseen implements store.TermStore.CountUnseen.
func (s *TermStore) CountUnseen(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Left join so subscribed topics with no unseen terms still appear
	// with a zero count.
	query := `
		SELECT ut.topic_id, COUNT(t.id)
		FROM user_topics ut
		LEFT JOIN terms t
			ON t.topic_id = ut.topic_id
			AND t.id NOT IN (SELECT term_id FROM wordbank_entries WHERE user_id = ut.user_id)
		WHERE ut.user_id = $1
		GROUP BY ut.topic_id
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to count unseen terms",
			"user_id", userID,
			"error", err)
		return nil, fmt.Errorf("failed to count unseen terms: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var topicID uuid.UUID
		var count int
		if err := rows.Scan(&topicID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan unseen count row: %w", err)
		}
		counts[topicID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unseen count rows: %w", err)
	}

	return counts, nil
}

// RandomUnseen implements store.TermStore.RandomUnseen.
func (s *TermStore) RandomUnseen(ctx context.Context, userID, topicID uuid.UUID) (*domain.Term, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, topic_id, word, definition, examples, synonyms, antonyms, source, confidence, created_at
		FROM terms
		WHERE topic_id = $1
		AND id NOT IN (SELECT term_id FROM wordbank_entries WHERE user_id = $2)
		ORDER BY random()
		LIMIT 1
	`

	term, err := scanTerm(s.db.QueryRowContext(ctx, query, topicID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTermNotFound
		}
		log.Error("failed to pick random unseen term",
			"user_id", userID,
			"topic_id", topicID,
			"error", err)
		return nil, fmt.Errorf("failed to pick random unseen term: %w", err)
	}

	return term, nil
}

// WithTx implements store.TermStore.WithTx.
func (s *TermStore) WithTx(tx *sql.Tx) store.TermStore {
	return &TermStore{db: tx, logger: s.logger}
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTerm scans a full term row, decoding the JSONB list columns.
func scanTerm(row rowScanner) (*domain.Term, error) {
	var term domain.Term
	var examples, synonyms, antonyms []byte

	if err := row.Scan(
		&term.ID,
		&term.TopicID,
		&term.Word,
		&term.Definition,
		&examples,
		&synonyms,
		&antonyms,
		&term.Source,
		&term.Confidence,
		&term.CreatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(examples, &term.Examples); err != nil {
		return nil, fmt.Errorf("failed to unmarshal examples: %w", err)
	}
	if err := json.Unmarshal(synonyms, &term.Synonyms); err != nil {
		return nil, fmt.Errorf("failed to unmarshal synonyms: %w", err)
	}
	if err := json.Unmarshal(antonyms, &term.Antonyms); err != nil {
		return nil, fmt.Errorf("failed to unmarshal antonyms: %w", err)
	}

	return &term, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fellowship/internal/conversation/models"
	"fellowship/internal/platform/postgres"
	id "fellowship/pkg/domain"
	"fellowship/pkg/platform/sentinel"
	"fellowship/pkg/platform/tx"
)

// findOrCreateAttempts bounds the insert-or-select loop. A second pass is only needed when
// the conflicting active row is deactivated between the insert and the select.
const findOrCreateAttempts = 3

// PostgresStore persists conversations in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const conversationColumns = `id, user1_id, user2_id, is_active, last_message_at, created_at, updated_at`

func (s *PostgresStore) FindOrCreate(ctx context.Context, c *models.Conversation) (*models.Conversation, bool, error) {
	exec := tx.Executor(ctx, s.db)
	for attempt := 0; attempt < findOrCreateAttempts; attempt++ {
		row := exec.QueryRowContext(ctx, `
			INSERT INTO conversations (id, user1_id, user2_id, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, TRUE, $4, $4)
			ON CONFLICT (user1_id, user2_id) WHERE is_active DO NOTHING
			RETURNING `+conversationColumns,
			uuid.UUID(c.ID), uuid.UUID(c.User1ID), uuid.UUID(c.User2ID), c.CreatedAt)
		created, err := scanConversation(row)
		if err == nil {
			return created, true, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, false, fmt.Errorf("insert conversation: %w", err)
		}

		existing, err := s.FindActiveByPair(ctx, c.User1ID, c.User2ID)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, false, err
		}
	}
	return nil, false, fmt.Errorf("find or create conversation: %w", sentinel.ErrUnavailable)
}

func (s *PostgresStore) FindByID(ctx context.Context, convID id.ConversationID) (*models.Conversation, error) {
	return s.findByID(ctx, convID, "")
}

func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, convID id.ConversationID) (*models.Conversation, error) {
	return s.findByID(ctx, convID, " FOR UPDATE")
}

func (s *PostgresStore) findByID(ctx context.Context, convID id.ConversationID, suffix string) (*models.Conversation, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = $1`+suffix, uuid.UUID(convID))
	c, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find conversation by id: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) FindActiveByPair(ctx context.Context, a, b id.UserID) (*models.Conversation, error) {
	user1, user2 := id.CanonicalPair(a, b)
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE user1_id = $1 AND user2_id = $2 AND is_active`,
		uuid.UUID(user1), uuid.UUID(user2))
	c, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find conversation by pair: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) Save(ctx context.Context, c *models.Conversation) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, `
		UPDATE conversations
		SET is_active = $2, last_message_at = $3, updated_at = $4
		WHERE id = $1`,
		uuid.UUID(c.ID), c.IsActive, c.LastMessageAt, c.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("save conversation: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) Touch(ctx context.Context, convID id.ConversationID, at time.Time) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, `
		UPDATE conversations
		SET last_message_at = GREATEST(COALESCE(last_message_at, $2), $2), updated_at = $2
		WHERE id = $1`,
		uuid.UUID(convID), at)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) ListActiveForUser(ctx context.Context, userID id.UserID) ([]*models.Conversation, error) {
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE is_active AND (user1_id = $1 OR user2_id = $1)
		ORDER BY last_message_at DESC NULLS LAST, created_at DESC`,
		uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []*models.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*models.Conversation, error) {
	var (
		c              models.Conversation
		convID, u1, u2 uuid.UUID
		lastMessageAt  sql.NullTime
	)
	if err := row.Scan(&convID, &u1, &u2, &c.IsActive, &lastMessageAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.ID = id.ConversationID(convID)
	c.User1ID = id.UserID(u1)
	c.User2ID = id.UserID(u2)
	if lastMessageAt.Valid {
		t := lastMessageAt.Time
		c.LastMessageAt = &t
	}
	return &c, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"fellowship/internal/chat"
	"fellowship/internal/message/models"
	"fellowship/internal/platform/postgres"
	id "fellowship/pkg/domain"
	"fellowship/pkg/platform/sentinel"
	"fellowship/pkg/platform/tx"
)

// PostgresStore persists messages. Each row references either a conversation or a group.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const messageColumns = `id, sender_id, content, conversation_id, group_id, is_read, created_at`

func (s *PostgresStore) Create(ctx context.Context, m *models.Message) error {
	convID, groupID := targetColumns(m.Target)
	_, err := tx.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO messages (`+messageColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.UUID(m.ID), uuid.UUID(m.SenderID), m.Content, convID, groupID, m.IsRead, m.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, target chat.Ref, page models.Page) ([]*models.Message, error) {
	page = page.Normalize()
	column, key := targetFilter(target)
	var before any
	if page.Before != nil {
		before = *page.Before
	}
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE `+column+` = $1 AND ($2::timestamptz IS NULL OR created_at < $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3`, key, before, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()
	var out []*models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Latest(ctx context.Context, target chat.Ref) (*models.Message, error) {
	column, key := targetFilter(target)
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE `+column+` = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, key)
	m, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (s *PostgresStore) LatestForChats(ctx context.Context, targets []chat.Ref) (map[string]*models.Message, error) {
	out := make(map[string]*models.Message, len(targets))
	var convIDs, groupIDs []string
	for _, target := range targets {
		switch t := target.(type) {
		case chat.ConversationRef:
			convIDs = append(convIDs, t.ID.String())
		case chat.GroupRef:
			groupIDs = append(groupIDs, t.ID.String())
		}
	}
	if len(convIDs) > 0 {
		if err := s.latestBy(ctx, "conversation_id", convIDs, out); err != nil {
			return nil, err
		}
	}
	if len(groupIDs) > 0 {
		if err := s.latestBy(ctx, "group_id", groupIDs, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *PostgresStore) latestBy(ctx context.Context, column string, keys []string, out map[string]*models.Message) error {
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, `
		SELECT DISTINCT ON (`+column+`) `+messageColumns+`
		FROM messages
		WHERE `+column+` = ANY($1::uuid[])
		ORDER BY `+column+`, created_at DESC, id DESC`, pq.Array(keys))
	if err != nil {
		return fmt.Errorf("latest messages by %s: %w", column, err)
	}
	defer rows.Close()
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return err
		}
		out[m.Target.String()] = m
	}
	return rows.Err()
}

func (s *PostgresStore) MarkConversationRead(ctx context.Context, convID id.ConversationID, readerID id.UserID) (int, error) {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, `
		UPDATE messages SET is_read = TRUE
		WHERE conversation_id = $1 AND sender_id <> $2 AND NOT is_read`,
		uuid.UUID(convID), uuid.UUID(readerID))
	if err != nil {
		return 0, fmt.Errorf("mark conversation read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark conversation read: %w", err)
	}
	return int(n), nil
}

func (s *PostgresStore) DeleteByGroup(ctx context.Context, groupID id.GroupID) error {
	if _, err := tx.Executor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM messages WHERE group_id = $1`, uuid.UUID(groupID)); err != nil {
		return fmt.Errorf("delete group messages: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*models.Message, error) {
	var (
		m               models.Message
		msgID, senderID uuid.UUID
		convID, groupID uuid.NullUUID
		createdAt       time.Time
	)
	if err := row.Scan(&msgID, &senderID, &m.Content, &convID, &groupID, &m.IsRead, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan message: %w", err)
	}
	m.ID = id.MessageID(msgID)
	m.SenderID = id.UserID(senderID)
	m.CreatedAt = createdAt
	switch {
	case convID.Valid:
		m.Target = chat.ConversationRef{ID: id.ConversationID(convID.UUID)}
	case groupID.Valid:
		m.Target = chat.GroupRef{ID: id.GroupID(groupID.UUID)}
	default:
		return nil, fmt.Errorf("scan message: row %s has no target", msgID)
	}
	return &m, nil
}

func targetColumns(target chat.Ref) (uuid.NullUUID, uuid.NullUUID) {
	var convID, groupID uuid.NullUUID
	switch t := target.(type) {
	case chat.ConversationRef:
		convID = uuid.NullUUID{UUID: uuid.UUID(t.ID), Valid: true}
	case chat.GroupRef:
		groupID = uuid.NullUUID{UUID: uuid.UUID(t.ID), Valid: true}
	}
	return convID, groupID
}

func targetFilter(target chat.Ref) (string, uuid.UUID) {
	switch t := target.(type) {
	case chat.GroupRef:
		return "group_id", uuid.UUID(t.ID)
	case chat.ConversationRef:
		return "conversation_id", uuid.UUID(t.ID)
	}
	return "conversation_id", uuid.Nil
}

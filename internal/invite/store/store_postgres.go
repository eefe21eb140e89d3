package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fellowship/internal/invite/models"
	"fellowship/internal/platform/postgres"
	id "fellowship/pkg/domain"
	"fellowship/pkg/platform/sentinel"
	"fellowship/pkg/platform/tx"
)

// PostgresStore persists invites in the group_invites table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create returns sentinel.ErrAlreadyUsed when the code collides with an existing invite.
func (s *PostgresStore) Create(ctx context.Context, inv *models.Invite) error {
	_, err := tx.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO group_invites (id, code, group_id, creator_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(inv.ID), inv.Code, uuid.UUID(inv.GroupID), uuid.UUID(inv.CreatorID), inv.CreatedAt, inv.ExpiresAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert invite: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByCode(ctx context.Context, code string) (*models.Invite, error) {
	var (
		inv                          models.Invite
		inviteID, groupID, creatorID uuid.UUID
	)
	err := tx.Executor(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, code, group_id, creator_id, created_at, expires_at
		FROM group_invites WHERE code = $1`, code).
		Scan(&inviteID, &inv.Code, &groupID, &creatorID, &inv.CreatedAt, &inv.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find invite: %w", err)
	}
	inv.ID = id.InviteID(inviteID)
	inv.GroupID = id.GroupID(groupID)
	inv.CreatorID = id.UserID(creatorID)
	return &inv, nil
}

func (s *PostgresStore) CodesByGroup(ctx context.Context, groupID id.GroupID) ([]string, error) {
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT code FROM group_invites WHERE group_id = $1`, uuid.UUID(groupID))
	if err != nil {
		return nil, fmt.Errorf("list group invite codes: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan invite code: %w", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invite codes: %w", err)
	}
	return codes, nil
}

func (s *PostgresStore) DeleteByGroup(ctx context.Context, groupID id.GroupID) error {
	if _, err := tx.Executor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM group_invites WHERE group_id = $1`, uuid.UUID(groupID)); err != nil {
		return fmt.Errorf("delete group invites: %w", err)
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fellowship/internal/group/models"
	"fellowship/internal/platform/postgres"
	id "fellowship/pkg/domain"
	"fellowship/pkg/platform/sentinel"
	"fellowship/pkg/platform/tx"
)

// PostgresStore persists groups and memberships in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const groupColumns = `g.id, g.name, g.description, g.avatar_url, g.creator_id, g.created_at, g.updated_at`

func (s *PostgresStore) Create(ctx context.Context, g *models.Group) error {
	_, err := tx.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO groups (id, name, description, avatar_url, creator_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.UUID(g.ID), g.Name, g.Description, g.AvatarURL, uuid.UUID(g.CreatorID), g.CreatedAt, g.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert group: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, groupID id.GroupID) (*models.Group, error) {
	return s.findByID(ctx, groupID, "")
}

// LockByID reads the group row FOR UPDATE; membership decisions made while holding it are
// serialized per group.
func (s *PostgresStore) LockByID(ctx context.Context, groupID id.GroupID) (*models.Group, error) {
	return s.findByID(ctx, groupID, " FOR UPDATE")
}

func (s *PostgresStore) findByID(ctx context.Context, groupID id.GroupID, suffix string) (*models.Group, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM groups g WHERE g.id = $1`+suffix, uuid.UUID(groupID))
	g, err := scanGroup(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find group: %w", err)
	}
	return g, nil
}

func (s *PostgresStore) Update(ctx context.Context, g *models.Group) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, `
		UPDATE groups SET name = $2, description = $3, avatar_url = $4, updated_at = $5
		WHERE id = $1`,
		uuid.UUID(g.ID), g.Name, g.Description, g.AvatarURL, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	return requireRow(res)
}

// Delete removes the memberships and then the group row.
func (s *PostgresStore) Delete(ctx context.Context, groupID id.GroupID) error {
	exec := tx.Executor(ctx, s.db)
	if _, err := exec.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = $1`, uuid.UUID(groupID)); err != nil {
		return fmt.Errorf("delete group members: %w", err)
	}
	res, err := exec.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, uuid.UUID(groupID))
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) Touch(ctx context.Context, groupID id.GroupID, at time.Time) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx,
		`UPDATE groups SET updated_at = GREATEST(updated_at, $2) WHERE id = $1`, uuid.UUID(groupID), at)
	if err != nil {
		return fmt.Errorf("touch group: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) ListForUser(ctx context.Context, userID id.UserID) ([]*models.Group, error) {
	return s.queryGroups(ctx, `
		SELECT `+groupColumns+`
		FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = $1
		ORDER BY g.updated_at DESC, g.name`, uuid.UUID(userID))
}

func (s *PostgresStore) SearchForUser(ctx context.Context, userID id.UserID, term string) ([]*models.Group, error) {
	return s.queryGroups(ctx, `
		SELECT `+groupColumns+`
		FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = $1 AND g.name ILIKE $2
		ORDER BY g.updated_at DESC, g.name`, uuid.UUID(userID), postgres.ContainsPattern(term))
}

func (s *PostgresStore) queryGroups(ctx context.Context, query string, args ...any) ([]*models.Group, error) {
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()
	var out []*models.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// AddMember inserts the membership unless it exists and reports whether a row was written.
func (s *PostgresStore) AddMember(ctx context.Context, m *models.Member) (bool, error) {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO group_members (group_id, user_id, is_admin, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (group_id, user_id) DO NOTHING`,
		uuid.UUID(m.GroupID), uuid.UUID(m.UserID), m.IsAdmin, m.JoinedAt)
	if err != nil {
		return false, fmt.Errorf("insert group member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

const memberColumns = `group_id, user_id, is_admin, joined_at`

func (s *PostgresStore) FindMember(ctx context.Context, groupID id.GroupID, userID id.UserID) (*models.Member, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM group_members WHERE group_id = $1 AND user_id = $2`,
		uuid.UUID(groupID), uuid.UUID(userID))
	m, err := scanMember(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find group member: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) ListMembers(ctx context.Context, groupID id.GroupID) ([]*models.Member, error) {
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT `+memberColumns+` FROM group_members WHERE group_id = $1 ORDER BY joined_at, user_id`,
		uuid.UUID(groupID))
	if err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	defer rows.Close()
	var out []*models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan group member: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) RemoveMember(ctx context.Context, groupID id.GroupID, userID id.UserID) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, uuid.UUID(groupID), uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("remove group member: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) SetAdmin(ctx context.Context, groupID id.GroupID, userID id.UserID, isAdmin bool) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx,
		`UPDATE group_members SET is_admin = $3 WHERE group_id = $1 AND user_id = $2`,
		uuid.UUID(groupID), uuid.UUID(userID), isAdmin)
	if err != nil {
		return fmt.Errorf("set group admin: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) CountMembers(ctx context.Context, groupID id.GroupID) (int, error) {
	var n int
	err := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT count(*) FROM group_members WHERE group_id = $1`, uuid.UUID(groupID)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count group members: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row rowScanner) (*models.Group, error) {
	var (
		g                      models.Group
		groupID, creatorID     uuid.UUID
		description, avatarURL sql.NullString
	)
	if err := row.Scan(&groupID, &g.Name, &description, &avatarURL, &creatorID, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	g.ID = id.GroupID(groupID)
	g.CreatorID = id.UserID(creatorID)
	if description.Valid {
		g.Description = &description.String
	}
	if avatarURL.Valid {
		g.AvatarURL = &avatarURL.String
	}
	return &g, nil
}

func scanMember(row rowScanner) (*models.Member, error) {
	var (
		m               models.Member
		groupID, userID uuid.UUID
	)
	if err := row.Scan(&groupID, &userID, &m.IsAdmin, &m.JoinedAt); err != nil {
		return nil, err
	}
	m.GroupID = id.GroupID(groupID)
	m.UserID = id.UserID(userID)
	return &m, nil
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

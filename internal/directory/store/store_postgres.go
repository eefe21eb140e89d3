package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"fellowship/internal/directory"
	"fellowship/internal/platform/postgres"
	id "fellowship/pkg/domain"
	"fellowship/pkg/platform/sentinel"
	"fellowship/pkg/platform/tx"
)

// PostgresStore reads profiles from the identity service's users table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, first_name, last_name, email, phone_number, avatar_url, created_at`

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*directory.User, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, uuid.UUID(userID))
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) FindByIDs(ctx context.Context, userIDs []id.UserID) (map[id.UserID]*directory.User, error) {
	out := make(map[id.UserID]*directory.User, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	raw := make([]string, len(userIDs))
	for i, userID := range userIDs {
		raw[i] = userID.String()
	}
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1::uuid[])`, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("find users by ids: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out[u.ID] = u
	}
	return out, rows.Err()
}

func (s *PostgresStore) Search(ctx context.Context, term string, excludeID id.UserID, limit int) ([]*directory.User, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id <> $2
		  AND (first_name || ' ' || last_name ILIKE $1 OR email ILIKE $1)
		ORDER BY first_name, last_name, id
		LIMIT $3`,
		postgres.ContainsPattern(term), uuid.UUID(excludeID), limit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	var out []*directory.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*directory.User, error) {
	var (
		u   directory.User
		uid uuid.UUID
	)
	if err := row.Scan(&uid, &u.FirstName, &u.LastName, &u.Email, &u.PhoneNumber, &u.AvatarURL, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.ID = id.UserID(uid)
	return &u, nil
}

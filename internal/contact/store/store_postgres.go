package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fellowship/internal/contact/models"
	"fellowship/internal/platform/postgres"
	id "fellowship/pkg/domain"
	"fellowship/pkg/platform/sentinel"
	"fellowship/pkg/platform/tx"
)

// PostgresStore persists the address book. Custom fields live in a JSONB column so single
// keys can be merged without a read-modify-write.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const contactColumns = `id, owner_id, linked_user_id, first_name, last_name, email, phone_number, notes,
	avatar_url, custom_fields, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// Create returns sentinel.ErrAlreadyUsed when contacts_owner_linked_idx rejects the row.
func (s *PostgresStore) Create(ctx context.Context, c *models.Contact) error {
	fields, err := json.Marshal(nonNil(c.CustomFields))
	if err != nil {
		return fmt.Errorf("encode custom fields: %w", err)
	}
	_, err = tx.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO contacts (id, owner_id, linked_user_id, first_name, last_name, email, phone_number,
			notes, avatar_url, custom_fields, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		uuid.UUID(c.ID), uuid.UUID(c.OwnerID), linkedArg(c.LinkedUserID), c.FirstName, c.LastName, c.Email,
		c.PhoneNumber, c.Notes, c.AvatarURL, string(fields), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, ownerID id.UserID, contactID id.ContactID) (*models.Contact, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = $1 AND owner_id = $2`,
		uuid.UUID(contactID), uuid.UUID(ownerID))
	return oneContact(row, "find contact")
}

// Update writes the scalar fields; the link and custom fields are not touched.
func (s *PostgresStore) Update(ctx context.Context, c *models.Contact) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, `
		UPDATE contacts
		SET first_name = $3, last_name = $4, email = $5, phone_number = $6, notes = $7,
			avatar_url = $8, updated_at = $9
		WHERE id = $1 AND owner_id = $2`,
		uuid.UUID(c.ID), uuid.UUID(c.OwnerID), c.FirstName, c.LastName, c.Email, c.PhoneNumber,
		c.Notes, c.AvatarURL, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) Delete(ctx context.Context, ownerID id.UserID, contactID id.ContactID) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM contacts WHERE id = $1 AND owner_id = $2`, uuid.UUID(contactID), uuid.UUID(ownerID))
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID id.UserID) ([]*models.Contact, error) {
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, `
		SELECT `+contactColumns+` FROM contacts
		WHERE owner_id = $1
		ORDER BY lower(first_name), lower(last_name), created_at`,
		uuid.UUID(ownerID))
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()
	var out []*models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MergeCustomField(ctx context.Context, ownerID id.UserID, contactID id.ContactID, key, value string, at time.Time) (*models.Contact, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx, `
		UPDATE contacts
		SET custom_fields = custom_fields || jsonb_build_object($3::text, $4::text), updated_at = $5
		WHERE id = $1 AND owner_id = $2
		RETURNING `+contactColumns,
		uuid.UUID(contactID), uuid.UUID(ownerID), key, value, at)
	return oneContact(row, "merge custom field")
}

func (s *PostgresStore) RemoveCustomField(ctx context.Context, ownerID id.UserID, contactID id.ContactID, key string, at time.Time) (*models.Contact, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx, `
		UPDATE contacts
		SET custom_fields = custom_fields - $3::text, updated_at = $4
		WHERE id = $1 AND owner_id = $2
		RETURNING `+contactColumns,
		uuid.UUID(contactID), uuid.UUID(ownerID), key, at)
	return oneContact(row, "remove custom field")
}

// CreateField returns sentinel.ErrAlreadyUsed on a case-insensitive duplicate.
func (s *PostgresStore) CreateField(ctx context.Context, def *models.FieldDefinition) error {
	_, err := tx.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO custom_field_definitions (id, owner_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		uuid.UUID(def.ID), uuid.UUID(def.OwnerID), def.Name, def.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert field definition: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListFields(ctx context.Context, ownerID id.UserID) ([]*models.FieldDefinition, error) {
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, `
		SELECT id, owner_id, name, created_at FROM custom_field_definitions
		WHERE owner_id = $1 ORDER BY lower(name)`,
		uuid.UUID(ownerID))
	if err != nil {
		return nil, fmt.Errorf("list field definitions: %w", err)
	}
	defer rows.Close()
	var out []*models.FieldDefinition
	for rows.Next() {
		var (
			def              models.FieldDefinition
			fieldID, ownerID uuid.UUID
		)
		if err := rows.Scan(&fieldID, &ownerID, &def.Name, &def.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan field definition: %w", err)
		}
		def.ID = id.FieldDefinitionID(fieldID)
		def.OwnerID = id.UserID(ownerID)
		out = append(out, &def)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteField(ctx context.Context, ownerID id.UserID, fieldID id.FieldDefinitionID) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM custom_field_definitions WHERE id = $1 AND owner_id = $2`,
		uuid.UUID(fieldID), uuid.UUID(ownerID))
	if err != nil {
		return fmt.Errorf("delete field definition: %w", err)
	}
	return requireRow(res)
}

// SaveFaithful upserts a curated person by user id.
func (s *PostgresStore) SaveFaithful(ctx context.Context, p *models.FaithfulPerson) error {
	_, err := tx.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO faithful_people (id, user_id, title, name, avatar_url, sort_order, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE
		SET title = EXCLUDED.title, name = EXCLUDED.name, avatar_url = EXCLUDED.avatar_url,
			sort_order = EXCLUDED.sort_order`,
		uuid.UUID(p.ID), uuid.UUID(p.UserID), p.Title, p.Name, p.AvatarURL, p.SortOrder, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("save faithful person: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListFaithful(ctx context.Context) ([]*models.FaithfulPerson, error) {
	return s.queryFaithful(ctx, `SELECT `+faithfulColumns+` FROM faithful_people ORDER BY sort_order, name`)
}

func (s *PostgresStore) SearchFaithful(ctx context.Context, term string) ([]*models.FaithfulPerson, error) {
	return s.queryFaithful(ctx, `
		SELECT `+faithfulColumns+` FROM faithful_people
		WHERE name ILIKE $1 OR title ILIKE $1
		ORDER BY sort_order, name`,
		postgres.ContainsPattern(term))
}

const faithfulColumns = `id, user_id, title, name, avatar_url, sort_order, created_at`

func (s *PostgresStore) queryFaithful(ctx context.Context, query string, args ...any) ([]*models.FaithfulPerson, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query faithful people: %w", err)
	}
	defer rows.Close()
	var out []*models.FaithfulPerson
	for rows.Next() {
		var (
			p                models.FaithfulPerson
			personID, userID uuid.UUID
		)
		if err := rows.Scan(&personID, &userID, &p.Title, &p.Name, &p.AvatarURL, &p.SortOrder, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan faithful person: %w", err)
		}
		p.ID = id.FaithfulPersonID(personID)
		p.UserID = id.UserID(userID)
		out = append(out, &p)
	}
	return out, rows.Err()
}

func oneContact(row rowScanner, op string) (*models.Contact, error) {
	c, err := scanContact(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

func scanContact(row rowScanner) (*models.Contact, error) {
	var (
		c                models.Contact
		contactID, owner uuid.UUID
		linked           uuid.NullUUID
		fields           []byte
	)
	if err := row.Scan(&contactID, &owner, &linked, &c.FirstName, &c.LastName, &c.Email, &c.PhoneNumber,
		&c.Notes, &c.AvatarURL, &fields, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.ID = id.ContactID(contactID)
	c.OwnerID = id.UserID(owner)
	if linked.Valid {
		userID := id.UserID(linked.UUID)
		c.LinkedUserID = &userID
	}
	c.CustomFields = map[string]string{}
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &c.CustomFields); err != nil {
			return nil, fmt.Errorf("decode custom fields: %w", err)
		}
	}
	return &c, nil
}

func linkedArg(userID *id.UserID) any {
	if userID == nil {
		return nil
	}
	return uuid.UUID(*userID)
}

func nonNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
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

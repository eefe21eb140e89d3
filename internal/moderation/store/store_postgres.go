package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fellowship/internal/moderation/models"
	"fellowship/internal/platform/postgres"
	id "fellowship/pkg/domain"
	"fellowship/pkg/platform/sentinel"
	"fellowship/pkg/platform/tx"
)

// PostgresStore persists reports in group_reports. Reports outlive their group, so the table
// has no foreign key to groups.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const reportColumns = `id, group_id, reporter_id, reason, details, reviewed, reviewed_at, created_at`

func (s *PostgresStore) Create(ctx context.Context, r *models.Report) error {
	_, err := tx.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO group_reports (`+reportColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(r.ID), uuid.UUID(r.GroupID), uuid.UUID(r.ReporterID), string(r.Reason),
		nullString(r.Details), r.Reviewed, nullTime(r), r.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, reportID id.ReportID) (*models.Report, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM group_reports WHERE id = $1`, uuid.UUID(reportID))
	r, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find report: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) Save(ctx context.Context, r *models.Report) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, `
		UPDATE group_reports SET reviewed = $2, reviewed_at = $3 WHERE id = $1`,
		uuid.UUID(r.ID), r.Reviewed, nullTime(r))
	if err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.Filter) ([]*models.Report, error) {
	var reviewed sql.NullBool
	if filter.Reviewed != nil {
		reviewed = sql.NullBool{Bool: *filter.Reviewed, Valid: true}
	}
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, `
		SELECT `+reportColumns+`
		FROM group_reports
		WHERE $1::boolean IS NULL OR reviewed = $1
		ORDER BY created_at DESC, id`, reviewed)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()
	var out []*models.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*models.Report, error) {
	var (
		r                           models.Report
		reportID, groupID, reporter uuid.UUID
		reason                      string
		details                     sql.NullString
		reviewedAt                  sql.NullTime
	)
	if err := row.Scan(&reportID, &groupID, &reporter, &reason, &details, &r.Reviewed, &reviewedAt, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.ID = id.ReportID(reportID)
	r.GroupID = id.GroupID(groupID)
	r.ReporterID = id.UserID(reporter)
	r.Reason = models.Reason(reason)
	if details.Valid {
		r.Details = &details.String
	}
	if reviewedAt.Valid {
		r.ReviewedAt = &reviewedAt.Time
	}
	return &r, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(r *models.Report) sql.NullTime {
	if r.ReviewedAt == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *r.ReviewedAt, Valid: true}
}

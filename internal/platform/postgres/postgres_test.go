package postgres

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "group_invites_code_idx"}

	name, ok := UniqueViolation(fmt.Errorf("insert invite: %w", pgErr))
	assert.True(t, ok)
	assert.Equal(t, "group_invites_code_idx", name)

	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestStatements(t *testing.T) {
	stmts := Statements()
	assert.NotEmpty(t, stmts)
	for _, stmt := range stmts {
		assert.False(t, strings.HasPrefix(stmt, "--"), "comments are stripped")
		assert.NotContains(t, stmt, ";")
	}
	joined := strings.Join(stmts, "\n")
	assert.Contains(t, joined, "conversations_active_pair_idx")
	assert.Contains(t, joined, "WHERE is_active")
	assert.Contains(t, joined, "lower(name)")
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%ana%", ContainsPattern("ana"))
	assert.Equal(t, `%50\% off\_now%`, ContainsPattern("50% off_now"))
	assert.Equal(t, `%a\\b%`, ContainsPattern(`a\b`))
}

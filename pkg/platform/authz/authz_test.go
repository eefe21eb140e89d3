package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "fellowship/pkg/domain-errors"
)

func TestDecisionErr(t *testing.T) {
	t.Run("allow yields no error", func(t *testing.T) {
		assert.NoError(t, Allow().Err(dErrors.CodeForbidden))
	})

	t.Run("deny yields coded error with reason", func(t *testing.T) {
		err := Deny(ReasonNotAdmin).Err(dErrors.CodeForbidden)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
		assert.Equal(t, ReasonNotAdmin, dErrors.MessageOf(err))
	})
}

package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserNames(t *testing.T) {
	named := &User{FirstName: "Ana", LastName: "Lima", Email: "ana@example.com"}
	assert.Equal(t, "Ana Lima", named.DisplayName())
	assert.Equal(t, "Ana", named.ShortName())

	emailOnly := &User{Email: "samwise.gamgee@shire.me"}
	assert.Equal(t, "Samwise Gamgee", emailOnly.DisplayName())
	assert.Equal(t, "Samwise", emailOnly.ShortName())
}

package attrs

import (
	"testing"

	"github.com/stretchr/testify/assert"

	id "fellowship/pkg/domain"
)

func TestExtractString(t *testing.T) {
	groupID := id.NewGroupID()
	list := []any{"user_id", "u-1", "group_id", groupID, "count", 3, "dangling"}

	assert.Equal(t, "u-1", ExtractString(list, "user_id"))
	assert.Equal(t, groupID.String(), ExtractString(list, "group_id"))
	assert.Equal(t, "", ExtractString(list, "count"))
	assert.Equal(t, "", ExtractString(list, "dangling"))
	assert.Equal(t, "", ExtractString(list, "missing"))
}

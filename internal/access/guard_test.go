package access

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/pollwise/backend/internal/models"
)

func TestIsAdmin(t *testing.T) {
	g := NewGuard([]string{"root@example.com", " Ops@Example.com "})

	assert.True(t, g.IsAdmin("root@example.com"))
	assert.True(t, g.IsAdmin("OPS@example.com"), "matching is case-insensitive")
	assert.False(t, g.IsAdmin("user@example.com"))
	assert.False(t, g.IsAdmin(""))
}

func TestIsAdminEmptyAllowList(t *testing.T) {
	g := NewGuard(nil)
	assert.False(t, g.IsAdmin("root@example.com"))
}

func TestCanMutate(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()
	g := NewGuard([]string{"admin@example.com"})
	poll := &models.Poll{ID: uuid.New(), OwnerID: owner}

	assert.True(t, g.CanMutate(poll, owner, "owner@example.com"))
	assert.False(t, g.CanMutate(poll, other, "other@example.com"))
	assert.True(t, g.CanMutate(poll, other, "admin@example.com"), "admin overrides ownership")
	assert.False(t, g.CanMutate(nil, owner, "admin@example.com"))
}

// Package access decides who may mutate a poll: its owner, or an admin
// identity from the configured allow-list.
package access

import (
	"strings"

	"github.com/google/uuid"

	"github.com/pollwise/backend/internal/models"
)

// Guard holds the admin allow-list. Membership is injected at startup from
// configuration; the guard itself never mutates.
type Guard struct {
	admins map[string]struct{}
}

// NewGuard creates a guard from admin email addresses. Matching is
// case-insensitive.
func NewGuard(adminEmails []string) *Guard {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			admins[e] = struct{}{}
		}
	}
	return &Guard{admins: admins}
}

// IsAdmin reports whether the identity appears in the allow-list.
func (g *Guard) IsAdmin(email string) bool {
	_, ok := g.admins[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// CanMutate reports whether the requester may edit or delete the poll.
func (g *Guard) CanMutate(poll *models.Poll, requesterID uuid.UUID, requesterEmail string) bool {
	if poll == nil {
		return false
	}
	return poll.OwnerID == requesterID || g.IsAdmin(requesterEmail)
}

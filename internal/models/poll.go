package models

import (
	"time"

	"github.com/google/uuid"
)

// Poll is a question with an ordered list of options, owned by one user.
// Question and options are stored already sanitized; the presentation layer
// renders them verbatim.
type Poll struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Question  string    `json:"question"`
	Options   []string  `json:"options"`
	ShareSlug string    `json:"share_slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Vote is one selection of one option within one poll. VoterID is nil for
// anonymous votes. Votes are append-only; they are removed only when their
// poll is deleted.
type Vote struct {
	ID          uuid.UUID  `json:"id"`
	PollID      uuid.UUID  `json:"poll_id"`
	VoterID     *uuid.UUID `json:"voter_id,omitempty"`
	OptionIndex int        `json:"option_index"`
	CreatedAt   time.Time  `json:"created_at"`
}

package votes

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/pollwise/backend/config"
	"github.com/pollwise/backend/internal/models"
	"github.com/pollwise/backend/internal/polls"
)

var (
	ErrInvalidOption = errors.New("option index out of range")
	ErrAlreadyVoted  = errors.New("you have already voted in this poll")
	ErrAnonDisabled  = errors.New("anonymous voting is disabled")
	ErrTokenRequired = errors.New("anonymous voting requires a vote token")
	ErrTokenInvalid  = errors.New("vote token is invalid or already used")
)

// PollSource provides read access to polls for vote validation.
type PollSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Poll, error)
}

// Ledger records and queries votes.
type Ledger interface {
	Insert(ctx context.Context, v *models.Vote) error
	HasVoted(ctx context.Context, pollID, voterID uuid.UUID) (bool, int, error)
	CountByOption(ctx context.Context, pollID uuid.UUID) (map[int]int64, error)
}

// TokenRedeemer consumes one-time anonymous vote tokens.
type TokenRedeemer interface {
	Redeem(ctx context.Context, pollID uuid.UUID, token string) (bool, error)
}

// Service implements vote casting and lookup. Each call is one short-lived
// unit of work; no state is shared between requests.
type Service struct {
	polls  PollSource
	ledger Ledger
	tokens TokenRedeemer
	policy config.AnonVotePolicy
}

// NewService creates a vote service. tokens may be nil unless the anonymous
// vote policy is one_time_token.
func NewService(pollSource PollSource, ledger Ledger, tokens TokenRedeemer, policy config.AnonVotePolicy) *Service {
	return &Service{polls: pollSource, ledger: ledger, tokens: tokens, policy: policy}
}

// Cast validates and appends a vote, then returns the poll with its fresh
// tally. voterID is nil for anonymous votes; token is only consulted for
// anonymous votes under the one_time_token policy.
//
// The duplicate check here is an optimistic early exit. Correctness against
// concurrent identical requests comes from the ledger's storage-level
// uniqueness constraint, which also surfaces as ErrAlreadyVoted.
func (s *Service) Cast(ctx context.Context, pollID uuid.UUID, voterID *uuid.UUID, optionIndex int, token string) (*models.Poll, polls.Results, error) {
	poll, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, polls.Results{}, err
	}

	if optionIndex < 0 || optionIndex >= len(poll.Options) {
		return nil, polls.Results{}, ErrInvalidOption
	}

	if voterID != nil {
		voted, _, err := s.ledger.HasVoted(ctx, pollID, *voterID)
		if err != nil {
			return nil, polls.Results{}, err
		}
		if voted {
			return nil, polls.Results{}, ErrAlreadyVoted
		}
	} else {
		if err := s.checkAnonPolicy(ctx, pollID, token); err != nil {
			return nil, polls.Results{}, err
		}
	}

	vote := &models.Vote{PollID: pollID, VoterID: voterID, OptionIndex: optionIndex}
	if err := s.ledger.Insert(ctx, vote); err != nil {
		return nil, polls.Results{}, err
	}

	counts, err := s.ledger.CountByOption(ctx, pollID)
	if err != nil {
		return nil, polls.Results{}, err
	}
	return poll, polls.TallyResults(poll.Options, counts), nil
}

// HasVoted reports whether the voter already voted in the poll. Anonymous
// voters (nil voterID) always report false.
func (s *Service) HasVoted(ctx context.Context, pollID uuid.UUID, voterID *uuid.UUID) (bool, int, error) {
	if _, err := s.polls.GetByID(ctx, pollID); err != nil {
		return false, 0, err
	}
	if voterID == nil {
		return false, 0, nil
	}
	return s.ledger.HasVoted(ctx, pollID, *voterID)
}

func (s *Service) checkAnonPolicy(ctx context.Context, pollID uuid.UUID, token string) error {
	switch s.policy {
	case config.AnonDisabled:
		return ErrAnonDisabled
	case config.AnonOneTimeToken:
		if token == "" {
			return ErrTokenRequired
		}
		if s.tokens == nil {
			return ErrTokenInvalid
		}
		ok, err := s.tokens.Redeem(ctx, pollID, token)
		if err != nil {
			return err
		}
		if !ok {
			return ErrTokenInvalid
		}
		return nil
	default:
		// Unrestricted: anonymous votes are accepted as-is. A known
		// limitation, kept deliberately until product decides otherwise.
		return nil
	}
}

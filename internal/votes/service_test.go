package votes

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/pollwise/backend/config"
	"github.com/pollwise/backend/internal/models"
	"github.com/pollwise/backend/internal/polls"
)

type fakePollSource struct {
	polls map[uuid.UUID]*models.Poll
}

func (f *fakePollSource) GetByID(_ context.Context, id uuid.UUID) (*models.Poll, error) {
	p, ok := f.polls[id]
	if !ok {
		return nil, polls.ErrNotFound
	}
	return p, nil
}

// fakeLedger stores votes in memory and enforces the same (poll, voter)
// uniqueness the database constraint would.
type fakeLedger struct {
	votes     []models.Vote
	insertErr error
}

func (f *fakeLedger) Insert(_ context.Context, v *models.Vote) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	if v.VoterID != nil {
		for _, existing := range f.votes {
			if existing.PollID == v.PollID && existing.VoterID != nil && *existing.VoterID == *v.VoterID {
				return ErrAlreadyVoted
			}
		}
	}
	v.ID = uuid.New()
	f.votes = append(f.votes, *v)
	return nil
}

func (f *fakeLedger) HasVoted(_ context.Context, pollID, voterID uuid.UUID) (bool, int, error) {
	for _, v := range f.votes {
		if v.PollID == pollID && v.VoterID != nil && *v.VoterID == voterID {
			return true, v.OptionIndex, nil
		}
	}
	return false, 0, nil
}

func (f *fakeLedger) CountByOption(_ context.Context, pollID uuid.UUID) (map[int]int64, error) {
	counts := make(map[int]int64)
	for _, v := range f.votes {
		if v.PollID == pollID {
			counts[v.OptionIndex]++
		}
	}
	return counts, nil
}

type fakeTokens struct {
	valid map[string]bool
}

func (f *fakeTokens) Redeem(_ context.Context, _ uuid.UUID, token string) (bool, error) {
	if f.valid[token] {
		delete(f.valid, token)
		return true, nil
	}
	return false, nil
}

func newFixture(policy config.AnonVotePolicy, tokens TokenRedeemer) (*Service, *fakeLedger, *models.Poll) {
	poll := &models.Poll{
		ID:      uuid.New(),
		OwnerID: uuid.New(),
		Options: []string{"A", "B"},
	}
	source := &fakePollSource{polls: map[uuid.UUID]*models.Poll{poll.ID: poll}}
	ledger := &fakeLedger{}
	return NewService(source, ledger, tokens, policy), ledger, poll
}

func TestCastAuthenticated(t *testing.T) {
	svc, ledger, poll := newFixture(config.AnonUnrestricted, nil)
	voter := uuid.New()

	_, results, err := svc.Cast(context.Background(), poll.ID, &voter, 0, "")
	assert.NoError(t, err)
	assert.Len(t, ledger.votes, 1)
	assert.Equal(t, int64(1), results.TotalVotes)
	assert.Equal(t, 100, results.Options[0].Percentage)
}

func TestCastTwiceSameVoter(t *testing.T) {
	svc, ledger, poll := newFixture(config.AnonUnrestricted, nil)
	voter := uuid.New()

	_, _, err := svc.Cast(context.Background(), poll.ID, &voter, 0, "")
	assert.NoError(t, err)

	_, _, err = svc.Cast(context.Background(), poll.ID, &voter, 0, "")
	assert.ErrorIs(t, err, ErrAlreadyVoted)
	assert.Len(t, ledger.votes, 1, "only one vote record may exist")
}

func TestCastConstraintViolationSurfacesAsAlreadyVoted(t *testing.T) {
	// The application-level check passed (empty ledger view) but the insert
	// hits the storage uniqueness constraint, as under concurrent requests.
	svc, ledger, poll := newFixture(config.AnonUnrestricted, nil)
	ledger.insertErr = ErrAlreadyVoted
	voter := uuid.New()

	_, _, err := svc.Cast(context.Background(), poll.ID, &voter, 0, "")
	assert.ErrorIs(t, err, ErrAlreadyVoted)
}

func TestCastAnonymousUnrestricted(t *testing.T) {
	svc, ledger, poll := newFixture(config.AnonUnrestricted, nil)

	for i := 0; i < 3; i++ {
		_, _, err := svc.Cast(context.Background(), poll.ID, nil, 0, "")
		assert.NoError(t, err)
	}
	assert.Len(t, ledger.votes, 3, "anonymous votes are unrestricted by default")
}

func TestCastAnonymousDisabled(t *testing.T) {
	svc, ledger, poll := newFixture(config.AnonDisabled, nil)

	_, _, err := svc.Cast(context.Background(), poll.ID, nil, 0, "")
	assert.ErrorIs(t, err, ErrAnonDisabled)
	assert.Empty(t, ledger.votes)

	// Authenticated voting is unaffected by the anonymous policy.
	voter := uuid.New()
	_, _, err = svc.Cast(context.Background(), poll.ID, &voter, 0, "")
	assert.NoError(t, err)
}

func TestCastAnonymousOneTimeToken(t *testing.T) {
	tokens := &fakeTokens{valid: map[string]bool{"tok-1": true}}
	svc, ledger, poll := newFixture(config.AnonOneTimeToken, tokens)

	_, _, err := svc.Cast(context.Background(), poll.ID, nil, 0, "")
	assert.ErrorIs(t, err, ErrTokenRequired)

	_, _, err = svc.Cast(context.Background(), poll.ID, nil, 0, "bogus")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, _, err = svc.Cast(context.Background(), poll.ID, nil, 0, "tok-1")
	assert.NoError(t, err)
	assert.Len(t, ledger.votes, 1)

	// Tokens are single-use.
	_, _, err = svc.Cast(context.Background(), poll.ID, nil, 0, "tok-1")
	assert.ErrorIs(t, err, ErrTokenInvalid)
	assert.Len(t, ledger.votes, 1)
}

func TestCastInvalidOption(t *testing.T) {
	svc, ledger, poll := newFixture(config.AnonUnrestricted, nil)
	voter := uuid.New()

	_, _, err := svc.Cast(context.Background(), poll.ID, &voter, 2, "")
	assert.ErrorIs(t, err, ErrInvalidOption)

	_, _, err = svc.Cast(context.Background(), poll.ID, &voter, -1, "")
	assert.ErrorIs(t, err, ErrInvalidOption)
	assert.Empty(t, ledger.votes)
}

func TestCastPollNotFound(t *testing.T) {
	svc, _, _ := newFixture(config.AnonUnrestricted, nil)
	voter := uuid.New()

	_, _, err := svc.Cast(context.Background(), uuid.New(), &voter, 0, "")
	assert.ErrorIs(t, err, polls.ErrNotFound)
}

func TestCastReturnsFreshTally(t *testing.T) {
	svc, _, poll := newFixture(config.AnonUnrestricted, nil)

	var results polls.Results
	var err error
	votersForOption := []int{0, 0, 1}
	for _, opt := range votersForOption {
		voter := uuid.New()
		_, results, err = svc.Cast(context.Background(), poll.ID, &voter, opt, "")
		assert.NoError(t, err)
	}

	assert.Equal(t, int64(3), results.TotalVotes)
	assert.Equal(t, polls.OptionResult{Text: "A", Votes: 2, Percentage: 67}, results.Options[0])
	assert.Equal(t, polls.OptionResult{Text: "B", Votes: 1, Percentage: 33}, results.Options[1])
}

func TestHasVoted(t *testing.T) {
	svc, _, poll := newFixture(config.AnonUnrestricted, nil)
	voter := uuid.New()

	voted, _, err := svc.HasVoted(context.Background(), poll.ID, &voter)
	assert.NoError(t, err)
	assert.False(t, voted)

	_, _, err = svc.Cast(context.Background(), poll.ID, &voter, 1, "")
	assert.NoError(t, err)

	voted, optionIndex, err := svc.HasVoted(context.Background(), poll.ID, &voter)
	assert.NoError(t, err)
	assert.True(t, voted)
	assert.Equal(t, 1, optionIndex)
}

func TestHasVotedAnonymousAlwaysFalse(t *testing.T) {
	svc, _, poll := newFixture(config.AnonUnrestricted, nil)

	_, _, err := svc.Cast(context.Background(), poll.ID, nil, 0, "")
	assert.NoError(t, err)

	voted, _, err := svc.HasVoted(context.Background(), poll.ID, nil)
	assert.NoError(t, err)
	assert.False(t, voted)
}

func TestHasVotedPollNotFound(t *testing.T) {
	svc, _, _ := newFixture(config.AnonUnrestricted, nil)
	voter := uuid.New()

	_, _, err := svc.HasVoted(context.Background(), uuid.New(), &voter)
	assert.ErrorIs(t, err, polls.ErrNotFound)
}

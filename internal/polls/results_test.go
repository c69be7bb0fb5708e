package polls

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTallyResultsTwoOptions(t *testing.T) {
	// Votes cast: [0, 0, 1].
	r := TallyResults([]string{"A", "B"}, map[int]int64{0: 2, 1: 1})

	assert.Equal(t, int64(3), r.TotalVotes)
	assert.Equal(t, OptionResult{Text: "A", Votes: 2, Percentage: 67}, r.Options[0])
	assert.Equal(t, OptionResult{Text: "B", Votes: 1, Percentage: 33}, r.Options[1])
}

func TestTallyResultsRoundingDoesNotSumTo100(t *testing.T) {
	r := TallyResults([]string{"A", "B", "C"}, map[int]int64{0: 1, 1: 1, 2: 1})

	sum := 0
	for _, o := range r.Options {
		assert.Equal(t, 33, o.Percentage)
		sum += o.Percentage
	}
	// Independent rounding: 99 here, and that is accepted behavior.
	assert.Equal(t, 99, sum)
}

func TestTallyResultsNoVotes(t *testing.T) {
	r := TallyResults([]string{"A", "B"}, nil)

	assert.Equal(t, int64(0), r.TotalVotes)
	for _, o := range r.Options {
		assert.Equal(t, int64(0), o.Votes)
		assert.Equal(t, 0, o.Percentage)
	}
}

func TestTallyResultsSkipsOutOfRangeIndices(t *testing.T) {
	// Stale rows may reference indices beyond the current option list.
	r := TallyResults([]string{"A", "B"}, map[int]int64{0: 1, 5: 7, -1: 3})

	assert.Equal(t, int64(1), r.TotalVotes)
	assert.Equal(t, int64(1), r.Options[0].Votes)
	assert.Equal(t, 100, r.Options[0].Percentage)
	assert.Equal(t, int64(0), r.Options[1].Votes)
}

func TestTallyResultsKeepsOptionOrder(t *testing.T) {
	r := TallyResults([]string{"first", "second", "third"}, map[int]int64{2: 4})

	assert.Equal(t, "first", r.Options[0].Text)
	assert.Equal(t, "second", r.Options[1].Text)
	assert.Equal(t, "third", r.Options[2].Text)
	assert.Equal(t, int64(4), r.Options[2].Votes)
	assert.Equal(t, 100, r.Options[2].Percentage)
}

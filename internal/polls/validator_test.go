package polls

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePollOK(t *testing.T) {
	q, opts, err := ValidatePoll("  Best editor? ", []string{" Vim ", "Emacs", ""})
	assert.NoError(t, err)
	assert.Equal(t, "Best editor?", q)
	assert.Equal(t, []string{"Vim", "Emacs"}, opts, "blanks discarded, rest trimmed")
}

func TestValidatePollSanitizes(t *testing.T) {
	q, opts, err := ValidatePoll("<script>x</script>Best pet?", []string{"<b>Cat</b>", "Dog & friends"})
	assert.NoError(t, err)
	assert.Equal(t, "xBest pet?", q)
	assert.Equal(t, []string{"Cat", "Dog &amp; friends"}, opts)
}

func TestValidatePollErrors(t *testing.T) {
	two := []string{"A", "B"}
	eleven := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"}

	tests := []struct {
		name     string
		question string
		options  []string
		wantErr  error
	}{
		{"empty question", "", two, ErrEmptyQuestion},
		{"whitespace question", "   ", two, ErrEmptyQuestion},
		{"markup-only question", "<script></script>", two, ErrEmptyQuestion},
		{"question too long", strings.Repeat("q", 501), two, ErrQuestionTooLong},
		{"no options", "Q?", nil, ErrTooFewOptions},
		{"one option", "Q?", []string{"A"}, ErrTooFewOptions},
		{"blank options discarded before count", "Q?", []string{"A", "  ", ""}, ErrTooFewOptions},
		{"too many options", "Q?", eleven, ErrTooManyOptions},
		{"duplicate options", "Q?", []string{"Tea", "Coffee", "Tea"}, ErrDuplicateOptions},
		{"duplicates differ only in case", "Q?", []string{"tea", "TEA"}, ErrDuplicateOptions},
		{"duplicates differ only in spacing", "Q?", []string{" tea", "tea "}, ErrDuplicateOptions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ValidatePoll(tt.question, tt.options)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestValidatePollQuestionAtLimit(t *testing.T) {
	q := strings.Repeat("q", 500)
	got, _, err := ValidatePoll(q, []string{"A", "B"})
	assert.NoError(t, err)
	assert.Equal(t, q, got)
}

func TestValidatePollOptionTooLong(t *testing.T) {
	_, _, err := ValidatePoll("Q?", []string{"ok", strings.Repeat("x", 201)})
	var tooLong *OptionTooLongError
	assert.True(t, errors.As(err, &tooLong))
	assert.Equal(t, 1, tooLong.Index)
	assert.True(t, IsValidationError(err))
}

func TestValidatePollLengthCheckedBeforeDuplicates(t *testing.T) {
	long := strings.Repeat("x", 201)
	_, _, err := ValidatePoll("Q?", []string{"dup", "dup", long})
	var tooLong *OptionTooLongError
	assert.True(t, errors.As(err, &tooLong), "rule order: option length before duplicates")
	assert.Equal(t, 2, tooLong.Index)
}

func TestIsValidationErrorRejectsOtherErrors(t *testing.T) {
	assert.False(t, IsValidationError(errors.New("connection refused")))
	assert.False(t, IsValidationError(nil))
}

package polls

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pollwise/backend/internal/sanitize"
)

const (
	// MaxQuestionLen is the question length limit in characters.
	MaxQuestionLen = 500
	// MaxOptionLen is the per-option length limit in characters.
	MaxOptionLen = 200
	// MinOptions and MaxOptions bound the option count after blank entries
	// are discarded.
	MinOptions = 2
	MaxOptions = 10
)

var (
	ErrEmptyQuestion    = errors.New("question must not be empty")
	ErrQuestionTooLong  = fmt.Errorf("question must be at most %d characters", MaxQuestionLen)
	ErrTooFewOptions    = fmt.Errorf("poll needs at least %d options", MinOptions)
	ErrTooManyOptions   = fmt.Errorf("poll allows at most %d options", MaxOptions)
	ErrDuplicateOptions = errors.New("options must be distinct")
)

// OptionTooLongError reports which option exceeded MaxOptionLen. The index
// refers to the option list after blank entries are discarded.
type OptionTooLongError struct {
	Index int
}

func (e *OptionTooLongError) Error() string {
	return fmt.Sprintf("option %d must be at most %d characters", e.Index+1, MaxOptionLen)
}

// ValidatePoll checks a proposed question and option list and returns the
// sanitized forms to store. Rules run in a fixed order and the first failure
// wins. The function is pure; create and update share it.
func ValidatePoll(question string, options []string) (string, []string, error) {
	q := sanitize.Display(question)
	if q == "" {
		return "", nil, ErrEmptyQuestion
	}
	if utf8.RuneCountInString(q) > MaxQuestionLen {
		return "", nil, ErrQuestionTooLong
	}

	cleaned := make([]string, 0, len(options))
	for _, opt := range options {
		if s := sanitize.Display(opt); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) < MinOptions {
		return "", nil, ErrTooFewOptions
	}
	if len(cleaned) > MaxOptions {
		return "", nil, ErrTooManyOptions
	}

	for i, opt := range cleaned {
		if utf8.RuneCountInString(opt) > MaxOptionLen {
			return "", nil, &OptionTooLongError{Index: i}
		}
	}

	seen := make(map[string]struct{}, len(cleaned))
	for _, opt := range cleaned {
		key := strings.ToLower(opt)
		if _, dup := seen[key]; dup {
			return "", nil, ErrDuplicateOptions
		}
		seen[key] = struct{}{}
	}

	return q, cleaned, nil
}

// IsValidationError reports whether err belongs to the poll validation
// taxonomy, i.e. the caller should re-prompt the user rather than fail.
func IsValidationError(err error) bool {
	var tooLong *OptionTooLongError
	return errors.Is(err, ErrEmptyQuestion) ||
		errors.Is(err, ErrQuestionTooLong) ||
		errors.Is(err, ErrTooFewOptions) ||
		errors.Is(err, ErrTooManyOptions) ||
		errors.Is(err, ErrDuplicateOptions) ||
		errors.As(err, &tooLong)
}

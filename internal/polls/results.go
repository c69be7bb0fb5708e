package polls

import "math"

// OptionResult is one tallied option in a poll's results.
type OptionResult struct {
	Text       string `json:"text"`
	Votes      int64  `json:"votes"`
	Percentage int    `json:"percentage"`
}

// Results is the derived tally for a poll. It is computed on demand and
// never stored.
type Results struct {
	Options    []OptionResult `json:"options"`
	TotalVotes int64          `json:"total_votes"`
}

// TallyResults builds per-option counts and percentages from vote counts
// keyed by option index. Counts at indices outside the option range (stale
// rows from before an option list was replaced) are skipped, not errored.
//
// Percentages are rounded to the nearest integer independently per option,
// so they are not guaranteed to sum to exactly 100.
func TallyResults(options []string, countsByIndex map[int]int64) Results {
	counts := make([]int64, len(options))
	var total int64
	for idx, n := range countsByIndex {
		if idx < 0 || idx >= len(options) {
			continue
		}
		counts[idx] = n
		total += n
	}

	out := Results{
		Options:    make([]OptionResult, len(options)),
		TotalVotes: total,
	}
	for i, text := range options {
		pct := 0
		if total > 0 {
			pct = int(math.Round(float64(counts[i]) / float64(total) * 100))
		}
		out.Options[i] = OptionResult{Text: text, Votes: counts[i], Percentage: pct}
	}
	return out
}

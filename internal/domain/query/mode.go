package query

import "fmt"

// Mode selects the score-fusion strategy.
type Mode string

const (
	// ModeRRF fuses the lexical and semantic rankings via Reciprocal Rank
	// Fusion. Default.
	ModeRRF Mode = "rrf"
	// ModeWeighted blends normalized BM25 and semantic scores linearly.
	ModeWeighted Mode = "weighted"
)

// ParseMode converts a string into a Mode. Empty input maps to ModeRRF.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeRRF, nil
	case ModeRRF, ModeWeighted:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown fusion mode %q", s)
	}
}

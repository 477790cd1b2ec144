// Package quality turns a note's externally supplied score into a
// promotion decision. Pure decision logic, no side effects; this core
// never computes scores.
package quality

import "github.com/starford/raido/internal/models"

// DefaultMinQuality is the promotion threshold used when none is
// configured.
const DefaultMinQuality = 0.7

// Decision classifies a note against the promotion threshold.
type Decision string

// MissingScore is distinct from BelowThreshold so callers can surface
// "needs scoring" separately from "needs improvement".
const (
	Eligible       Decision = "ELIGIBLE"
	BelowThreshold Decision = "BELOW_THRESHOLD"
	MissingScore   Decision = "MISSING_SCORE"
)

// Decide classifies note against minQuality. Any score in [0,1] is valid
// input regardless of how it was produced; a score outside that range is
// malformed and treated as missing, so the note goes back for scoring
// rather than being promoted on garbage.
func Decide(note *models.Note, minQuality float64) Decision {
	if note.QualityScore == nil {
		return MissingScore
	}
	score := *note.QualityScore
	if score < 0 || score > 1 {
		return MissingScore
	}
	if score < minQuality {
		return BelowThreshold
	}
	return Eligible
}

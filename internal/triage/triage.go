// Package triage scans the vault for promotion candidates and classifies
// each with a recommended action. Scanning never mutates anything; the
// coordinator acts on candidates separately and re-reads from disk
// before doing so.
package triage

import (
	"fmt"
	"iter"
	"strings"

	"github.com/starford/raido/internal/frontmatter"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/quality"
	"github.com/starford/raido/internal/storage"
)

// Generator builds Candidate streams and recommendation summaries.
type Generator struct {
	store      storage.Provider
	minQuality float64
}

// NewGenerator creates a Generator with the configured promotion
// threshold.
func NewGenerator(store storage.Provider, minQuality float64) *Generator {
	return &Generator{store: store, minQuality: minQuality}
}

// ScanReviewCandidates yields one Candidate per note under dir that has
// not yet left the staging flow. Subdirectories are only entered when
// recursive is set. The sequence is lazy and restartable: ranging over
// it again re-reads every note from disk.
func (g *Generator) ScanReviewCandidates(dir string, recursive bool) (iter.Seq[models.Candidate], error) {
	metas, err := g.store.List(dir, recursive)
	if err != nil {
		return nil, err
	}
	return func(yield func(models.Candidate) bool) {
		for _, meta := range metas {
			data, err := g.store.Read(meta.Path)
			if err != nil {
				c := models.Candidate{
					Path:   meta.Path,
					Action: models.ActionNeedsReview,
					Reason: "unreadable: " + err.Error(),
				}
				if !yield(c) {
					return
				}
				continue
			}
			note, _ := frontmatter.ReadNote(meta.Path, data)
			if note.Status.Terminal() {
				continue
			}
			if !yield(g.classify(note)) {
				return
			}
		}
	}, nil
}

// classify annotates one note with its quality decision and recommended
// action.
func (g *Generator) classify(note *models.Note) models.Candidate {
	decision := quality.Decide(note, g.minQuality)
	c := models.Candidate{
		Path:     note.Path,
		Status:   note.Status,
		Type:     note.Type,
		Score:    note.QualityScore,
		Decision: string(decision),
		Tags:     note.Tags,
		Links:    note.Links,
	}
	switch {
	case !note.Type.Valid():
		c.Action = models.ActionNeedsReview
		c.Reason = "missing or unknown type"
	case decision == quality.Eligible:
		c.Action = models.ActionPromote
		c.Reason = fmt.Sprintf("quality %.2f meets threshold %.2f", *note.QualityScore, g.minQuality)
	case decision == quality.MissingScore:
		c.Action = models.ActionNeedsScoring
		c.Reason = "no usable quality score"
	default:
		c.Action = models.ActionNeedsReview
		c.Reason = fmt.Sprintf("quality %.2f below threshold %.2f", *note.QualityScore, g.minQuality)
	}
	return c
}

// GenerateWeeklyRecommendations aggregates the candidate stream into
// grouped, human-readable recommendations: quality first, then tagging
// and linking hygiene. Themes with nothing to say are omitted.
func (g *Generator) GenerateWeeklyRecommendations(dir string, recursive bool) ([]string, error) {
	seq, err := g.ScanReviewCandidates(dir, recursive)
	if err != nil {
		return nil, err
	}

	var belowThreshold, unscored, untagged, unlinked []string
	for c := range seq {
		switch {
		case c.Action == models.ActionNeedsScoring:
			unscored = append(unscored, c.Path)
		case c.Decision == string(quality.BelowThreshold):
			belowThreshold = append(belowThreshold, c.Path)
		}
		if len(c.Tags) == 0 {
			untagged = append(untagged, c.Path)
		}
		if len(c.Links) == 0 {
			unlinked = append(unlinked, c.Path)
		}
	}

	var recs []string
	if len(belowThreshold) > 0 {
		recs = append(recs, fmt.Sprintf("quality: %d note(s) below the promotion threshold, revise and rescore: %s",
			len(belowThreshold), strings.Join(belowThreshold, ", ")))
	}
	if len(unscored) > 0 {
		recs = append(recs, fmt.Sprintf("quality: %d note(s) awaiting a quality score: %s",
			len(unscored), strings.Join(unscored, ", ")))
	}
	if len(untagged) > 0 {
		recs = append(recs, fmt.Sprintf("tagging: %d note(s) carry no tags: %s",
			len(untagged), strings.Join(untagged, ", ")))
	}
	if len(unlinked) > 0 {
		recs = append(recs, fmt.Sprintf("linking: %d note(s) link to nothing: %s",
			len(unlinked), strings.Join(unlinked, ", ")))
	}
	return recs, nil
}

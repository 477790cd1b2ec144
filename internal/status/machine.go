// Package status validates lifecycle state transitions.
//
// The graph is directed and acyclic toward publication:
//
//	inbox → {fleeting, literature, permanent} → promoted → published
//
// Nothing ever moves back toward inbox. The package holds no mutable
// state; it is a transition table plus validation.
package status

import (
	"fmt"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
)

var transitions = map[models.Status][]models.Status{
	models.StatusInbox:      {models.StatusFleeting, models.StatusLiterature, models.StatusPermanent},
	models.StatusFleeting:   {models.StatusPromoted},
	models.StatusLiterature: {models.StatusPromoted},
	models.StatusPermanent:  {models.StatusPromoted},
	models.StatusPromoted:   {models.StatusPublished},
}

// Validate reports whether current → target is a legal transition.
// Same-state pairs are not legal; idempotent promotion is the caller's
// explicit short-circuit, not a transition.
func Validate(current, target models.Status) bool {
	for _, t := range transitions[current] {
		if t == target {
			return true
		}
	}
	return false
}

// Apply returns target after validating the transition, or an
// ErrInvalidTransition when the pair is not in the table.
func Apply(current, target models.Status) (models.Status, error) {
	if !Validate(current, target) {
		return current, fmt.Errorf("%s → %s: %w", current, target, apperr.ErrInvalidTransition)
	}
	return target, nil
}

// PromotionPath returns the ordered transitions that take a note of the
// given type from current to promoted. From inbox that is two hops (via
// the type's stage); from the stage itself it is one. Terminal states
// yield an empty path so promotion stays idempotent.
func PromotionPath(current models.Status, noteType models.NoteType) ([]models.Status, error) {
	if current.Terminal() {
		return nil, nil
	}
	stage := noteType.Stage()

	var hops []models.Status
	switch current {
	case models.StatusInbox:
		hops = []models.Status{stage, models.StatusPromoted}
	case stage:
		hops = []models.Status{models.StatusPromoted}
	default:
		return nil, fmt.Errorf("%s cannot reach promoted as %s: %w", current, noteType, apperr.ErrInvalidTransition)
	}

	at := current
	for _, next := range hops {
		var err error
		if at, err = Apply(at, next); err != nil {
			return nil, err
		}
	}
	return hops, nil
}

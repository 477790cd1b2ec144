// Package reconcile detects notes left in an inconsistent state, where
// external processing finished but the lifecycle fields were never
// advanced. Detection is read-only; repair goes through the normal
// promotion path so both code paths stay identical.
package reconcile

import (
	"github.com/starford/raido/internal/frontmatter"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/storage"
)

// Reconciler finds orphaned notes in the vault.
type Reconciler struct {
	store     storage.Provider
	recursive bool
}

// New creates a Reconciler.
func New(store storage.Provider, recursive bool) *Reconciler {
	return &Reconciler{store: store, recursive: recursive}
}

// FindOrphans scans dir and returns every note whose processing flag is
// set while its status is still inbox. Unreadable files are reported as
// errors rather than silently skipped.
func (r *Reconciler) FindOrphans(dir string) ([]*models.Note, []models.ErrorEntry, error) {
	metas, err := r.store.List(dir, r.recursive)
	if err != nil {
		return nil, nil, err
	}
	var orphans []*models.Note
	var failures []models.ErrorEntry
	for _, meta := range metas {
		data, err := r.store.Read(meta.Path)
		if err != nil {
			failures = append(failures, models.ErrorEntry{
				Path: meta.Path, Kind: "io", Message: err.Error(),
			})
			continue
		}
		note, _ := frontmatter.ReadNote(meta.Path, data)
		if note.Orphaned() {
			orphans = append(orphans, note)
		}
	}
	return orphans, failures, nil
}

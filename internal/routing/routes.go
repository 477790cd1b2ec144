// Package routing maps note types to their permanent destination
// directories. The mapping is an explicit, validated lookup table;
// a missing mapping fails loudly instead of silently skipping a note.
package routing

import (
	"fmt"
	"sort"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
)

// Resolver looks up the destination directory for a note type.
type Resolver interface {
	// Resolve returns the vault-relative destination directory for t.
	// An unmapped type is an ErrConfiguration.
	Resolve(t models.NoteType) (string, error)
}

// Table is a Resolver backed by a static map, typically loaded from the
// routing section of the config file.
type Table struct {
	routes map[models.NoteType]string
}

// NewTable builds a Table from raw config entries, rejecting unknown
// type names and empty destinations up front.
func NewTable(routes map[string]string) (*Table, error) {
	m := make(map[models.NoteType]string, len(routes))
	for raw, dir := range routes {
		t := models.NoteType(raw)
		if !t.Valid() {
			return nil, fmt.Errorf("routing: unknown note type %q: %w", raw, apperr.ErrConfiguration)
		}
		if dir == "" {
			return nil, fmt.Errorf("routing: empty destination for type %q: %w", raw, apperr.ErrConfiguration)
		}
		m[t] = dir
	}
	return &Table{routes: m}, nil
}

// Resolve implements Resolver.
func (tb *Table) Resolve(t models.NoteType) (string, error) {
	dir, ok := tb.routes[t]
	if !ok {
		return "", fmt.Errorf("routing: no destination mapped for type %q: %w", t, apperr.ErrConfiguration)
	}
	return dir, nil
}

// Types returns the mapped note types in stable order, for reporting.
func (tb *Table) Types() []models.NoteType {
	out := make([]models.NoteType, 0, len(tb.routes))
	for t := range tb.routes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Package models defines the domain types for Raido.
package models

import "time"

// Status is the lifecycle state of a note, stored in its frontmatter.
// The filesystem is the sole source of truth for status: there is no
// database or index that owns it.
type Status string

// Lifecycle states, in graph order.
const (
	StatusInbox      Status = "inbox"
	StatusFleeting   Status = "fleeting"
	StatusLiterature Status = "literature"
	StatusPermanent  Status = "permanent"
	StatusPromoted   Status = "promoted"
	StatusPublished  Status = "published"
)

// Valid reports whether s is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusInbox, StatusFleeting, StatusLiterature, StatusPermanent, StatusPromoted, StatusPublished:
		return true
	}
	return false
}

// Terminal reports whether a note in this state has already left the
// staging area. Promotion of a terminal note is a no-op.
func (s Status) Terminal() bool {
	return s == StatusPromoted || s == StatusPublished
}

// NoteType declares which permanent location a note belongs in.
type NoteType string

// Note types. A note without a resolvable type cannot be promoted.
const (
	TypeFleeting   NoteType = "fleeting"
	TypeLiterature NoteType = "literature"
	TypePermanent  NoteType = "permanent"
)

// Valid reports whether t is a known note type.
func (t NoteType) Valid() bool {
	switch t {
	case TypeFleeting, TypeLiterature, TypePermanent:
		return true
	}
	return false
}

// Stage returns the intermediate lifecycle state a note of this type
// passes through on its way to promoted.
func (t NoteType) Stage() Status {
	return Status(t)
}

// Note is the in-memory projection of one Markdown file in the vault.
// It is short-lived: any mutating decision re-reads the file first.
type Note struct {
	Path          string    `json:"path"`
	Status        Status    `json:"status"`
	Type          NoteType  `json:"type,omitempty"`
	QualityScore  *float64  `json:"quality_score,omitempty"`
	AIProcessed   bool      `json:"ai_processed"`
	ProcessedDate time.Time `json:"processed_date,omitzero"`
	Tags          []string  `json:"tags,omitempty"`
	Links         []string  `json:"links,omitempty"`
	Checksum      string    `json:"checksum"`
}

// Orphaned reports the inconsistent state where external processing has
// completed but the note never left the inbox. Always a reconciliation
// target, never terminal.
func (n *Note) Orphaned() bool {
	return n.AIProcessed && n.Status == StatusInbox
}

// NoteMetadata is a lightweight representation returned by vault listings.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Action is the recommended handling for a scanned candidate.
type Action string

// Candidate actions.
const (
	ActionPromote      Action = "promote"
	ActionNeedsScoring Action = "needs-scoring"
	ActionNeedsReview  Action = "needs-review"
)

// Candidate is the transient record produced by a triage scan. It is
// never persisted; the next scan rebuilds it from disk.
type Candidate struct {
	Path     string   `json:"path"`
	Status   Status   `json:"status"`
	Type     NoteType `json:"type,omitempty"`
	Score    *float64 `json:"quality_score,omitempty"`
	Decision string   `json:"decision"`
	Action   Action   `json:"action"`
	Reason   string   `json:"reason,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Links    []string `json:"links,omitempty"`
}

// BackupSnapshot records one pre-mutation copy of a vault file. Snapshots
// are retained until explicit cleanup, which is outside this core.
type BackupSnapshot struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	OriginalPath string    `json:"original_path"`
	SnapshotPath string    `json:"snapshot_path"`
	ContentHash  string    `json:"content_hash"`
}

// SkipEntry explains why a batch left one note untouched.
type SkipEntry struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// ErrorEntry captures one note's failure inside a batch. Per-note errors
// never abort the batch.
type ErrorEntry struct {
	Path    string `json:"path"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// BatchReport is the outcome of one batch run. A partially completed
// batch is still a valid report: every processed note finished fully
// before the next was considered.
type BatchReport struct {
	Preview   bool         `json:"preview"`
	Processed []string     `json:"processed"`
	Skipped   []SkipEntry  `json:"skipped"`
	Errors    []ErrorEntry `json:"errors"`
}

// HasErrors reports whether any per-note error was recorded.
func (r *BatchReport) HasErrors() bool {
	return len(r.Errors) > 0
}

package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
)

// Promotion outcomes recorded in the audit history.
const (
	OutcomePromoted   = "promoted"
	OutcomeRepaired   = "repaired"
	OutcomeRolledBack = "rolled-back"
)

// PromotionEntry is one row of the promotion audit history.
type PromotionEntry struct {
	ID          int64         `json:"id"`
	OccurredAt  time.Time     `json:"occurred_at"`
	Path        string        `json:"path"`
	From        models.Status `json:"from"`
	To          models.Status `json:"to"`
	Destination string        `json:"destination,omitempty"`
	Outcome     string        `json:"outcome"`
	Detail      string        `json:"detail,omitempty"`
}

// InsertSnapshot records a backup snapshot in the registry.
func (db *DB) InsertSnapshot(s models.BackupSnapshot) error {
	_, err := db.conn.Exec(
		`INSERT INTO snapshots (id, created_at, original_path, snapshot_path, content_hash)
		 VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.Timestamp, s.OriginalPath, s.SnapshotPath, s.ContentHash,
	)
	if err != nil {
		return fmt.Errorf("index: insert snapshot: %w", err)
	}
	return nil
}

// GetSnapshot looks up a snapshot by id.
func (db *DB) GetSnapshot(id string) (*models.BackupSnapshot, error) {
	row := db.conn.QueryRow(
		`SELECT id, created_at, original_path, snapshot_path, content_hash
		 FROM snapshots WHERE id = ?`, id,
	)
	var s models.BackupSnapshot
	if err := row.Scan(&s.ID, &s.Timestamp, &s.OriginalPath, &s.SnapshotPath, &s.ContentHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("index: snapshot %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("index: get snapshot: %w", err)
	}
	return &s, nil
}

// RecordPromotion appends one audit entry. Failures here never block a
// promotion; callers log and continue.
func (db *DB) RecordPromotion(e PromotionEntry) error {
	_, err := db.conn.Exec(
		`INSERT INTO promotions (occurred_at, path, from_status, to_status, destination, outcome, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.OccurredAt, e.Path, string(e.From), string(e.To), e.Destination, e.Outcome, e.Detail,
	)
	if err != nil {
		return fmt.Errorf("index: record promotion: %w", err)
	}
	return nil
}

// History returns the most recent audit entries, newest first.
func (db *DB) History(limit int) ([]PromotionEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := db.conn.Query(
		`SELECT id, occurred_at, path, from_status, to_status, destination, outcome, detail
		 FROM promotions ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("index: history: %w", err)
	}
	defer rows.Close()

	var out []PromotionEntry
	for rows.Next() {
		var e PromotionEntry
		var from, to string
		if err := rows.Scan(&e.ID, &e.OccurredAt, &e.Path, &from, &to, &e.Destination, &e.Outcome, &e.Detail); err != nil {
			return nil, fmt.Errorf("index: scan history: %w", err)
		}
		e.From = models.Status(from)
		e.To = models.Status(to)
		out = append(out, e)
	}
	return out, rows.Err()
}

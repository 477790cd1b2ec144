// Package backup creates and restores timestamped snapshots of vault
// files. Every mutating move takes a snapshot first; the mover restores
// from it when verification fails. Snapshots are retained until explicit
// cleanup, which is outside this core.
package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/checksum"
	"github.com/starford/raido/internal/models"
)

// SnapshotStore is the registry half of the ledger the manager records
// snapshots in.
type SnapshotStore interface {
	InsertSnapshot(s models.BackupSnapshot) error
	GetSnapshot(id string) (*models.BackupSnapshot, error)
}

// Manager writes snapshots into a dedicated directory outside the vault
// and registers them for later restore.
type Manager struct {
	dir   string
	store SnapshotStore
	clock func() time.Time
}

// NewManager creates the snapshot directory if needed.
func NewManager(dir string, store SnapshotStore) (*Manager, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("backup: resolve dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("backup: create dir: %w", apperr.ErrBackupFailure)
	}
	return &Manager{dir: abs, store: store, clock: time.Now}, nil
}

// WithClock overrides the timestamp source. Tests only.
func (m *Manager) WithClock(clock func() time.Time) *Manager {
	m.clock = clock
	return m
}

// CreateSnapshot copies the file at originalPath (absolute) into the
// snapshot directory, verifies the copy, and registers it. Any failure
// is an ErrBackupFailure: no caller may mutate without a confirmed
// snapshot.
func (m *Manager) CreateSnapshot(originalPath string) (*models.BackupSnapshot, error) {
	data, err := os.ReadFile(originalPath)
	if err != nil {
		return nil, fmt.Errorf("backup: read %s: %v: %w", originalPath, err, apperr.ErrBackupFailure)
	}
	hash := checksum.Sum(data)
	now := m.clock().UTC()

	s := models.BackupSnapshot{
		ID:           now.Format("20060102T150405.000000000") + "-" + hash[:8],
		Timestamp:    now,
		OriginalPath: originalPath,
		SnapshotPath: filepath.Join(m.dir, now.Format("20060102T150405.000000000")+"-"+hash[:8]+".bak"),
		ContentHash:  hash,
	}

	if err := os.WriteFile(s.SnapshotPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("backup: write snapshot: %v: %w", err, apperr.ErrBackupFailure)
	}
	// Read back before trusting the snapshot.
	written, err := os.ReadFile(s.SnapshotPath)
	if err != nil || checksum.Sum(written) != hash {
		return nil, fmt.Errorf("backup: snapshot verification for %s: %w", originalPath, apperr.ErrBackupFailure)
	}

	if m.store != nil {
		if err := m.store.InsertSnapshot(s); err != nil {
			return nil, fmt.Errorf("backup: register snapshot: %v: %w", err, apperr.ErrBackupFailure)
		}
	}
	return &s, nil
}

// Restore looks a snapshot up in the registry and writes it back.
func (m *Manager) Restore(id string) error {
	if m.store == nil {
		return fmt.Errorf("backup: no snapshot registry configured: %w", apperr.ErrBackupFailure)
	}
	s, err := m.store.GetSnapshot(id)
	if err != nil {
		return err
	}
	return m.RestoreSnapshot(s)
}

// RestoreSnapshot writes a snapshot's content back to its original path,
// verifying the stored hash first.
func (m *Manager) RestoreSnapshot(s *models.BackupSnapshot) error {
	data, err := os.ReadFile(s.SnapshotPath)
	if err != nil {
		return fmt.Errorf("backup: read snapshot %s: %w", s.ID, err)
	}
	if checksum.Sum(data) != s.ContentHash {
		return fmt.Errorf("backup: snapshot %s does not match its recorded hash", s.ID)
	}
	if err := os.MkdirAll(filepath.Dir(s.OriginalPath), 0o755); err != nil {
		return fmt.Errorf("backup: restore mkdir: %w", err)
	}
	if err := os.WriteFile(s.OriginalPath, data, 0o644); err != nil {
		return fmt.Errorf("backup: restore %s: %w", s.OriginalPath, err)
	}
	return nil
}

// Package mover relocates vault files safely. Every move is an ordered,
// checkpointed sequence: validate the destination, refuse collisions,
// snapshot the source, relocate, verify the content hash at the
// destination, and roll back to the snapshot when anything past the
// snapshot fails. The underlying filesystem has no transactions; this
// sequence is what stands in for them.
package mover

import (
	"fmt"
	"path/filepath"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/backup"
	"github.com/starford/raido/internal/checksum"
	"github.com/starford/raido/internal/storage"
)

// Mover performs backed-up, verified file relocation.
type Mover struct {
	store      storage.Provider
	backups    *backup.Manager
	createDirs bool
}

// New creates a Mover. createDirs controls whether a missing destination
// directory is created or treated as a configuration error.
func New(store storage.Provider, backups *backup.Manager, createDirs bool) *Mover {
	return &Mover{store: store, backups: backups, createDirs: createDirs}
}

// Plan describes a move that has been validated but not executed.
// Producing a Plan touches nothing on disk.
type Plan struct {
	Source        string `json:"source"`
	Destination   string `json:"destination"`
	SourceHash    string `json:"source_hash"`
	WouldSnapshot string `json:"would_snapshot"`
}

// Result describes a completed, verified move.
type Result struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Hash        string `json:"hash"`
	SnapshotID  string `json:"snapshot_id"`
}

// prepare runs the non-mutating checks shared by Plan and Move:
// destination directory validation, collision refusal, and source
// hashing.
func (m *Mover) prepare(src, destDir string) (destPath string, data []byte, hash string, err error) {
	ok, err := m.store.DirExists(destDir)
	if err != nil {
		return "", nil, "", err
	}
	if !ok && !m.createDirs {
		return "", nil, "", fmt.Errorf("mover: destination %s does not exist: %w", destDir, apperr.ErrConfiguration)
	}

	destPath = filepath.Join(destDir, filepath.Base(src))
	exists, err := m.store.Exists(destPath)
	if err != nil {
		return "", nil, "", err
	}
	if exists {
		return "", nil, "", fmt.Errorf("mover: destination %s already exists: %w", destPath, apperr.ErrPromotion)
	}

	data, err = m.store.Read(src)
	if err != nil {
		return "", nil, "", err
	}
	return destPath, data, checksum.Sum(data), nil
}

// Plan validates a would-be move and returns its description without
// mutating the filesystem: no directory creation, no snapshot, no
// relocation.
func (m *Mover) Plan(src, destDir string) (*Plan, error) {
	destPath, _, hash, err := m.prepare(src, destDir)
	if err != nil {
		return nil, err
	}
	abs, err := m.store.Abs(src)
	if err != nil {
		return nil, err
	}
	return &Plan{
		Source:        src,
		Destination:   destPath,
		SourceHash:    hash,
		WouldSnapshot: abs,
	}, nil
}

// Move executes the full sequence. On any failure after the snapshot the
// source is restored, any partial destination artifact is removed, and
// an ErrMoveVerification is returned; the vault ends in its
// pre-operation state for this file.
func (m *Mover) Move(src, destDir string) (*Result, error) {
	destPath, _, hash, err := m.prepare(src, destDir)
	if err != nil {
		return nil, err
	}
	if ok, _ := m.store.DirExists(destDir); !ok {
		if err := m.store.EnsureDir(destDir); err != nil {
			return nil, fmt.Errorf("mover: create destination %s: %v: %w", destDir, err, apperr.ErrConfiguration)
		}
	}

	abs, err := m.store.Abs(src)
	if err != nil {
		return nil, err
	}
	snap, err := m.backups.CreateSnapshot(abs)
	if err != nil {
		return nil, err
	}

	if err := m.store.Move(src, destPath); err != nil {
		return nil, m.rollback(src, destPath, snap.ID, err)
	}

	moved, err := m.store.Read(destPath)
	if err != nil {
		return nil, m.rollback(src, destPath, snap.ID, err)
	}
	if got := checksum.Sum(moved); got != hash {
		return nil, m.rollback(src, destPath, snap.ID,
			fmt.Errorf("content hash mismatch: %s != %s", got, hash))
	}

	return &Result{
		Source:      src,
		Destination: destPath,
		Hash:        hash,
		SnapshotID:  snap.ID,
	}, nil
}

// rollback restores the pre-move state: partial destination artifacts
// are removed and the source is rebuilt from its snapshot when the move
// already consumed it.
func (m *Mover) rollback(src, destPath, snapshotID string, cause error) error {
	if exists, _ := m.store.Exists(destPath); exists {
		_ = m.store.Remove(destPath)
	}
	if exists, _ := m.store.Exists(src); !exists {
		if err := m.backups.Restore(snapshotID); err != nil {
			return fmt.Errorf("mover: %v; rollback also failed: %v: %w", cause, err, apperr.ErrMoveVerification)
		}
	}
	return fmt.Errorf("mover: %v: %w", cause, apperr.ErrMoveVerification)
}

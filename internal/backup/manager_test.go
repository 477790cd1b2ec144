package backup

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
)

type memStore struct {
	snaps map[string]models.BackupSnapshot
}

func newMemStore() *memStore {
	return &memStore{snaps: map[string]models.BackupSnapshot{}}
}

func (s *memStore) InsertSnapshot(snap models.BackupSnapshot) error {
	s.snaps[snap.ID] = snap
	return nil
}

func (s *memStore) GetSnapshot(id string) (*models.BackupSnapshot, error) {
	snap, ok := s.snaps[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &snap, nil
}

func TestCreateAndRestore(t *testing.T) {
	work := t.TempDir()
	original := filepath.Join(work, "a.md")
	if err := os.WriteFile(original, []byte("content v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := newMemStore()
	m, err := NewManager(filepath.Join(work, "backups"), store)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	snap, err := m.CreateSnapshot(original)
	if err != nil {
		t.Fatalf("CreateSnapshot: %v", err)
	}
	if snap.OriginalPath != original || snap.ContentHash == "" {
		t.Errorf("snapshot = %+v", snap)
	}
	if _, ok := store.snaps[snap.ID]; !ok {
		t.Error("snapshot not registered")
	}

	// Clobber the original, then restore.
	if err := os.WriteFile(original, []byte("corrupted"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := m.Restore(snap.ID); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	got, _ := os.ReadFile(original)
	if string(got) != "content v1" {
		t.Errorf("restored content = %q", got)
	}
}

func TestCreateSnapshot_MissingSourceIsBackupFailure(t *testing.T) {
	m, err := NewManager(t.TempDir(), newMemStore())
	if err != nil {
		t.Fatal(err)
	}
	_, err = m.CreateSnapshot(filepath.Join(t.TempDir(), "missing.md"))
	if !errors.Is(err, apperr.ErrBackupFailure) {
		t.Errorf("err = %v, want ErrBackupFailure", err)
	}
}

func TestSnapshotIDsAreUnique(t *testing.T) {
	work := t.TempDir()
	original := filepath.Join(work, "a.md")
	_ = os.WriteFile(original, []byte("same content"), 0o644)

	m, err := NewManager(filepath.Join(work, "backups"), newMemStore())
	if err != nil {
		t.Fatal(err)
	}
	ts := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	m.WithClock(func() time.Time {
		ts = ts.Add(time.Nanosecond)
		return ts
	})

	a, err := m.CreateSnapshot(original)
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.CreateSnapshot(original)
	if err != nil {
		t.Fatal(err)
	}
	if a.ID == b.ID {
		t.Errorf("ids collide: %s", a.ID)
	}
}

// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/raido/internal/models"

// Provider is the interface for vault file operations. All paths are
// relative to the vault root.
type Provider interface {
	// List returns metadata for every .md file under dir. Subdirectories
	// are only descended into when recursive is set; the flag is always
	// explicit, never implied.
	List(dir string, recursive bool) ([]models.NoteMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Move relocates oldPath to newPath, preferring a rename and falling
	// back to copy+remove across filesystems.
	Move(oldPath, newPath string) error
	// Remove deletes the file at path. Used only to clear partial
	// artifacts during rollback; notes are never removed otherwise.
	Remove(path string) error
	// Exists reports whether a file exists at path.
	Exists(path string) (bool, error)
	// DirExists reports whether dir exists and is a directory.
	DirExists(dir string) (bool, error)
	// EnsureDir creates dir (and parents) if missing.
	EnsureDir(dir string) error
	// Abs resolves path to an absolute path under the vault root.
	Abs(path string) (string, error)
}

package index

import "github.com/starford/raido/internal/models"

// Ledger defines the operations the rest of the system needs from the
// audit database. Consumers depend on this interface rather than the
// concrete *DB so tests can substitute fakes.
type Ledger interface {
	InsertSnapshot(s models.BackupSnapshot) error
	GetSnapshot(id string) (*models.BackupSnapshot, error)
	RecordPromotion(e PromotionEntry) error
	History(limit int) ([]PromotionEntry, error)
	Close() error
}

// Verify *DB satisfies Ledger at compile time.
var _ Ledger = (*DB)(nil)

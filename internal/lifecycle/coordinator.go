// Package lifecycle orchestrates note promotion: the status transition
// and the file relocation for a single note as one logical unit, plus
// the batch operations built on top of it.
//
// Batches are checkpointed per note: each note's promote-or-skip
// decision and file mutation complete fully before the next note is
// considered, so a cancelled or failed batch always leaves a valid,
// resumable vault. The coordinator keeps no state between calls; the
// filesystem is re-read before every mutating decision.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"time"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/backup"
	"github.com/starford/raido/internal/frontmatter"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/mover"
	"github.com/starford/raido/internal/quality"
	"github.com/starford/raido/internal/reconcile"
	"github.com/starford/raido/internal/routing"
	"github.com/starford/raido/internal/status"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/triage"
)

// Options configures a Coordinator. Store, Routes, Mover, Backups, and
// Scanner are required; the rest have working defaults.
type Options struct {
	Store      storage.Provider
	Routes     routing.Resolver
	Mover      *mover.Mover
	Backups    *backup.Manager
	Scanner    *triage.Generator
	Ledger     index.Ledger            // optional audit history
	Recursive  bool                    // descend into vault subdirectories when scanning
	MinQuality float64                 // default promotion threshold
	Clock      func() time.Time        // defaults to time.Now
	Events     func(kind, path string) // optional lifecycle event sink
}

// UseConfiguredThreshold selects the coordinator's configured quality
// threshold. It exists because zero is a real threshold (any scored
// note passes), so "unset" needs its own value.
const UseConfiguredThreshold float64 = -1

// Coordinator executes promotions and repairs.
type Coordinator struct {
	opts Options
}

// New creates a Coordinator.
func New(opts Options) *Coordinator {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.MinQuality <= 0 {
		opts.MinQuality = quality.DefaultMinQuality
	}
	return &Coordinator{opts: opts}
}

// PromotionResult describes the outcome of promoting one note.
type PromotionResult struct {
	Path        string           `json:"path"`
	NoOp        bool             `json:"no_op,omitempty"` // already promoted or published
	Skipped     bool             `json:"skipped,omitempty"`
	Decision    quality.Decision `json:"decision,omitempty"` // set when the gate skipped the note
	From        models.Status    `json:"from,omitempty"`
	To          models.Status    `json:"to,omitempty"`
	Destination string           `json:"destination,omitempty"`
	SnapshotID  string           `json:"snapshot_id,omitempty"`
	Plan        *mover.Plan      `json:"plan,omitempty"` // dry-run only
}

// ScanCandidates yields promotion candidates under dir using the
// configured recursion setting. Lazy and restartable; each element is
// independently evaluable.
func (c *Coordinator) ScanCandidates(dir string) (iter.Seq[models.Candidate], error) {
	return c.opts.Scanner.ScanReviewCandidates(dir, c.opts.Recursive)
}

// PromoteNote promotes a single note. Promotion is idempotent: a note
// already promoted or published returns a no-op success without a move,
// a backup, or a field write. In dry-run mode the filesystem is never
// touched and a MovePlan is returned instead. A negative minQuality
// selects the configured threshold; zero and up are used as given.
func (c *Coordinator) PromoteNote(path string, minQuality float64, dryRun bool) (*PromotionResult, error) {
	return c.promote(path, minQuality, dryRun, index.OutcomePromoted)
}

func (c *Coordinator) promote(path string, minQuality float64, dryRun bool, outcome string) (*PromotionResult, error) {
	if minQuality < 0 {
		minQuality = c.opts.MinQuality
	}

	// The filesystem is authoritative: always re-read before deciding.
	data, err := c.opts.Store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("lifecycle: %s: %w", path, apperr.ErrNotFound)
		}
		return nil, err
	}
	note, doc := frontmatter.ReadNote(path, data)

	if note.Status.Terminal() {
		return &PromotionResult{Path: path, NoOp: true, From: note.Status, To: note.Status}, nil
	}
	if !note.Type.Valid() {
		return nil, fmt.Errorf("lifecycle: %s: missing or unknown type %q: %w", path, note.Type, apperr.ErrPromotion)
	}

	destDir, err := c.opts.Routes.Resolve(note.Type)
	if err != nil {
		return nil, err
	}
	if _, err := status.PromotionPath(note.Status, note.Type); err != nil {
		return nil, err
	}

	if d := quality.Decide(note, minQuality); d != quality.Eligible {
		return &PromotionResult{Path: path, Skipped: true, Decision: d, From: note.Status}, nil
	}

	if dryRun {
		plan, err := c.opts.Mover.Plan(path, destDir)
		if err != nil {
			return nil, err
		}
		return &PromotionResult{
			Path: path,
			From: note.Status,
			To:   models.StatusPromoted,
			Plan: plan,
		}, nil
	}

	res, err := c.opts.Mover.Move(path, destDir)
	if err != nil {
		if errors.Is(err, apperr.ErrMoveVerification) {
			c.record(index.PromotionEntry{
				OccurredAt: c.opts.Clock(),
				Path:       path,
				From:       note.Status,
				To:         note.Status,
				Outcome:    index.OutcomeRolledBack,
				Detail:     err.Error(),
			})
		}
		return nil, err
	}

	// Stamp status and processed date only now that the move is verified;
	// the two writes form one logical unit, so a failed stamp undoes the
	// move as well.
	doc.Set(frontmatter.FieldStatus, models.StatusPromoted)
	doc.Set(frontmatter.FieldProcessedDate, c.opts.Clock().UTC())
	if err := c.opts.Store.Write(res.Destination, doc.Bytes()); err != nil {
		_ = c.opts.Store.Remove(res.Destination)
		if rerr := c.opts.Backups.Restore(res.SnapshotID); rerr != nil {
			return nil, fmt.Errorf("lifecycle: stamp %s: %v; rollback also failed: %v: %w",
				path, err, rerr, apperr.ErrMoveVerification)
		}
		return nil, fmt.Errorf("lifecycle: stamp %s: %v: %w", path, err, apperr.ErrMoveVerification)
	}

	c.record(index.PromotionEntry{
		OccurredAt:  c.opts.Clock(),
		Path:        path,
		From:        note.Status,
		To:          models.StatusPromoted,
		Destination: res.Destination,
		Outcome:     outcome,
	})
	c.emit("note.promoted", path)

	return &PromotionResult{
		Path:        path,
		From:        note.Status,
		To:          models.StatusPromoted,
		Destination: res.Destination,
		SnapshotID:  res.SnapshotID,
	}, nil
}

// AutoPromoteReadyNotes scans the vault and promotes every eligible
// note. With preview set, each note gets a dry-run plan and nothing is
// mutated. Per-note failures are isolated in the report; configuration
// and backup failures abort the batch, and a context cancellation stops
// it between notes with completed promotions left committed.
func (c *Coordinator) AutoPromoteReadyNotes(ctx context.Context, minQuality float64, preview bool) (*models.BatchReport, error) {
	report := &models.BatchReport{Preview: preview}
	seq, err := c.ScanCandidates("")
	if err != nil {
		return nil, err
	}
	for cand := range seq {
		if ctx.Err() != nil {
			break
		}
		if err := c.applyOne(report, cand.Path, minQuality, preview); err != nil {
			return report, err
		}
	}
	return report, nil
}

// RepairOrphanedNotes finds notes whose processing flag and status
// disagree (ai_processed set, still in inbox) and routes them through
// the normal promotion path. With preview set, each orphan gets a
// dry-run plan and nothing is mutated. Idempotent: a second executed
// run finds nothing the first run repaired.
func (c *Coordinator) RepairOrphanedNotes(ctx context.Context, preview bool) (*models.BatchReport, error) {
	report := &models.BatchReport{Preview: preview}
	orphans, failures, err := reconcile.New(c.opts.Store, c.opts.Recursive).FindOrphans("")
	if err != nil {
		return nil, err
	}
	report.Errors = append(report.Errors, failures...)
	for _, orphan := range orphans {
		if ctx.Err() != nil {
			break
		}
		if err := c.repairOne(report, orphan.Path, preview); err != nil {
			return report, err
		}
	}
	return report, nil
}

func (c *Coordinator) repairOne(report *models.BatchReport, path string, preview bool) error {
	res, err := c.promote(path, c.opts.MinQuality, preview, index.OutcomeRepaired)
	if err != nil {
		return c.reportError(report, path, err)
	}
	c.reportResult(report, path, res)
	if !preview && !res.NoOp && !res.Skipped {
		c.emit("note.repaired", path)
	}
	return nil
}

func (c *Coordinator) applyOne(report *models.BatchReport, path string, minQuality float64, preview bool) error {
	res, err := c.PromoteNote(path, minQuality, preview)
	if err != nil {
		return c.reportError(report, path, err)
	}
	c.reportResult(report, path, res)
	return nil
}

// reportError files a per-note error into the report, or returns it
// when it is fatal to the whole batch.
func (c *Coordinator) reportError(report *models.BatchReport, path string, err error) error {
	if errors.Is(err, apperr.ErrConfiguration) || errors.Is(err, apperr.ErrBackupFailure) {
		return err
	}
	report.Errors = append(report.Errors, models.ErrorEntry{
		Path:    path,
		Kind:    errKind(err),
		Message: err.Error(),
	})
	return nil
}

func (c *Coordinator) reportResult(report *models.BatchReport, path string, res *PromotionResult) {
	switch {
	case res.NoOp:
		report.Skipped = append(report.Skipped, models.SkipEntry{Path: path, Reason: "already promoted"})
	case res.Skipped:
		report.Skipped = append(report.Skipped, models.SkipEntry{Path: path, Reason: string(res.Decision)})
	default:
		report.Processed = append(report.Processed, path)
	}
}

// record appends an audit entry. Audit failures never block a
// promotion; the move has already happened.
func (c *Coordinator) record(e index.PromotionEntry) {
	if c.opts.Ledger == nil {
		return
	}
	if err := c.opts.Ledger.RecordPromotion(e); err != nil {
		slog.Warn("lifecycle: audit record failed",
			slog.String("path", e.Path), slog.String("error", err.Error()))
	}
}

func (c *Coordinator) emit(kind, path string) {
	if c.opts.Events != nil {
		c.opts.Events(kind, path)
	}
}

func errKind(err error) string {
	switch {
	case errors.Is(err, apperr.ErrInvalidTransition):
		return "invalid-transition"
	case errors.Is(err, apperr.ErrPromotion):
		return "promotion"
	case errors.Is(err, apperr.ErrMoveVerification):
		return "move-verification"
	case errors.Is(err, apperr.ErrNotFound):
		return "not-found"
	default:
		return "io"
	}
}

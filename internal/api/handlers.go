package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/lifecycle"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/reconcile"
	"github.com/starford/raido/internal/triage"
)

// Handler holds API route handlers.
type Handler struct {
	coord      *lifecycle.Coordinator
	gen        *triage.Generator
	reconciler *reconcile.Reconciler
	ledger     index.Ledger
	recursive  bool
}

// NewHandler creates a new Handler.
func NewHandler(coord *lifecycle.Coordinator, gen *triage.Generator, reconciler *reconcile.Reconciler, ledger index.Ledger, recursive bool) *Handler {
	return &Handler{coord: coord, gen: gen, reconciler: reconciler, ledger: ledger, recursive: recursive}
}

// Triage handles GET /api/triage. The candidate list is computed fresh
// from disk on every call; nothing is cached and nothing is mutated.
func (h *Handler) Triage(w http.ResponseWriter, r *http.Request) {
	dir := r.URL.Query().Get("dir")
	seq, err := h.gen.ScanReviewCandidates(dir, h.recursive)
	if err != nil {
		slog.Error("triage scan failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	candidates := []models.Candidate{}
	for c := range seq {
		candidates = append(candidates, c)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"candidates": candidates,
		"total":      len(candidates),
	})
}

// Recommendations handles GET /api/recommendations.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := h.gen.GenerateWeeklyRecommendations(r.URL.Query().Get("dir"), h.recursive)
	if err != nil {
		slog.Error("recommendations failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if recs == nil {
		recs = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"recommendations": recs})
}

// Promote handles POST /api/promote. With a path it promotes one note;
// without it runs the batch over every eligible candidate. Execute
// defaults to false, so the default request is a harmless preview.
func (h *Handler) Promote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req struct {
		Path       string   `json:"path"`
		MinQuality *float64 `json:"min_quality"`
		Execute    bool     `json:"execute"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	// An omitted threshold means "use the configured one"; zero is a
	// real threshold and passes through as given.
	minQuality := lifecycle.UseConfiguredThreshold
	if req.MinQuality != nil {
		minQuality = *req.MinQuality
	}

	if req.Path != "" {
		res, err := h.coord.PromoteNote(req.Path, minQuality, !req.Execute)
		if err != nil {
			h.writeLifecycleError(w, req.Path, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
		return
	}

	report, err := h.coord.AutoPromoteReadyNotes(r.Context(), minQuality, !req.Execute)
	if err != nil {
		h.writeLifecycleError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Orphans handles GET /api/orphans: a read-only listing of notes whose
// processing flag and status disagree.
func (h *Handler) Orphans(w http.ResponseWriter, r *http.Request) {
	orphans, failures, err := h.reconciler.FindOrphans(r.URL.Query().Get("dir"))
	if err != nil {
		slog.Error("orphan scan failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if orphans == nil {
		orphans = []*models.Note{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"orphans":  orphans,
		"failures": failures,
	})
}

// Repair handles POST /api/repair, routing every orphan through the
// normal promotion path. The body is optional; execute defaults to
// false, so a bare POST is a harmless preview.
func (h *Handler) Repair(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req struct {
		Execute bool `json:"execute"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	report, err := h.coord.RepairOrphanedNotes(r.Context(), !req.Execute)
	if err != nil {
		h.writeLifecycleError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// History handles GET /api/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.ledger.History(limit)
	if err != nil {
		slog.Error("history failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if entries == nil {
		entries = []index.PromotionEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}

func (h *Handler) writeLifecycleError(w http.ResponseWriter, path string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrConfiguration):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrInvalidTransition), errors.Is(err, apperr.ErrPromotion):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	default:
		slog.Error("promotion failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

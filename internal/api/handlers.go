package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/voxsplit/voxsplit/internal/storage/sqlite"
	"github.com/voxsplit/voxsplit/internal/transcription"
	"github.com/voxsplit/voxsplit/pkg/logger"
)

// TranscribeFunc runs one complete transcription of sourcePath, persisting
// output to destPath. Each invocation is an independent run; the handler
// invokes it concurrently for independent jobs.
type TranscribeFunc func(ctx context.Context, sourcePath, destPath string) (transcription.CombinedTranscript, error)

// RunStore persists transcription runs
type RunStore interface {
	CreateRun(record *sqlite.RunRecord) error
	UpdateRunStatus(id, status, errMsg string) error
	StoreResult(id string, transcript transcription.CombinedTranscript) error
	GetRun(id string) (*sqlite.RunRecord, error)
	GetRunSegments(id string) ([]*sqlite.SegmentRecord, error)
	ListRuns(limit int) ([]*sqlite.RunRecord, error)
}

var _ RunStore = (*sqlite.RunStorage)(nil)

// Handler handles API requests
type Handler struct {
	storage    RunStore
	transcribe TranscribeFunc
	logger     *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(storage RunStore, transcribe TranscribeFunc, logger *logger.Logger) *Handler {
	return &Handler{
		storage:    storage,
		transcribe: transcribe,
		logger:     logger.Named("api-handler"),
	}
}

// submitRequest is the body of POST /transcriptions
type submitRequest struct {
	SourcePath string `json:"source_path"`
	DestPath   string `json:"dest_path,omitempty"`
}

// SubmitTranscription accepts a new transcription job and runs it in the
// background. Responds 202 with the pending run record.
func (h *Handler) SubmitTranscription(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SourcePath == "" {
		respondError(w, http.StatusBadRequest, "source_path is required")
		return
	}
	if _, err := os.Stat(req.SourcePath); err != nil {
		respondError(w, http.StatusBadRequest, "source file is not readable")
		return
	}
	if req.DestPath == "" {
		req.DestPath = strings.TrimSuffix(req.SourcePath, filepath.Ext(req.SourcePath)) + ".txt"
	}

	record := &sqlite.RunRecord{
		ID:         uuid.NewString(),
		SourcePath: req.SourcePath,
		DestPath:   req.DestPath,
		Status:     sqlite.RunStatusPending,
	}
	if err := h.storage.CreateRun(record); err != nil {
		h.logger.Error("Failed to create run", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create run")
		return
	}

	go h.runJob(record)

	respondJSON(w, http.StatusAccepted, record)
}

// runJob executes one transcription run in the background. Runs share no
// mutable state, so any number may execute concurrently.
func (h *Handler) runJob(record *sqlite.RunRecord) {
	ctx := context.Background()
	jobLogger := h.logger.With(logger.String("run_id", record.ID))

	if err := h.storage.UpdateRunStatus(record.ID, sqlite.RunStatusRunning, ""); err != nil {
		jobLogger.Error("Failed to mark run as running", logger.Error(err))
	}

	transcript, err := h.transcribe(ctx, record.SourcePath, record.DestPath)
	if err != nil {
		jobLogger.Error("Transcription run failed", logger.Error(err))
		if dbErr := h.storage.UpdateRunStatus(record.ID, sqlite.RunStatusFailed, err.Error()); dbErr != nil {
			jobLogger.Error("Failed to record run failure", logger.Error(dbErr))
		}
		return
	}

	if err := h.storage.StoreResult(record.ID, transcript); err != nil {
		jobLogger.Error("Failed to store run result", logger.Error(err))
		// leave the run in a terminal state so pollers are not stuck on "running"
		if dbErr := h.storage.UpdateRunStatus(record.ID, sqlite.RunStatusFailed, "failed to store result: "+err.Error()); dbErr != nil {
			jobLogger.Error("Failed to record run failure", logger.Error(dbErr))
		}
		return
	}
	jobLogger.Info("Transcription run completed",
		logger.Int("segments", len(transcript.Results)),
	)
}

// GetRun returns one run with its per-segment results
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := h.storage.GetRun(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "run not found")
			return
		}
		h.logger.Error("Failed to get run", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to get run")
		return
	}

	segments, err := h.storage.GetRunSegments(id)
	if err != nil {
		h.logger.Error("Failed to get run segments", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to get run segments")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"run":      record,
		"segments": segments,
	})
}

// GetRunText returns a completed run's transcript as plain text
func (h *Handler) GetRunText(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := h.storage.GetRun(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "run not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get run")
		return
	}
	if record.Status != sqlite.RunStatusCompleted {
		respondError(w, http.StatusConflict, "run is not completed")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(record.FullText))
}

// ListRuns returns recent runs, newest first
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	runs, err := h.storage.ListRuns(limit)
	if err != nil {
		h.logger.Error("Failed to list runs", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []*sqlite.RunRecord{}
	}
	respondJSON(w, http.StatusOK, runs)
}

// GetHealth returns a basic health check
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondError writes a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

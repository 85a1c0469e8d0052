package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/MeKo-Tech/deepsight/internal/batch"
	"github.com/MeKo-Tech/deepsight/internal/version"
)

type batchStartRequest struct {
	FolderPath string `json:"folder_path"`
	Recursive  bool   `json:"recursive"`
}

type batchStartResponse struct {
	BatchID string `json:"batch_id"`
}

type processRequest struct {
	ImagePath string `json:"image_path"`
}

type healthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	Time         string `json:"time"`
	LLMConnected bool   `json:"llm_connected"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// handleBatchStart starts a batch over a folder.
// POST /batch {folder_path, recursive} -> 202 {batch_id}
func (s *Server) handleBatchStart(w http.ResponseWriter, r *http.Request) {
	var req batchStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FolderPath == "" {
		writeError(w, http.StatusBadRequest, "folder_path is required")
		return
	}

	batchID, err := s.coordinator.Start(r.Context(), req.FolderPath, req.Recursive)
	if err != nil {
		switch {
		case errors.Is(err, batch.ErrInvalidFolder), errors.Is(err, batch.ErrNoImages):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			slog.Error("batch start failed", "folder", req.FolderPath, "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	batchesStarted.Inc()
	writeJSON(w, http.StatusAccepted, batchStartResponse{BatchID: batchID})
}

// handleBatchStatus returns one batch record.
// GET /batch/{id} -> 200 Record | 404
func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	batchID := r.PathValue("id")
	rec, ok := s.coordinator.Status(batchID)
	if !ok {
		writeError(w, http.StatusNotFound, "batch not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleBatchList returns all tracked batches.
// GET /batches -> 200 map[batch_id]Record
func (s *Server) handleBatchList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.coordinator.AllStatuses())
}

// handleBatchDelete removes a finished batch record.
// DELETE /batch/{id} -> 204 | 404 | 409
func (s *Server) handleBatchDelete(w http.ResponseWriter, r *http.Request) {
	batchID := r.PathValue("id")
	err := s.coordinator.Delete(batchID)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, batch.ErrBatchNotFound):
		writeError(w, http.StatusNotFound, "batch not found")
	case errors.Is(err, batch.ErrBatchRunning):
		writeError(w, http.StatusConflict, "batch is still running")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// handleProcess runs the pipeline for one image inline.
// POST /process {image_path} -> 200 ImageResult
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ImagePath == "" {
		writeError(w, http.StatusBadRequest, "image_path is required")
		return
	}

	result, err := s.processor.Process(r.Context(), req.ImagePath, s.saveToStorage)
	if err != nil {
		// The record still carries whatever steps succeeded.
		slog.Warn("single image processing incomplete", "image", req.ImagePath, "error", err)
	}

	imagesProcessed.Inc()
	writeJSON(w, http.StatusOK, result)
}

// handleHealth reports service liveness and LLM reachability.
// GET /health -> 200
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	connected := false
	if s.llm != nil {
		connected = s.llm.CheckConnection(r.Context())
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:       "ok",
		Version:      version.Version,
		Time:         time.Now().UTC().Format(time.RFC3339),
		LLMConnected: connected,
	})
}

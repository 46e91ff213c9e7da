package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"faceoverlay/internal/dto"
	"faceoverlay/internal/logger"
	"faceoverlay/internal/models"
)

// OverlayService is the part of the services.Manager the API needs.
type OverlayService interface {
	Status() dto.StatusResponse
	Summary() dto.SummaryPayload
	Runs(limit int) ([]models.Run, error)
	AttachStream() error
	DetachStream()
}

// SummaryHandler returns the current summary and its panel.
func SummaryHandler(service OverlayService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, service.Summary(), logger)
	}
}

// StatusHandler returns readiness, stream state and loop counters.
func StatusHandler(service OverlayService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, service.Status(), logger)
	}
}

func AttachStreamHandler(service OverlayService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := service.AttachStream(); err != nil {
			logger.Warning("Stream attach failed: %v", err)
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, service.Status(), logger)
	}
}

func DetachStreamHandler(service OverlayService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		service.DetachStream()
		writeJSON(w, http.StatusOK, service.Status(), logger)
	}
}

// RunsHandler lists recent detection loop runs.
func RunsHandler(service OverlayService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		limit := atoiDefault(r.URL.Query().Get("limit"), 20)
		runs, err := service.Runs(limit)
		if err != nil {
			logger.Error("Failed to list runs: %v", err)
			http.Error(w, "Unable to list runs", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, runs, logger)
	}
}

// atoiDefault parses a positive integer, falling back to def.
func atoiDefault(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v interface{}, logger *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/forPelevin/clipfeed/internal/pipeline"
)

type processVideoRequest struct {
	VideoURL      string `json:"videoUrl"`
	UploadEnabled *bool  `json:"uploadEnabled"`
	MaxClips      int    `json:"maxClips"`
	Watermark     string `json:"watermark"`
}

type processVideoResponse struct {
	Success bool   `json:"success"`
	RunID   string `json:"runId,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RouterOptions carries the request defaults and limits.
type RouterOptions struct {
	DefaultUpload bool
	// WatermarkDir is the only directory a request's watermark may name a
	// file in. Empty rejects per-request watermarks.
	WatermarkDir  string
}

type handler struct {
	runner *Runner
	opts   RouterOptions
	logger zerolog.Logger
}

// NewRouter exposes the health check, run submission and run lookup.
func NewRouter(runner *Runner, opts RouterOptions, logger zerolog.Logger) http.Handler {
	h := &handler{runner: runner, opts: opts, logger: logger.With().Str("component", "http").Logger()}

	r := mux.NewRouter()
	r.Use(h.logRequests)
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	})
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/api/process-video", h.processVideo).Methods(http.MethodPost)
	r.HandleFunc("/api/runs/{id}", h.getRun).Methods(http.MethodGet)
	return r
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handler) processVideo(w http.ResponseWriter, r *http.Request) {
	var req processVideoRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, processVideoResponse{Error: "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.VideoURL) == "" {
		writeJSON(w, http.StatusBadRequest, processVideoResponse{Error: "videoUrl is required"})
		return
	}
	if req.MaxClips < 0 {
		writeJSON(w, http.StatusBadRequest, processVideoResponse{Error: "maxClips must not be negative"})
		return
	}
	upload := h.opts.DefaultUpload
	if req.UploadEnabled != nil {
		upload = *req.UploadEnabled
	}
	watermark, err := h.watermarkPath(req.Watermark)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, processVideoResponse{Error: err.Error()})
		return
	}

	id, err := h.runner.Submit(r.Context(), pipeline.Request{
		VideoURLOrID:  req.VideoURL,
		Upload:        upload,
		MaxClips:      req.MaxClips,
		WatermarkPath: watermark,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrShuttingDown) {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, processVideoResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, processVideoResponse{
		Success: true,
		RunID:   id,
		Message: "Video processing started",
	})
}

// watermarkPath resolves a requested watermark file name inside the
// configured watermark directory.
func (h *handler) watermarkPath(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil
	}
	if h.opts.WatermarkDir == "" {
		return "", errors.New("watermark is not accepted by this server")
	}
	if !filepath.IsLocal(name) {
		return "", errors.New("watermark must be a file name inside the watermark directory")
	}
	return filepath.Join(h.opts.WatermarkDir, name), nil
}

func (h *handler) getRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	st, ok := h.runner.Status(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}
	status := http.StatusOK
	if st.State == StateQueued || st.State == StateRunning {
		status = http.StatusAccepted
	}
	writeJSON(w, status, st)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

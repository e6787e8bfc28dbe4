package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/forPelevin/clipcut/internal/pipeline"
	"github.com/forPelevin/clipcut/internal/types"
	"github.com/forPelevin/clipcut/internal/usecase"
	"github.com/forPelevin/clipcut/internal/watch"
)

const maxMemory = 32 << 20

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	h := &batchHandler{cfg: cfg}
	r.Post("/v1/batches", h.create)

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		})
	}
}

// batchHandler admits a single batch at a time.
type batchHandler struct {
	cfg ServerConfig
	mu  sync.Mutex
}

func (h *batchHandler) create(w http.ResponseWriter, r *http.Request) {
	if !h.mu.TryLock() {
		WriteError(w, http.StatusConflict, "a batch is already running", "BATCH_RUNNING")
		return
	}
	defer h.mu.Unlock()

	req, err := parseForm(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}

	file, hdr, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "multipart field \"file\" is required", "INVALID_REQUEST")
		return
	}
	defer file.Close()
	if !watch.IsMedia(hdr.Filename) {
		WriteError(w, http.StatusUnsupportedMediaType, fmt.Sprintf("unsupported media type %q", filepath.Ext(hdr.Filename)), "UNSUPPORTED_MEDIA")
		return
	}

	path, err := h.store(file, hdr.Filename)
	if err != nil {
		h.cfg.Logger.Error().Err(err).Msg("store upload")
		WriteError(w, http.StatusInternalServerError, "could not store upload", "INTERNAL_ERROR")
		return
	}
	defer os.Remove(path)

	req.InputPath = path
	out, err := h.cfg.Runner.Run(r.Context(), req)
	switch {
	case err == nil:
		WriteJSON(w, http.StatusOK, out.Result)
	case out.Result.State == types.StateError:
		status := http.StatusInternalServerError
		var se *usecase.ServiceError
		if errors.As(err, &se) {
			status = http.StatusBadGateway
		}
		WriteJSON(w, status, out.Result)
	case errors.Is(err, pipeline.ErrInvalidRequest):
		WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
	default:
		h.cfg.Logger.Error().Err(err).Msg("run batch")
		WriteError(w, http.StatusInternalServerError, "could not run batch", "INTERNAL_ERROR")
	}
}

func parseForm(r *http.Request) (pipeline.Request, error) {
	var req pipeline.Request
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return req, fmt.Errorf("parse multipart form: %w", err)
	}
	if v := strings.TrimSpace(r.FormValue("clips")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("clips: %q is not a number", v)
		}
		req.ClipsN = n
	}
	if v := strings.TrimSpace(r.FormValue("duration")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("duration: %q is not a number", v)
		}
		req.ClipDuration = time.Duration(n) * time.Second
	}
	if v := strings.TrimSpace(r.FormValue("variant")); v != "" {
		req.Variant = types.Variant(v)
		if !req.Variant.Valid() {
			return req, fmt.Errorf("variant: unknown value %q", v)
		}
	}
	req.BurnCaptions, _ = strconv.ParseBool(r.FormValue("burn_captions"))
	return req, nil
}

func (h *batchHandler) store(src io.Reader, name string) (string, error) {
	dir := h.cfg.UploadDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "upload-"+uuid.NewString()+strings.ToLower(filepath.Ext(name)))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

package web

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/bulkload/internal/bulk"
	"github.com/JonMunkholm/bulkload/internal/jobs"
	"github.com/JonMunkholm/bulkload/internal/logging"
	"github.com/JonMunkholm/bulkload/internal/service"
	"github.com/JonMunkholm/bulkload/internal/targets"
	"github.com/JonMunkholm/bulkload/internal/upload"
)

var errQueueDisabled = errors.New("background jobs are disabled")

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"uploads": s.service.Limiter().Status(),
	})
}

func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Targets())
}

// handleUploadStatus returns the state of the upload limiter.
func (s *Server) handleUploadStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Limiter().Status())
}

// uploadForm is a received upload plus its form options.
type uploadForm struct {
	target  string
	layout  string
	profile string
	helper  *upload.Helper
}

// receive checks the target, stores the multipart "file" field in the
// incoming directory and reads the optional "layout" and "profile" fields.
// It writes the error response itself and returns false on failure.
func (s *Server) receive(w http.ResponseWriter, r *http.Request) (uploadForm, bool) {
	key := chi.URLParam(r, "target")
	if _, ok := targets.Get(key); !ok {
		s.respondError(w, r, fmt.Errorf("%w: %s", service.ErrUnknownTarget, key), http.StatusNotFound)
		return uploadForm{}, false
	}

	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		s.respondError(w, r, fmt.Errorf("file too large or invalid form: %w", err), http.StatusBadRequest)
		return uploadForm{}, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errors.New("no file provided"), http.StatusBadRequest)
		return uploadForm{}, false
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !slices.Contains(s.cfg.Upload.AllowedExtensions, ext) {
		s.respondError(w, r, fmt.Errorf("unsupported file type %q", ext), http.StatusUnsupportedMediaType)
		return uploadForm{}, false
	}

	h, err := s.service.Receive(file, header.Filename)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return uploadForm{}, false
	}

	return uploadForm{
		target:  key,
		layout:  r.FormValue("layout"),
		profile: r.FormValue("profile"),
		helper:  h,
	}, true
}

// handleUpload validates and imports an upload before responding. Rejected
// uploads answer 422 with the report listing every failed line.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	form, ok := s.receive(w, r)
	if !ok {
		return
	}

	report, err := s.service.Import(r.Context(), form.helper, service.Request{
		Target:   form.target,
		FileName: form.helper.Name(),
		Layout:   form.layout,
		Profile:  form.profile,
	})
	if report != nil {
		s.opts.Metrics.ObserveUpload(form.target, string(report.Status), report.Duration)
	}

	switch {
	case err == nil:
		s.respondReport(w, r, http.StatusOK, report)
	case errors.Is(err, bulk.ErrInvalidRecords), errors.Is(err, bulk.ErrEmptyInput):
		s.respondReport(w, r, http.StatusUnprocessableEntity, report)
	case errors.Is(err, service.ErrTooManyUploads):
		_ = form.helper.Remove()
		w.Header().Set("Retry-After", "30")
		s.respondError(w, r, err, http.StatusServiceUnavailable)
	case service.IsLayoutError(err):
		_ = form.helper.Remove()
		s.respondError(w, r, err, http.StatusBadRequest)
	default:
		_ = form.helper.Remove()
		s.respondError(w, r, err, http.StatusInternalServerError)
	}
}

// handleUploadAsync stores an upload and queues it for the worker.
func (s *Server) handleUploadAsync(w http.ResponseWriter, r *http.Request) {
	if s.opts.Queue == nil {
		s.respondError(w, r, errQueueDisabled, http.StatusServiceUnavailable)
		return
	}

	form, ok := s.receive(w, r)
	if !ok {
		return
	}

	uploadID := uuid.NewString()
	taskID, err := s.opts.Queue.EnqueueImport(r.Context(), jobs.ImportPayload{
		UploadID: uploadID,
		Path:     form.helper.Path(),
		FileName: form.helper.Name(),
		Target:   form.target,
		Layout:   form.layout,
		Profile:  form.profile,
	})
	if err != nil {
		_ = form.helper.Remove()
		s.respondError(w, r, err, http.StatusServiceUnavailable)
		return
	}

	logging.WithFields(logging.WithUploadID(r.Context(), uploadID),
		"target", form.target, "task_id", taskID).Info("upload queued")

	writeJSON(w, http.StatusAccepted, map[string]string{
		"upload_id": uploadID,
		"task_id":   taskID,
		"status":    "queued",
	})
}

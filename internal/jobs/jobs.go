// Package jobs queues stored uploads for background import with asynq and
// processes them in the worker.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/JonMunkholm/bulkload/internal/bulk"
	"github.com/JonMunkholm/bulkload/internal/logging"
	"github.com/JonMunkholm/bulkload/internal/service"
	"github.com/JonMunkholm/bulkload/internal/upload"
)

// TypeImportUpload is the task type of a queued upload.
const TypeImportUpload = "upload:import"

// ImportPayload identifies a stored upload and how to process it.
type ImportPayload struct {
	UploadID string `json:"upload_id"`
	Path     string `json:"path"`
	FileName string `json:"file_name"`
	Target   string `json:"target"`
	Layout   string `json:"layout,omitempty"`
	Profile  string `json:"profile,omitempty"`
}

// NewImportTask builds the task for p. The upload ID doubles as task ID so
// an upload cannot be queued twice.
func NewImportTask(p ImportPayload, maxRetry int) (*asynq.Task, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(TypeImportUpload, data, asynq.MaxRetry(maxRetry), asynq.TaskID(p.UploadID)), nil
}

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Client queues uploads.
type Client struct {
	enq      Enqueuer
	maxRetry int
}

// NewClient wraps enq. Use asynq.NewClient(asynq.RedisClientOpt{...}) in
// production.
func NewClient(enq Enqueuer, maxRetry int) *Client {
	return &Client{enq: enq, maxRetry: maxRetry}
}

// EnqueueImport queues p and returns the task ID.
func (c *Client) EnqueueImport(ctx context.Context, p ImportPayload) (string, error) {
	task, err := NewImportTask(p, c.maxRetry)
	if err != nil {
		return "", err
	}
	info, err := c.enq.EnqueueContext(ctx, task)
	if err != nil {
		return "", fmt.Errorf("enqueue upload %s: %w", p.UploadID, err)
	}
	return info.ID, nil
}

// Processor runs stored uploads. Satisfied by *service.Service.
type Processor interface {
	Stored(path, fileName string) *upload.Helper
	Import(ctx context.Context, h *upload.Helper, req service.Request) (*service.Report, error)
}

// Handler processes TypeImportUpload tasks.
type Handler struct {
	proc Processor
}

// NewHandler creates a Handler.
func NewHandler(proc Processor) *Handler {
	return &Handler{proc: proc}
}

// Register adds the task handlers to mux.
func Register(mux *asynq.ServeMux, h *Handler) {
	mux.Handle(TypeImportUpload, h)
}

// ProcessTask implements asynq.Handler. Uploads rejected for their content
// or their layout are not retried.
func (h *Handler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p ImportPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	ctx = logging.WithUploadID(ctx, p.UploadID)
	log := logging.WithFields(ctx, "target", p.Target, "file", p.FileName)

	report, err := h.proc.Import(ctx, h.proc.Stored(p.Path, p.FileName), service.Request{
		Target:   p.Target,
		FileName: p.FileName,
		Layout:   p.Layout,
		Profile:  p.Profile,
		UploadID: p.UploadID,
	})
	if report != nil {
		if w := t.ResultWriter(); w != nil {
			if data, merr := json.Marshal(report); merr == nil {
				_, _ = w.Write(data)
			}
		}
	}

	switch {
	case err == nil:
		log.Info("queued upload imported", "rows", report.Imported)
		return nil
	case errors.Is(err, bulk.ErrInvalidRecords), errors.Is(err, bulk.ErrEmptyInput),
		errors.Is(err, service.ErrUnknownTarget), service.IsLayoutError(err):
		log.Warn("queued upload rejected", "error", err)
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	default:
		log.Error("queued upload failed", "error", err)
		return err
	}
}

// Package service runs uploads end to end: it takes an upload slot, validates
// the stored file against a registered target, imports the valid objects in
// one transaction and files the upload away as archived or rejected.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/bulkload/internal/bulk"
	"github.com/JonMunkholm/bulkload/internal/config"
	"github.com/JonMunkholm/bulkload/internal/logging"
	"github.com/JonMunkholm/bulkload/internal/message"
	"github.com/JonMunkholm/bulkload/internal/record"
	"github.com/JonMunkholm/bulkload/internal/targets"
	"github.com/JonMunkholm/bulkload/internal/upload"
)

// ErrUnknownTarget is returned for a target key that is not registered.
var ErrUnknownTarget = errors.New("unknown target")

// IsLayoutError reports whether err means the requested layout could not be
// used: the name was unsafe, the file is missing or it does not parse.
func IsLayoutError(err error) bool {
	return errors.Is(err, record.ErrInvalidLayout) ||
		errors.Is(err, upload.ErrUnsafeName) ||
		errors.Is(err, fs.ErrNotExist)
}

// Directory names used with upload.Dirs.
const (
	DirIncoming = "incoming"
	DirArchive  = "archive"
	DirRejected = "rejected"
)

// Status is the outcome of an upload.
type Status string

const (
	StatusImported Status = "imported"
	StatusInvalid  Status = "invalid"
	StatusEmpty    Status = "empty"
	StatusFailed   Status = "failed"
)

// LineErrors are the messages reported for one record.
type LineErrors struct {
	Line     int               `json:"line"`
	Messages []message.Message `json:"messages"`
}

// Report summarizes one upload.
type Report struct {
	UploadID string        `json:"upload_id"`
	Target   string        `json:"target"`
	FileName string        `json:"file_name"`
	Status   Status        `json:"status"`
	Valid    int           `json:"valid"`
	Imported int           `json:"imported"`
	Errors   []LineErrors  `json:"errors,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Request selects how a stored upload is processed.
type Request struct {
	Target   string
	FileName string // client file name
	Layout   string // optional layout file name, overrides the target layout
	Profile  string // optional validation profile
	UploadID string // generated when empty
}

// Service processes uploads.
type Service struct {
	importer  Importer
	limiter   *UploadLimiter
	dirs      upload.Dirs
	layoutDir string
	ids       bulk.MessageIDs
	catalog   message.Catalog
	observer  bulk.Observer
	batchSize int
	timeout   time.Duration
}

// New creates a Service from the upload and message settings. obs receives
// pipeline events for every upload, in addition to the per-upload log.
func New(cfg *config.Config, importer Importer, catalog message.Catalog, obs bulk.Observer) *Service {
	if obs == nil {
		obs = bulk.NopObserver{}
	}
	dirs := upload.Dirs{DirIncoming: cfg.Upload.Dir}
	if cfg.Upload.ArchiveDir != "" {
		dirs[DirArchive] = cfg.Upload.ArchiveDir
	}
	if cfg.Upload.RejectDir != "" {
		dirs[DirRejected] = cfg.Upload.RejectDir
	}

	return &Service{
		importer:  importer,
		limiter:   NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		dirs:      dirs,
		layoutDir: cfg.Upload.LayoutDir,
		ids: bulk.MessageIDs{
			OnFormatError:     cfg.Messages.OnFormatError,
			OnValidationError: cfg.Messages.OnValidationError,
			OnEmptyInput:      cfg.Messages.OnEmptyInput,
		},
		catalog:   catalog,
		observer:  obs,
		batchSize: cfg.Upload.BatchSize,
		timeout:   cfg.Upload.Timeout,
	}
}

// Targets returns every registered target.
func (s *Service) Targets() []targets.Info {
	defs := targets.All()
	infos := make([]targets.Info, len(defs))
	for i, d := range defs {
		infos[i] = d.Info
	}
	return infos
}

// Limiter exposes the upload limiter for status reporting.
func (s *Service) Limiter() *UploadLimiter {
	return s.limiter
}

// WaitForUploads blocks until running uploads finish or ctx is done.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// Receive stores r in the incoming directory.
func (s *Service) Receive(r io.Reader, fileName string) (*upload.Helper, error) {
	return upload.Receive(r, s.dirs[DirIncoming], fileName, s.dirs, s.layoutDir)
}

// Stored wraps a file already in the incoming directory, as queued jobs do.
func (s *Service) Stored(path, fileName string) *upload.Helper {
	return upload.NewHelper(path, fileName, s.dirs, s.layoutDir)
}

// Import validates the upload in h and imports it when every record is
// valid. The report is returned for every outcome past target lookup; the
// error wraps bulk.ErrInvalidRecords or bulk.ErrEmptyInput when the upload
// itself is at fault.
func (s *Service) Import(ctx context.Context, h *upload.Helper, req Request) (report *Report, err error) {
	def, ok := targets.Get(req.Target)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, req.Target)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	if req.UploadID == "" {
		req.UploadID = uuid.NewString()
	}
	if req.FileName == "" {
		req.FileName = h.Name()
	}
	report = &Report{UploadID: req.UploadID, Target: req.Target, FileName: req.FileName}

	ctx = logging.WithUploadID(ctx, req.UploadID)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	log := logging.WithFields(ctx, "target", req.Target, "file", req.FileName)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic in upload", "panic", r)
			report.Status = StatusFailed
			err = fmt.Errorf("internal error: %v", r)
		}
		report.Duration = time.Since(start)
	}()

	log.Info("upload started", "profile", req.Profile, "layout", req.Layout)

	var v *upload.Validator
	if req.Layout != "" {
		if v, err = h.ApplyFormat(req.Layout); err != nil {
			report.Status = StatusFailed
			s.file(ctx, h, DirRejected, req)
			return report, fmt.Errorf("layout %q: %w", req.Layout, err)
		}
	} else {
		v = h.WithLayout(def.Layout)
	}

	res, err := v.ValidateTarget(def, targets.RunOptions{
		Profile:  req.Profile,
		IDs:      s.ids,
		Catalog:  s.catalog,
		Observer: bulk.Observers{bulk.NewLogObserver(log), s.observer},
	})
	if err != nil {
		var empty *bulk.EmptyInputError
		if errors.As(err, &empty) {
			report.Status = StatusEmpty
			report.Errors = []LineErrors{{Messages: []message.Message{empty.Message}}}
			s.file(ctx, h, DirRejected, req)
			return report, err
		}
		report.Status = StatusFailed
		return report, err
	}

	report.Valid = res.ValidCount()
	if res.HasError() {
		report.Status = StatusInvalid
		report.Errors = lineErrors(res.ErrorMessages())
		s.file(ctx, h, DirRejected, req)
		return report, fmt.Errorf("%w: %d of them in %s", bulk.ErrInvalidRecords, len(report.Errors), req.FileName)
	}

	n, err := s.importer.Import(ctx, res,
		bulk.WithBatchSize(s.batchSize),
		bulk.WithImportObserver(req.FileName, bulk.Observers{bulk.NewLogObserver(log), s.observer}),
	)
	if err != nil {
		report.Status = StatusFailed
		return report, fmt.Errorf("import %s: %w", req.FileName, err)
	}

	report.Imported = n
	report.Status = StatusImported
	s.file(ctx, h, DirArchive, req)
	return report, nil
}

// file moves the upload into dirName, or deletes it when that directory is
// not configured.
func (s *Service) file(ctx context.Context, h *upload.Helper, dirName string, req Request) {
	log := logging.FromContext(ctx)
	if _, err := s.dirs.Resolve(dirName); err != nil {
		if err := h.Remove(); err != nil {
			log.Warn("remove upload", "error", err)
		}
		return
	}
	name := req.UploadID + "-" + filepath.Base(req.FileName)
	if err := h.MoveTo(dirName, name); err != nil {
		log.Warn("keep upload", "dir", dirName, "error", err)
	}
}

func lineErrors(em *bulk.ErrorMessages) []LineErrors {
	lines := em.Lines()
	out := make([]LineErrors, len(lines))
	for i, line := range lines {
		out[i] = LineErrors{Line: line, Messages: em.Get(line)}
	}
	return out
}

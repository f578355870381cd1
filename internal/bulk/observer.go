package bulk

import (
	"log/slog"

	"github.com/JonMunkholm/bulkload/internal/message"
)

// EventKind identifies a pipeline event.
type EventKind string

const (
	EventRecordValid    EventKind = "record_valid"
	EventRecordInvalid  EventKind = "record_invalid"
	EventFormatError    EventKind = "format_error"
	EventRunFinished    EventKind = "run_finished"
	EventProgress       EventKind = "progress"
	EventCloseFailed    EventKind = "close_failed"
	EventBatchFlushed   EventKind = "batch_flushed"
	EventImportFinished EventKind = "import_finished"
)

// Event is emitted by ValidateAll and ImportAll. Only the fields relevant to
// Kind are set.
type Event struct {
	Kind         EventKind
	Identifier   string
	RecordNumber int
	Messages     []message.Message
	Valid        int // run_finished: valid records; import_finished: rows imported
	Invalid      int // run_finished: lines with errors
	Batch        int // batch_flushed: 1-based batch ordinal
	Size         int // batch_flushed: rows in the batch
	Percent      int // progress: share of the input consumed, 0-100
	Err          error
}

// Observer receives pipeline events. Implementations must not block.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) Observe(Event) {}

// Observers fans events out to several observers in order.
type Observers []Observer

func (os Observers) Observe(e Event) {
	for _, o := range os {
		o.Observe(e)
	}
}

// LogObserver writes events to a slog.Logger. Per-record events are logged
// at debug level.
type LogObserver struct {
	Logger *slog.Logger
}

// NewLogObserver returns a LogObserver; a nil logger uses slog.Default.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{Logger: logger}
}

func (o *LogObserver) Observe(e Event) {
	l := o.Logger
	switch e.Kind {
	case EventRecordValid:
		l.Debug("record validated", "upload", e.Identifier, "record", e.RecordNumber)
	case EventRecordInvalid:
		l.Debug("record invalid",
			"upload", e.Identifier,
			"record", e.RecordNumber,
			"messages", message.Texts(e.Messages),
		)
	case EventFormatError:
		l.Debug("record format error", "upload", e.Identifier, "record", e.RecordNumber, "error", e.Err)
	case EventRunFinished:
		if e.Err != nil {
			l.Warn("validation aborted", "upload", e.Identifier, "error", e.Err)
			return
		}
		l.Info("validation finished", "upload", e.Identifier, "valid", e.Valid, "invalid_lines", e.Invalid)
	case EventProgress:
		l.Info("validation progress", "upload", e.Identifier, "percent", e.Percent, "record", e.RecordNumber)
	case EventCloseFailed:
		l.Warn("close source", "upload", e.Identifier, "error", e.Err)
	case EventBatchFlushed:
		l.Debug("batch flushed", "upload", e.Identifier, "batch", e.Batch, "rows", e.Size)
	case EventImportFinished:
		if e.Err != nil {
			l.Error("import failed", "upload", e.Identifier, "rows", e.Valid, "error", e.Err)
			return
		}
		l.Info("import finished", "upload", e.Identifier, "rows", e.Valid)
	}
}

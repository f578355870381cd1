// Package bulk validates uploaded records one by one and imports the valid
// ones in fixed-size batches.
//
// ValidateAll never stops at a bad record: format and validation failures are
// collected per record number in the Result, and only a failing source aborts
// the run. ImportAll refuses a Result that has errors, so an upload is either
// imported completely (within the caller's transaction) or not at all.
package bulk

import (
	"errors"
	"io"

	"github.com/JonMunkholm/bulkload/internal/record"
)

// progressStep is the percentage between two progress events.
const progressStep = 10

type options struct {
	observer Observer
}

// Option configures ValidateAll.
type Option func(*options)

// WithObserver sends pipeline events to o.
func WithObserver(o Observer) Option {
	return func(opts *options) {
		if o != nil {
			opts.observer = o
		}
	}
}

// ValidateAll reads every record from src, validates it with s and returns
// the collected result. src is closed before ValidateAll returns, whatever the
// outcome; a close failure is reported as EventCloseFailed. Sources that
// implement record.ProgressReporter also produce an EventProgress every
// progressStep percent.
//
// identifier names the upload in messages and errors. When the upload yields
// neither objects nor errors, the error of s.HandleEmptyInput is returned; a
// read failure other than a *record.FormatError is returned as *SourceError.
func ValidateAll[T any](src record.Source, identifier string, s Strategy[T], opts ...Option) (*Result[T], error) {
	o := options{observer: NopObserver{}}
	for _, opt := range opts {
		opt(&o)
	}
	obs := o.observer

	defer func() {
		if err := src.Close(); err != nil {
			obs.Observe(Event{Kind: EventCloseFailed, Identifier: identifier, Err: err})
		}
	}()

	pr, _ := src.(record.ProgressReporter)
	nextStep := progressStep

	res := newResult[T]()
	last := 0
	for {
		if pr != nil {
			if p := pr.Progress(); p >= nextStep {
				obs.Observe(Event{Kind: EventProgress, Identifier: identifier, RecordNumber: last, Percent: p})
				nextStep = p - p%progressStep + progressStep
			}
		}

		rec, rerr := src.Next()
		if errors.Is(rerr, io.EOF) {
			break
		}

		var ferr *record.FormatError
		if errors.As(rerr, &ferr) {
			res.addErrors(ferr.RecordNumber, s.HandleInvalidFormat(ferr))
			last = ferr.RecordNumber
			obs.Observe(Event{Kind: EventFormatError, Identifier: identifier, RecordNumber: ferr.RecordNumber, Err: ferr})
			continue
		}
		if rerr != nil {
			serr := &SourceError{Identifier: identifier, RecordNumber: last, Err: rerr}
			obs.Observe(Event{Kind: EventRunFinished, Identifier: identifier, Err: serr})
			return nil, serr
		}

		last = rec.Number
		out := s.ValidateRecord(rec)
		if out.Valid() {
			res.addValid(out.Object)
			obs.Observe(Event{Kind: EventRecordValid, Identifier: identifier, RecordNumber: rec.Number})
			continue
		}
		msgs := s.HandleInvalidRecord(rec, out)
		if len(msgs) == 0 {
			msgs = out.Messages
		}
		res.addErrors(rec.Number, msgs...)
		obs.Observe(Event{Kind: EventRecordInvalid, Identifier: identifier, RecordNumber: rec.Number, Messages: msgs})
	}

	if res.IsEmpty() {
		if err := s.HandleEmptyInput(identifier); err != nil {
			obs.Observe(Event{Kind: EventRunFinished, Identifier: identifier, Err: err})
			return nil, err
		}
	}

	obs.Observe(Event{
		Kind:       EventRunFinished,
		Identifier: identifier,
		Valid:      res.ValidCount(),
		Invalid:    res.ErrorMessages().Len(),
	})
	return res, nil
}

package bulk

import (
	"context"
	"fmt"
)

// DefaultBatchSize is the number of rows sent to the store per flush.
const DefaultBatchSize = 100

// Statement is a prepared insert that accumulates rows until Exec.
type Statement interface {
	// Exec sends the accumulated rows and starts a new batch.
	Exec(ctx context.Context) error
}

// InsertionPolicy maps objects onto a store. ImportAll calls Prepare once
// with the first object, then AddBatch for every object in order.
type InsertionPolicy[T any] interface {
	Prepare(ctx context.Context, first T) (Statement, error)
	AddBatch(ctx context.Context, stmt Statement, obj T) error
}

type importOptions struct {
	batchSize  int
	observer   Observer
	identifier string
}

// ImportOption configures ImportAll.
type ImportOption func(*importOptions)

// WithBatchSize sets the flush size. Non-positive sizes keep the default.
func WithBatchSize(n int) ImportOption {
	return func(o *importOptions) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithImportObserver sends batch events for the upload named identifier to obs.
func WithImportObserver(identifier string, obs Observer) ImportOption {
	return func(o *importOptions) {
		o.identifier = identifier
		if obs != nil {
			o.observer = obs
		}
	}
}

// ImportAll writes the valid objects of res through p, flushing after every
// batch-size objects and once more for a partial last batch. It returns the
// number of objects handed to the store.
//
// A result with errors is rejected with *AggregateError before the store is
// touched. ImportAll does not manage transactions; run it inside one to make
// a failed flush roll back the earlier batches.
func ImportAll[T any](ctx context.Context, res *Result[T], p InsertionPolicy[T], opts ...ImportOption) (int, error) {
	o := importOptions{batchSize: DefaultBatchSize, observer: NopObserver{}}
	for _, opt := range opts {
		opt(&o)
	}

	objs, err := res.ValidObjects()
	if err != nil {
		return 0, err
	}
	if len(objs) == 0 {
		return 0, nil
	}

	count, err := importObjects(ctx, objs, p, o)
	o.observer.Observe(Event{Kind: EventImportFinished, Identifier: o.identifier, Valid: count, Err: err})
	return count, err
}

func importObjects[T any](ctx context.Context, objs []T, p InsertionPolicy[T], o importOptions) (int, error) {
	stmt, err := p.Prepare(ctx, objs[0])
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}

	batch, pending, flushed := 0, 0, 0
	flush := func() error {
		batch++
		if err := stmt.Exec(ctx); err != nil {
			return fmt.Errorf("flush batch %d: %w", batch, err)
		}
		flushed += pending
		o.observer.Observe(Event{Kind: EventBatchFlushed, Identifier: o.identifier, Batch: batch, Size: pending})
		pending = 0
		return nil
	}

	for i, obj := range objs {
		if err := ctx.Err(); err != nil {
			return flushed, err
		}
		if err := p.AddBatch(ctx, stmt, obj); err != nil {
			return flushed, fmt.Errorf("add row %d to batch %d: %w", i+1, batch+1, err)
		}
		pending++
		if (i+1)%o.batchSize == 0 {
			if err := flush(); err != nil {
				return flushed, err
			}
		}
	}
	if pending > 0 {
		if err := flush(); err != nil {
			return flushed, err
		}
	}
	return flushed, nil
}

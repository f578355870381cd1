package bulk

import "github.com/JonMunkholm/bulkload/internal/message"

// Result is the outcome of validating a whole upload: the converted objects
// of every valid record plus the messages of every invalid one.
//
// A Result is built by ValidateAll and must not be modified afterwards.
type Result[T any] struct {
	valid  []T
	errors *ErrorMessages
}

func newResult[T any]() *Result[T] {
	return &Result[T]{errors: newErrorMessages()}
}

func (r *Result[T]) addValid(obj T) {
	r.valid = append(r.valid, obj)
}

func (r *Result[T]) addErrors(line int, msgs ...message.Message) {
	r.errors.add(line, msgs...)
}

// HasError reports whether any record failed.
func (r *Result[T]) HasError() bool {
	return r.errors.Len() > 0
}

// ErrorMessages returns the messages keyed by record number.
func (r *Result[T]) ErrorMessages() *ErrorMessages {
	return r.errors
}

// ValidObjects returns the converted objects in record order. It fails with
// *AggregateError whenever any record failed, so a partially invalid upload
// can never be imported.
func (r *Result[T]) ValidObjects() ([]T, error) {
	if r.HasError() {
		return nil, &AggregateError{Messages: r.errors.All(), Lines: r.errors.Len()}
	}
	out := make([]T, len(r.valid))
	copy(out, r.valid)
	return out, nil
}

// ValidCount returns the number of valid records, regardless of errors.
func (r *Result[T]) ValidCount() int {
	return len(r.valid)
}

// IsEmpty reports whether the upload yielded neither objects nor errors.
func (r *Result[T]) IsEmpty() bool {
	return len(r.valid) == 0 && !r.HasError()
}

package bulk

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/JonMunkholm/bulkload/internal/message"
)

var (
	// ErrInvalidRecords is matched by *AggregateError.
	ErrInvalidRecords = errors.New("records failed validation")

	// ErrEmptyInput is matched by *EmptyInputError.
	ErrEmptyInput = errors.New("input contains no records")
)

// ErrorMessages maps record numbers to the messages reported for them.
// Lines are always iterated in ascending order.
type ErrorMessages struct {
	lines  []int
	byLine map[int][]message.Message
}

func newErrorMessages() *ErrorMessages {
	return &ErrorMessages{byLine: make(map[int][]message.Message)}
}

// add appends msgs under line, keeping lines sorted.
func (e *ErrorMessages) add(line int, msgs ...message.Message) {
	if len(msgs) == 0 {
		return
	}
	if _, ok := e.byLine[line]; !ok {
		i := sort.SearchInts(e.lines, line)
		e.lines = append(e.lines, 0)
		copy(e.lines[i+1:], e.lines[i:])
		e.lines[i] = line
	}
	e.byLine[line] = append(e.byLine[line], msgs...)
}

// Len returns the number of lines with errors.
func (e *ErrorMessages) Len() int {
	return len(e.lines)
}

// Lines returns the record numbers with errors in ascending order.
func (e *ErrorMessages) Lines() []int {
	out := make([]int, len(e.lines))
	copy(out, e.lines)
	return out
}

// Get returns the messages for one line in the order they were reported.
func (e *ErrorMessages) Get(line int) []message.Message {
	msgs := e.byLine[line]
	out := make([]message.Message, len(msgs))
	copy(out, msgs)
	return out
}

// All flattens every message in line order.
func (e *ErrorMessages) All() []message.Message {
	var out []message.Message
	for _, line := range e.lines {
		out = append(out, e.byLine[line]...)
	}
	return out
}

// AggregateError is returned when valid objects are requested from a result
// that has errors. Messages holds every message in line order.
type AggregateError struct {
	Messages []message.Message
	Lines    int
}

func (e *AggregateError) Error() string {
	return fmt.Sprintf("%d records failed validation: %s", e.Lines, message.Join(e.Messages, "; "))
}

func (e *AggregateError) Is(target error) bool {
	return target == ErrInvalidRecords
}

// EmptyInputError reports an upload that produced neither records nor errors.
type EmptyInputError struct {
	Identifier string
	Message    message.Message
}

func (e *EmptyInputError) Error() string {
	if e.Message.Text != "" {
		return e.Message.Text
	}
	return fmt.Sprintf("file %s contains no records", e.Identifier)
}

func (e *EmptyInputError) Is(target error) bool {
	return target == ErrEmptyInput
}

// SourceError reports a record source that failed mid-read. The run is
// aborted; RecordNumber is the last record read successfully.
type SourceError struct {
	Identifier   string
	RecordNumber int
	Err          error
}

func (e *SourceError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "read upload %s", e.Identifier)
	if e.RecordNumber > 0 {
		fmt.Fprintf(&b, " after record %d", e.RecordNumber)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// Package result provides a uniform outcome type for decode, validate and
// encode operations. A Result either carries a value or a typed *Error with
// an optional source location, and marshals to the wire shape consumed by
// callers: {"ok":true,"value":...} or {"ok":false,"error":{...}}.
package result

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error is a typed failure with an optional source location. Line and Column
// are 1-based and used by the text formats; Path is a slash-separated path
// into structured input (JSON documents, scene graphs).
type Error struct {
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Path    string `json:"path,omitempty"`

	cause error
}

// Error returns the message prefixed with its location, when known.
func (e *Error) Error() string {
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	case e.Path != "":
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	default:
		return e.Message
	}
}

// Unwrap returns the wrapped cause, so errors.Is can match the sentinel
// category the failure belongs to.
func (e *Error) Unwrap() error { return e.cause }

// Errorf builds an *Error wrapping cause with a formatted message.
func Errorf(cause error, format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), cause: cause}
}

// LineErrorf builds an *Error located at a 1-based source line.
func LineErrorf(line int, cause error, format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Line: line, cause: cause}
}

// PathErrorf builds an *Error located at a structural path.
func PathErrorf(path string, cause error, format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Path: path, cause: cause}
}

// Result is a two-variant outcome: a success value or a failure *Error.
// The zero Result is a failure with no error detail; construct values
// through OK, Err or From.
type Result[T any] struct {
	value T
	err   *Error
	ok    bool
}

// OK returns a successful Result carrying v.
func OK[T any](v T) Result[T] {
	return Result[T]{value: v, ok: true}
}

// Err returns a failed Result carrying e.
func Err[T any](e *Error) Result[T] {
	return Result[T]{err: e}
}

// From lifts an idiomatic (value, error) pair into a Result. A *result.Error
// anywhere in err's chain keeps its location fields; any other error is
// wrapped with its message only.
func From[T any](v T, err error) Result[T] {
	if err == nil {
		return OK(v)
	}
	var re *Error
	if errors.As(err, &re) {
		return Err[T](re)
	}
	return Err[T](&Error{Message: err.Error(), cause: err})
}

// OK reports whether the Result carries a value.
func (r Result[T]) OK() bool { return r.ok }

// Value returns the carried value, or the zero value on failure.
func (r Result[T]) Value() T { return r.value }

// Err returns the carried error, or nil on success.
func (r Result[T]) Err() *Error { return r.err }

// Unpack converts back to an idiomatic (value, error) pair.
func (r Result[T]) Unpack() (T, error) {
	if r.ok {
		return r.value, nil
	}
	return r.value, r.err
}

// MapError transforms the error of a failed Result; a success passes
// through untouched.
func (r Result[T]) MapError(fn func(*Error) *Error) Result[T] {
	if r.ok {
		return r
	}
	return Err[T](fn(r.err))
}

// MarshalJSON emits the wire contract: {"ok":true,"value":...} on success,
// {"ok":false,"error":{"message":...}} on failure.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.ok {
		return json.Marshal(struct {
			OK    bool `json:"ok"`
			Value T    `json:"value"`
		}{true, r.value})
	}
	return json.Marshal(struct {
		OK    bool   `json:"ok"`
		Error *Error `json:"error"`
	}{false, r.err})
}

// Map transforms the value of a successful Result; a failure passes
// through untouched.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if !r.ok {
		return Err[U](r.err)
	}
	return OK(fn(r.value))
}

// Then sequences a dependent operation, short-circuiting on failure.
func Then[T, U any](r Result[T], fn func(T) Result[U]) Result[U] {
	if !r.ok {
		return Err[U](r.err)
	}
	return fn(r.value)
}

// Collect gathers the values of independent Results, preserving order, and
// stops at the first failure.
func Collect[T any](rs []Result[T]) Result[[]T] {
	out := make([]T, 0, len(rs))
	for _, r := range rs {
		if !r.ok {
			return Err[[]T](r.err)
		}
		out = append(out, r.value)
	}
	return OK(out)
}

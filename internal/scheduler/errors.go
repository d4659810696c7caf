package scheduler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
)

// TaskError is the failure captured on a task that ended in Failed.
type TaskError struct {
	TaskID uuid.UUID
	Name   string
	Err    error
	// Stack is the call stack the error originated from, or the goroutine stack
	// at the time of a panic.
	Stack string
	At    strfmt.DateTime
}

func (e *TaskError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *TaskError) Unwrap() error { return e.Err }

// PanicError wraps a value recovered from a panicking task.
type PanicError struct {
	Value any
	stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// stackOf returns the stack recorded where the error was created, or the
// goroutine stack of a panic. Errors created without a stack have no origin to
// show, so the result is empty rather than the stack of the capture site.
func stackOf(err error) string {
	var perr *PanicError
	if errors.As(err, &perr) {
		return string(perr.stack)
	}

	var st stackTracer
	if errors.As(err, &st) {
		return strings.TrimLeft(fmt.Sprintf("%+v", st.StackTrace()), "\n")
	}
	return ""
}

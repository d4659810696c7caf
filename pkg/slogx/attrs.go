package slogx

import (
	"fmt"
	"log/slog"
)

// Error returns a slog.Attr representing the provided error.
// The attribute key is "error" and the value is the error's message, or
// "<nil>" when err is nil.
//
// Parameters:
//   - err: The error to be converted into a slog.Attr.
//
// Returns:
//   - slog.Attr: An attribute with the key "error" and the error's message as the value.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

// Stringer creates a slog.Attr with the provided key and the string representation
// of the given fmt.Stringer value, such as a task's uuid.UUID.
//
// Parameters:
//   - key: A string representing the key for the attribute.
//   - value: An object that implements the fmt.Stringer interface.
//
// Returns:
//   - slog.Attr: An attribute containing the key and the string representation of the value.
func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.String(key, value.String())
}

const (
	// KeyLoggerName is the key for the component that produced a record.
	KeyLoggerName = "logger"
	// KeyTask is the key for the group describing a tracked task.
	KeyTask = "task"
)

// LoggerName creates a slog.Attr with the provided logger name.
// The attribute key is defined by KeyLoggerName.
//
// Parameters:
//   - name: The name of the component logging, e.g. "console.sink".
//
// Returns:
//   - slog.Attr: An attribute with the key KeyLoggerName and the name as the value.
func LoggerName(name string) slog.Attr {
	return slog.String(KeyLoggerName, name)
}

// Task groups the identity of a tracked task under a single key.
//
// Parameters:
//   - name: The human readable task name, e.g. "input" or "application".
//   - id: The task identifier.
//
// Returns:
//   - slog.Attr: A group under KeyTask holding "name" and "id".
//
// Example output with the zerolog console handler:
//
//	task.name=application task.id=0192f1c4-...
func Task(name string, id fmt.Stringer) slog.Attr {
	return slog.Group(KeyTask,
		slog.String("name", name),
		Stringer("id", id),
	)
}

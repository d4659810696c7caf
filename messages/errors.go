package messages

import (
	"errors"
	"fmt"
)

// ErrProtocolViolation is wrapped by every error caused by a message that does not
// honor the wire schema.
var ErrProtocolViolation = errors.New("protocol violation")

// ProtocolError describes why a message was rejected.
type ProtocolError struct {
	Type   string
	Reason string
}

func (e *ProtocolError) Error() string {
	if e == nil {
		return ""
	}
	if e.Type == "" {
		return fmt.Sprintf("%s: %s", ErrProtocolViolation, e.Reason)
	}
	return fmt.Sprintf("%s: %s (type %q)", ErrProtocolViolation, e.Reason, e.Type)
}

func (e *ProtocolError) Unwrap() error { return ErrProtocolViolation }

func violation(tpe, format string, args ...any) error {
	return &ProtocolError{Type: tpe, Reason: fmt.Sprintf(format, args...)}
}

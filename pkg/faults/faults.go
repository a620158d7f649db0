// Package faults classifies fetch and auth failures and normalizes
// arbitrary error values into human-readable messages. Every boundary
// that reports an error to a user goes through this package; nothing
// downstream inspects raw error values.
package faults

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Class decides what a caller does with a failure.
type Class int

const (
	// Reportable failures are surfaced to the caller with a normalized message.
	Reportable Class = iota
	// Retryable failures are transient; background refreshes swallow them and
	// wait for the next tick. No explicit retry loop exists.
	Retryable
	// SessionFatal failures invalidate the current session.
	SessionFatal
)

func (c Class) String() string {
	switch c {
	case Retryable:
		return "retryable"
	case SessionFatal:
		return "session-fatal"
	default:
		return "reportable"
	}
}

// SessionExpiredMessage is the fixed user-facing message shown for
// session-fatal failures.
const SessionExpiredMessage = "your session has expired, please sign in again"

// StatusCoder is implemented by errors carrying an upstream HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// markers in the error text that indicate a revoked or expired grant.
var sessionFatalMarkers = []string{
	"permission_denied",
	"permission denied",
	"invalid_grant",
	"401",
	"403",
}

// Classify inspects err and decides whether it is Retryable, Reportable
// or SessionFatal. A nil error classifies as Retryable (nothing to report).
func Classify(err error) Class {
	if err == nil {
		return Retryable
	}

	var sc StatusCoder
	if errors.As(err, &sc) {
		switch sc.StatusCode() {
		case 401, 403:
			return SessionFatal
		}
	}

	text := strings.ToLower(err.Error())
	for _, marker := range sessionFatalMarkers {
		if strings.Contains(text, marker) {
			return SessionFatal
		}
	}

	// Timeouts are reported: they already blocked a single flight for the
	// full timeout window, so staying silent would hide real trouble.
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return Reportable
		}
		return Retryable
	}

	return Reportable
}

// Failure is the tagged error produced at every boundary.
type Failure struct {
	Class   Class
	Message string
	Cause   error
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.Cause }

// New builds a classified Failure around err with a normalized message.
// Session-fatal failures always carry the fixed user-facing message.
func New(prefix string, err error) *Failure {
	class := Classify(err)
	msg := Normalize(prefix, err)
	if class == SessionFatal {
		msg = SessionExpiredMessage
	}
	return &Failure{Class: class, Message: msg, Cause: err}
}

// Normalize turns any value into a readable "prefix: detail" string.
// Order: error message, then JSON serialization, then a fixed placeholder.
func Normalize(prefix string, v any) string {
	detail := stringify(v)
	if prefix == "" {
		return detail
	}
	return prefix + ": " + detail
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return "an unknown error occurred"
	case error:
		if msg := x.Error(); msg != "" {
			return msg
		}
	case string:
		if x != "" {
			return x
		}
	case fmt.Stringer:
		if msg := x.String(); msg != "" {
			return msg
		}
	}
	if b, err := json.Marshal(v); err == nil && len(b) > 0 && string(b) != "null" && string(b) != "{}" {
		return string(b)
	}
	return "an unknown error occurred"
}

package ocr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// FailureClass categorizes a failed OCR attempt. Only transient classes are
// retried; anything unrecognized is terminal and aborts immediately.
type FailureClass string

const (
	FailureTimeout    FailureClass = "timeout"
	FailureConnection FailureClass = "connection"
	FailureTerminal   FailureClass = "terminal"
)

// TransientError is the soft, typed error returned after transient failures
// exhaust the retry budget. Callers can surface it as a "try again" hint
// instead of a hard failure.
type TransientError struct {
	Class    FailureClass
	Attempts int
	Err      error
}

func (e *TransientError) Error() string {
	switch e.Class {
	case FailureTimeout:
		return fmt.Sprintf("ocr service timed out after %d attempts: %v", e.Attempts, e.Err)
	default:
		return fmt.Sprintf("ocr service unreachable after %d attempts: %v", e.Attempts, e.Err)
	}
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a retry-exhausted transient failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

var timeoutMarkers = []string{
	"timed out",
	"timeout",
	"connecttimeout",
	"readtimeout",
	"deadline exceeded",
}

var connectionMarkers = []string{
	"connection error",
	"connection refused",
	"connection reset",
	"connection aborted",
	"max retries exceeded",
	"failed to establish a new connection",
	"no such host",
	"name or service not known",
	"temporary failure in name resolution",
	"network is unreachable",
}

// classify maps a failed attempt onto a failure class. Timeouts are checked
// first since Go wraps them as net errors with "timeout" in the message.
func classify(err error) FailureClass {
	if err == nil {
		return FailureTerminal
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}

	message := strings.ToLower(err.Error())
	for _, marker := range timeoutMarkers {
		if strings.Contains(message, marker) {
			return FailureTimeout
		}
	}
	for _, marker := range connectionMarkers {
		if strings.Contains(message, marker) {
			return FailureConnection
		}
	}
	return FailureTerminal
}

// Package ocr wraps a remote OCR service behind a bounded retry/backoff
// policy. Transient failures (timeouts, unreachable network) are retried a
// fixed number of times with a cancellable sleep in between; everything else
// aborts immediately.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

// NoTextFound is the sentinel result for an OCR call that succeeded but
// recognized no text. It is a valid result, distinct from every error.
const NoTextFound = "No text found in image"

var (
	// ErrEmptyImage is returned for an empty image payload.
	ErrEmptyImage = errors.New("image bytes cannot be empty")

	// ErrEmptyURL is returned for a blank image URL.
	ErrEmptyURL = errors.New("image URL cannot be empty")
)

// Caller performs one OCR attempt against the remote service.
type Caller interface {
	OCRFile(ctx context.Context, path string) (string, error)
	OCRURL(ctx context.Context, url string) (string, error)
}

// Info describes the configured OCR pipeline: the service knobs plus the
// bridge's retry policy.
type Info struct {
	Engine           int
	Language         string
	Timeout          time.Duration
	Retries          int
	RetryDelay       time.Duration
	SupportedFormats []string
}

// Options tunes the retry policy.
type Options struct {
	// Retries is the number of extra attempts after the first (default 2,
	// negative disables retries).
	Retries int
	// RetryDelay is the pause between attempts (default 1.5s).
	RetryDelay time.Duration
	// MaxElapsed optionally bounds the whole multi-attempt sequence; the
	// bridge gives up rather than start a sleep that would overrun it.
	MaxElapsed time.Duration
}

// Bridge drives the per-call retry state machine:
// Attempting(n) -> Success | Retrying(n+1) | TerminalFailure.
type Bridge struct {
	caller     Caller
	retries    int
	retryDelay time.Duration
	maxElapsed time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

// New creates a Bridge around the given caller.
func New(caller Caller, opts Options) *Bridge {
	retries := opts.Retries
	switch {
	case retries < 0:
		retries = 0
	case retries == 0:
		retries = 2
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = 1500 * time.Millisecond
	}
	return &Bridge{
		caller:     caller,
		retries:    retries,
		retryDelay: delay,
		maxElapsed: opts.MaxElapsed,
		sleep:      sleepCtx,
	}
}

// Extract runs OCR over raw image bytes. The bytes are staged in a
// temporary file for the upload; the file is removed on every exit path.
// An empty or whitespace-only recognition normalizes to NoTextFound.
func (b *Bridge) Extract(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", ErrEmptyImage
	}

	tmp, err := os.CreateTemp("", "videoqa-ocr-*.jpg")
	if err != nil {
		return "", fmt.Errorf("stage image: %w", err)
	}
	path := tmp.Name()
	defer os.Remove(path)

	if _, err := tmp.Write(image); err != nil {
		tmp.Close()
		return "", fmt.Errorf("stage image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("stage image: %w", err)
	}

	text, err := b.withRetry(ctx, func(ctx context.Context) (string, error) {
		return b.caller.OCRFile(ctx, path)
	})
	if err != nil {
		return "", err
	}
	return normalize(text), nil
}

// ExtractFromURL runs OCR over a hosted image under the same retry policy.
func (b *Bridge) ExtractFromURL(ctx context.Context, url string) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", ErrEmptyURL
	}
	text, err := b.withRetry(ctx, func(ctx context.Context) (string, error) {
		return b.caller.OCRURL(ctx, url)
	})
	if err != nil {
		return "", err
	}
	return normalize(text), nil
}

// Info reports the retry policy, merged with whatever the underlying
// caller exposes about the remote service.
func (b *Bridge) Info() Info {
	var info Info
	if p, ok := b.caller.(interface{ Info() Info }); ok {
		info = p.Info()
	}
	info.Retries = b.retries
	info.RetryDelay = b.retryDelay
	return info
}

func (b *Bridge) withRetry(ctx context.Context, call func(ctx context.Context) (string, error)) (string, error) {
	attempts := b.retries + 1
	var deadline time.Time
	if b.maxElapsed > 0 {
		deadline = time.Now().Add(b.maxElapsed)
	}

	var lastErr error
	var lastClass FailureClass
	made := 0

	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := call(ctx)
		made++
		if err == nil {
			return text, nil
		}

		class := classify(err)
		if class == FailureTerminal {
			return "", fmt.Errorf("ocr request failed: %w", err)
		}
		lastErr, lastClass = err, class

		if attempt == attempts {
			break
		}
		if !deadline.IsZero() && time.Now().Add(b.retryDelay).After(deadline) {
			break
		}
		log.Printf("ocr: attempt %d/%d failed (%v), retrying in %s", attempt, attempts, err, b.retryDelay)
		if err := b.sleep(ctx, b.retryDelay); err != nil {
			return "", err
		}
	}

	return "", &TransientError{Class: lastClass, Attempts: made, Err: lastErr}
}

func normalize(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return NoTextFound
	}
	return trimmed
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

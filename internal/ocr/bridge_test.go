package ocr

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedCaller returns one scripted outcome per attempt, recording the
// staged file path it was handed.
type scriptedCaller struct {
	texts []string
	errs  []error
	calls int
	paths []string
}

func (c *scriptedCaller) OCRFile(_ context.Context, path string) (string, error) {
	c.paths = append(c.paths, path)
	return c.next()
}

func (c *scriptedCaller) OCRURL(_ context.Context, _ string) (string, error) {
	return c.next()
}

func (c *scriptedCaller) next() (string, error) {
	i := c.calls
	c.calls++
	if i < len(c.errs) && c.errs[i] != nil {
		return "", c.errs[i]
	}
	if i < len(c.texts) {
		return c.texts[i], nil
	}
	return "", errors.New("script exhausted")
}

var errTimedOut = errors.New("connection to api.ocr.space timed out")

// newTestBridge swaps the real sleep for a counter so tests stay instant.
func newTestBridge(caller Caller, opts Options) (*Bridge, *int) {
	b := New(caller, opts)
	sleeps := 0
	b.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps++
		return nil
	}
	return b, &sleeps
}

func TestExtractSucceedsAfterTwoTimeouts(t *testing.T) {
	caller := &scriptedCaller{
		errs:  []error{errTimedOut, errTimedOut, nil},
		texts: []string{"", "", "hello from the slide"},
	}
	b, sleeps := newTestBridge(caller, Options{Retries: 2})

	text, err := b.Extract(context.Background(), []byte("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "hello from the slide", text)
	assert.Equal(t, 3, caller.calls)
	assert.Equal(t, 2, *sleeps, "one sleep per retry, none after success")
}

func TestExtractExhaustsTimeoutRetries(t *testing.T) {
	caller := &scriptedCaller{errs: []error{errTimedOut, errTimedOut, errTimedOut}}
	b, sleeps := newTestBridge(caller, Options{Retries: 2})

	_, err := b.Extract(context.Background(), []byte("jpeg-bytes"))
	require.Error(t, err)

	var te *TransientError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, FailureTimeout, te.Class)
	assert.Equal(t, 3, te.Attempts, "initial attempt plus two retries")
	assert.Equal(t, 3, caller.calls)
	assert.Equal(t, 2, *sleeps)
	assert.True(t, IsTransient(err))
}

func TestExtractConnectionFailuresAreTransient(t *testing.T) {
	connErr := errors.New("dial tcp: connection refused")
	caller := &scriptedCaller{errs: []error{connErr, connErr, connErr}}
	b, _ := newTestBridge(caller, Options{Retries: 2})

	_, err := b.Extract(context.Background(), []byte("jpeg-bytes"))
	var te *TransientError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, FailureConnection, te.Class)
}

func TestExtractTerminalFailureAbortsImmediately(t *testing.T) {
	caller := &scriptedCaller{errs: []error{errors.New("invalid api key")}}
	b, sleeps := newTestBridge(caller, Options{Retries: 2})

	_, err := b.Extract(context.Background(), []byte("jpeg-bytes"))
	require.Error(t, err)
	assert.False(t, IsTransient(err), "terminal failures are not soft errors")
	assert.Equal(t, 1, caller.calls)
	assert.Equal(t, 0, *sleeps)
}

func TestExtractNormalizesEmptyText(t *testing.T) {
	caller := &scriptedCaller{texts: []string{"   \n\t  "}}
	b, _ := newTestBridge(caller, Options{})

	text, err := b.Extract(context.Background(), []byte("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, NoTextFound, text, "blank recognition is a sentinel, not an error")
}

func TestExtractRejectsEmptyImage(t *testing.T) {
	b, _ := newTestBridge(&scriptedCaller{}, Options{})
	_, err := b.Extract(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestExtractCleansUpTempFile(t *testing.T) {
	t.Run("on success", func(t *testing.T) {
		caller := &scriptedCaller{texts: []string{"ok"}}
		b, _ := newTestBridge(caller, Options{})

		_, err := b.Extract(context.Background(), []byte("jpeg-bytes"))
		require.NoError(t, err)
		require.Len(t, caller.paths, 1)
		_, statErr := os.Stat(caller.paths[0])
		assert.True(t, os.IsNotExist(statErr), "temp file must be removed")
	})

	t.Run("on mid-retry failure", func(t *testing.T) {
		caller := &scriptedCaller{errs: []error{errTimedOut, errors.New("invalid api key")}}
		b, _ := newTestBridge(caller, Options{Retries: 2})

		_, err := b.Extract(context.Background(), []byte("jpeg-bytes"))
		require.Error(t, err)
		require.NotEmpty(t, caller.paths)
		_, statErr := os.Stat(caller.paths[0])
		assert.True(t, os.IsNotExist(statErr), "temp file must be removed")
	})
}

func TestExtractStagesImageBytes(t *testing.T) {
	var staged []byte
	b := New(callerFunc(func(ctx context.Context, path string) (string, error) {
		data, err := os.ReadFile(path)
		staged = data
		require.NoError(t, err)
		return "ok", nil
	}), Options{})

	_, err := b.Extract(context.Background(), []byte("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), staged)
}

// callerFunc adapts a function to the Caller interface for file calls.
type callerFunc func(ctx context.Context, path string) (string, error)

func (f callerFunc) OCRFile(ctx context.Context, path string) (string, error) { return f(ctx, path) }
func (f callerFunc) OCRURL(ctx context.Context, url string) (string, error) {
	return "", errors.New("not implemented")
}

func TestExtractFromURL(t *testing.T) {
	caller := &scriptedCaller{
		errs:  []error{errTimedOut, nil},
		texts: []string{"", "text from url"},
	}
	b, sleeps := newTestBridge(caller, Options{Retries: 2})

	text, err := b.ExtractFromURL(context.Background(), "https://example.com/frame.png")
	require.NoError(t, err)
	assert.Equal(t, "text from url", text)
	assert.Equal(t, 1, *sleeps)

	_, err = b.ExtractFromURL(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyURL)
}

func TestMaxElapsedBoundsTheSequence(t *testing.T) {
	caller := &scriptedCaller{errs: []error{errTimedOut, errTimedOut, errTimedOut}}
	b := New(caller, Options{Retries: 2, RetryDelay: time.Hour, MaxElapsed: time.Millisecond})

	start := time.Now()
	_, err := b.Extract(context.Background(), []byte("jpeg-bytes"))
	require.Error(t, err)

	var te *TransientError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 1, te.Attempts, "no retry fits inside the elapsed bound")
	assert.Less(t, time.Since(start), time.Second)
}

func TestSleepIsCancellable(t *testing.T) {
	caller := &scriptedCaller{errs: []error{errTimedOut, errTimedOut, errTimedOut}}
	b := New(caller, Options{Retries: 2, RetryDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := b.Extract(ctx, []byte("jpeg-bytes"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestBridgeInfo(t *testing.T) {
	t.Run("merges client configuration with retry policy", func(t *testing.T) {
		client, err := NewClient(ClientConfig{APIKey: "key"})
		require.NoError(t, err)
		b := New(client, Options{Retries: 3, RetryDelay: 2 * time.Second})

		info := b.Info()
		assert.Equal(t, 2, info.Engine)
		assert.Equal(t, "eng", info.Language)
		assert.Equal(t, 20*time.Second, info.Timeout)
		assert.Equal(t, 3, info.Retries)
		assert.Equal(t, 2*time.Second, info.RetryDelay)
		assert.Contains(t, info.SupportedFormats, "png")
	})

	t.Run("caller without service info still reports the policy", func(t *testing.T) {
		b, _ := newTestBridge(&scriptedCaller{}, Options{})
		info := b.Info()
		assert.Equal(t, 2, info.Retries)
		assert.Equal(t, 1500*time.Millisecond, info.RetryDelay)
		assert.Zero(t, info.Engine)
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureClass
	}{
		{"timeout marker", errors.New("read tcp: i/o timeout"), FailureTimeout},
		{"service timeout", errTimedOut, FailureTimeout},
		{"deadline", context.DeadlineExceeded, FailureTimeout},
		{"refused", errors.New("dial tcp: connection refused"), FailureConnection},
		{"dns", errors.New("lookup api.ocr.space: no such host"), FailureConnection},
		{"auth", errors.New("invalid api key"), FailureTerminal},
		{"bad payload", errors.New("ocr processing error: E101 file corrupt"), FailureTerminal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err))
		})
	}
}

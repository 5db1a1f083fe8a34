// Package transport provides the byte-stream abstraction the DAP client
// frames messages onto, over either a spawned child process's stdio or a
// TCP socket. It generalizes the teacher's launchDelveExternal (dap_external.go)
// and its retry helper (debugger/retry.go) to any adapter process.
package transport

import (
	"bufio"
	"context"
	"io"
	"sync"
	"time"

	"github.com/dapbridge/mcp-debugger/internal/errs"
)

// Transport is a bidirectional byte stream plus a close operation. Writes
// must be externally serialized against each other (a single write mutex
// per spec §4.2); concurrent Send and Receive calls are safe.
type Transport interface {
	io.Reader
	io.Writer

	// Reader returns a buffered reader over the same stream, for framing.
	Reader() *bufio.Reader

	// Close tears down the transport and any owned process.
	Close() error
}

// lockedWriter serializes Write calls, satisfying the "send concurrently
// with send" prohibition in spec §4.2.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// RetryConfig configures exponential-backoff retry behavior, adapted from
// debugger/retry.go.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryConfig mirrors the teacher's DefaultRetryConfig.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:  5,
	InitialDelay: 10 * time.Millisecond,
	MaxDelay:     500 * time.Millisecond,
	Multiplier:   2.0,
}

// RetryWithBackoff executes operation with exponential backoff until it
// succeeds, ctx is done, or MaxAttempts is exhausted.
func RetryWithBackoff(ctx context.Context, cfg RetryConfig, operation func() error) error {
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := operation(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return errs.TransportFailed(lastErr)
}

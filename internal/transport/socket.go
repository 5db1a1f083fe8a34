package transport

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os/exec"
	"time"

	"github.com/dapbridge/mcp-debugger/internal/errs"
)

// SocketTransport is a TCP connection to 127.0.0.1:<port>, used by adapters
// that listen rather than speak over stdio (rdbg, delve in socket mode,
// vscode-js-debug, CodeLLDB).
type SocketTransport struct {
	conn   net.Conn
	reader *bufio.Reader
	writer *lockedWriter
	cmd    *exec.Cmd // optional: the adapter process that owns the listener
}

// DialWithRetry connects to 127.0.0.1:port, retrying at ~50ms intervals
// until success or timeout. It is built to tolerate "connection refused"
// during an adapter's startup window without treating it as a hard error,
// per spec §4.2.
func DialWithRetry(ctx context.Context, port int, timeout time.Duration) (net.Conn, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addr := fmt.Sprintf("127.0.0.1:%d", port)

	var conn net.Conn
	err := RetryWithBackoff(dialCtx, RetryConfig{
		MaxAttempts:  int(timeout/(50*time.Millisecond)) + 1,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     50 * time.Millisecond,
		Multiplier:   1.0,
	}, func() error {
		var dialErr error
		var d net.Dialer
		conn, dialErr = d.DialContext(dialCtx, "tcp", addr)
		return dialErr
	})
	if err != nil {
		// Covers both exhausted retries (connection refused) and the
		// context deadline firing mid-retry; spec §8 treats an
		// unreachable port uniformly as a Timeout either way.
		return nil, errs.Timeout(fmt.Sprintf("connect_with_retry to port %d", port))
	}
	return conn, nil
}

// NewSocketTransport wraps an already-established connection. cmd, if
// non-nil, is the adapter process whose lifetime Close will also tear down.
func NewSocketTransport(conn net.Conn, cmd *exec.Cmd) *SocketTransport {
	return &SocketTransport{
		conn:   conn,
		reader: bufio.NewReader(conn),
		writer: &lockedWriter{w: conn},
		cmd:    cmd,
	}
}

func (t *SocketTransport) Write(p []byte) (int, error) { return t.writer.Write(p) }
func (t *SocketTransport) Read(p []byte) (int, error)  { return t.reader.Read(p) }
func (t *SocketTransport) Reader() *bufio.Reader        { return t.reader }

func (t *SocketTransport) Close() error {
	err := t.conn.Close()
	if t.cmd != nil && t.cmd.Process != nil {
		done := make(chan error, 1)
		go func() { done <- t.cmd.Wait() }()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			_ = t.cmd.Process.Kill()
			<-done
		}
	}
	return err
}

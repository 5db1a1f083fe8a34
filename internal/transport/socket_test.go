package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dapbridge/mcp-debugger/internal/errs"
)

func TestDialWithRetryConnectsOnceListenerIsUp(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	port := l.Addr().(*net.TCPAddr).Port

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := l.Accept()
		if err == nil {
			accepted <- c
		}
	}()

	conn, err := DialWithRetry(context.Background(), port, time.Second)
	require.NoError(t, err)
	defer conn.Close()

	select {
	case c := <-accepted:
		c.Close()
	case <-time.After(time.Second):
		t.Fatal("listener never accepted")
	}
}

func TestDialWithRetryTimesOutOnUnreachablePort(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	l.Close() // nothing listens now

	start := time.Now()
	_, err = DialWithRetry(context.Background(), port, 300*time.Millisecond)
	elapsed := time.Since(start)

	require.Error(t, err)
	require.Less(t, elapsed, 2*time.Second)

	var e *errs.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, errs.CodeTimeout, e.Code())
}

func TestSocketTransportWriteRead(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()

	tr := NewSocketTransport(a, nil)
	defer tr.Close()

	done := make(chan struct{})
	go func() {
		buf := make([]byte, 5)
		_, _ = b.Read(buf)
		close(done)
	}()

	_, err := tr.Write([]byte("hello"))
	require.NoError(t, err)
	<-done
}

package dapclient

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/go-dap"
	"github.com/stretchr/testify/require"

	"github.com/dapbridge/mcp-debugger/internal/wire"
)

// pipeTransport adapts a net.Conn (from net.Pipe) to transport.Transport
// for tests, standing in for a real adapter process.
type pipeTransport struct {
	conn   net.Conn
	reader *bufio.Reader
}

func newPipeTransport(conn net.Conn) *pipeTransport {
	return &pipeTransport{conn: conn, reader: bufio.NewReader(conn)}
}

func (p *pipeTransport) Read(b []byte) (int, error)  { return p.reader.Read(b) }
func (p *pipeTransport) Write(b []byte) (int, error) { return p.conn.Write(b) }
func (p *pipeTransport) Reader() *bufio.Reader       { return p.reader }
func (p *pipeTransport) Close() error                { return p.conn.Close() }

// fakeAdapter plays the adapter side of the wire: it reads requests off its
// end of the pipe and replies however the test tells it to.
type fakeAdapter struct {
	conn   net.Conn
	dec    *wire.Decoder
	reader *bufio.Reader
}

func newFakeAdapter(conn net.Conn) *fakeAdapter {
	r := bufio.NewReader(conn)
	return &fakeAdapter{conn: conn, reader: r, dec: wire.NewDecoder(r, wire.DefaultMaxBodyBytes)}
}

func (f *fakeAdapter) nextRequest() (dap.Message, error) {
	return f.dec.Decode()
}

func (f *fakeAdapter) send(msg dap.Message) error {
	return wire.Encode(f.conn, msg)
}

func newLinkedClient(t *testing.T) (*Client, *fakeAdapter) {
	t.Helper()
	a, b := net.Pipe()
	client := NewClient(newPipeTransport(a))
	adapter := newFakeAdapter(b)
	t.Cleanup(func() { _ = client.Close() })
	return client, adapter
}

func TestSendRequestMatchesResponseBySeq(t *testing.T) {
	client, fake := newLinkedClient(t)

	go func() {
		req, err := fake.nextRequest()
		require.NoError(t, err)
		initReq, ok := req.(*dap.InitializeRequest)
		require.True(t, ok)

		resp := &dap.InitializeResponse{
			Response: dap.Response{
				ProtocolMessage: dap.ProtocolMessage{Type: "response"},
				RequestSeq:      initReq.Seq,
				Success:         true,
				Command:         "initialize",
			},
		}
		require.NoError(t, fake.send(resp))
	}()

	req := &dap.InitializeRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "initialize",
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := client.SendRequest(ctx, req, 0)
	require.NoError(t, err)
	initResp, ok := resp.(*dap.InitializeResponse)
	require.True(t, ok)
	require.True(t, initResp.Success)
}

func TestSendRequestSurfacesErrorResponse(t *testing.T) {
	client, fake := newLinkedClient(t)

	go func() {
		req, err := fake.nextRequest()
		require.NoError(t, err)
		contReq := req.(*dap.ContinueRequest)

		resp := &dap.ErrorResponse{
			Response: dap.Response{
				ProtocolMessage: dap.ProtocolMessage{Type: "response"},
				RequestSeq:      contReq.Seq,
				Success:         false,
				Command:         "continue",
			},
		}
		resp.Body.Error.Format = "thread not found"
		require.NoError(t, fake.send(resp))
	}()

	req := &dap.ContinueRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "continue",
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := client.SendRequest(ctx, req, 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "thread not found")
}

func TestEventSubscriptionFires(t *testing.T) {
	client, fake := newLinkedClient(t)

	stopped := make(chan *dap.StoppedEvent, 1)
	client.Subscribe("stopped", func(msg dap.Message) {
		stopped <- msg.(*dap.StoppedEvent)
	})

	ev := &dap.StoppedEvent{
		Event: dap.Event{
			ProtocolMessage: dap.ProtocolMessage{Type: "event"},
			Event:           "stopped",
		},
	}
	ev.Body.ThreadId = 7
	ev.Body.Reason = "breakpoint"

	require.NoError(t, fake.send(ev))

	select {
	case got := <-stopped:
		require.Equal(t, 7, got.Body.ThreadId)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stopped event")
	}
}

func TestSendRequestTimesOutWithoutResponse(t *testing.T) {
	client, fake := newLinkedClient(t)
	go func() { _, _ = fake.nextRequest() }()

	req := &dap.PauseRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "pause",
		},
	}

	ctx := context.Background()
	_, err := client.SendRequest(ctx, req, 50*time.Millisecond)
	require.Error(t, err)
}

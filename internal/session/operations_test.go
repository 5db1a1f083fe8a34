package session

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/go-dap"
	"github.com/stretchr/testify/require"

	"github.com/dapbridge/mcp-debugger/internal/dapclient"
	"github.com/dapbridge/mcp-debugger/internal/wire"
)

// pipeTransport and fakeAdapter duplicate the dapclient package's test
// doubles at a small remove: session tests need to drive a Session's
// private client field directly, which only a same-package (or, here, a
// structurally identical local) helper can reach conveniently.
type pipeTransport struct {
	conn   net.Conn
	reader *bufio.Reader
}

func (p *pipeTransport) Read(b []byte) (int, error)  { return p.reader.Read(b) }
func (p *pipeTransport) Write(b []byte) (int, error) { return p.conn.Write(b) }
func (p *pipeTransport) Reader() *bufio.Reader       { return p.reader }
func (p *pipeTransport) Close() error                { return p.conn.Close() }

type fakeAdapter struct {
	conn net.Conn
	dec  *wire.Decoder
}

func newFakeAdapter(conn net.Conn) *fakeAdapter {
	r := bufio.NewReader(conn)
	return &fakeAdapter{conn: conn, dec: wire.NewDecoder(r, wire.DefaultMaxBodyBytes)}
}

func (f *fakeAdapter) nextRequest() (dap.Message, error) { return f.dec.Decode() }
func (f *fakeAdapter) send(msg dap.Message) error        { return wire.Encode(f.conn, msg) }

func newSessionWithFakeAdapter(t *testing.T) (*Session, *fakeAdapter) {
	t.Helper()
	a, b := net.Pipe()
	client := dapclient.NewClient(&pipeTransport{conn: a, reader: bufio.NewReader(a)})
	t.Cleanup(func() { _ = client.Close() })

	s := newBareSession()
	s.client = client
	s.subscribeSessionEvents()
	s.setState(stoppedState(1, "breakpoint"))

	return s, newFakeAdapter(b)
}

func TestContinueSkipsRequestWhenAlreadyRunning(t *testing.T) {
	s, _ := newSessionWithFakeAdapter(t)
	s.setState(runningState())

	err := s.Continue(context.Background(), 1)
	require.NoError(t, err)
}

func TestStackTraceUsesStoppedThreadWhenThreadIDOmitted(t *testing.T) {
	s, fake := newSessionWithFakeAdapter(t)

	done := make(chan error, 1)
	go func() {
		_, err := s.StackTrace(context.Background(), 0)
		done <- err
	}()

	req, err := fake.nextRequest()
	require.NoError(t, err)
	stReq := req.(*dap.StackTraceRequest)
	require.Equal(t, 1, stReq.Arguments.ThreadId)

	resp := &dap.StackTraceResponse{
		Response: dap.Response{
			ProtocolMessage: dap.ProtocolMessage{Type: "response"},
			RequestSeq:      stReq.Seq,
			Success:         true,
			Command:         "stackTrace",
		},
	}
	resp.Body.StackFrames = []dap.StackFrame{{Id: 42, Name: "main"}}
	require.NoError(t, fake.send(resp))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("StackTrace did not complete")
	}
}

func TestEvaluateAutoFetchesTopFrame(t *testing.T) {
	s, fake := newSessionWithFakeAdapter(t)

	done := make(chan *dap.EvaluateResponseBody, 1)
	errs := make(chan error, 1)
	go func() {
		body, err := s.Evaluate(context.Background(), "1+1", 0)
		if err != nil {
			errs <- err
			return
		}
		done <- body
	}()

	req, err := fake.nextRequest()
	require.NoError(t, err)
	stReq := req.(*dap.StackTraceRequest)
	require.Equal(t, 1, stReq.Arguments.Levels)

	stResp := &dap.StackTraceResponse{
		Response: dap.Response{
			ProtocolMessage: dap.ProtocolMessage{Type: "response"},
			RequestSeq:      stReq.Seq,
			Success:         true,
			Command:         "stackTrace",
		},
	}
	stResp.Body.StackFrames = []dap.StackFrame{{Id: 7, Name: "main"}}
	require.NoError(t, fake.send(stResp))

	req2, err := fake.nextRequest()
	require.NoError(t, err)
	evalReq := req2.(*dap.EvaluateRequest)
	require.Equal(t, 7, evalReq.Arguments.FrameId)
	require.Equal(t, "watch", evalReq.Arguments.Context)

	evalResp := &dap.EvaluateResponse{
		Response: dap.Response{
			ProtocolMessage: dap.ProtocolMessage{Type: "response"},
			RequestSeq:      evalReq.Seq,
			Success:         true,
			Command:         "evaluate",
		},
	}
	evalResp.Body.Result = "2"
	require.NoError(t, fake.send(evalResp))

	select {
	case body := <-done:
		require.Equal(t, "2", body.Result)
	case err := <-errs:
		t.Fatalf("Evaluate failed: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("Evaluate did not complete")
	}
}

func TestStackTraceRequiresStoppedState(t *testing.T) {
	s, _ := newSessionWithFakeAdapter(t)
	s.setState(runningState())

	_, err := s.StackTrace(context.Background(), 0)
	require.Error(t, err)
}

func TestBreakpointEventUpdatesVerifiedByAdapterID(t *testing.T) {
	s, fake := newSessionWithFakeAdapter(t)

	done := make(chan []*Breakpoint, 1)
	go func() {
		bps, err := s.SetBreakpoint(context.Background(), "/t/hello.py", []int{5}, nil)
		require.NoError(t, err)
		done <- bps
	}()

	req, err := fake.nextRequest()
	require.NoError(t, err)
	sbReq := req.(*dap.SetBreakpointsRequest)

	resp := &dap.SetBreakpointsResponse{
		Response: dap.Response{
			ProtocolMessage: dap.ProtocolMessage{Type: "response"},
			RequestSeq:      sbReq.Seq,
			Success:         true,
			Command:         "setBreakpoints",
		},
	}
	resp.Body.Breakpoints = []dap.Breakpoint{{Id: 99, Verified: false, Line: 5}}
	require.NoError(t, fake.send(resp))

	var bps []*Breakpoint
	select {
	case bps = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("SetBreakpoint did not complete")
	}
	require.Len(t, bps, 1)
	require.Equal(t, 99, bps[0].AdapterID)
	require.False(t, bps[0].Verified)

	require.NoError(t, fake.send(&dap.BreakpointEvent{
		Event: dap.Event{
			ProtocolMessage: dap.ProtocolMessage{Type: "event"},
			Event:           "breakpoint",
		},
		Body: dap.BreakpointEventBody{
			Reason:     "changed",
			Breakpoint: dap.Breakpoint{Id: 99, Verified: true, Line: 5},
		},
	}))

	require.Eventually(t, func() bool {
		for _, bp := range s.ListBreakpoints() {
			if bp.AdapterID == 99 {
				return bp.Verified
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

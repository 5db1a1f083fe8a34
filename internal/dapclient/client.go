// Package dapclient is the generalized low-level DAP peer connection,
// grounded on the teacher's debugger/session.go (readLoop + Receive) but
// reworked from "one in-flight request at a time" to a pending-request
// table keyed by Seq, since spec §5 requires a blocking call like
// wait_for_stop on one session to never block a concurrent continue() on
// that same session. Unlike wait_for_stop (which lives entirely on event
// subscriptions in internal/session), every exchange this package handles
// directly is a fast request/response round trip, so correlating by Seq
// here is enough; nothing in this package blocks indefinitely.
package dapclient

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/go-dap"

	"github.com/dapbridge/mcp-debugger/internal/errs"
	"github.com/dapbridge/mcp-debugger/internal/transport"
	"github.com/dapbridge/mcp-debugger/internal/wire"
)

// DefaultTimeout bounds an ordinary request/response exchange.
const DefaultTimeout = 10 * time.Second

// LongTimeout is used for the requests known to be slow: initialize and
// launch/attach, which may wait on the adapter to finish loading a program.
const LongTimeout = 30 * time.Second

// ReverseHandler answers an adapter-initiated request such as
// startDebugging or runInTerminal.
type ReverseHandler func(ctx context.Context, req dap.Message) (dap.Message, error)

type pendingEntry struct {
	reply chan dap.Message
}

// Client owns one DAP connection and demultiplexes its traffic: responses
// are routed back to the SendRequest call that is waiting for them, events
// fan out to subscribers, and adapter-initiated requests are routed to
// registered reverse handlers.
type Client struct {
	t   transport.Transport
	dec *wire.Decoder

	writeMu sync.Mutex

	mu      sync.Mutex
	seq     int
	pending map[int]*pendingEntry

	eventMu   sync.RWMutex
	eventSubs map[string][]func(dap.Message)

	reverseMu       sync.RWMutex
	reverseHandlers map[string]ReverseHandler

	closeOnce sync.Once
	done      chan struct{}

	// lastErr is set once the dispatch loop exits due to a read error, so
	// in-flight and future SendRequest calls fail fast instead of hanging.
	errMu   sync.Mutex
	lastErr error
}

// NewClient wraps t, starting a background dispatch loop immediately.
func NewClient(t transport.Transport) *Client {
	c := &Client{
		t:               t,
		dec:             wire.NewDecoder(t.Reader(), wire.DefaultMaxBodyBytes),
		pending:         make(map[int]*pendingEntry),
		eventSubs:       make(map[string][]func(dap.Message)),
		reverseHandlers: make(map[string]ReverseHandler),
		done:            make(chan struct{}),
	}
	go c.dispatchLoop()
	return c
}

// Subscribe registers fn to be called (on the dispatch goroutine) whenever
// an event named eventName arrives. It returns an unsubscribe function.
func (c *Client) Subscribe(eventName string, fn func(dap.Message)) func() {
	c.eventMu.Lock()
	defer c.eventMu.Unlock()

	c.eventSubs[eventName] = append(c.eventSubs[eventName], fn)
	idx := len(c.eventSubs[eventName]) - 1

	return func() {
		c.eventMu.Lock()
		defer c.eventMu.Unlock()
		subs := c.eventSubs[eventName]
		if idx < len(subs) {
			subs[idx] = nil
		}
	}
}

// SetReverseHandler registers the handler invoked when the adapter sends a
// request for command (e.g. "startDebugging", "runInTerminal"). Only one
// handler per command is kept; re-registering replaces it.
func (c *Client) SetReverseHandler(command string, h ReverseHandler) {
	c.reverseMu.Lock()
	defer c.reverseMu.Unlock()
	c.reverseHandlers[command] = h
}

// SendRequest assigns the next sequence number to req, writes it, and
// blocks until the matching response arrives, ctx is canceled, or timeout
// elapses (DefaultTimeout if timeout <= 0).
func (c *Client) SendRequest(ctx context.Context, req dap.Message, timeout time.Duration) (dap.Message, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	seq := c.nextSeq()
	setSeq(req, seq)

	entry := &pendingEntry{reply: make(chan dap.Message, 1)}
	c.mu.Lock()
	c.pending[seq] = entry
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, seq)
		c.mu.Unlock()
	}()

	if err := c.write(req); err != nil {
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-entry.reply:
		if errResp, ok := resp.(*dap.ErrorResponse); ok {
			return nil, errs.AdapterError(getCommand(req), formatErrorResponse(errResp))
		}
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, errs.Timeout(fmt.Sprintf("waiting for response to %s", getCommand(req)))
	case <-c.done:
		return nil, c.currentErr()
	}
}

// SendRequestNoWait assigns a sequence number and writes req without
// registering for (or waiting on) a response. It exists for the Node.js
// multi-session coordinator's child launch (spec §4.6 step 3), which the
// parent adapter never acknowledges directly.
func (c *Client) SendRequestNoWait(req dap.Message) error {
	setSeq(req, c.nextSeq())
	return c.write(req)
}

// SendResponse writes a response the caller built for a reverse request.
func (c *Client) SendResponse(resp dap.Message) error {
	return c.write(resp)
}

func (c *Client) nextSeq() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

func (c *Client) write(msg dap.Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return wire.Encode(c.t, msg)
}

// Close tears down the underlying transport and stops the dispatch loop.
// Closing the transport makes the dispatch loop's next Decode fail, which
// runs closeDone itself; Close also calls it directly so callers observe
// c.done closed even if the loop hasn't woken up yet.
func (c *Client) Close() error {
	err := c.t.Close()
	c.closeDone()
	return err
}

// closeDone closes c.done exactly once. Both Close and dispatchLoop call
// it unconditionally on their own exit path, so it must be idempotent
// regardless of which one runs first.
func (c *Client) closeDone() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) currentErr() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	if c.lastErr != nil {
		return c.lastErr
	}
	return errs.TransportFailed(fmt.Errorf("dap client closed"))
}

func (c *Client) setErr(err error) {
	c.errMu.Lock()
	c.lastErr = err
	c.errMu.Unlock()
}

// dispatchLoop reads every framed message off the transport and routes it,
// generalizing the teacher's readLoop (debugger/session.go) to fan out to
// many concurrent waiters instead of one shared channel.
func (c *Client) dispatchLoop() {
	defer c.closeDone()

	for {
		msg, err := c.dec.Decode()
		if err != nil {
			c.setErr(errs.TransportFailed(err))
			c.failAllPending()
			return
		}

		switch m := msg.(type) {
		case dap.ResponseMessage:
			c.routeResponse(msg, getRequestSeq(m))
		case dap.EventMessage:
			c.routeEvent(m.GetEvent().Event, msg)
		case dap.RequestMessage:
			c.routeReverseRequest(msg)
		default:
			log.Printf("dapclient: unrecognized message type %T", msg)
		}
	}
}

func (c *Client) routeResponse(msg dap.Message, requestSeq int) {
	c.mu.Lock()
	entry, ok := c.pending[requestSeq]
	c.mu.Unlock()
	if !ok {
		log.Printf("dapclient: response for unknown request_seq=%d (%T)", requestSeq, msg)
		return
	}
	select {
	case entry.reply <- msg:
	default:
	}
}

func (c *Client) routeEvent(name string, msg dap.Message) {
	c.eventMu.RLock()
	subs := append([]func(dap.Message){}, c.eventSubs[name]...)
	c.eventMu.RUnlock()

	for _, fn := range subs {
		if fn != nil {
			fn(msg)
		}
	}
}

func (c *Client) routeReverseRequest(msg dap.Message) {
	command := getCommand(msg)

	c.reverseMu.RLock()
	h, ok := c.reverseHandlers[command]
	c.reverseMu.RUnlock()

	if !ok {
		log.Printf("dapclient: no reverse handler for %q, ignoring", command)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
		defer cancel()

		resp, err := h(ctx, msg)
		if err != nil {
			log.Printf("dapclient: reverse handler for %q failed: %v", command, err)
			return
		}
		if resp == nil {
			return
		}
		setSeq(resp, c.nextSeq())
		if err := c.write(resp); err != nil {
			log.Printf("dapclient: writing reverse response for %q failed: %v", command, err)
		}
	}()
}

// failAllPending clears the pending table once the connection is dead.
// Waiters are woken via c.done, which dispatchLoop closes as it returns
// right after this call, rather than by closing their reply channels, so
// a response racing the shutdown can never be read back as a false nil
// success.
func (c *Client) failAllPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for seq := range c.pending {
		delete(c.pending, seq)
	}
}

func formatErrorResponse(e *dap.ErrorResponse) string {
	if e.Body.Error.Format != "" {
		return e.Body.Error.Format
	}
	return fmt.Sprintf("adapter error (id=%d)", e.Body.Error.Id)
}

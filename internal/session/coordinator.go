// Multi-session coordinator for vscode-js-debug's parent/child model (spec
// §4.6). There is no teacher precedent for this: the teacher only ever
// drives delve, which is single-session. This is grounded directly in
// spec §4.6's numbered contract and reuses the same reverse-request
// machinery internal/dapclient already exposes for startDebugging.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/go-dap"

	"github.com/dapbridge/mcp-debugger/internal/dapclient"
	"github.com/dapbridge/mcp-debugger/internal/transport"
)

type childSession struct {
	client    *dapclient.Client
	conn      net.Conn
	lastStop  time.Time
	targetID  string
}

// coordinator owns the child sessions spawned off a Node.js parent.
type coordinator struct {
	s    *Session
	port int

	mu       sync.Mutex
	children []*childSession
	current  *childSession
}

func newCoordinator(s *Session, port int) *coordinator {
	return &coordinator{s: s, port: port}
}

// register installs the startDebugging reverse-request handler on the
// parent client, per spec §4.6 step 1. It must be called before launch.
func (c *coordinator) register() {
	c.s.client.SetReverseHandler("startDebugging", c.onStartDebugging)
}

type startDebuggingConfig struct {
	PendingTargetID string `json:"__pendingTargetId"`
}

type startDebuggingArguments struct {
	Request       string          `json:"request"`
	Configuration json.RawMessage `json:"configuration"`
}

func (c *coordinator) onStartDebugging(ctx context.Context, req dap.Message) (dap.Message, error) {
	sdReq, ok := req.(*dap.StartDebuggingRequest)
	if !ok {
		return nil, fmt.Errorf("unexpected reverse request type %T for startDebugging", req)
	}

	var args startDebuggingArguments
	if err := json.Unmarshal(sdReq.Arguments, &args); err != nil {
		return nil, fmt.Errorf("decoding startDebugging arguments: %w", err)
	}
	var cfg startDebuggingConfig
	if err := json.Unmarshal(args.Configuration, &cfg); err != nil {
		return nil, fmt.Errorf("decoding startDebugging configuration: %w", err)
	}

	if err := c.spawnChild(ctx, cfg.PendingTargetID); err != nil {
		return nil, err
	}

	return &dap.StartDebuggingResponse{
		Response: dap.Response{
			ProtocolMessage: dap.ProtocolMessage{Type: "response"},
			RequestSeq:      sdReq.Seq,
			Success:         true,
			Command:         "startDebugging",
		},
	}, nil
}

// spawnChild implements spec §4.6 steps 1-7, in this order: connect,
// event forwarding, initialize, entry breakpoint, breakpoint copy-down,
// launch (no-wait), configurationDone.
func (c *coordinator) spawnChild(ctx context.Context, targetID string) error {
	conn, err := transport.DialWithRetry(ctx, c.port, 8*time.Second)
	if err != nil {
		return err
	}

	child := &childSession{
		conn:     conn,
		targetID: targetID,
		lastStop: time.Now(),
	}
	child.client = dapclient.NewClient(transport.NewSocketTransport(conn, nil))

	c.mu.Lock()
	c.children = append(c.children, child)
	c.current = child
	c.mu.Unlock()

	c.forwardChildEvents(child)

	if _, err := child.client.SendRequest(ctx, &dap.InitializeRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "initialize",
		},
		Arguments: dap.InitializeRequestArguments{
			ClientID:                      "debugger-mcp",
			AdapterID:                     c.s.adapterCfg.AdapterID,
			LinesStartAt1:                 true,
			ColumnsStartAt1:               true,
			PathFormat:                    "path",
			SupportsRunInTerminalRequest:  true,
			SupportsStartDebuggingRequest: true,
		},
	}, initializeTimeout); err != nil {
		return err
	}

	if c.s.stopOnEntry {
		if err := c.s.setEntryBreakpointAtLine1(ctx, child.client, c.s.Program); err != nil {
			return err
		}
	}

	// setBreakpoints replaces a file's whole list, so each file's
	// breakpoints go to the child in one request.
	var files []string
	byFile := make(map[string][]*Breakpoint)
	for _, bp := range c.s.ListBreakpoints() {
		if _, seen := byFile[bp.File]; !seen {
			files = append(files, bp.File)
		}
		byFile[bp.File] = append(byFile[bp.File], bp)
	}
	for _, file := range files {
		if _, err := c.s.sendSetBreakpoints(ctx, child.client, file, byFile[file]); err != nil {
			return err
		}
	}

	launchArgs, err := json.Marshal(map[string]interface{}{
		"__pendingTargetId": targetID,
		"program":           c.s.Program,
	})
	if err != nil {
		return err
	}
	if err := child.client.SendRequestNoWait(&dap.LaunchRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "launch",
		},
		Arguments: launchArgs,
	}); err != nil {
		return err
	}

	_, err = child.client.SendRequest(ctx, &dap.ConfigurationDoneRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "configurationDone",
		},
	}, requestTimeout)
	return err
}

// forwardChildEvents relays stopped/continued/terminated into the parent
// session's own state machine (spec §4.6 step 6), and tracks which child
// most recently stopped so operations route to it.
func (c *coordinator) forwardChildEvents(child *childSession) {
	child.client.Subscribe("stopped", func(msg dap.Message) {
		c.mu.Lock()
		child.lastStop = time.Now()
		c.current = child
		c.mu.Unlock()
		c.s.onStopped(msg.(*dap.StoppedEvent))
	})
	child.client.Subscribe("continued", func(dap.Message) {
		c.s.onContinued()
	})
	child.client.Subscribe("terminated", func(msg dap.Message) {
		c.s.onTerminated(msg.(*dap.TerminatedEvent))
	})
	child.client.Subscribe("exited", func(msg dap.Message) {
		c.s.onExited(msg.(*dap.ExitedEvent))
	})
	child.client.Subscribe("output", func(msg dap.Message) {
		c.s.onOutput(msg.(*dap.OutputEvent))
	})
}

// currentClient returns the most-recently-stopped child's client, or nil
// if no child has spawned yet.
func (c *coordinator) currentClient() *dapclient.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	return c.current.client
}

func (c *coordinator) closeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, child := range c.children {
		_ = child.client.Close()
	}
}

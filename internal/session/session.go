// Package session implements the per-session state machine (spec §4.5):
// the DAP handshake, per-adapter stopOnEntry workarounds, run/stop
// tracking driven by asynchronous events, and the operation API the
// session manager exposes upward. It is deliberately NOT an lnd actor
// (unlike internal/dapclient): spec §5 requires a blocking wait_for_stop
// on one session to never block a concurrent continue() on the same
// session, which a single serialized actor mailbox cannot provide. A
// plain mutex-guarded struct with a stop-waiter broadcast gives that
// directly.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/go-dap"
	"github.com/google/uuid"

	"github.com/dapbridge/mcp-debugger/internal/adapter"
	"github.com/dapbridge/mcp-debugger/internal/dapclient"
	"github.com/dapbridge/mcp-debugger/internal/errs"
)

// Timeouts per spec §5.
const (
	initializeTimeout      = 30 * time.Second
	requestTimeout         = 10 * time.Second
	defaultInitializedWait = 5 * time.Second
	disconnectTimeout      = 2 * time.Second
)

// StartParams are the caller-supplied parameters for creating a session
// (spec §4.5 step 1 onward). Only Language, Program and StopOnEntry reach
// the adapter: New does not keep Args, Env or WorkingDir, and Start
// launches the program with no arguments, the adapter's environment and
// the adapter's working directory.
type StartParams struct {
	Language    string
	Program     string
	Args        []string
	Env         []string
	WorkingDir  string
	StopOnEntry bool
}

// Session is one logical debugging engagement (spec §3). ID is assigned
// at creation and never changes.
type Session struct {
	ID       string
	Language string
	Program  string

	adapterCfg adapter.Config
	spawned    *adapter.Spawned
	client     *dapclient.Client

	stopOnEntry bool

	outputSink io.Writer

	mu         sync.Mutex
	state      State
	bps        *breakpointTable
	waiters    []chan State
	capsDone   bool
	caps       dap.Capabilities
	coord      *coordinator
}

// New constructs a Session in Initializing state without performing any
// I/O; call Start to run the handshake.
func New(params StartParams, cfg adapter.Config, outputSink io.Writer) *Session {
	return &Session{
		ID:          uuid.NewString(),
		Language:    params.Language,
		Program:     params.Program,
		adapterCfg:  cfg,
		stopOnEntry: params.StopOnEntry,
		outputSink:  outputSink,
		state:       initializingState(),
		bps:         newBreakpointTable(),
	}
}

// State returns a snapshot of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	// Stop-waiters only resolve on a state WaitForStop may return; a
	// transition to Running (or Initializing) keeps them waiting.
	var waiters []chan State
	if st.Kind == Stopped || st.Terminal() {
		waiters = s.waiters
		s.waiters = nil
	}
	s.mu.Unlock()

	for _, ch := range waiters {
		ch <- st
	}
}

// WaitForStop suspends until the state becomes Stopped or Terminated (or
// Failed), or timeout elapses, returning the state snapshot observed.
func (s *Session) WaitForStop(ctx context.Context, timeout time.Duration) (State, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	s.mu.Lock()
	cur := s.state
	if cur.Kind == Stopped || cur.Terminal() {
		s.mu.Unlock()
		return cur, nil
	}
	ch := make(chan State, 1)
	s.waiters = append(s.waiters, ch)
	s.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case st := <-ch:
		return st, nil
	case <-ctx.Done():
		return State{}, ctx.Err()
	case <-timer.C:
		return State{}, errs.Timeout("wait_for_stop")
	}
}

// Start runs the full DAP handshake (spec §4.5 steps 2-9).
func (s *Session) Start(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			s.setState(failedState("startup", err.Error()))
		}
	}()

	spawned, spawnErr := adapter.Spawn(ctx, s.adapterCfg, s.Program, nil, s.outputSink)
	if spawnErr != nil {
		return spawnErr
	}
	s.spawned = spawned
	s.client = dapclient.NewClient(spawned.Transport)

	initialized := make(chan struct{}, 1)
	unsubInit := s.client.Subscribe("initialized", func(dap.Message) {
		select {
		case initialized <- struct{}{}:
		default:
		}
	})
	defer unsubInit()

	s.subscribeSessionEvents()

	if s.adapterCfg.SpawnMode == adapter.SpawnParentChildOverSamePort {
		s.coord = newCoordinator(s, spawned.Port)
		s.coord.register()
	}

	if _, err = s.client.SendRequest(ctx, &dap.InitializeRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "initialize",
		},
		Arguments: dap.InitializeRequestArguments{
			ClientID:                     "debugger-mcp",
			AdapterID:                    s.adapterCfg.AdapterID,
			LinesStartAt1:                true,
			ColumnsStartAt1:              true,
			PathFormat:                   "path",
			SupportsRunInTerminalRequest: true,
			SupportsStartDebuggingRequest: true,
		},
	}, initializeTimeout); err != nil {
		return err
	}

	select {
	case <-initialized:
	case <-time.After(defaultInitializedWait):
	case <-ctx.Done():
		return ctx.Err()
	}

	if s.adapterCfg.StopOnEntryStrategy == adapter.StopOnEntryBreakpoint && s.stopOnEntry {
		if err = s.setEntryBreakpoint(ctx, s.client, s.Program); err != nil {
			return err
		}
	}

	launchArgs := map[string]interface{}{
		"program": s.Program,
	}
	if s.adapterCfg.StopOnEntryStrategy == adapter.StopOnEntryNative {
		launchArgs["stopOnEntry"] = s.stopOnEntry
	}
	argsJSON, marshalErr := json.Marshal(launchArgs)
	if marshalErr != nil {
		return marshalErr
	}

	if _, err = s.client.SendRequest(ctx, &dap.LaunchRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "launch",
		},
		Arguments: argsJSON,
	}, initializeTimeout); err != nil {
		return err
	}

	if _, err = s.client.SendRequest(ctx, &dap.ConfigurationDoneRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "configurationDone",
		},
	}, requestTimeout); err != nil {
		return err
	}

	s.setState(runningState())
	return nil
}

// setEntryBreakpoint implements the entry-breakpoint workaround (spec
// §4.4/§4.5): it computes the first executable line by reading Program
// from disk via the registry's heuristic and sets a breakpoint there on
// the given client. The Node.js coordinator does not use it for child
// sessions; it calls setEntryBreakpointAtLine1 instead.
func (s *Session) setEntryBreakpoint(ctx context.Context, client *dapclient.Client, program string) error {
	line, err := s.firstExecutableLineOf(program)
	if err != nil {
		return err
	}
	_, err = s.sendSetBreakpoints(ctx, client, program, []*Breakpoint{{Line: line}})
	return err
}

// setEntryBreakpointAtLine1 sets a breakpoint on line 1 of program,
// unconditionally, skipping the first-executable-line heuristic. Per spec
// §4.6 step 4, the Node.js coordinator's child entry breakpoint always
// targets line 1: the heuristic exists to work around adapters that can't
// stop on a comment or bare declaration line, which isn't a concern for
// vscode-js-debug's child.
func (s *Session) setEntryBreakpointAtLine1(ctx context.Context, client *dapclient.Client, program string) error {
	_, err := s.sendSetBreakpoints(ctx, client, program, []*Breakpoint{{Line: 1}})
	return err
}

func (s *Session) firstExecutableLineOf(program string) (int, error) {
	source, err := readFile(program)
	if err != nil {
		return 1, err
	}
	return s.adapterCfg.FirstExecutableLine(source)
}

// sendSetBreakpoints sends one setBreakpoints request for file and returns
// the adapter's verified breakpoints, without touching the session's
// breakpoint table (callers decide whether/where to record them).
func (s *Session) sendSetBreakpoints(ctx context.Context, client *dapclient.Client, file string, bps []*Breakpoint) ([]*Breakpoint, error) {
	srcBps := make([]dap.SourceBreakpoint, len(bps))
	for i, bp := range bps {
		srcBps[i] = dap.SourceBreakpoint{
			Line:         bp.Line,
			Condition:    bp.Condition,
			HitCondition: bp.HitCondition,
			LogMessage:   bp.LogMessage,
		}
	}

	resp, err := client.SendRequest(ctx, &dap.SetBreakpointsRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "setBreakpoints",
		},
		Arguments: dap.SetBreakpointsArguments{
			Source:      dap.Source{Path: file},
			Breakpoints: srcBps,
		},
	}, requestTimeout)
	if err != nil {
		return nil, err
	}

	sbResp, ok := resp.(*dap.SetBreakpointsResponse)
	if !ok {
		return nil, errs.ProtocolError(fmt.Sprintf("unexpected response to setBreakpoints: %T", resp))
	}

	out := make([]*Breakpoint, len(bps))
	for i, bp := range bps {
		var verified bool
		var adapterID int
		if i < len(sbResp.Body.Breakpoints) {
			verified = sbResp.Body.Breakpoints[i].Verified
			adapterID = sbResp.Body.Breakpoints[i].Id
		}
		out[i] = &Breakpoint{
			AdapterID:    adapterID,
			File:         file,
			Line:         bp.Line,
			Condition:    bp.Condition,
			HitCondition: bp.HitCondition,
			LogMessage:   bp.LogMessage,
			Verified:     verified,
		}
	}
	return out, nil
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

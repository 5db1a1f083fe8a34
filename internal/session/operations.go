package session

import (
	"context"
	"fmt"

	"github.com/google/go-dap"

	"github.com/dapbridge/mcp-debugger/internal/dapclient"
	"github.com/dapbridge/mcp-debugger/internal/errs"
)

// activeClient returns the DAP client operations should target: the
// coordinator's current child if this is a Node.js multi-session (spec
// §4.6 step 6), otherwise the session's own client.
func (s *Session) activeClient() *dapclient.Client {
	s.mu.Lock()
	coord := s.coord
	s.mu.Unlock()

	if coord != nil {
		if c := coord.currentClient(); c != nil {
			return c
		}
	}
	return s.client
}

// SetBreakpoint replaces all breakpoints for file with bps, per the DAP
// (and spec §3) "re-setting replaces the file's list" semantics.
func (s *Session) SetBreakpoint(ctx context.Context, file string, lines []int, conditions []string) ([]*Breakpoint, error) {
	bps := make([]*Breakpoint, len(lines))
	for i, line := range lines {
		var cond string
		if i < len(conditions) {
			cond = conditions[i]
		}
		bps[i] = &Breakpoint{File: file, Line: line, Condition: cond}
	}

	resolved, err := s.sendSetBreakpoints(ctx, s.activeClient(), file, bps)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	installed := s.bps.replace(file, resolved)
	s.mu.Unlock()

	return installed, nil
}

// ListBreakpoints returns the current user-visible breakpoint list.
func (s *Session) ListBreakpoints() []*Breakpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bps.all()
}

// Continue resumes execution. Per spec §4.5, success=true from the adapter
// does not guarantee resumption (rdbg pause bug); callers should treat the
// continued/stopped event, not this return, as authoritative.
func (s *Session) Continue(ctx context.Context, threadID int) error {
	if s.State().Kind == Running {
		return nil
	}
	_, err := s.activeClient().SendRequest(ctx, &dap.ContinueRequest{
		Request:   requestOf("continue"),
		Arguments: dap.ContinueArguments{ThreadId: threadID},
	}, requestTimeout)
	return err
}

func (s *Session) StepOver(ctx context.Context, threadID int) error {
	_, err := s.activeClient().SendRequest(ctx, &dap.NextRequest{
		Request:   requestOf("next"),
		Arguments: dap.NextArguments{ThreadId: threadID},
	}, requestTimeout)
	return err
}

func (s *Session) StepInto(ctx context.Context, threadID int) error {
	_, err := s.activeClient().SendRequest(ctx, &dap.StepInRequest{
		Request:   requestOf("stepIn"),
		Arguments: dap.StepInArguments{ThreadId: threadID},
	}, requestTimeout)
	return err
}

func (s *Session) StepOut(ctx context.Context, threadID int) error {
	_, err := s.activeClient().SendRequest(ctx, &dap.StepOutRequest{
		Request:   requestOf("stepOut"),
		Arguments: dap.StepOutArguments{ThreadId: threadID},
	}, requestTimeout)
	return err
}

// Pause is known-broken for rdbg in socket mode (spec §9 Open Questions):
// the adapter silently ignores it. The bridge still reports adapter
// success; callers must observe the absence of a stopped event themselves.
func (s *Session) Pause(ctx context.Context, threadID int) error {
	_, err := s.activeClient().SendRequest(ctx, &dap.PauseRequest{
		Request:   requestOf("pause"),
		Arguments: dap.PauseArguments{ThreadId: threadID},
	}, requestTimeout)
	return err
}

// StackTrace returns the call stack for threadID. If threadID is 0, the
// thread recorded in the current Stopped state is used.
func (s *Session) StackTrace(ctx context.Context, threadID int) (*dap.StackTraceResponseBody, error) {
	if threadID == 0 {
		st := s.State()
		if st.Kind != Stopped {
			return nil, errs.InvalidState("Stopped", st.Kind.String())
		}
		threadID = st.ThreadID
	}

	resp, err := s.activeClient().SendRequest(ctx, &dap.StackTraceRequest{
		Request:   requestOf("stackTrace"),
		Arguments: dap.StackTraceArguments{ThreadId: threadID},
	}, requestTimeout)
	if err != nil {
		return nil, err
	}
	stResp, ok := resp.(*dap.StackTraceResponse)
	if !ok {
		return nil, errs.ProtocolError(fmt.Sprintf("unexpected response to stackTrace: %T", resp))
	}
	return &stResp.Body, nil
}

// Evaluate evaluates expr. If frameID is 0, the top frame of the current
// stopped thread is auto-fetched via a 1-level stackTrace, per spec §4.5.
func (s *Session) Evaluate(ctx context.Context, expr string, frameID int) (*dap.EvaluateResponseBody, error) {
	client := s.activeClient()

	if frameID == 0 {
		st := s.State()
		if st.Kind != Stopped {
			return nil, errs.InvalidState("Stopped", st.Kind.String())
		}
		resp, err := client.SendRequest(ctx, &dap.StackTraceRequest{
			Request: requestOf("stackTrace"),
			Arguments: dap.StackTraceArguments{
				ThreadId: st.ThreadID,
				Levels:   1,
			},
		}, requestTimeout)
		if err != nil {
			return nil, err
		}
		stResp, ok := resp.(*dap.StackTraceResponse)
		if !ok || len(stResp.Body.StackFrames) == 0 {
			return nil, errs.ProtocolError("stackTrace returned no frames for evaluate")
		}
		frameID = stResp.Body.StackFrames[0].Id
	}

	resp, err := client.SendRequest(ctx, &dap.EvaluateRequest{
		Request: requestOf("evaluate"),
		Arguments: dap.EvaluateArguments{
			Expression: expr,
			FrameId:    frameID,
			Context:    "watch",
		},
	}, requestTimeout)
	if err != nil {
		return nil, err
	}
	evResp, ok := resp.(*dap.EvaluateResponse)
	if !ok {
		return nil, errs.ProtocolError(fmt.Sprintf("unexpected response to evaluate: %T", resp))
	}
	return &evResp.Body, nil
}

// Disconnect sends disconnect with terminateDebuggee=true, waits up to 2s
// for the adapter to exit, then force-kills. A Failed session (startup
// error) is torn down the same way. Idempotent: a second call after
// Terminated is a no-op success.
func (s *Session) Disconnect(ctx context.Context) error {
	if s.State().Kind == Terminated {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, disconnectTimeout)
	defer cancel()

	if s.client != nil {
		_, err := s.client.SendRequest(ctx, &dap.DisconnectRequest{
			Request: requestOf("disconnect"),
			Arguments: &dap.DisconnectArguments{
				TerminateDebuggee: true,
			},
		}, disconnectTimeout)
		// A disconnect error (including timeout) still proceeds to force-kill;
		// the adapter may have already torn itself down without replying.
		_ = err
	}

	if s.spawned != nil {
		_ = s.spawned.Transport.Close()
	}
	if s.coord != nil {
		s.coord.closeAll()
	}

	s.setState(terminatedState(0, false))
	return nil
}

func requestOf(command string) dap.Request {
	return dap.Request{
		ProtocolMessage: dap.ProtocolMessage{Type: "request"},
		Command:         command,
	}
}

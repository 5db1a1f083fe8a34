package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dapbridge/mcp-debugger/internal/session"
)

// ThreadArgs is the argument shape for execution-control tools that target
// a specific (or the current) thread.
type ThreadArgs struct {
	SessionID string `json:"session_id"`
	ThreadID  int    `json:"thread_id,omitempty"`
}

func (ds *DebugServer) registerContinueTool() {
	ds.registerThreadOpTool("debugger_continue",
		"Resume execution of a stopped thread",
		(*session.Session).Continue)
}

func (ds *DebugServer) registerStepOverTool() {
	ds.registerThreadOpTool("debugger_step_over",
		"Step over the current line, without entering function calls",
		(*session.Session).StepOver)
}

func (ds *DebugServer) registerStepIntoTool() {
	ds.registerThreadOpTool("debugger_step_into",
		"Step into the function call on the current line",
		(*session.Session).StepInto)
}

func (ds *DebugServer) registerStepOutTool() {
	ds.registerThreadOpTool("debugger_step_out",
		"Step out of the current function",
		(*session.Session).StepOut)
}

func (ds *DebugServer) registerPauseTool() {
	ds.registerThreadOpTool("debugger_pause",
		"Pause a running thread",
		(*session.Session).Pause)
}

// registerThreadOpTool factors out the five execution-control tools, which
// differ only in which Session method they call. All five take the same
// session_id/thread_id argument shape and return the resulting state
// snapshot, per spec §4.5 ("treat the event as authoritative").
func (ds *DebugServer) registerThreadOpTool(name, description string, op func(s *session.Session, ctx context.Context, threadID int) error) {
	tool := mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithNumber("thread_id", mcp.Description("Thread id; omit to use the currently stopped thread")),
	)

	handler := mcp.NewTypedToolHandler(func(ctx context.Context,
		request mcp.CallToolRequest, args ThreadArgs) (*mcp.CallToolResult, error) {

		s, err := ds.manager.Get(args.SessionID)
		if err != nil {
			return toolError(err), nil
		}

		threadID := args.ThreadID
		if threadID == 0 {
			if st := s.State(); st.Kind == session.Stopped {
				threadID = st.ThreadID
			}
		}

		if err := op(s, ctx, threadID); err != nil {
			return toolError(err), nil
		}

		return textResult(`{"session_id":%q,"state":%s}`, args.SessionID, stateText(s.State())), nil
	})

	ds.server.AddTool(tool, handler)
}

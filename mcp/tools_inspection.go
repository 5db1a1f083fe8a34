package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// StackTraceArgs are the arguments for debugger_stack_trace.
type StackTraceArgs struct {
	SessionID string `json:"session_id"`
	ThreadID  int    `json:"thread_id,omitempty"`
}

func (ds *DebugServer) registerStackTraceTool() {
	tool := mcp.NewTool("debugger_stack_trace",
		mcp.WithDescription("Return the call stack of a stopped thread"),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithNumber("thread_id", mcp.Description("Thread id; omit to use the currently stopped thread")),
	)

	handler := mcp.NewTypedToolHandler(func(ctx context.Context,
		request mcp.CallToolRequest, args StackTraceArgs) (*mcp.CallToolResult, error) {

		s, err := ds.manager.Get(args.SessionID)
		if err != nil {
			return toolError(err), nil
		}

		body, err := s.StackTrace(ctx, args.ThreadID)
		if err != nil {
			return toolError(err), nil
		}

		out, err := json.Marshal(body)
		if err != nil {
			return errorResult("failed to marshal stack trace: %v", err), nil
		}
		return rawTextResult(string(out)), nil
	})

	ds.server.AddTool(tool, handler)
}

// EvaluateArgs are the arguments for debugger_evaluate.
type EvaluateArgs struct {
	SessionID  string `json:"session_id"`
	Expression string `json:"expression"`
	FrameID    int    `json:"frame_id,omitempty"`
}

func (ds *DebugServer) registerEvaluateTool() {
	tool := mcp.NewTool("debugger_evaluate",
		mcp.WithDescription("Evaluate an expression in the context of a stack frame"),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithString("expression", mcp.Required(), mcp.Description("Expression to evaluate")),
		mcp.WithNumber("frame_id", mcp.Description("Stack frame id; omit to use the top frame of the currently stopped thread")),
	)

	handler := mcp.NewTypedToolHandler(func(ctx context.Context,
		request mcp.CallToolRequest, args EvaluateArgs) (*mcp.CallToolResult, error) {

		s, err := ds.manager.Get(args.SessionID)
		if err != nil {
			return toolError(err), nil
		}

		body, err := s.Evaluate(ctx, args.Expression, args.FrameID)
		if err != nil {
			return toolError(err), nil
		}

		out, err := json.Marshal(body)
		if err != nil {
			return errorResult("failed to marshal evaluate result: %v", err), nil
		}
		return rawTextResult(string(out)), nil
	})

	ds.server.AddTool(tool, handler)
}

// WaitForStopArgs are the arguments for debugger_wait_for_stop.
type WaitForStopArgs struct {
	SessionID  string `json:"session_id"`
	TimeoutSec int    `json:"timeout_sec,omitempty"`
}

func (ds *DebugServer) registerWaitForStopTool() {
	tool := mcp.NewTool("debugger_wait_for_stop",
		mcp.WithDescription("Block until the session stops, terminates, or fails, or the timeout elapses"),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithNumber("timeout_sec", mcp.Description("Timeout in seconds (default 5)")),
	)

	handler := mcp.NewTypedToolHandler(func(ctx context.Context,
		request mcp.CallToolRequest, args WaitForStopArgs) (*mcp.CallToolResult, error) {

		s, err := ds.manager.Get(args.SessionID)
		if err != nil {
			return toolError(err), nil
		}

		timeout := 5 * time.Second
		if args.TimeoutSec > 0 {
			timeout = time.Duration(args.TimeoutSec) * time.Second
		}

		st, err := s.WaitForStop(ctx, timeout)
		if err != nil {
			return toolError(err), nil
		}
		return rawTextResult(stateText(st)), nil
	})

	ds.server.AddTool(tool, handler)
}

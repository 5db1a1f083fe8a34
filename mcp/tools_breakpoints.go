package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// SetBreakpointArgs are the arguments for debugger_set_breakpoint.
type SetBreakpointArgs struct {
	SessionID  string   `json:"session_id"`
	File       string   `json:"file"`
	Lines      []int    `json:"lines"`
	Conditions []string `json:"conditions,omitempty"`
}

func (ds *DebugServer) registerSetBreakpointTool() {
	tool := mcp.NewTool("debugger_set_breakpoint",
		mcp.WithDescription("Replace all breakpoints for a source file"),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithString("file", mcp.Required(), mcp.Description("Source file path")),
		mcp.WithArray("lines", mcp.Required(),
			mcp.Description("Line numbers (1-based) to break on"),
			mcp.Items(map[string]any{"type": "integer"})),
		mcp.WithArray("conditions",
			mcp.Description("Optional per-line conditional expressions, same length as lines"),
			mcp.Items(map[string]any{"type": "string"})),
	)

	handler := mcp.NewTypedToolHandler(func(ctx context.Context,
		request mcp.CallToolRequest, args SetBreakpointArgs) (*mcp.CallToolResult, error) {

		s, err := ds.manager.Get(args.SessionID)
		if err != nil {
			return toolError(err), nil
		}

		bps, err := s.SetBreakpoint(ctx, args.File, args.Lines, args.Conditions)
		if err != nil {
			return toolError(err), nil
		}

		return rawTextResult(breakpointsJSON(bps)), nil
	})

	ds.server.AddTool(tool, handler)
}

func (ds *DebugServer) registerListBreakpointsTool() {
	tool := mcp.NewTool("debugger_list_breakpoints",
		mcp.WithDescription("List all breakpoints currently set in a session"),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
	)

	handler := mcp.NewTypedToolHandler(func(ctx context.Context,
		request mcp.CallToolRequest, args SessionStateArgs) (*mcp.CallToolResult, error) {

		s, err := ds.manager.Get(args.SessionID)
		if err != nil {
			return toolError(err), nil
		}

		return rawTextResult(breakpointsJSON(s.ListBreakpoints())), nil
	})

	ds.server.AddTool(tool, handler)
}

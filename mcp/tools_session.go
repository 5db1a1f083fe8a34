package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dapbridge/mcp-debugger/internal/session"
)

// StartArgs are the arguments for debugger_start.
type StartArgs struct {
	Language    string   `json:"language"`
	Program     string   `json:"program"`
	Args        []string `json:"args,omitempty"`
	Env         []string `json:"env,omitempty"`
	WorkingDir  string   `json:"working_dir,omitempty"`
	StopOnEntry bool     `json:"stop_on_entry,omitempty"`
}

func (ds *DebugServer) registerStartTool() {
	tool := mcp.NewTool("debugger_start",
		mcp.WithDescription("Start a new debugging session for a program, spawning the adapter for the given language"),
		mcp.WithString("language", mcp.Required(),
			mcp.Description("One of: python, ruby, nodejs, go, rust")),
		mcp.WithString("program", mcp.Required(),
			mcp.Description("Path to the program to debug")),
		mcp.WithArray("args",
			mcp.Description("Command line arguments for the program; accepted but not passed on: the program is launched with no arguments"),
			mcp.Items(map[string]any{"type": "string"})),
		mcp.WithArray("env",
			mcp.Description("Environment variables (KEY=value format); accepted but not passed on: the program gets the adapter's environment"),
			mcp.Items(map[string]any{"type": "string"})),
		mcp.WithString("working_dir",
			mcp.Description("Working directory for the debugged program; accepted but not passed on: the adapter's working directory is used")),
		mcp.WithBoolean("stop_on_entry",
			mcp.Description("Stop at the program's entry point before running")),
	)

	handler := mcp.NewTypedToolHandler(func(ctx context.Context,
		request mcp.CallToolRequest, args StartArgs) (*mcp.CallToolResult, error) {

		s, err := ds.manager.CreateSession(ctx, session.StartParams{
			Language:    args.Language,
			Program:     args.Program,
			Args:        args.Args,
			Env:         args.Env,
			WorkingDir:  args.WorkingDir,
			StopOnEntry: args.StopOnEntry,
		})
		if err != nil {
			return toolError(err), nil
		}

		return textResult(`{"session_id":%q,"state":%s}`, s.ID, stateText(s.State())), nil
	})

	ds.server.AddTool(tool, handler)
}

// SessionStateArgs is the argument shape shared by every tool that just
// needs a session_id.
type SessionStateArgs struct {
	SessionID string `json:"session_id"`
}

func (ds *DebugServer) registerSessionStateTool() {
	tool := mcp.NewTool("debugger_session_state",
		mcp.WithDescription("Return a snapshot of a session's current state"),
		mcp.WithString("session_id", mcp.Required(),
			mcp.Description("Session identifier returned by debugger_start")),
	)

	handler := mcp.NewTypedToolHandler(func(ctx context.Context,
		request mcp.CallToolRequest, args SessionStateArgs) (*mcp.CallToolResult, error) {

		s, err := ds.manager.Get(args.SessionID)
		if err != nil {
			return toolError(err), nil
		}
		return rawTextResult(stateText(s.State())), nil
	})

	ds.server.AddTool(tool, handler)
}

func (ds *DebugServer) registerDisconnectTool() {
	tool := mcp.NewTool("debugger_disconnect",
		mcp.WithDescription("Terminate a debugging session, killing its adapter process. Idempotent."),
		mcp.WithString("session_id", mcp.Required(),
			mcp.Description("Session identifier returned by debugger_start")),
	)

	handler := mcp.NewTypedToolHandler(func(ctx context.Context,
		request mcp.CallToolRequest, args SessionStateArgs) (*mcp.CallToolResult, error) {

		if err := ds.manager.DestroySession(ctx, args.SessionID); err != nil {
			return toolError(err), nil
		}
		return textResult(`{"session_id":%q,"state":"Terminated"}`, args.SessionID), nil
	})

	ds.server.AddTool(tool, handler)
}

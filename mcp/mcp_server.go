// Package mcp is the upward MCP tool surface (spec §6), grounded on the
// teacher's mcp/mcp_server.go (mcp.NewTool/mcp.NewTypedToolHandler per
// tool, one registerXTool method each), now delegating to
// internal/manager and internal/session instead of the single-language
// debugger package.
package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dapbridge/mcp-debugger/internal/errs"
	"github.com/dapbridge/mcp-debugger/internal/manager"
	"github.com/dapbridge/mcp-debugger/internal/session"
)

// DebugServer wraps the session manager as an MCP server exposing the 13
// debugger_* tools spec §6 names.
type DebugServer struct {
	server  *server.MCPServer
	manager *manager.Manager
}

// NewDebugServer creates the MCP server and registers every tool.
func NewDebugServer(mgr *manager.Manager) *DebugServer {
	mcpServer := server.NewMCPServer(
		"DAP-to-MCP Debug Bridge",
		"1.0.0",
	)

	ds := &DebugServer{server: mcpServer, manager: mgr}
	ds.registerTools()
	return ds
}

func (ds *DebugServer) registerTools() {
	ds.registerStartTool()
	ds.registerSetBreakpointTool()
	ds.registerListBreakpointsTool()
	ds.registerContinueTool()
	ds.registerStepOverTool()
	ds.registerStepIntoTool()
	ds.registerStepOutTool()
	ds.registerPauseTool()
	ds.registerStackTraceTool()
	ds.registerEvaluateTool()
	ds.registerWaitForStopTool()
	ds.registerSessionStateTool()
	ds.registerDisconnectTool()
}

// Serve runs the MCP server over stdio, blocking until the client
// disconnects or an unrecoverable transport error occurs.
func (ds *DebugServer) Serve() error {
	return server.ServeStdio(ds.server)
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(fmt.Sprintf(format, args...))},
		IsError: true,
	}
}

func textResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(fmt.Sprintf(format, args...))},
	}
}

// rawTextResult returns s verbatim, unlike textResult, which is unsafe for
// content (e.g. marshaled JSON) that may itself contain '%' characters.
func rawTextResult(s string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(s)},
	}
}

func toolError(err error) *mcp.CallToolResult {
	return errorResult("[%s] %v", errs.CodeOf(err), err)
}

func stateText(st session.State) string {
	switch st.Kind {
	case session.Stopped:
		return fmt.Sprintf(`{"state":"Stopped","threadId":%d,"reason":%q}`, st.ThreadID, st.Reason)
	case session.Terminated:
		if st.HasExitCode {
			return fmt.Sprintf(`{"state":"Terminated","exitCode":%d}`, st.ExitCode)
		}
		return `{"state":"Terminated"}`
	case session.Failed:
		return fmt.Sprintf(`{"state":"Failed","kind":%q,"message":%q}`, st.FailKind, st.FailMessage)
	default:
		return fmt.Sprintf(`{"state":%q}`, st.Kind.String())
	}
}

// Command dap-mcp-server runs the DAP-to-MCP debug bridge over stdio,
// exposing the debugger_* tools to any MCP client (spec §6). It replaces
// the teacher's language-specific cmd/mcp-server, cmd/dlv-mcp-server and
// cmd/mcp-debugger binaries, which each wired one actor-based debugger to
// one hardcoded adapter; this one server serves every session.New
// language via the adapter registry and never needs a recompile per
// target language.
//
// -tui additionally runs the read-only session monitor (tui.Run) in the
// same process, replacing the teacher's cmd/tui: the teacher's TUI and
// MCP server shared one in-process actor system, which a second OS
// process reading the same internal/manager.Manager cannot replicate
// without real IPC this bridge has no use for otherwise. tui.Run opens
// /dev/tty directly so it doesn't fight the MCP server's own stdio.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/dapbridge/mcp-debugger/internal/logging"
	"github.com/dapbridge/mcp-debugger/internal/manager"
	"github.com/dapbridge/mcp-debugger/mcp"
	"github.com/dapbridge/mcp-debugger/tui"
)

func main() {
	logToFile := flag.Bool("log-file", false, "log to ~/.dap-mcp-server instead of stderr")
	withTUI := flag.Bool("tui", false, "also run the session monitor on the controlling terminal")
	flag.Parse()

	if *logToFile {
		f, err := logging.InitFileLogger()
		if err != nil {
			log.Printf("warning: failed to initialize file logging: %v", err)
		} else {
			defer f.Close()
		}
	}

	// -tui opens /dev/tty directly (tui.Run), so stdin/stdout being piped
	// for the MCP JSON-RPC channel doesn't rule it out by itself; what
	// does is there being no controlling terminal at all to open.
	if *withTUI && !isatty.IsTerminal(os.Stderr.Fd()) {
		log.Fatal("-tui requires a controlling terminal")
	}

	log.Println("starting DAP-to-MCP debug bridge")

	mgr := manager.New(nil)
	defer mgr.Shutdown(context.Background())

	server := mcp.NewDebugServer(mgr)

	serveErrs := make(chan error, 2)
	go func() { serveErrs <- server.Serve() }()

	if *withTUI {
		go func() { serveErrs <- tui.Run(mgr) }()
	}

	if err := <-serveErrs; err != nil {
		log.Fatalf("dap-mcp-server error: %v", err)
	}
}

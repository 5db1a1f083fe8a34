package adapter

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os/exec"
	"strings"
	"time"

	"github.com/creack/pty"

	"github.com/dapbridge/mcp-debugger/internal/errs"
	"github.com/dapbridge/mcp-debugger/internal/transport"
)

// Spawned is the result of launching one adapter process: a ready
// transport plus the process handle, for lifecycle tracking.
type Spawned struct {
	Transport transport.Transport
	Cmd       *exec.Cmd
	Port      int // the port the bridge ended up connecting to, if socket-based
}

// Spawn starts cfg's adapter process for program/args and returns a ready
// transport, generalizing the teacher's launchDelveOnceExternal
// (dap_external.go) to every PortDiscovery/TransportKind combination in
// the registry.
func Spawn(ctx context.Context, cfg Config, program string, args []string, stderrSink io.Writer) (*Spawned, error) {
	if cfg.TransportKind == TransportStdio {
		return spawnStdio(cfg, program, args, stderrSink)
	}

	switch cfg.PortDiscovery {
	case PortFixed:
		return spawnFixedPort(ctx, cfg, program, args, stderrSink)
	case PortFromBanner:
		return spawnBannerPort(ctx, cfg, program, args, stderrSink)
	default:
		return nil, errs.SpawnFailed(cfg.AdapterID, fmt.Errorf("unknown port discovery strategy"))
	}
}

func buildCmd(cfg Config, params LaunchParams) *exec.Cmd {
	args := cfg.ArgsTemplate(params)
	return exec.Command(cfg.Command, args...)
}

func spawnStdio(cfg Config, program string, args []string, stderrSink io.Writer) (*Spawned, error) {
	cmd := buildCmd(cfg, LaunchParams{Program: program, Args: args})
	t, err := transport.NewStdioTransport(cmd, stderrSink, 2*time.Second)
	if err != nil {
		return nil, errs.SpawnFailed(cfg.AdapterID, err)
	}
	return &Spawned{Transport: t, Cmd: cmd}, nil
}

// freeEphemeralPort briefly binds port 0 to let the kernel pick a free TCP
// port, then releases it so the adapter process can bind it instead. There
// is an unavoidable race between the close and the adapter's bind; delve,
// rdbg and codelldb all retry their bind briefly, and DialWithRetry covers
// the rest of the window.
func freeEphemeralPort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func spawnFixedPort(ctx context.Context, cfg Config, program string, args []string, stderrSink io.Writer) (*Spawned, error) {
	port, err := freeEphemeralPort()
	if err != nil {
		return nil, errs.SpawnFailed(cfg.AdapterID, err)
	}

	cmd := buildCmd(cfg, LaunchParams{Program: program, Args: args, Port: port})
	if stderrSink != nil {
		cmd.Stderr = stderrSink
	}
	if err := cmd.Start(); err != nil {
		return nil, errs.SpawnFailed(cfg.AdapterID, err)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	conn, err := transport.DialWithRetry(ctx, port, timeout)
	if err != nil {
		_ = cmd.Process.Kill()
		return nil, err
	}

	return &Spawned{
		Transport: transport.NewSocketTransport(conn, cmd),
		Cmd:       cmd,
		Port:      port,
	}, nil
}

// spawnBannerPort runs the adapter under a pty when its banner stream is
// stdout, since several adapters (vscode-js-debug included) line-buffer
// stdout and only flush promptly when it looks like a tty. In the registry
// only Node.js discovers its port from a banner, so it is the only adapter
// spawned under creack/pty.
func spawnBannerPort(ctx context.Context, cfg Config, program string, args []string, stderrSink io.Writer) (*Spawned, error) {
	cmd := buildCmd(cfg, LaunchParams{Program: program, Args: args})

	bannerTimeout := cfg.BannerTimeout
	if bannerTimeout <= 0 {
		bannerTimeout = 8 * time.Second
	}
	bannerCtx, cancel := context.WithTimeout(ctx, bannerTimeout)
	defer cancel()

	var bannerReader io.Reader
	var ptmx io.Closer

	if cfg.BannerStream == BannerStdout {
		f, err := pty.Start(cmd)
		if err != nil {
			return nil, errs.SpawnFailed(cfg.AdapterID, err)
		}
		bannerReader = f
		ptmx = f
	} else {
		stderr, err := cmd.StderrPipe()
		if err != nil {
			return nil, errs.SpawnFailed(cfg.AdapterID, err)
		}
		bannerReader = stderr
		if err := cmd.Start(); err != nil {
			return nil, errs.SpawnFailed(cfg.AdapterID, err)
		}
	}

	port, scanErr := scanBanner(bannerCtx, bannerReader, cfg.BannerPrefix)
	if scanErr != nil {
		_ = cmd.Process.Kill()
		if ptmx != nil {
			_ = ptmx.Close()
		}
		return nil, scanErr
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	conn, err := transport.DialWithRetry(ctx, port, timeout)
	if err != nil {
		_ = cmd.Process.Kill()
		return nil, err
	}

	return &Spawned{
		Transport: transport.NewSocketTransport(conn, cmd),
		Cmd:       cmd,
		Port:      port,
	}, nil
}

// scanBanner reads lines from r until one starts with prefix, then parses
// the trailing "host:port" or ":port" into a bare port number.
func scanBanner(ctx context.Context, r io.Reader, prefix string) (int, error) {
	type result struct {
		port int
		err  error
	}
	done := make(chan result, 1)

	go func() {
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			line := sc.Text()
			if !strings.HasPrefix(line, prefix) {
				continue
			}
			addr := strings.TrimSpace(strings.TrimPrefix(line, prefix))
			idx := strings.LastIndex(addr, ":")
			if idx < 0 {
				done <- result{err: errs.ProtocolError("malformed banner line: " + line)}
				return
			}
			var port int
			if _, err := fmt.Sscanf(addr[idx+1:], "%d", &port); err != nil {
				done <- result{err: errs.ProtocolError("malformed banner port in: " + line)}
				return
			}
			done <- result{port: port}
			return
		}
		if err := sc.Err(); err != nil {
			done <- result{err: err}
			return
		}
		done <- result{err: errs.ProtocolError("adapter exited before printing its listen banner")}
	}()

	select {
	case <-ctx.Done():
		return 0, errs.Timeout("waiting for adapter listen banner")
	case res := <-done:
		return res.port, res.err
	}
}

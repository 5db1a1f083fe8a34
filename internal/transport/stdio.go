package transport

import (
	"bufio"
	"io"
	"os/exec"
	"time"
)

// StdioTransport wraps a spawned child process's stdin/stdout, adapted from
// the teacher's launchDelveOnceExternal (dap_external.go), generalized to
// any adapter command and given a graceful-then-SIGKILL close.
type StdioTransport struct {
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stdout     *bufio.Reader
	writer     *lockedWriter
	killGrace  time.Duration
	stderrSink io.Writer
}

// NewStdioTransport starts cmd (which must not have been started yet) and
// returns a transport over its stdin/stdout. If stderrSink is non-nil, the
// child's stderr is connected to it for diagnostics (spec §4.2: "spawned
// with stderr either inherited or captured for diagnostics").
func NewStdioTransport(cmd *exec.Cmd, stderrSink io.Writer, killGrace time.Duration) (*StdioTransport, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if stderrSink != nil {
		cmd.Stderr = stderrSink
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	if killGrace <= 0 {
		killGrace = 2 * time.Second
	}

	return &StdioTransport{
		cmd:       cmd,
		stdin:     stdin,
		stdout:    bufio.NewReader(stdout),
		writer:    &lockedWriter{w: stdin},
		killGrace: killGrace,
	}, nil
}

func (t *StdioTransport) Write(p []byte) (int, error) { return t.writer.Write(p) }
func (t *StdioTransport) Read(p []byte) (int, error)  { return t.stdout.Read(p) }
func (t *StdioTransport) Reader() *bufio.Reader        { return t.stdout }

// Close closes stdin (asking the adapter to exit cleanly), waits up to the
// configured grace period, then SIGKILLs the process if it is still alive.
func (t *StdioTransport) Close() error {
	_ = t.stdin.Close()

	done := make(chan error, 1)
	go func() { done <- t.cmd.Wait() }()

	select {
	case <-done:
		return nil
	case <-time.After(t.killGrace):
		if t.cmd.Process != nil {
			_ = t.cmd.Process.Kill()
		}
		<-done
		return nil
	}
}

package session

import (
	"fmt"

	"github.com/google/go-dap"
)

// subscribeSessionEvents wires the parent client's event stream into state
// transitions (spec §4.5 "Event handling"). The Node.js coordinator
// additionally forwards a subset of these from child clients.
func (s *Session) subscribeSessionEvents() {
	s.client.Subscribe("stopped", func(msg dap.Message) {
		s.onStopped(msg.(*dap.StoppedEvent))
	})
	s.client.Subscribe("continued", func(dap.Message) {
		s.onContinued()
	})
	s.client.Subscribe("terminated", func(msg dap.Message) {
		s.onTerminated(msg.(*dap.TerminatedEvent))
	})
	s.client.Subscribe("exited", func(msg dap.Message) {
		s.onExited(msg.(*dap.ExitedEvent))
	})
	s.client.Subscribe("output", func(msg dap.Message) {
		s.onOutput(msg.(*dap.OutputEvent))
	})
	s.client.Subscribe("breakpoint", func(msg dap.Message) {
		s.onBreakpointEvent(msg.(*dap.BreakpointEvent))
	})
}

func (s *Session) onStopped(ev *dap.StoppedEvent) {
	s.setState(stoppedState(ev.Body.ThreadId, ev.Body.Reason))
}

func (s *Session) onContinued() {
	s.setState(runningState())
}

func (s *Session) onTerminated(ev *dap.TerminatedEvent) {
	s.setState(terminatedState(0, false))
}

func (s *Session) onExited(ev *dap.ExitedEvent) {
	s.setState(terminatedState(ev.Body.ExitCode, true))
}

func (s *Session) onOutput(ev *dap.OutputEvent) {
	if s.outputSink == nil {
		return
	}
	fmt.Fprintf(s.outputSink, "[%s] %s", ev.Body.Category, ev.Body.Output)
}

func (s *Session) onBreakpointEvent(ev *dap.BreakpointEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, bps := range s.bps.byFile {
		for _, bp := range bps {
			if ev.Body.Breakpoint.Id != 0 && bp.AdapterID == ev.Body.Breakpoint.Id {
				bp.Verified = ev.Body.Breakpoint.Verified
			}
		}
	}
}

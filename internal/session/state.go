package session

// Kind tags the variant of a session's State, mirroring the tagged enum in
// the data model: Initializing, Running, Stopped, Terminated, Failed.
type Kind int

const (
	Initializing Kind = iota
	Running
	Stopped
	Terminated
	Failed
)

func (k Kind) String() string {
	switch k {
	case Initializing:
		return "Initializing"
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	case Terminated:
		return "Terminated"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// State is an immutable snapshot of a session's state machine. Only the
// fields relevant to Kind are populated; callers must switch on Kind before
// reading them.
type State struct {
	Kind Kind

	// Stopped
	ThreadID int
	Reason   string

	// Terminated
	ExitCode    int
	HasExitCode bool

	// Failed
	FailKind    string
	FailMessage string
}

func initializingState() State { return State{Kind: Initializing} }

func runningState() State { return State{Kind: Running} }

func stoppedState(threadID int, reason string) State {
	return State{Kind: Stopped, ThreadID: threadID, Reason: reason}
}

func terminatedState(exitCode int, has bool) State {
	return State{Kind: Terminated, ExitCode: exitCode, HasExitCode: has}
}

func failedState(kind, message string) State {
	return State{Kind: Failed, FailKind: kind, FailMessage: message}
}

// Terminal reports whether no further transitions out of this state occur.
func (s State) Terminal() bool {
	return s.Kind == Terminated || s.Kind == Failed
}

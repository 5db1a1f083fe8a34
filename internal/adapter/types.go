// Package adapter is the per-language adapter registry described in spec
// §4.4. It replaces the teacher's single hardcoded launchDelve path
// (dap.go/dap_external.go, AdapterID "go") with data, so that adding a
// language is "an addition to the table" rather than a new code branch, as
// spec §9 requires.
package adapter

import "time"

// TransportKind selects the byte-stream flavor an adapter speaks over.
type TransportKind int

const (
	TransportStdio TransportKind = iota
	TransportSocket
)

// PortDiscovery selects how a socket-transport adapter's listening port is
// obtained.
type PortDiscovery int

const (
	// PortFixed means the bridge picks a free ephemeral TCP port up front
	// and passes it to the adapter on the command line.
	PortFixed PortDiscovery = iota
	// PortFromBanner means the adapter picks its own port and prints a
	// banner line to one of its standard streams; the bridge scans for
	// BannerPrefix and parses the remainder as "host:port" or ":port".
	PortFromBanner
)

// BannerStream identifies which of the adapter's standard streams carries
// the PortFromBanner announcement.
type BannerStream int

const (
	BannerStdout BannerStream = iota
	BannerStderr
)

// StopOnEntryStrategy is how the bridge emulates (or natively requests)
// stopping the debuggee at its entry point, per spec §4.4/§4.5.
type StopOnEntryStrategy int

const (
	// StopOnEntryNative passes stopOnEntry:true in the launch request and
	// trusts the adapter to honor it.
	StopOnEntryNative StopOnEntryStrategy = iota
	// StopOnEntryBreakpoint emulates it by setting an ordinary breakpoint
	// on the program's first executable line before configurationDone.
	StopOnEntryBreakpoint
	// StopOnEntryTargetSpecific defers the decision to the multi-session
	// coordinator, which applies the breakpoint to the *child* session
	// once it is spawned (Node.js only, spec §4.6 step 4).
	StopOnEntryTargetSpecific
)

// SpawnMode distinguishes adapters that run entirely in one DAP session
// from vscode-js-debug's parent/child model.
type SpawnMode int

const (
	SpawnSingle SpawnMode = iota
	SpawnParentChildOverSamePort
)

// Config is the per-language entry in the adapter registry (spec §4.4's
// table). ArgsTemplate receives the resolved launch parameters so it can
// place the program path, args and port placeholder.
type Config struct {
	// Language is the canonical tag: python, ruby, nodejs, go, rust.
	Language string

	// AdapterID is sent as InitializeRequestArguments.AdapterID.
	AdapterID string

	// Command is the executable to spawn.
	Command string

	// ArgsTemplate builds the process argv given the launch parameters.
	ArgsTemplate func(p LaunchParams) []string

	TransportKind TransportKind

	PortDiscovery PortDiscovery
	BannerStream  BannerStream
	BannerPrefix  string

	StopOnEntryStrategy StopOnEntryStrategy

	// FirstExecutableLine implements the best-effort heuristic of spec
	// §4.4. It always returns a valid line number (falling back to 1).
	FirstExecutableLine func(source string) (int, error)

	SpawnMode SpawnMode

	// ConnectTimeout bounds DialWithRetry for socket-transport adapters.
	ConnectTimeout time.Duration

	// BannerTimeout bounds how long the bridge waits for PortFromBanner
	// before giving up.
	BannerTimeout time.Duration
}

// LaunchParams carries the resolved values ArgsTemplate needs to build an
// adapter's argv.
type LaunchParams struct {
	Program string
	Args    []string
	Port    int // 0 if the adapter doesn't take a port argument
}

package adapter

import (
	"strconv"
	"time"
)

// registry is the static table spec §4.4 describes: one row per supported
// language, driving everything the session startup sequence (spec §4.5)
// needs instead of a switch statement per language.
var registry = map[string]Config{
	"python": {
		Language:  "python",
		AdapterID: "debugpy",
		Command:   "python3",
		// spec §6: debugpy's adapter process speaks DAP over its own
		// stdin/stdout, unlike every other supported language here.
		ArgsTemplate: func(p LaunchParams) []string {
			return []string{"-m", "debugpy.adapter"}
		},
		TransportKind:       TransportStdio,
		StopOnEntryStrategy: StopOnEntryNative,
		FirstExecutableLine: pythonFirstExecutableLine,
		SpawnMode:           SpawnSingle,
	},
	"ruby": {
		Language:  "ruby",
		AdapterID: "rdbg",
		Command:   "rdbg",
		ArgsTemplate: func(p LaunchParams) []string {
			args := []string{"--open", "--port", strconv.Itoa(p.Port), "--nonstop", "--"}
			args = append(args, p.Program)
			return append(args, p.Args...)
		},
		TransportKind: TransportSocket,
		PortDiscovery: PortFixed,
		// rdbg's own stopOnEntry support is unreliable over the socket
		// transport (spec §8 scenario 2); the bridge emulates it with an
		// ordinary breakpoint on the first executable line instead.
		StopOnEntryStrategy: StopOnEntryBreakpoint,
		FirstExecutableLine: rubyFirstExecutableLine,
		SpawnMode:           SpawnSingle,
		ConnectTimeout:      5 * time.Second,
	},
	"nodejs": {
		Language:  "nodejs",
		AdapterID: "vscode-js-debug",
		Command:   "js-debug",
		ArgsTemplate: func(p LaunchParams) []string {
			return []string{strconv.Itoa(p.Port)}
		},
		TransportKind: TransportSocket,
		// js-debug binds its own listener and prints the address rather
		// than accepting a pre-chosen port.
		PortDiscovery: PortFromBanner,
		BannerStream:  BannerStdout,
		BannerPrefix:  "Debug server listening at ",
		// The parent session never runs user code; it only brokers a
		// startDebugging reverse request that spawns a child session over
		// the same port (spec §4.6). The child decides stopOnEntry.
		StopOnEntryStrategy: StopOnEntryTargetSpecific,
		FirstExecutableLine: nodeJSFirstExecutableLine,
		SpawnMode:           SpawnParentChildOverSamePort,
		ConnectTimeout:      8 * time.Second,
		BannerTimeout:       8 * time.Second,
	},
	"go": {
		Language:  "go",
		AdapterID: "delve",
		Command:   "dlv",
		ArgsTemplate: func(p LaunchParams) []string {
			return []string{"dap", "--listen", "127.0.0.1:" + strconv.Itoa(p.Port)}
		},
		TransportKind:       TransportSocket,
		PortDiscovery:       PortFixed,
		StopOnEntryStrategy: StopOnEntryNative,
		FirstExecutableLine: goFirstExecutableLine,
		SpawnMode:           SpawnSingle,
		ConnectTimeout:      5 * time.Second,
	},
	"rust": {
		Language:  "rust",
		AdapterID: "codelldb",
		Command:   "codelldb",
		ArgsTemplate: func(p LaunchParams) []string {
			return []string{"--port", strconv.Itoa(p.Port)}
		},
		TransportKind:       TransportSocket,
		PortDiscovery:       PortFixed,
		StopOnEntryStrategy: StopOnEntryNative,
		FirstExecutableLine: rustFirstExecutableLine,
		SpawnMode:           SpawnSingle,
		ConnectTimeout:      5 * time.Second,
	},
}

// Lookup returns the Config for language, and whether it was found.
func Lookup(language string) (Config, bool) {
	cfg, ok := registry[language]
	return cfg, ok
}

// Languages returns the registry's supported language tags.
func Languages() []string {
	langs := make([]string, 0, len(registry))
	for lang := range registry {
		langs = append(langs, lang)
	}
	return langs
}

package adapter

import (
	"strings"

	delveversion "github.com/go-delve/delve/pkg/version"

	"github.com/dapbridge/mcp-debugger/internal/errs"
)

// minDelveVersion is the oldest delve release known to support `dlv dap`
// with the request set this bridge relies on (configurationDone-gated
// breakpoints, terminated events on process exit).
var minDelveVersion, _ = delveversion.ParseVersionString("1.20.0")

// CheckDelveVersion parses the output of `dlv version` (teacher's
// launchDelveExternal shells out to find dlv via exec.LookPath but never
// checks its version) and rejects adapters too old to speak the subset of
// DAP this bridge drives.
func CheckDelveVersion(versionOutput string) error {
	line := versionOutput
	if idx := strings.Index(versionOutput, "\n"); idx >= 0 {
		line = versionOutput[:idx]
	}

	parsed, ok := delveversion.ParseVersionString(line)
	if !ok {
		// Development builds of delve report a non-semver string; accept
		// them rather than block the bridge on an unparsable banner.
		return nil
	}

	if parsed.Major < minDelveVersion.Major {
		return versionTooOld(parsed)
	}
	if parsed.Major == minDelveVersion.Major && parsed.Minor < minDelveVersion.Minor {
		return versionTooOld(parsed)
	}
	return nil
}

func versionTooOld(got delveversion.Version) error {
	return errs.AdapterError("version", "dlv "+got.String()+" is older than the minimum supported "+minDelveVersion.String())
}

// Package errs defines the stable error taxonomy the bridge surfaces to
// callers, so that an MCP tool handler can turn any failure into a
// numeric, stable error code without string-matching.
package errs

import "fmt"

// Code is a stable, numeric error identifier surfaced to MCP clients.
type Code int

const (
	CodeUnknown Code = iota
	CodeAdapterNotFound
	CodeSpawnFailed
	CodeTransportFailed
	CodeProtocolError
	CodeAdapterError
	CodeInvalidState
	CodeTimeout
	CodeSessionNotFound
)

func (c Code) String() string {
	switch c {
	case CodeAdapterNotFound:
		return "adapter_not_found"
	case CodeSpawnFailed:
		return "spawn_failed"
	case CodeTransportFailed:
		return "transport_failed"
	case CodeProtocolError:
		return "protocol_error"
	case CodeAdapterError:
		return "adapter_error"
	case CodeInvalidState:
		return "invalid_state"
	case CodeTimeout:
		return "timeout"
	case CodeSessionNotFound:
		return "session_not_found"
	default:
		return "unknown"
	}
}

// Error is the concrete type behind every taxonomy member. Callers should
// match on Code() rather than type-asserting a specific constructor's
// return value, since all of them produce *Error.
type Error struct {
	code    Code
	message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error { return e.cause }

// Code returns the stable numeric code for this error.
func (e *Error) Code() Code { return e.code }

func newErr(code Code, cause error, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...), cause: cause}
}

// AdapterNotFound reports an unknown language tag in the adapter registry.
func AdapterNotFound(language string) error {
	return newErr(CodeAdapterNotFound, nil, "no adapter registered for language %q", language)
}

// SpawnFailed reports an OS-level failure to execute an adapter process.
func SpawnFailed(adapterID string, cause error) error {
	return newErr(CodeSpawnFailed, cause, "could not spawn adapter %q", adapterID)
}

// TransportFailed reports a connect/read/write failure on the byte stream.
func TransportFailed(cause error) error {
	return newErr(CodeTransportFailed, cause, "transport failure")
}

// ProtocolError reports a framing or schema violation from the adapter.
func ProtocolError(detail string) error {
	return newErr(CodeProtocolError, nil, "%s", detail)
}

// AdapterError reports an adapter response with success=false.
func AdapterError(command, message string) error {
	return newErr(CodeAdapterError, nil, "adapter rejected %q: %s", command, message)
}

// InvalidState reports an operation attempted from an incompatible session
// state.
func InvalidState(expected, actual string) error {
	return newErr(CodeInvalidState, nil, "expected state %q, session is %q", expected, actual)
}

// Timeout reports a bounded wait that elapsed without satisfaction.
func Timeout(operation string) error {
	return newErr(CodeTimeout, nil, "%s timed out", operation)
}

// SessionNotFound reports a manager lookup miss.
func SessionNotFound(id string) error {
	return newErr(CodeSessionNotFound, nil, "no session with id %q", id)
}

// CodeOf extracts the taxonomy code from err, or CodeUnknown if err is not
// (or does not wrap) one of ours.
func CodeOf(err error) Code {
	var e *Error
	if ok := asError(err, &e); ok {
		return e.code
	}
	return CodeUnknown
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}

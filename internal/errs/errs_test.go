package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeOfMatchesConstructor(t *testing.T) {
	err := SessionNotFound("abc")
	require.Equal(t, CodeSessionNotFound, CodeOf(err))
}

func TestCodeOfUnwrapsWrappedError(t *testing.T) {
	base := AdapterNotFound("cobol")
	wrapped := fmt.Errorf("starting session: %w", base)
	require.Equal(t, CodeAdapterNotFound, CodeOf(wrapped))
}

func TestCodeOfReturnsUnknownForForeignError(t *testing.T) {
	require.Equal(t, CodeUnknown, CodeOf(errors.New("boom")))
}

func TestErrorIncludesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := TransportFailed(cause)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "connection refused")
}

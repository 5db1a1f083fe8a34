package manager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dapbridge/mcp-debugger/internal/errs"
	"github.com/dapbridge/mcp-debugger/internal/session"
)

func TestGetUnknownSessionReturnsSessionNotFound(t *testing.T) {
	m := New(nil)

	_, err := m.Get("nope")
	require.Error(t, err)
	require.Equal(t, errs.CodeSessionNotFound, errs.CodeOf(err))
}

func TestDestroySessionIsIdempotentForUnknownID(t *testing.T) {
	m := New(nil)

	require.NoError(t, m.DestroySession(context.Background(), "nope"))
	require.NoError(t, m.DestroySession(context.Background(), "nope"))
}

func TestCreateSessionRejectsUnknownLanguage(t *testing.T) {
	m := New(nil)

	_, err := m.CreateSession(context.Background(), session.StartParams{Language: "cobol"})
	require.Error(t, err)
	require.Equal(t, errs.CodeAdapterNotFound, errs.CodeOf(err))
}

func TestListStartsEmpty(t *testing.T) {
	m := New(nil)
	require.Empty(t, m.List())
}

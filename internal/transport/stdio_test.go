package transport

import (
	"io"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStdioTransportRoundTripsThroughCat(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	cmd := exec.Command("cat")
	tr, err := NewStdioTransport(cmd, nil, 500*time.Millisecond)
	require.NoError(t, err)
	defer tr.Close()

	msg := []byte("hello, adapter\n")
	n, err := tr.Write(msg)
	require.NoError(t, err)
	require.Equal(t, len(msg), n)

	buf := make([]byte, len(msg))
	_, err = io.ReadFull(tr.Reader(), buf)
	require.NoError(t, err)
	require.Equal(t, msg, buf)
}

func TestStdioTransportCloseKillsUnresponsiveProcess(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}

	cmd := exec.Command("sleep", "30")
	tr, err := NewStdioTransport(cmd, nil, 100*time.Millisecond)
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, tr.Close())
	require.Less(t, time.Since(start), 5*time.Second)
}

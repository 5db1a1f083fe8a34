package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newBareSession() *Session {
	return &Session{
		ID:    "test-session",
		state: initializingState(),
		bps:   newBreakpointTable(),
	}
}

func TestWaitForStopReturnsImmediatelyIfAlreadyStopped(t *testing.T) {
	s := newBareSession()
	s.setState(stoppedState(1, "breakpoint"))

	st, err := s.WaitForStop(context.Background(), time.Second)
	require.NoError(t, err)
	require.Equal(t, Stopped, st.Kind)
	require.Equal(t, 1, st.ThreadID)
}

func TestWaitForStopUnblocksOnTransition(t *testing.T) {
	s := newBareSession()
	s.setState(runningState())

	done := make(chan State, 1)
	go func() {
		st, err := s.WaitForStop(context.Background(), 2*time.Second)
		require.NoError(t, err)
		done <- st
	}()

	time.Sleep(50 * time.Millisecond)
	s.setState(stoppedState(3, "step"))

	select {
	case st := <-done:
		require.Equal(t, Stopped, st.Kind)
		require.Equal(t, 3, st.ThreadID)
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForStop did not unblock")
	}
}

func TestWaitForStopNeverReturnsRunning(t *testing.T) {
	s := newBareSession()
	s.setState(runningState())

	_, err := s.WaitForStop(context.Background(), 50*time.Millisecond)
	require.Error(t, err)
}

func TestWaitForStopReturnsOnTerminated(t *testing.T) {
	s := newBareSession()
	s.setState(runningState())

	done := make(chan State, 1)
	go func() {
		st, _ := s.WaitForStop(context.Background(), 2*time.Second)
		done <- st
	}()

	time.Sleep(50 * time.Millisecond)
	s.setState(terminatedState(0, true))

	select {
	case st := <-done:
		require.Equal(t, Terminated, st.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForStop did not unblock on terminated")
	}
}

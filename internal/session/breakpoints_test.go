package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBreakpointTableReplaceAssignsIDs(t *testing.T) {
	tbl := newBreakpointTable()

	first := tbl.replace("/t/hello.py", []*Breakpoint{{Line: 1}, {Line: 5}})
	require.Len(t, first, 2)
	require.NotEqual(t, first[0].ID, first[1].ID)
	for _, bp := range first {
		require.Equal(t, "/t/hello.py", bp.File)
	}
}

func TestBreakpointTableReplaceReplacesWholeFile(t *testing.T) {
	tbl := newBreakpointTable()
	tbl.replace("/t/hello.py", []*Breakpoint{{Line: 1}})
	tbl.replace("/t/hello.py", []*Breakpoint{{Line: 2}, {Line: 3}})

	got := tbl.forFile("/t/hello.py")
	require.Len(t, got, 2)
	require.Equal(t, 2, got[0].Line)
	require.Equal(t, 3, got[1].Line)
}

func TestBreakpointTableAllSpansFiles(t *testing.T) {
	tbl := newBreakpointTable()
	tbl.replace("/t/a.py", []*Breakpoint{{Line: 1}})
	tbl.replace("/t/b.py", []*Breakpoint{{Line: 2}})

	require.Len(t, tbl.all(), 2)
}

func TestBreakpointTableAllIsOrderedByFileThenLine(t *testing.T) {
	tbl := newBreakpointTable()
	// Inserted out of path/line order, to exercise the sort rather than
	// incidental map iteration order.
	tbl.replace("/t/z.py", []*Breakpoint{{Line: 9}})
	tbl.replace("/t/a.py", []*Breakpoint{{Line: 5}, {Line: 1}})

	all := tbl.all()
	require.Len(t, all, 3)
	require.Equal(t, "/t/a.py", all[0].File)
	require.Equal(t, 1, all[0].Line)
	require.Equal(t, "/t/a.py", all[1].File)
	require.Equal(t, 5, all[1].Line)
	require.Equal(t, "/t/z.py", all[2].File)
	require.Equal(t, 9, all[2].Line)
}

package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/canvasviewer/internal/document"
)

func newTrackedScene(opts ...HistoryOption) (*Scene, *History) {
	s := NewScene("#2e342d")
	h := NewHistory(captureScene(s), applyScene(s), opts...)
	s.On(h.handle)
	return s, h
}

func TestHistoryDiscardsBranchAfterUndo(t *testing.T) {
	s, h := newTrackedScene()

	for i := 0; i < 3; i++ {
		s.Add(newRect(float64(i*10), 0, 10, 10))
	}
	require.Equal(t, 3, h.Len())

	for i := 0; i < 2; i++ {
		ok, err := h.Undo()
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.Equal(t, 1, s.Len())

	s.Add(newRect(100, 100, 10, 10))
	assert.Equal(t, 2, h.Len())
	assert.False(t, h.CanRedo())

	ok, err := h.Redo()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, s.Len())
}

func TestHistoryIsCapped(t *testing.T) {
	s, h := newTrackedScene()
	for i := 0; i < DefaultHistoryLimit+15; i++ {
		s.Add(newRect(float64(i), 0, 1, 1))
		assert.LessOrEqual(t, h.Len(), DefaultHistoryLimit)
	}
	assert.Equal(t, DefaultHistoryLimit, h.Len())
	assert.Equal(t, DefaultHistoryLimit-1, h.Cursor())
}

func TestHistoryCustomLimit(t *testing.T) {
	s, h := newTrackedScene(WithHistoryLimit(3))
	for i := 0; i < 10; i++ {
		s.Add(newRect(float64(i), 0, 1, 1))
	}
	assert.Equal(t, 3, h.Len())
}

func TestHistoryUndoRedoRoundTrip(t *testing.T) {
	s, h := newTrackedScene()
	s.Add(newRect(0, 0, 10, 10))
	s.Add(newRect(20, 20, 30, 30))

	before, err := captureScene(s)()
	require.NoError(t, err)

	_, err = h.Undo()
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())

	_, err = h.Redo()
	require.NoError(t, err)
	after, err := captureScene(s)()
	require.NoError(t, err)
	assert.JSONEq(t, before, after)
}

func TestHistoryRestoreRecordsNothing(t *testing.T) {
	restored := 0
	s, h := newTrackedScene(WithAfterRestore(func() { restored++ }))
	s.Add(newRect(0, 0, 10, 10))
	s.Add(newRect(0, 0, 10, 10))

	_, err := h.Undo()
	require.NoError(t, err)
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, 1, restored)
	assert.False(t, h.Restoring())
}

func TestHistoryUndoAtStartIsNoop(t *testing.T) {
	s, h := newTrackedScene()
	s.Add(newRect(0, 0, 10, 10))

	ok, err := h.Undo()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestHistoryFailedRestoreKeepsCursor(t *testing.T) {
	errCorrupt := errors.New("corrupt snapshot")
	n := 0
	h := NewHistory(
		func() (string, error) { n++; return fmt.Sprint(n), nil },
		func(string) error { return errCorrupt },
	)
	for range 3 {
		require.NoError(t, h.Save())
	}
	require.Equal(t, 2, h.Cursor())

	ok, err := h.Undo()
	assert.True(t, ok)
	assert.ErrorIs(t, err, errCorrupt)
	assert.Equal(t, 2, h.Cursor())
	assert.True(t, h.CanUndo())
	assert.False(t, h.CanRedo())
	assert.False(t, h.Restoring())

	// Redo fails the same way from a cursor that is behind the top.
	h.cursor = 1
	_, err = h.Redo()
	assert.ErrorIs(t, err, errCorrupt)
	assert.Equal(t, 1, h.Cursor())
}

func TestAfterRestoreSeesNewCursor(t *testing.T) {
	var seen []int
	var h *History
	s := NewScene("#2e342d")
	h = NewHistory(captureScene(s), applyScene(s), WithAfterRestore(func() { seen = append(seen, h.Cursor()) }))
	s.On(h.handle)
	s.Add(newRect(0, 0, 10, 10))
	s.Add(newRect(0, 0, 10, 10))

	_, err := h.Undo()
	require.NoError(t, err)
	_, err = h.Redo()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, seen)
}

func TestBatchRecordsOneSnapshot(t *testing.T) {
	s, h := newTrackedScene()
	events := 0
	s.On(func(ev Event) {
		if ev.Kind.Structural() {
			events++
		}
	})

	s.Batch(func() {
		s.Add(newRect(0, 0, 1, 1))
		s.Add(newRect(1, 1, 1, 1))
		s.Add(newRect(2, 2, 1, 1))
	})
	assert.Equal(t, 1, h.Len())
	assert.Equal(t, 1, events)
}

func TestReplaceFiresSingleReset(t *testing.T) {
	s, h := newTrackedScene()
	var kinds []EventKind
	s.On(func(ev Event) { kinds = append(kinds, ev.Kind) })

	s.Replace("#000000", []document.Object{newRect(0, 0, 1, 1), newRect(1, 1, 1, 1)})
	assert.Equal(t, []EventKind{EventReset}, kinds)
	assert.Equal(t, 0, h.Len())
	assert.Equal(t, "#000000", s.Background())
}

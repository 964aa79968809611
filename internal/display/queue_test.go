package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func click(x, y int) Event {
	return Event{Kind: PointerEvent, X: x, Y: y}
}

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue(4)
	q.Push(click(1, 1))
	q.Push(Event{Kind: KeyEvent, Key: 'n'})

	ev, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, click(1, 1), ev)

	ev, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, 'n', rune(ev.Key))

	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestQueue_DropsOldestWhenFull(t *testing.T) {
	q := NewQueue(2)
	assert.False(t, q.Push(click(1, 1)))
	assert.False(t, q.Push(click(2, 2)))
	assert.True(t, q.Push(click(3, 3)))

	assert.Equal(t, 2, q.Len())
	assert.Equal(t, uint64(1), q.Dropped())

	ev, _ := q.Pop()
	assert.Equal(t, click(2, 2), ev)
	ev, _ = q.Pop()
	assert.Equal(t, click(3, 3), ev)
}

func TestNewQueue_MinimumSize(t *testing.T) {
	q := NewQueue(0)
	q.Push(click(1, 1))
	assert.True(t, q.Push(click(2, 2)))

	ev, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, click(2, 2), ev)
}

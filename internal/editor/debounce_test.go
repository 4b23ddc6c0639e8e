package editor

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncerCoalescesPerKey(t *testing.T) {
	d := NewDebouncer(15 * time.Millisecond)
	defer d.Close()

	var a, b atomic.Int32
	for i := 0; i < 5; i++ {
		d.Trigger("a", func() { a.Add(1) })
	}
	d.Trigger("b", func() { b.Add(1) })

	waitFor(t, func() bool { return a.Load() == 1 && b.Load() == 1 })
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(1), a.Load(), "rapid triggers on one key fire once")
	assert.Equal(t, int32(1), b.Load(), "keys fire independently")
}

func TestDebouncerCancel(t *testing.T) {
	d := NewDebouncer(15 * time.Millisecond)
	defer d.Close()

	var fired atomic.Bool
	d.Trigger("x", func() { fired.Store(true) })
	assert.True(t, d.Pending("x"))

	d.Cancel("x")
	assert.False(t, d.Pending("x"))
	time.Sleep(40 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestDebouncerCloseDropsEverything(t *testing.T) {
	d := NewDebouncer(15 * time.Millisecond)

	var fired atomic.Bool
	d.Trigger("x", func() { fired.Store(true) })
	d.Close()

	d.Trigger("y", func() { fired.Store(true) })
	time.Sleep(40 * time.Millisecond)
	assert.False(t, fired.Load())
}

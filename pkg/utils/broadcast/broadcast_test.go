package broadcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/racebet/log"
)

func newTestServer(src chan int) BroadcastServer[int] {
	return NewBroadcastServer("test", src,
		WithLogger[int](log.NewNop()),
		WithBuffer[int](4),
		WithSendTimeout[int](time.Second))
}

func receive(t *testing.T, ch <-chan int) int {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
	return 0
}

func TestBroadcast_FanOut(t *testing.T) {
	src := make(chan int)
	b := newTestServer(src)
	defer b.Close()

	a := b.Subscribe()
	c := b.Subscribe()
	src <- 1
	src <- 2
	assert.Equal(t, 1, receive(t, a))
	assert.Equal(t, 2, receive(t, a))
	assert.Equal(t, 1, receive(t, c))
	assert.Equal(t, 2, receive(t, c))
}

func TestBroadcast_CancelSubscription(t *testing.T) {
	src := make(chan int)
	b := newTestServer(src)
	defer b.Close()

	a := b.Subscribe()
	b.CancelSubscription(a)
	_, ok := <-a
	assert.False(t, ok)
}

func TestBroadcast_CloseClosesListeners(t *testing.T) {
	src := make(chan int)
	b := newTestServer(src)
	a := b.Subscribe()
	b.Close()
	_, ok := <-a
	assert.False(t, ok)

	late := b.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
}

func TestBroadcast_SlowListenerSkipped(t *testing.T) {
	src := make(chan int)
	b := NewBroadcastServer("slow", src,
		WithLogger[int](log.NewNop()),
		WithSendTimeout[int](5*time.Millisecond))
	defer b.Close()
	slow := b.Subscribe()
	src <- 1 // nobody reads, gets skipped
	src <- 2
	time.Sleep(30 * time.Millisecond)
	select {
	case v := <-slow:
		t.Fatalf("unexpected message %d", v)
	default:
	}
}

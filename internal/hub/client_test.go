package hub

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/guifei-live/room-server/internal/config"
)

func newTestClient(bufSize int) *Client {
	return NewClient("c1", nil, config.WebSocketConfig{SendBufferSize: bufSize})
}

func TestPushFullBufferDropsMessage(t *testing.T) {
	c := newTestClient(1)

	assert.True(t, c.Push([]byte("one")))
	assert.False(t, c.Push([]byte("two")))
}

func TestPushAfterCloseReturnsFalse(t *testing.T) {
	c := newTestClient(4)
	c.Close()

	assert.False(t, c.Push([]byte("late")))
}

func TestCloseIsIdempotent(t *testing.T) {
	c := newTestClient(1)
	c.Close()
	c.Close()
}

func TestCloseDrainsQueuedMessages(t *testing.T) {
	c := newTestClient(2)
	c.Push([]byte("queued"))
	c.Close()

	msg, ok := <-c.send
	assert.True(t, ok)
	assert.Equal(t, []byte("queued"), msg)

	_, ok = <-c.send
	assert.False(t, ok, "channel must be closed after draining")
}

func TestConcurrentPushAndClose(t *testing.T) {
	c := newTestClient(8)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Push([]byte("x"))
		}()
	}
	c.Close()
	wg.Wait()

	assert.False(t, c.Push([]byte("after")))
}

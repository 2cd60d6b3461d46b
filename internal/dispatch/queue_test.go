package dispatch

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pushID(q *envelopeQueue, id string) bool {
	_, ok := q.push(func() Envelope { return Envelope{ID: id} })
	return ok
}

func TestEnvelopeQueue_FIFO(t *testing.T) {
	q := newEnvelopeQueue()
	for _, id := range []string{"A", "B", "C"} {
		require.True(t, pushID(q, id))
	}

	for _, want := range []string{"A", "B", "C"} {
		got, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, got.ID)
	}

	_, ok := q.TryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
}

func TestEnvelopeQueue_CloseRejectsAndWakes(t *testing.T) {
	q := newEnvelopeQueue()

	done := make(chan struct{})
	go func() {
		<-q.Wait()
		close(done)
	}()

	q.Close()
	q.Close() // idempotent

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken by Close")
	}
	assert.False(t, pushID(q, "late"))
}

func TestEnvelopeQueue_ConcurrentPush(t *testing.T) {
	q := newEnvelopeQueue()
	const goroutines = 20
	const per = 50

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < per; j++ {
				pushID(q, "x")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines*per, q.Len())
}

func TestSequentialGenerator(t *testing.T) {
	g := NewSequentialGenerator("")
	assert.Equal(t, "evt-0001", g.Generate())
	assert.Equal(t, "evt-0002", g.Generate())

	g2 := NewSequentialGenerator("t")
	assert.Equal(t, "t-0001", g2.Generate())
}

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

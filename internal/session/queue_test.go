package session

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quizlify/quizlify/internal/deck"
)

func queueDeck(n int) *deck.Deck {
	d := &deck.Deck{ID: "set-1", Title: "Queue Deck"}
	for i := 0; i < n; i++ {
		d.Cards = append(d.Cards, deck.Card{
			ID:         fmt.Sprintf("c%d", i),
			Term:       fmt.Sprintf("term %d", i),
			Definition: fmt.Sprintf("definition %d", i),
		})
	}
	return d
}

func TestQueueMonotonicCompletion(t *testing.T) {
	// From index 0, exactly queueLength calls to Next reach completion.
	q := NewQueue(queueDeck(4))

	for i := 0; i < 3; i++ {
		assert.False(t, q.Next(), "call %d should not complete the session", i+1)
	}
	assert.True(t, q.Next(), "the 4th call should complete the session")
	assert.True(t, q.Complete())
}

func TestQueueCurrentAfterComplete(t *testing.T) {
	q := NewQueue(queueDeck(1))
	q.Next()

	_, err := q.Current()
	assert.True(t, errors.Is(err, ErrSessionComplete), "expected ErrSessionComplete, got %v", err)
}

func TestQueueEmptyDeckHasNoCurrent(t *testing.T) {
	q := NewQueue(queueDeck(0))

	_, err := q.Current()
	assert.True(t, errors.Is(err, ErrSessionComplete), "expected ErrSessionComplete, got %v", err)
	assert.True(t, q.Next(), "advancing an empty queue completes immediately")
}

func TestQueuePreviousFloorsAtZero(t *testing.T) {
	q := NewQueue(queueDeck(3))
	q.Previous()
	assert.Equal(t, 1, q.Position())

	q.Next()
	q.Previous()
	assert.Equal(t, 1, q.Position())
}

func TestQueuePreviousClearsCompletion(t *testing.T) {
	q := NewQueue(queueDeck(2))
	q.Next()
	q.Next()
	assert.True(t, q.Complete())

	q.Previous()
	assert.False(t, q.Complete(), "Previous must back out of the completion state")

	card, err := q.Current()
	assert.NoError(t, err)
	assert.Equal(t, "c1", card.ID, "should be back on the last card")
}

func TestQueueEnqueueGrowth(t *testing.T) {
	q := NewQueue(queueDeck(3))
	assert.Equal(t, 3, q.Len())

	q.Enqueue("c0")
	assert.Equal(t, 4, q.Len(), "enqueue grows the queue by exactly one")

	// Walk to the appended entry: it must be c0 again.
	q.Next()
	q.Next()
	q.Next()
	assert.False(t, q.Complete())
	card, err := q.Current()
	assert.NoError(t, err)
	assert.Equal(t, "c0", card.ID)
}

func TestQueueRestart(t *testing.T) {
	q := NewQueue(queueDeck(2))
	q.Enqueue("c0")
	q.Next()
	q.Next()
	q.Next()
	assert.True(t, q.Complete())

	q.Restart()
	assert.False(t, q.Complete())
	assert.Equal(t, 2, q.Len(), "restart discards re-enqueued cards")
	assert.Equal(t, 1, q.Position())
}

func TestQueueProgress(t *testing.T) {
	q := NewQueue(queueDeck(4))
	assert.InDelta(t, 25.0, q.Progress(), 0.001)
	q.Next()
	assert.InDelta(t, 50.0, q.Progress(), 0.001)
	q.Next()
	q.Next()
	q.Next()
	assert.InDelta(t, 100.0, q.Progress(), 0.001)
}

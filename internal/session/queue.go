package session

import (
	"errors"

	"github.com/quizlify/quizlify/internal/deck"
)

// ErrSessionComplete is returned when the current card is requested after
// the cursor has moved past the end of the queue. Completion is a normal
// terminal state, not a failure.
var ErrSessionComplete = errors.New("study session complete")

// Queue is the live sequence of card ids still to be shown. It starts in
// deck order and may grow past the deck size when review-again judgments
// re-enqueue cards.
type Queue struct {
	d        *deck.Deck
	ids      []string
	index    int
	complete bool
}

// NewQueue builds a queue holding every deck card once, in deck order.
func NewQueue(d *deck.Deck) *Queue {
	return &Queue{d: d, ids: d.CardIDs()}
}

// Next advances the cursor. Advancing past the final index marks the
// session complete. It reports whether the session is now complete.
func (q *Queue) Next() bool {
	if q.complete {
		return true
	}
	if q.index >= len(q.ids)-1 {
		q.complete = true
	} else {
		q.index++
	}
	return q.complete
}

// Previous steps back one position, flooring at 0. Stepping back out of a
// completed session reactivates it, matching the source behavior of backing
// out of the completion screen.
func (q *Queue) Previous() {
	if q.complete {
		q.complete = false
		return
	}
	if q.index > 0 {
		q.index--
	}
}

// Enqueue appends a card id to the end of the queue so it will be shown
// again. Learn mode uses this for review-again judgments.
func (q *Queue) Enqueue(cardID string) {
	q.ids = append(q.ids, cardID)
}

// Current dereferences the card under the cursor against the deck. An
// empty queue has no current card and reports the session complete.
func (q *Queue) Current() (deck.Card, error) {
	if q.complete || len(q.ids) == 0 {
		return deck.Card{}, ErrSessionComplete
	}
	id := q.ids[q.index]
	card, ok := q.d.CardByID(id)
	if !ok {
		return deck.Card{}, deck.ErrUnknownCard
	}
	return card, nil
}

// Restart resets the queue to original deck order with the cursor at 0.
func (q *Queue) Restart() {
	q.ids = q.d.CardIDs()
	q.index = 0
	q.complete = false
}

// Complete reports whether the cursor has moved past the final index.
func (q *Queue) Complete() bool {
	return q.complete
}

// Len returns the current queue length, including re-enqueued cards.
func (q *Queue) Len() int {
	return len(q.ids)
}

// Position returns the 1-based position of the cursor for display.
func (q *Queue) Position() int {
	return q.index + 1
}

// Progress returns how far through the queue the cursor is, in percent.
func (q *Queue) Progress() float64 {
	if len(q.ids) == 0 {
		return 0
	}
	if q.complete {
		return 100
	}
	return float64(q.index+1) / float64(len(q.ids)) * 100
}

// Package mastery tracks the per-card review judgment for one study session:
// every card is in exactly one of three states, and the three counts always
// sum to the deck size.
package mastery

import (
	"fmt"

	"github.com/quizlify/quizlify/internal/deck"
)

// State classifies a card's review outcome within the current session.
type State int

const (
	NotStudied State = iota
	ReviewAgain
	Mastered
)

// String implements fmt.Stringer for log output.
func (s State) String() string {
	switch s {
	case NotStudied:
		return "not_studied"
	case ReviewAgain:
		return "review_again"
	case Mastered:
		return "mastered"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Counts is the aggregate breakdown of a tracker. The three fields always
// sum to the deck size.
type Counts struct {
	NotStudied  int `json:"not_studied"`
	ReviewAgain int `json:"review_again"`
	Mastered    int `json:"mastered"`
}

// Tracker records the latest judgment per card. Judgments overwrite each
// other; only the most recent one counts.
type Tracker struct {
	known  map[string]struct{}
	states map[string]State
	size   int
}

// NewTracker builds a tracker where every card of the deck starts NotStudied.
func NewTracker(d *deck.Deck) *Tracker {
	known := make(map[string]struct{}, d.Size())
	for _, id := range d.CardIDs() {
		known[id] = struct{}{}
	}
	return &Tracker{
		known:  known,
		states: make(map[string]State, d.Size()),
		size:   d.Size(),
	}
}

// MarkMastered records the card as mastered, clearing any pending
// review-again judgment. Unknown ids leave the tracker untouched.
func (t *Tracker) MarkMastered(cardID string) error {
	return t.mark(cardID, Mastered)
}

// MarkReviewAgain records the card as needing another pass.
func (t *Tracker) MarkReviewAgain(cardID string) error {
	return t.mark(cardID, ReviewAgain)
}

func (t *Tracker) mark(cardID string, s State) error {
	if _, ok := t.known[cardID]; !ok {
		return fmt.Errorf("%w: %q", deck.ErrUnknownCard, cardID)
	}
	t.states[cardID] = s
	return nil
}

// StateOf returns the current judgment for a card. Cards never judged, and
// ids outside the deck, report NotStudied.
func (t *Tracker) StateOf(cardID string) State {
	return t.states[cardID]
}

// Counts returns the aggregate state breakdown.
func (t *Tracker) Counts() Counts {
	c := Counts{NotStudied: t.size}
	for _, s := range t.states {
		switch s {
		case ReviewAgain:
			c.NotStudied--
			c.ReviewAgain++
		case Mastered:
			c.NotStudied--
			c.Mastered++
		}
	}
	return c
}

// Reset returns every card to NotStudied.
func (t *Tracker) Reset() {
	t.states = make(map[string]State, t.size)
}

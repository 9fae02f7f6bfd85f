// Package deck defines the immutable study-set data handed to every
// session controller: an ordered list of term/definition cards.
package deck

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrUnknownCard is returned when an operation references a card id that is
// not part of the deck.
var ErrUnknownCard = errors.New("card not found in deck")

// ErrDeckTooSmall is returned when a study mode requires more cards than the
// deck contains.
var ErrDeckTooSmall = errors.New("deck has too few cards")

// Card is a single term/definition pair. Cards are never mutated by any
// controller once the deck is loaded. Ids are assigned by storage, so
// user-supplied cards may arrive without one.
type Card struct {
	ID         string `json:"id"`
	Term       string `json:"term" validate:"required"`
	Definition string `json:"definition" validate:"required"`
}

// Deck is an ordered set of cards belonging to one study set.
type Deck struct {
	ID          string    `json:"id"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Creator     string    `json:"creator"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"created_at"`
	Cards       []Card    `json:"cards" validate:"required,min=1,dive"`
}

var validate = validator.New()

// Validate checks the deck against its declared constraints. It is intended
// for user-supplied input (create/update set), not for decks already loaded
// from storage.
func (d *Deck) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("invalid study set: %w", err)
	}
	return nil
}

// Size returns the number of cards in the deck.
func (d *Deck) Size() int {
	return len(d.Cards)
}

// CardByID looks up a card by id.
func (d *Deck) CardByID(id string) (Card, bool) {
	for _, c := range d.Cards {
		if c.ID == id {
			return c, true
		}
	}
	return Card{}, false
}

// CardIDs returns the card ids in deck order.
func (d *Deck) CardIDs() []string {
	ids := make([]string, len(d.Cards))
	for i, c := range d.Cards {
		ids[i] = c.ID
	}
	return ids
}

// Require returns ErrDeckTooSmall unless the deck holds at least min cards.
// Study modes call this before creating any session state.
func (d *Deck) Require(min int) error {
	if len(d.Cards) < min {
		return fmt.Errorf("%w: have %d, need %d", ErrDeckTooSmall, len(d.Cards), min)
	}
	return nil
}

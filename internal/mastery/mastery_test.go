package mastery

import (
	"errors"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/quizlify/quizlify/internal/deck"
)

func trackerDeck(n int) *deck.Deck {
	d := &deck.Deck{ID: "set-1", Title: "Test Set"}
	for i := 0; i < n; i++ {
		d.Cards = append(d.Cards, deck.Card{
			ID:         fmt.Sprintf("c%d", i),
			Term:       fmt.Sprintf("term %d", i),
			Definition: fmt.Sprintf("definition %d", i),
		})
	}
	return d
}

func TestInitialCounts(t *testing.T) {
	tr := NewTracker(trackerDeck(3))
	assert.Equal(t, Counts{NotStudied: 3}, tr.Counts(), "all cards start not studied")
}

func TestLastJudgmentWins(t *testing.T) {
	tr := NewTracker(trackerDeck(3))

	assert.NoError(t, tr.MarkReviewAgain("c0"))
	assert.Equal(t, ReviewAgain, tr.StateOf("c0"))
	assert.Equal(t, Counts{NotStudied: 2, ReviewAgain: 1}, tr.Counts())

	// Mastering the same card clears the pending review-again marking.
	assert.NoError(t, tr.MarkMastered("c0"))
	assert.Equal(t, Mastered, tr.StateOf("c0"))
	assert.Equal(t, Counts{NotStudied: 2, Mastered: 1}, tr.Counts())
}

func TestUnknownCardLeavesStateUntouched(t *testing.T) {
	tr := NewTracker(trackerDeck(2))

	err := tr.MarkMastered("ghost")
	assert.True(t, errors.Is(err, deck.ErrUnknownCard), "expected ErrUnknownCard, got %v", err)
	assert.Equal(t, Counts{NotStudied: 2}, tr.Counts(), "failed judgment must not change counts")
}

func TestReset(t *testing.T) {
	tr := NewTracker(trackerDeck(3))
	assert.NoError(t, tr.MarkMastered("c0"))
	assert.NoError(t, tr.MarkReviewAgain("c1"))

	tr.Reset()
	assert.Equal(t, Counts{NotStudied: 3}, tr.Counts())
	assert.Equal(t, NotStudied, tr.StateOf("c0"))
}

// TestCountsConservation checks that for any sequence of judgments the three
// counts always sum to the deck size.
func TestCountsConservation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	const deckSize = 5

	properties.Property("notStudied+reviewAgain+mastered == deckSize", prop.ForAll(
		func(ops []int) bool {
			tr := NewTracker(trackerDeck(deckSize))
			for _, op := range ops {
				cardID := fmt.Sprintf("c%d", op%deckSize)
				if op%2 == 0 {
					_ = tr.MarkMastered(cardID)
				} else {
					_ = tr.MarkReviewAgain(cardID)
				}
				c := tr.Counts()
				if c.NotStudied+c.ReviewAgain+c.Mastered != deckSize {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 99)),
	))

	properties.TestingRun(t)
}

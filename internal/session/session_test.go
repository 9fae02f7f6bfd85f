package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quizlify/quizlify/internal/deck"
	"github.com/quizlify/quizlify/internal/mastery"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestNewRefusesEmptyDeck(t *testing.T) {
	d := &deck.Deck{ID: "empty", Title: "Empty"}
	_, err := New(d, FlashcardConfig())
	assert.True(t, errors.Is(err, deck.ErrDeckTooSmall), "expected ErrDeckTooSmall, got %v", err)
}

// Deck of 3 cards: three Next calls reach completion, and counts before any
// judgment are {3,0,0}.
func TestFlashcardCompletionScenario(t *testing.T) {
	s, err := New(queueDeck(3), FlashcardConfig())
	assert.NoError(t, err)

	assert.Equal(t, mastery.Counts{NotStudied: 3}, s.Counts())

	assert.False(t, s.Next())
	assert.False(t, s.Next())
	assert.True(t, s.Next(), "third Next should complete a 3-card session")
	assert.True(t, s.Complete())
}

func TestFlipResetsOnNavigation(t *testing.T) {
	s, err := New(queueDeck(3), FlashcardConfig())
	assert.NoError(t, err)

	assert.NoError(t, s.Flip())
	assert.True(t, s.Snapshot().Flipped)

	s.Next()
	assert.False(t, s.Snapshot().Flipped, "Next must reset flip state")

	assert.NoError(t, s.Flip())
	s.Previous()
	assert.False(t, s.Snapshot().Flipped, "Previous must reset flip state")
}

func TestFlipAfterCompleteFails(t *testing.T) {
	s, err := New(queueDeck(1), FlashcardConfig())
	assert.NoError(t, err)
	s.Next()

	assert.True(t, errors.Is(s.Flip(), ErrSessionComplete))
}

func TestLearnModeRequeuesOnReview(t *testing.T) {
	s, err := New(queueDeck(3), LearnConfig())
	assert.NoError(t, err)

	assert.NoError(t, s.MarkReviewAgain())

	v := s.Snapshot()
	assert.Equal(t, 4, v.QueueLen, "review-again grows the learn queue by one")
	assert.Equal(t, mastery.Counts{NotStudied: 2, ReviewAgain: 1}, v.Counts)

	// Walk to the end: the re-enqueued card comes around again.
	s.Next() // -> c2
	s.Next() // -> c0 (re-enqueued)
	card := s.Snapshot().Card
	assert.Equal(t, "c0", card.ID)
}

func TestFlashcardModeDoesNotRequeue(t *testing.T) {
	s, err := New(queueDeck(3), FlashcardConfig())
	assert.NoError(t, err)

	assert.NoError(t, s.MarkReviewAgain())
	assert.Equal(t, 3, s.Snapshot().QueueLen, "flashcard mode is a linear single pass")
}

func TestMasteringAdvancesAndOverwritesReview(t *testing.T) {
	s, err := New(queueDeck(2), LearnConfig())
	assert.NoError(t, err)

	assert.NoError(t, s.MarkReviewAgain()) // c0 judged, requeued, now on c1
	assert.NoError(t, s.MarkMastered())    // c1 mastered, now on re-enqueued c0
	assert.NoError(t, s.MarkMastered())    // c0 re-judged mastered, session done

	assert.True(t, s.Complete())
	assert.Equal(t, mastery.Counts{Mastered: 2}, s.Counts())
}

func TestRestartClearsEverything(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	s, err := New(queueDeck(2), LearnConfig(), WithClock(clock.Now))
	assert.NoError(t, err)

	assert.NoError(t, s.MarkReviewAgain())
	assert.NoError(t, s.Flip())
	clock.Advance(30 * time.Second)

	s.Restart()
	v := s.Snapshot()
	assert.Equal(t, 1, v.Position)
	assert.Equal(t, 2, v.QueueLen)
	assert.False(t, v.Flipped)
	assert.Equal(t, mastery.Counts{NotStudied: 2}, v.Counts)
	assert.Equal(t, int64(0), s.Summary().ElapsedMs, "restart resets the elapsed clock")
}

func TestSummary(t *testing.T) {
	clock := &fakeClock{t: time.Unix(2000, 0)}
	s, err := New(queueDeck(3), LearnConfig(), WithClock(clock.Now))
	assert.NoError(t, err)

	assert.NoError(t, s.MarkMastered())
	assert.NoError(t, s.MarkMastered())
	clock.Advance(90 * time.Second)

	sum := s.Summary()
	assert.Equal(t, "set-1", sum.SetID)
	assert.Equal(t, ModeLearn, sum.Mode)
	assert.Equal(t, 2, sum.Mastered)
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, int64(90000), sum.ElapsedMs)
}

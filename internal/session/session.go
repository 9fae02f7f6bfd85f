// Package session implements the flashcard and learn study modes: a review
// queue walk with flip state, mastery judgments, and a completion summary.
package session

import (
	"time"

	"github.com/quizlify/quizlify/internal/deck"
	"github.com/quizlify/quizlify/internal/mastery"
)

// Mode names a study mode for summaries and history records.
type Mode string

const (
	ModeFlashcard Mode = "flashcard"
	ModeLearn     Mode = "learn"
	ModeMatch     Mode = "match"
	ModeTest      Mode = "test"
)

// Config selects per-mode behavior for a study session.
type Config struct {
	Mode Mode
	// RequeueOnReview appends a card back onto the queue when it is judged
	// review-again. Learn mode sets this; flashcard mode is a linear single
	// pass.
	RequeueOnReview bool
}

// FlashcardConfig is the linear single-pass mode of the source app.
func FlashcardConfig() Config {
	return Config{Mode: ModeFlashcard}
}

// LearnConfig is the adaptive mode: review-again cards come back later.
func LearnConfig() Config {
	return Config{Mode: ModeLearn, RequeueOnReview: true}
}

// View is the read-only snapshot handed to the presentation layer after
// every transition.
type View struct {
	Card     deck.Card      `json:"card"`
	Flipped  bool           `json:"flipped"`
	Position int            `json:"position"`
	QueueLen int            `json:"queue_len"`
	Progress float64        `json:"progress_percent"`
	Counts   mastery.Counts `json:"counts"`
	Complete bool           `json:"complete"`
}

// Summary is the terminal output of a completed study session, handed to
// the external study-history recorder.
type Summary struct {
	SetID     string `json:"set_id"`
	Mode      Mode   `json:"mode"`
	Mastered  int    `json:"mastered"`
	Total     int    `json:"total"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

// Session composes a review queue and a mastery tracker for the flashcard
// and learn modes. All methods are driven synchronously by user actions;
// the session is not safe for concurrent use.
type Session struct {
	d       *deck.Deck
	cfg     Config
	queue   *Queue
	tracker *mastery.Tracker
	flipped bool

	startedAt time.Time
	now       func() time.Time
}

// Option customizes a session at construction.
type Option func(*Session)

// WithClock injects a time source for deterministic elapsed times in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New creates a study session over a deck. The deck must contain at least
// one card.
func New(d *deck.Deck, cfg Config, opts ...Option) (*Session, error) {
	if err := d.Require(1); err != nil {
		return nil, err
	}
	s := &Session{
		d:       d,
		cfg:     cfg,
		queue:   NewQueue(d),
		tracker: mastery.NewTracker(d),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startedAt = s.now()
	return s, nil
}

// Flip toggles which side of the current card is shown. Flipping is a
// no-op once the session is complete.
func (s *Session) Flip() error {
	if s.queue.Complete() {
		return ErrSessionComplete
	}
	s.flipped = !s.flipped
	return nil
}

// Next advances to the next card. Navigation always resets the flip state.
// It reports whether the session is now complete.
func (s *Session) Next() bool {
	s.flipped = false
	return s.queue.Next()
}

// Previous steps back one card, flooring at the first. Backing out of a
// completed session reactivates it.
func (s *Session) Previous() {
	s.flipped = false
	s.queue.Previous()
}

// MarkMastered judges the current card as mastered and advances. The
// returned error is deck.ErrUnknownCard only when the queue references a
// card missing from the deck, which indicates corrupted input; callers log
// and continue.
func (s *Session) MarkMastered() error {
	card, err := s.queue.Current()
	if err != nil {
		return err
	}
	if err := s.tracker.MarkMastered(card.ID); err != nil {
		return err
	}
	s.Next()
	return nil
}

// MarkReviewAgain judges the current card as needing another look. When the
// mode requeues on review, the card is appended to the queue before
// advancing so it comes around again.
func (s *Session) MarkReviewAgain() error {
	card, err := s.queue.Current()
	if err != nil {
		return err
	}
	if err := s.tracker.MarkReviewAgain(card.ID); err != nil {
		return err
	}
	if s.cfg.RequeueOnReview {
		s.queue.Enqueue(card.ID)
	}
	s.Next()
	return nil
}

// Restart resets the queue to deck order, clears all judgments, and starts
// the elapsed-time clock over.
func (s *Session) Restart() {
	s.queue.Restart()
	s.tracker.Reset()
	s.flipped = false
	s.startedAt = s.now()
}

// Complete reports whether the queue walk has finished.
func (s *Session) Complete() bool {
	return s.queue.Complete()
}

// Counts returns the aggregate mastery breakdown.
func (s *Session) Counts() mastery.Counts {
	return s.tracker.Counts()
}

// Snapshot returns the current view state. After completion the card field
// is zero and Complete is set.
func (s *Session) Snapshot() View {
	v := View{
		Flipped:  s.flipped,
		Position: s.queue.Position(),
		QueueLen: s.queue.Len(),
		Progress: s.queue.Progress(),
		Counts:   s.tracker.Counts(),
		Complete: s.queue.Complete(),
	}
	if card, err := s.queue.Current(); err == nil {
		v.Card = card
	}
	return v
}

// Summary produces the session summary for the analytics recorder.
func (s *Session) Summary() Summary {
	return Summary{
		SetID:     s.d.ID,
		Mode:      s.cfg.Mode,
		Mastered:  s.tracker.Counts().Mastered,
		Total:     s.d.Size(),
		ElapsedMs: s.now().Sub(s.startedAt).Milliseconds(),
	}
}

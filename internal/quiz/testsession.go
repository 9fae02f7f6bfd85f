package quiz

import (
	"fmt"
	"math"
	"time"
)

// DefaultTimeLimit matches the source app's 10 minute test countdown.
const DefaultTimeLimit = 10 * time.Minute

// TestState is the lifecycle of a timed test.
type TestState int

const (
	NotStarted TestState = iota
	InProgress
	Finished
)

func (s TestState) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("test_state(%d)", int(s))
	}
}

// StateError reports an operation invoked in the wrong lifecycle state.
// This is a programmer error in the calling UI, not a user-facing one.
type StateError struct {
	Op    string
	State TestState
}

func (e *StateError) Error() string {
	return fmt.Sprintf("quiz: %s not valid in state %s", e.Op, e.State)
}

// ScoreResult is the terminal output of a finished test.
type ScoreResult struct {
	Correct    int   `json:"correct"`
	Total      int   `json:"total"`
	Percentage int   `json:"percentage"`
	ElapsedMs  int64 `json:"elapsed_ms"`
}

// TestView is the per-step snapshot for the presentation layer.
type TestView struct {
	State       TestState     `json:"state"`
	Question    Question      `json:"question,omitempty"`
	Answered    bool          `json:"answered"`
	Position    int           `json:"position"`
	Total       int           `json:"total"`
	Progress    float64       `json:"progress_percent"`
	Remaining   time.Duration `json:"-"`
	RemainingMs int64         `json:"remaining_ms"`
}

// Session runs one timed test over a fixed question list. Answers are
// recorded per question; advancing requires the current question to be
// answered first so the UI can show feedback before moving on. Once
// elapsed time reaches the limit the session finishes on its own and
// unanswered questions count as incorrect.
type Session struct {
	questions []Question
	answers   map[string]string
	index     int
	state     TestState

	timeLimit time.Duration
	startedAt time.Time
	elapsed   time.Duration
	now       func() time.Time
}

// TestOption customizes a test session at construction.
type TestOption func(*Session)

// WithTestClock injects a time source for deterministic expiry tests.
func WithTestClock(now func() time.Time) TestOption {
	return func(s *Session) { s.now = now }
}

// NewSession creates a test over the given questions. A non-positive time
// limit falls back to the default.
func NewSession(questions []Question, timeLimit time.Duration, opts ...TestOption) *Session {
	if timeLimit <= 0 {
		timeLimit = DefaultTimeLimit
	}
	s := &Session{
		questions: questions,
		answers:   make(map[string]string, len(questions)),
		timeLimit: timeLimit,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the countdown.
func (s *Session) Start() error {
	if s.state != NotStarted {
		return &StateError{Op: "start", State: s.state}
	}
	s.state = InProgress
	s.startedAt = s.now()
	if len(s.questions) == 0 {
		s.finish()
	}
	return nil
}

// RecordAnswer stores the answer for the current question without moving
// on, so a UI can show immediate feedback first.
func (s *Session) RecordAnswer(questionID, answer string) error {
	if s.maybeExpire(); s.state != InProgress {
		return &StateError{Op: "record answer", State: s.state}
	}
	current := s.questions[s.index]
	if questionID != current.ID {
		return fmt.Errorf("quiz: answer for %q but current question is %q", questionID, current.ID)
	}
	s.answers[questionID] = answer
	return nil
}

// Advance moves to the next question. It is disabled until the current
// question has an answer recorded; moving past the last question finishes
// the test.
func (s *Session) Advance() error {
	if s.maybeExpire(); s.state != InProgress {
		return &StateError{Op: "advance", State: s.state}
	}
	if _, answered := s.answers[s.questions[s.index].ID]; !answered {
		return fmt.Errorf("quiz: current question %q has no recorded answer", s.questions[s.index].ID)
	}
	if s.index >= len(s.questions)-1 {
		s.finish()
		return nil
	}
	s.index++
	return nil
}

// Finish ends the test manually, before all questions are answered.
func (s *Session) Finish() error {
	if s.maybeExpire(); s.state != InProgress {
		return &StateError{Op: "finish", State: s.state}
	}
	s.finish()
	return nil
}

// Expire is the periodic-tick hook: it finishes the session if the time
// limit has passed and reports whether the session is over.
func (s *Session) Expire() bool {
	s.maybeExpire()
	return s.state == Finished
}

func (s *Session) maybeExpire() {
	if s.state == InProgress && s.now().Sub(s.startedAt) >= s.timeLimit {
		s.state = Finished
		s.elapsed = s.timeLimit
	}
}

func (s *Session) finish() {
	s.state = Finished
	s.elapsed = s.now().Sub(s.startedAt)
	if s.elapsed > s.timeLimit {
		s.elapsed = s.timeLimit
	}
}

// State returns the current lifecycle state, accounting for expiry.
func (s *Session) State() TestState {
	s.maybeExpire()
	return s.state
}

// Score computes the result of a finished test. Unanswered questions count
// as incorrect; an empty question set scores zero percent.
func (s *Session) Score() (ScoreResult, error) {
	if s.State() != Finished {
		return ScoreResult{}, &StateError{Op: "score", State: s.state}
	}
	correct := 0
	for _, q := range s.questions {
		if s.answers[q.ID] == q.CorrectAnswer {
			correct++
		}
	}
	percentage := 0
	if len(s.questions) > 0 {
		percentage = int(math.Round(float64(correct) / float64(len(s.questions)) * 100))
	}
	return ScoreResult{
		Correct:    correct,
		Total:      len(s.questions),
		Percentage: percentage,
		ElapsedMs:  s.elapsed.Milliseconds(),
	}, nil
}

// Snapshot returns the live view state for rendering.
func (s *Session) Snapshot() TestView {
	s.maybeExpire()
	v := TestView{
		State:    s.state,
		Position: s.index + 1,
		Total:    len(s.questions),
	}
	if len(s.questions) > 0 {
		v.Progress = float64(s.index+1) / float64(len(s.questions)) * 100
	}
	if s.state == InProgress {
		q := s.questions[s.index]
		v.Question = q
		_, v.Answered = s.answers[q.ID]
		remaining := s.timeLimit - s.now().Sub(s.startedAt)
		if remaining < 0 {
			remaining = 0
		}
		v.Remaining = remaining
		v.RemainingMs = remaining.Milliseconds()
	}
	return v
}

// Package main provides the Quizlify study MCP service.
package main

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/quizlify/quizlify/internal/deck"
	"github.com/quizlify/quizlify/internal/match"
	"github.com/quizlify/quizlify/internal/quiz"
	"github.com/quizlify/quizlify/internal/session"
	"github.com/quizlify/quizlify/internal/stats"
	"github.com/quizlify/quizlify/internal/storage"
)

// ErrSessionNotFound is returned for study/test/match ids that are not live.
var ErrSessionNotFound = errors.New("session not found")

// testRun couples a quiz session with the set it was generated from so the
// final record can name it.
type testRun struct {
	session  *quiz.Session
	setID    string
	setTitle string
	started  time.Time
}

// matchRun couples a match round with its source set.
type matchRun struct {
	round    *match.Round
	setID    string
	setTitle string
	recorded bool
}

// StudyService manages study sets and the live sessions of all four study
// modes on top of the storage layer.
type StudyService struct {
	Storage storage.Storage
	Logger  *zap.Logger

	cfg Config
	rng *rand.Rand

	mu      sync.Mutex
	studies map[string]*session.Session
	tests   map[string]*testRun
	matches map[string]*matchRun
}

// NewStudyService creates a new StudyService.
func NewStudyService(store storage.Storage, cfg Config) *StudyService {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	if cfg.Verbose {
		logConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	logger, err := logConfig.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		fmt.Printf("Error initializing zap logger: %v. Falling back to no-op logger.\n", err)
		logger = zap.NewNop()
	}

	return &StudyService{
		Storage: store,
		Logger:  logger,
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		studies: make(map[string]*session.Session),
		tests:   make(map[string]*testRun),
		matches: make(map[string]*matchRun),
	}
}

// --- Study set management ---

// CreateSet validates and stores a new study set.
func (s *StudyService) CreateSet(title, description, color, creator string, cards []deck.Card) (deck.Deck, error) {
	s.Logger.Debug("Service CreateSet called", zap.String("title", title), zap.Int("cards", len(cards)))

	d := deck.Deck{
		Title:       title,
		Description: description,
		Color:       color,
		Creator:     creator,
		Cards:       cards,
	}
	if err := d.Validate(); err != nil {
		return deck.Deck{}, err
	}

	created, err := s.Storage.CreateSet(d)
	if err != nil {
		s.Logger.Error("Error creating set in storage", zap.Error(err))
		return deck.Deck{}, fmt.Errorf("error creating set in storage: %w", err)
	}

	if err := s.Storage.Save(); err != nil {
		s.Logger.Warn("Failed to save storage after creating set, but set exists in memory",
			zap.String("set_id", created.ID), zap.Error(err))
	}
	return created, nil
}

// UpdateSet updates an existing set selectively based on non-nil input
// pointers.
func (s *StudyService) UpdateSet(setID string, title, description *string, cards *[]deck.Card) (deck.Deck, error) {
	d, err := s.Storage.GetSet(setID)
	if err != nil {
		return deck.Deck{}, fmt.Errorf("error getting set %s: %w", setID, err)
	}

	updated := false
	if title != nil && d.Title != *title {
		d.Title = *title
		updated = true
	}
	if description != nil && d.Description != *description {
		d.Description = *description
		updated = true
	}
	if cards != nil {
		d.Cards = *cards
		for i := range d.Cards {
			if d.Cards[i].ID == "" {
				d.Cards[i].ID = uuid.New().String()
			}
		}
		updated = true
	}

	if updated {
		if err := d.Validate(); err != nil {
			return deck.Deck{}, err
		}
		if err := s.Storage.UpdateSet(d); err != nil {
			return deck.Deck{}, fmt.Errorf("error updating set %s in storage: %w", setID, err)
		}
		if err := s.Storage.Save(); err != nil {
			return deck.Deck{}, fmt.Errorf("error saving storage after updating set %s: %w", setID, err)
		}
	}
	return d, nil
}

// DeleteSet deletes a study set.
func (s *StudyService) DeleteSet(setID string) error {
	s.Logger.Debug("Service DeleteSet called", zap.String("set_id", setID))
	if err := s.Storage.DeleteSet(setID); err != nil {
		return fmt.Errorf("error deleting set: %w", err)
	}
	if err := s.Storage.Save(); err != nil {
		return fmt.Errorf("error saving storage: %w", err)
	}
	return nil
}

// GetSet retrieves a study set by id.
func (s *StudyService) GetSet(setID string) (deck.Deck, error) {
	return s.Storage.GetSet(setID)
}

// ListSets returns all study sets.
func (s *StudyService) ListSets() ([]deck.Deck, error) {
	return s.Storage.ListSets()
}

// --- Flashcard / learn sessions ---

// StartStudy opens a flashcard or learn session over a set and returns its
// id plus the first view.
func (s *StudyService) StartStudy(setID string, mode session.Mode) (string, session.View, error) {
	s.Logger.Debug("StartStudy called", zap.String("set_id", setID), zap.String("mode", string(mode)))

	d, err := s.Storage.GetSet(setID)
	if err != nil {
		return "", session.View{}, fmt.Errorf("error getting set %s: %w", setID, err)
	}

	var cfg session.Config
	switch mode {
	case session.ModeFlashcard:
		cfg = session.FlashcardConfig()
	case session.ModeLearn:
		cfg = session.LearnConfig()
	default:
		return "", session.View{}, fmt.Errorf("unsupported study mode %q", mode)
	}

	study, err := session.New(&d, cfg)
	if err != nil {
		return "", session.View{}, err
	}

	id := uuid.New().String()
	s.mu.Lock()
	s.studies[id] = study
	s.mu.Unlock()

	s.Logger.Debug("Study session started", zap.String("session_id", id), zap.Int("deck_size", d.Size()))
	return id, study.Snapshot(), nil
}

func (s *StudyService) study(sessionID string) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	study, ok := s.studies[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: study session %q", ErrSessionNotFound, sessionID)
	}
	return study, nil
}

// FlipCard toggles the visible side of the current card.
func (s *StudyService) FlipCard(sessionID string) (session.View, error) {
	study, err := s.study(sessionID)
	if err != nil {
		return session.View{}, err
	}
	if err := study.Flip(); err != nil {
		return session.View{}, err
	}
	return study.Snapshot(), nil
}

// NextCard advances the study session by one card.
func (s *StudyService) NextCard(sessionID string) (session.View, error) {
	study, err := s.study(sessionID)
	if err != nil {
		return session.View{}, err
	}
	study.Next()
	return study.Snapshot(), nil
}

// PreviousCard steps the study session back by one card.
func (s *StudyService) PreviousCard(sessionID string) (session.View, error) {
	study, err := s.study(sessionID)
	if err != nil {
		return session.View{}, err
	}
	study.Previous()
	return study.Snapshot(), nil
}

// MarkMastered judges the current card mastered. A card id missing from
// the deck is logged and skipped rather than failing the session.
func (s *StudyService) MarkMastered(sessionID string) (session.View, error) {
	study, err := s.study(sessionID)
	if err != nil {
		return session.View{}, err
	}
	if err := study.MarkMastered(); err != nil {
		if errors.Is(err, deck.ErrUnknownCard) {
			s.Logger.Warn("Mastery judgment referenced unknown card",
				zap.String("session_id", sessionID), zap.Error(err))
			return study.Snapshot(), nil
		}
		return session.View{}, err
	}
	return study.Snapshot(), nil
}

// MarkReviewAgain judges the current card as needing review.
func (s *StudyService) MarkReviewAgain(sessionID string) (session.View, error) {
	study, err := s.study(sessionID)
	if err != nil {
		return session.View{}, err
	}
	if err := study.MarkReviewAgain(); err != nil {
		if errors.Is(err, deck.ErrUnknownCard) {
			s.Logger.Warn("Review judgment referenced unknown card",
				zap.String("session_id", sessionID), zap.Error(err))
			return study.Snapshot(), nil
		}
		return session.View{}, err
	}
	return study.Snapshot(), nil
}

// RestartStudy resets the session to the start with cleared judgments.
func (s *StudyService) RestartStudy(sessionID string) (session.View, error) {
	study, err := s.study(sessionID)
	if err != nil {
		return session.View{}, err
	}
	study.Restart()
	return study.Snapshot(), nil
}

// FinishStudy closes a study session, appending its summary to the study
// history.
func (s *StudyService) FinishStudy(sessionID string) (session.Summary, storage.StudyRecord, error) {
	study, err := s.study(sessionID)
	if err != nil {
		return session.Summary{}, storage.StudyRecord{}, err
	}

	summary := study.Summary()
	setTitle := ""
	if d, err := s.Storage.GetSet(summary.SetID); err == nil {
		setTitle = d.Title
	}

	record, err := s.Storage.AddRecord(storage.StudyRecord{
		SetID:     summary.SetID,
		SetTitle:  setTitle,
		Mode:      string(summary.Mode),
		ElapsedMs: summary.ElapsedMs,
		Mastered:  summary.Mastered,
		Total:     summary.Total,
	})
	if err != nil {
		return session.Summary{}, storage.StudyRecord{}, fmt.Errorf("error adding study record: %w", err)
	}
	if err := s.Storage.Save(); err != nil {
		return session.Summary{}, storage.StudyRecord{}, fmt.Errorf("error saving storage: %w", err)
	}

	s.mu.Lock()
	delete(s.studies, sessionID)
	s.mu.Unlock()

	s.Logger.Debug("Study session finished",
		zap.String("session_id", sessionID),
		zap.Int("mastered", summary.Mastered),
		zap.Int("total", summary.Total))
	return summary, record, nil
}

// --- Timed tests ---

// StartTest generates questions from a set and starts the countdown.
func (s *StudyService) StartTest(setID string) (string, quiz.TestView, error) {
	s.Logger.Debug("StartTest called", zap.String("set_id", setID))

	d, err := s.Storage.GetSet(setID)
	if err != nil {
		return "", quiz.TestView{}, fmt.Errorf("error getting set %s: %w", setID, err)
	}

	questions, err := quiz.NewGenerator(s.rng).Generate(&d, s.cfg.QuestionLimit)
	if err != nil {
		return "", quiz.TestView{}, err
	}

	test := quiz.NewSession(questions, s.cfg.TimeLimit)
	if err := test.Start(); err != nil {
		return "", quiz.TestView{}, err
	}

	id := uuid.New().String()
	s.mu.Lock()
	s.tests[id] = &testRun{session: test, setID: d.ID, setTitle: d.Title, started: time.Now()}
	s.mu.Unlock()

	s.Logger.Debug("Test started", zap.String("test_id", id), zap.Int("questions", len(questions)))
	return id, test.Snapshot(), nil
}

func (s *StudyService) test(testID string) (*testRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.tests[testID]
	if !ok {
		return nil, fmt.Errorf("%w: test %q", ErrSessionNotFound, testID)
	}
	return run, nil
}

// SubmitAnswer records the answer for the current question.
func (s *StudyService) SubmitAnswer(testID, questionID, answer string) (quiz.TestView, error) {
	run, err := s.test(testID)
	if err != nil {
		return quiz.TestView{}, err
	}
	if err := run.session.RecordAnswer(questionID, answer); err != nil {
		return quiz.TestView{}, err
	}
	return run.session.Snapshot(), nil
}

// AdvanceTest moves the test to the next question.
func (s *StudyService) AdvanceTest(testID string) (quiz.TestView, error) {
	run, err := s.test(testID)
	if err != nil {
		return quiz.TestView{}, err
	}
	if err := run.session.Advance(); err != nil {
		return quiz.TestView{}, err
	}
	return run.session.Snapshot(), nil
}

// FinishTest ends the test (if time has not already done so), scores it,
// and appends the result to the study history.
func (s *StudyService) FinishTest(testID string) (quiz.ScoreResult, storage.StudyRecord, error) {
	run, err := s.test(testID)
	if err != nil {
		return quiz.ScoreResult{}, storage.StudyRecord{}, err
	}

	if run.session.State() == quiz.InProgress {
		if err := run.session.Finish(); err != nil {
			return quiz.ScoreResult{}, storage.StudyRecord{}, err
		}
	}

	score, err := run.session.Score()
	if err != nil {
		return quiz.ScoreResult{}, storage.StudyRecord{}, err
	}

	record, err := s.Storage.AddRecord(storage.StudyRecord{
		SetID:        run.setID,
		SetTitle:     run.setTitle,
		Mode:         string(session.ModeTest),
		StartedAt:    run.started,
		ElapsedMs:    score.ElapsedMs,
		Total:        score.Total,
		Correct:      score.Correct,
		Questions:    score.Total,
		ScorePercent: score.Percentage,
	})
	if err != nil {
		return quiz.ScoreResult{}, storage.StudyRecord{}, fmt.Errorf("error adding test record: %w", err)
	}
	if err := s.Storage.Save(); err != nil {
		return quiz.ScoreResult{}, storage.StudyRecord{}, fmt.Errorf("error saving storage: %w", err)
	}

	s.mu.Lock()
	delete(s.tests, testID)
	s.mu.Unlock()

	s.Logger.Debug("Test finished",
		zap.String("test_id", testID),
		zap.Int("correct", score.Correct),
		zap.Int("total", score.Total),
		zap.Int("percentage", score.Percentage))
	return score, record, nil
}

// --- Match game ---

// StartMatch deals a match round over a set.
func (s *StudyService) StartMatch(setID string) (string, *match.Round, error) {
	s.Logger.Debug("StartMatch called", zap.String("set_id", setID))

	d, err := s.Storage.GetSet(setID)
	if err != nil {
		return "", nil, fmt.Errorf("error getting set %s: %w", setID, err)
	}

	round, err := match.NewRound(&d, s.cfg.MatchPairs, s.rng)
	if err != nil {
		return "", nil, err
	}

	id := uuid.New().String()
	s.mu.Lock()
	s.matches[id] = &matchRun{round: round, setID: d.ID, setTitle: d.Title}
	s.mu.Unlock()
	return id, round, nil
}

func (s *StudyService) matchRound(matchID string) (*matchRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.matches[matchID]
	if !ok {
		return nil, fmt.Errorf("%w: match %q", ErrSessionNotFound, matchID)
	}
	return run, nil
}

// PickTile selects a tile. Completing the round appends a study record
// with the completion time.
func (s *StudyService) PickTile(matchID, tileID string) (match.Outcome, *match.Round, error) {
	run, err := s.matchRound(matchID)
	if err != nil {
		return match.Outcome{}, nil, err
	}

	outcome := run.round.Pick(tileID)
	if outcome.Complete && !run.recorded {
		run.recorded = true
		if err := s.recordMatch(run); err != nil {
			// The round itself succeeded; history is best effort.
			s.Logger.Warn("Failed to record match completion", zap.String("match_id", matchID), zap.Error(err))
		}
	}
	return outcome, run.round, nil
}

func (s *StudyService) recordMatch(run *matchRun) error {
	_, err := s.Storage.AddRecord(storage.StudyRecord{
		SetID:     run.setID,
		SetTitle:  run.setTitle,
		Mode:      string(session.ModeMatch),
		ElapsedMs: run.round.Elapsed().Milliseconds(),
		Mastered:  run.round.MatchedPairs(),
		Total:     run.round.Pairs(),
	})
	if err != nil {
		return err
	}
	return s.Storage.Save()
}

// SettleMatch clears a pending mismatch after the UI's shake delay.
func (s *StudyService) SettleMatch(matchID string) (*match.Round, error) {
	run, err := s.matchRound(matchID)
	if err != nil {
		return nil, err
	}
	run.round.Settle()
	return run.round, nil
}

// RestartMatch re-deals the board for a replay, keeping the best time.
func (s *StudyService) RestartMatch(matchID string) (*match.Round, error) {
	run, err := s.matchRound(matchID)
	if err != nil {
		return nil, err
	}
	run.round.Restart()
	run.recorded = false
	return run.round, nil
}

// --- Analytics ---

// GetAnalytics aggregates study history, optionally for a single set.
func (s *StudyService) GetAnalytics(setID string) (stats.Performance, []storage.StudyRecord, error) {
	records, err := s.Storage.ListRecords(setID)
	if err != nil {
		return stats.Performance{}, nil, fmt.Errorf("error listing study records: %w", err)
	}

	performance := stats.Compute(records, time.Now())

	// Most recent sessions last in storage order; return up to ten, newest
	// first.
	recent := make([]storage.StudyRecord, 0, 10)
	for i := len(records) - 1; i >= 0 && len(recent) < 10; i-- {
		recent = append(recent, records[i])
	}
	return performance, recent, nil
}

// Package main provides the Quizlify study MCP service.
package main

import (
	"github.com/quizlify/quizlify/internal/deck"
	"github.com/quizlify/quizlify/internal/match"
	"github.com/quizlify/quizlify/internal/quiz"
	"github.com/quizlify/quizlify/internal/session"
	"github.com/quizlify/quizlify/internal/stats"
	"github.com/quizlify/quizlify/internal/storage"
)

// SetResponse is the response for create_set, update_set, and get_set.
type SetResponse struct {
	Set deck.Deck `json:"set"`
}

// ListSetsResponse is the response for list_sets.
type ListSetsResponse struct {
	Sets  []deck.Deck `json:"sets"`
	Count int         `json:"count"`
}

// DeleteSetResponse is the response for delete_set.
type DeleteSetResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// StudyResponse carries the live view of a flashcard or learn session.
type StudyResponse struct {
	SessionID string       `json:"session_id"`
	View      session.View `json:"view"`
}

// StudySummaryResponse is the response for finish_study_session.
type StudySummaryResponse struct {
	Summary session.Summary     `json:"summary"`
	Record  storage.StudyRecord `json:"record"`
}

// TestResponse carries the live view of a timed test.
type TestResponse struct {
	TestID string        `json:"test_id"`
	View   quiz.TestView `json:"view"`
}

// ScoreResponse is the response for finish_test.
type ScoreResponse struct {
	Score  quiz.ScoreResult    `json:"score"`
	Record storage.StudyRecord `json:"record"`
}

// MatchResponse carries the full state of a match round.
type MatchResponse struct {
	MatchID      string       `json:"match_id"`
	Tiles        []match.Tile `json:"tiles"`
	MatchedPairs int          `json:"matched_pairs"`
	Pairs        int          `json:"pairs"`
	Complete     bool         `json:"complete"`
	ElapsedMs    int64        `json:"elapsed_ms"`
	BestMs       int64        `json:"best_ms,omitempty"`
}

// PickTileResponse is the response for pick_tile.
type PickTileResponse struct {
	Outcome match.Outcome `json:"outcome"`
	Board   MatchResponse `json:"board"`
}

// AnalyticsResponse is the response for get_analytics.
type AnalyticsResponse struct {
	Performance stats.Performance     `json:"performance"`
	Recent      []storage.StudyRecord `json:"recent_sessions"`
}

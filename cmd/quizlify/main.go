package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/quizlify/quizlify/internal/session"
	"github.com/quizlify/quizlify/internal/storage"
)

const quizlifyServerInfo = `
This is Quizlify, a study coach for flashcard sets with four study modes.
When coaching a student through this server, follow this workflow:

1. SET SELECTION:
   - List the available study sets and help the student pick one
   - Suggest creating a new set when nothing fits what they want to learn 📚

2. STUDY MODES:
   - flashcard: linear pass over the deck, flip to reveal definitions
   - learn: adaptive pass where "review again" cards come back at the end
     of the queue until every card is mastered 🔁
   - test: a timed quiz of multiple-choice and true/false questions ⏱️
   - match: race the clock pairing terms with their definitions 🎯

3. DURING A SESSION:
   - Show only the term first; never reveal the definition before the
     student has tried to recall it
   - Mark cards mastered or review-again based on how the student did,
     not on how confident they sound
   - Keep the tone encouraging and the pace brisk 💪

4. AFTER A SESSION:
   - Always finish the session so the result lands in the study history
   - Celebrate progress, then use get_analytics to point out streaks,
     weekly activity, and best match times 🏆
   - Suggest the learn mode for sets with low test scores
`

func main() {
	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	fileStorage := storage.NewFileStorage(cfg.DataFile)
	if err := fileStorage.Load(); err != nil {
		fmt.Printf("Error loading storage: %v\n", err)
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"Quizlify MCP",
		"1.0.0",
		server.WithInstructions(quizlifyServerInfo),
		server.WithResourceCapabilities(true, true),
		server.WithToolCapabilities(true),
		server.WithLogging(),
	)

	studyService := NewStudyService(fileStorage, cfg)
	defer studyService.Logger.Sync()

	// Context with the service for tool handlers
	ctx := context.WithValue(context.Background(), "service", studyService)

	// --- Set management tools ---

	listSetsTool := mcp.NewTool("list_sets",
		mcp.WithDescription("List all study sets with their cards and metadata."),
	)

	getSetTool := mcp.NewTool("get_set",
		mcp.WithDescription("Get a single study set by id."),
		mcp.WithString("set_id",
			mcp.Required(),
			mcp.Description("The ID of the study set"),
		),
	)

	createSetTool := mcp.NewTool("create_set",
		mcp.WithDescription(
			"Create a new study set. "+
				"Each card is an object with a term and a definition. "+
				"Keep terms short and definitions precise; one concept per card. 📝",
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Title of the study set"),
		),
		mcp.WithString("description",
			mcp.Description("What this set covers"),
		),
		mcp.WithString("color",
			mcp.Description("Display color for the set"),
		),
		mcp.WithString("creator",
			mcp.Description("Name of the set's creator"),
		),
		mcp.WithArray("cards",
			mcp.Required(),
			mcp.Description("Cards as {term, definition} objects"),
		),
	)

	updateSetTool := mcp.NewTool("update_set",
		mcp.WithDescription(
			"Update an existing study set. Only the provided fields change. "+
				"Passing cards replaces the whole card list.",
		),
		mcp.WithString("set_id",
			mcp.Required(),
			mcp.Description("The ID of the study set to update"),
		),
		mcp.WithString("title",
			mcp.Description("New title"),
		),
		mcp.WithString("description",
			mcp.Description("New description"),
		),
		mcp.WithArray("cards",
			mcp.Description("Replacement cards as {term, definition} objects"),
		),
	)

	deleteSetTool := mcp.NewTool("delete_set",
		mcp.WithDescription("Delete a study set. Confirm with the student first."),
		mcp.WithString("set_id",
			mcp.Required(),
			mcp.Description("The ID of the study set to delete"),
		),
	)

	// --- Flashcard / learn session tools ---

	startStudyTool := mcp.NewTool("start_study_session",
		mcp.WithDescription(
			"Start a flashcard or learn session over a set. "+
				"flashcard mode is a single linear pass; learn mode requeues "+
				"review-again cards until everything is mastered. "+
				"Show only the term side of the returned card. 🤔",
		),
		mcp.WithString("set_id",
			mcp.Required(),
			mcp.Description("The ID of the study set"),
		),
		mcp.WithString("mode",
			mcp.Description("Study mode: flashcard (default) or learn"),
		),
	)

	flipCardTool := mcp.NewTool("flip_card",
		mcp.WithDescription(
			"Flip the current card to reveal or hide its definition. "+
				"Only flip after the student has attempted to recall the answer. ⚠️",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("The ID of the study session"),
		),
	)

	nextCardTool := mcp.NewTool("next_card",
		mcp.WithDescription("Advance to the next card. The new card starts term-side up."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("The ID of the study session"),
		),
	)

	previousCardTool := mcp.NewTool("previous_card",
		mcp.WithDescription("Step back to the previous card."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("The ID of the study session"),
		),
	)

	markMasteredTool := mcp.NewTool("mark_mastered",
		mcp.WithDescription(
			"Mark the current card as mastered and advance. "+
				"Use when the student recalled the definition correctly. ⭐",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("The ID of the study session"),
		),
	)

	markReviewAgainTool := mcp.NewTool("mark_review_again",
		mcp.WithDescription(
			"Mark the current card as needing review and advance. "+
				"In learn mode the card comes back at the end of the queue. 🔁",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("The ID of the study session"),
		),
	)

	restartStudyTool := mcp.NewTool("restart_study_session",
		mcp.WithDescription("Restart the session from the first card with all judgments cleared."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("The ID of the study session"),
		),
	)

	finishStudyTool := mcp.NewTool("finish_study_session",
		mcp.WithDescription(
			"Finish a study session and record it in the study history. "+
				"Always call this when the student is done so analytics stay accurate. 🎓",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("The ID of the study session"),
		),
	)

	// --- Test tools ---

	startTestTool := mcp.NewTool("start_test",
		mcp.WithDescription(
			"Start a timed test over a set: a shuffled mix of multiple-choice "+
				"and true/false questions with a countdown. "+
				"Present one question at a time and never hint at the answer. ⏱️",
		),
		mcp.WithString("set_id",
			mcp.Required(),
			mcp.Description("The ID of the study set"),
		),
	)

	submitAnswerTool := mcp.NewTool("submit_answer",
		mcp.WithDescription(
			"Record the student's answer for the current question. "+
				"For multiple-choice, the answer is one of the options verbatim; "+
				"for true/false it is True or False.",
		),
		mcp.WithString("test_id",
			mcp.Required(),
			mcp.Description("The ID of the test"),
		),
		mcp.WithString("question_id",
			mcp.Required(),
			mcp.Description("The ID of the question being answered"),
		),
		mcp.WithString("answer",
			mcp.Required(),
			mcp.Description("The student's answer"),
		),
	)

	advanceTestTool := mcp.NewTool("advance_test",
		mcp.WithDescription(
			"Move to the next question after an answer has been recorded. "+
				"Advancing past the last question finishes the test.",
		),
		mcp.WithString("test_id",
			mcp.Required(),
			mcp.Description("The ID of the test"),
		),
	)

	finishTestTool := mcp.NewTool("finish_test",
		mcp.WithDescription(
			"End the test, score it, and record the result. "+
				"Review the score with the student and celebrate what went well. 🏆",
		),
		mcp.WithString("test_id",
			mcp.Required(),
			mcp.Description("The ID of the test"),
		),
	)

	// --- Match tools ---

	startMatchTool := mcp.NewTool("start_match",
		mcp.WithDescription(
			"Start a match game: a grid of term and definition tiles to pair up "+
				"against the clock. The timer starts on the first pick. 🎯",
		),
		mcp.WithString("set_id",
			mcp.Required(),
			mcp.Description("The ID of the study set"),
		),
	)

	pickTileTool := mcp.NewTool("pick_tile",
		mcp.WithDescription(
			"Select a tile. Two picks of the same pair match and lock; "+
				"a mismatch leaves both tiles shaking until settle_match clears them.",
		),
		mcp.WithString("match_id",
			mcp.Required(),
			mcp.Description("The ID of the match game"),
		),
		mcp.WithString("tile_id",
			mcp.Required(),
			mcp.Description("The ID of the tile to pick"),
		),
	)

	settleMatchTool := mcp.NewTool("settle_match",
		mcp.WithDescription("Clear a pending mismatch so the next pair can be picked."),
		mcp.WithString("match_id",
			mcp.Required(),
			mcp.Description("The ID of the match game"),
		),
	)

	restartMatchTool := mcp.NewTool("restart_match",
		mcp.WithDescription("Re-deal the board for a replay. The best time is kept. 🔄"),
		mcp.WithString("match_id",
			mcp.Required(),
			mcp.Description("The ID of the match game"),
		),
	)

	// --- Analytics ---

	getAnalyticsTool := mcp.NewTool("get_analytics",
		mcp.WithDescription(
			"Summarize the study history: total study time, correct rate, "+
				"weekly activity, streaks, and per-mode bests. "+
				"Use it to frame progress positively and suggest what to study next. 📊",
		),
		mcp.WithString("set_id",
			mcp.Description("Limit the summary to one study set"),
		),
	)

	// Register all tools with their handlers
	s.AddTool(listSetsTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListSets(ctx, request)
	})
	s.AddTool(getSetTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetSet(ctx, request)
	})
	s.AddTool(createSetTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleCreateSet(ctx, request)
	})
	s.AddTool(updateSetTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleUpdateSet(ctx, request)
	})
	s.AddTool(deleteSetTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleDeleteSet(ctx, request)
	})
	s.AddTool(startStudyTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleStartStudySession(ctx, request)
	})
	s.AddTool(flipCardTool, studyHandlerFor(ctx, "flipping card", (*StudyService).FlipCard))
	s.AddTool(nextCardTool, studyHandlerFor(ctx, "advancing card", (*StudyService).NextCard))
	s.AddTool(previousCardTool, studyHandlerFor(ctx, "stepping back", (*StudyService).PreviousCard))
	s.AddTool(markMasteredTool, studyHandlerFor(ctx, "marking mastered", (*StudyService).MarkMastered))
	s.AddTool(markReviewAgainTool, studyHandlerFor(ctx, "marking review again", (*StudyService).MarkReviewAgain))
	s.AddTool(restartStudyTool, studyHandlerFor(ctx, "restarting session", (*StudyService).RestartStudy))
	s.AddTool(finishStudyTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleFinishStudySession(ctx, request)
	})
	s.AddTool(startTestTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleStartTest(ctx, request)
	})
	s.AddTool(submitAnswerTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleSubmitAnswer(ctx, request)
	})
	s.AddTool(advanceTestTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleAdvanceTest(ctx, request)
	})
	s.AddTool(finishTestTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleFinishTest(ctx, request)
	})
	s.AddTool(startMatchTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleStartMatch(ctx, request)
	})
	s.AddTool(pickTileTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handlePickTile(ctx, request)
	})
	s.AddTool(settleMatchTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleSettleMatch(ctx, request)
	})
	s.AddTool(restartMatchTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleRestartMatch(ctx, request)
	})
	s.AddTool(getAnalyticsTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetAnalytics(ctx, request)
	})

	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("Error serving MCP server: %v", err)
	}
}

// studyHandlerFor binds the service context into the shared study-session
// handler shape.
func studyHandlerFor(ctx context.Context, op string, call func(s *StudyService, sessionID string) (session.View, error)) server.ToolHandlerFunc {
	h := studyHandler(op, call)
	return func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return h(ctx, request)
	}
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/quizlify/quizlify/internal/deck"
	"github.com/quizlify/quizlify/internal/match"
	"github.com/quizlify/quizlify/internal/session"
)

// serviceFromContext pulls the StudyService injected by the server context
// function.
func serviceFromContext(ctx context.Context) (*StudyService, *mcp.CallToolResult) {
	s, ok := ctx.Value("service").(*StudyService)
	if !ok || s == nil {
		return nil, mcp.NewToolResultText("Error: Service not available")
	}
	return s, nil
}

// jsonResult marshals a response as indented JSON text.
func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// errorResult renders an error as a JSON error object so clients always get
// structured text back.
func errorResult(op string, err error) *mcp.CallToolResult {
	payload, marshalErr := json.Marshal(map[string]string{
		"error": fmt.Sprintf("%s: %v", op, err),
	})
	if marshalErr != nil {
		return mcp.NewToolResultText(fmt.Sprintf("Error %s: %v", op, err))
	}
	return mcp.NewToolResultText(string(payload))
}

// cardsFromArguments parses a cards array of {term, definition} objects.
func cardsFromArguments(raw interface{}) ([]deck.Card, error) {
	list, ok := raw.([]interface{})
	if !ok {
		return nil, errors.New("cards must be an array of objects")
	}
	cards := make([]deck.Card, 0, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("card %d is not an object", i)
		}
		term, _ := obj["term"].(string)
		definition, _ := obj["definition"].(string)
		if term == "" || definition == "" {
			return nil, fmt.Errorf("card %d needs non-empty term and definition", i)
		}
		id, _ := obj["id"].(string)
		cards = append(cards, deck.Card{ID: id, Term: term, Definition: definition})
	}
	return cards, nil
}

// matchBoard builds the board view of a match round.
func matchBoard(matchID string, round *match.Round) MatchResponse {
	resp := MatchResponse{
		MatchID:      matchID,
		Tiles:        round.Tiles(),
		MatchedPairs: round.MatchedPairs(),
		Pairs:        round.Pairs(),
		Complete:     round.Complete(),
		ElapsedMs:    round.Elapsed().Milliseconds(),
	}
	if best, ok := round.Best(); ok {
		resp.BestMs = best.Milliseconds()
	}
	return resp
}

// --- Set management handlers ---

func handleListSets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, errResult := serviceFromContext(ctx)
	if errResult != nil {
		return errResult, nil
	}

	sets, err := s.ListSets()
	if err != nil {
		return errorResult("listing sets", err), nil
	}
	return jsonResult(ListSetsResponse{Sets: sets, Count: len(sets)})
}

func handleGetSet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	setID, ok := request.Params.Arguments["set_id"].(string)
	if !ok || setID == "" {
		return mcp.NewToolResultText("Missing required parameter: set_id"), nil
	}

	s, errResult := serviceFromContext(ctx)
	if errResult != nil {
		return errResult, nil
	}

	d, err := s.GetSet(setID)
	if err != nil {
		return errorResult("getting set", err), nil
	}
	return jsonResult(SetResponse{Set: d})
}

// handleCreateSet handles the create_set tool request. The cards argument is
// an array of {term, definition} objects; ids are assigned by storage.
func handleCreateSet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, ok := request.Params.Arguments["title"].(string)
	if !ok || title == "" {
		return mcp.NewToolResultText("Missing required parameter: title"), nil
	}
	description, _ := request.Params.Arguments["description"].(string)
	color, _ := request.Params.Arguments["color"].(string)
	creator, _ := request.Params.Arguments["creator"].(string)

	cards, err := cardsFromArguments(request.Params.Arguments["cards"])
	if err != nil {
		return errorResult("parsing cards", err), nil
	}

	s, errResult := serviceFromContext(ctx)
	if errResult != nil {
		return errResult, nil
	}

	d, err := s.CreateSet(title, description, color, creator, cards)
	if err != nil {
		return errorResult("creating set", err), nil
	}
	return jsonResult(SetResponse{Set: d})
}

func handleUpdateSet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	setID, ok := request.Params.Arguments["set_id"].(string)
	if !ok || setID == "" {
		return mcp.NewToolResultText("Missing required parameter: set_id"), nil
	}

	var title, description *string
	if v, ok := request.Params.Arguments["title"].(string); ok {
		title = &v
	}
	if v, ok := request.Params.Arguments["description"].(string); ok {
		description = &v
	}

	var cards *[]deck.Card
	if raw, ok := request.Params.Arguments["cards"]; ok && raw != nil {
		parsed, err := cardsFromArguments(raw)
		if err != nil {
			return errorResult("parsing cards", err), nil
		}
		cards = &parsed
	}

	s, errResult := serviceFromContext(ctx)
	if errResult != nil {
		return errResult, nil
	}

	d, err := s.UpdateSet(setID, title, description, cards)
	if err != nil {
		return errorResult("updating set", err), nil
	}
	return jsonResult(SetResponse{Set: d})
}

func handleDeleteSet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	setID, ok := request.Params.Arguments["set_id"].(string)
	if !ok || setID == "" {
		return mcp.NewToolResultText("Missing required parameter: set_id"), nil
	}

	s, errResult := serviceFromContext(ctx)
	if errResult != nil {
		return errResult, nil
	}

	if err := s.DeleteSet(setID); err != nil {
		return errorResult("deleting set", err), nil
	}
	return jsonResult(DeleteSetResponse{
		Success: true,
		Message: fmt.Sprintf("Set %s deleted successfully", setID),
	})
}

// --- Flashcard / learn session handlers ---

// handleStartStudySession starts a flashcard or learn session. The mode
// argument defaults to flashcard when omitted.
func handleStartStudySession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	setID, ok := request.Params.Arguments["set_id"].(string)
	if !ok || setID == "" {
		return mcp.NewToolResultText("Missing required parameter: set_id"), nil
	}

	mode := session.ModeFlashcard
	if raw, ok := request.Params.Arguments["mode"].(string); ok && raw != "" {
		mode = session.Mode(raw)
	}

	s, errResult := serviceFromContext(ctx)
	if errResult != nil {
		return errResult, nil
	}

	sessionID, view, err := s.StartStudy(setID, mode)
	if err != nil {
		return errorResult("starting study session", err), nil
	}
	return jsonResult(StudyResponse{SessionID: sessionID, View: view})
}

// studyHandler builds a handler for the study operations that only need a
// session id and return the updated view.
func studyHandler(op string, call func(s *StudyService, sessionID string) (session.View, error)) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, ok := request.Params.Arguments["session_id"].(string)
		if !ok || sessionID == "" {
			return mcp.NewToolResultText("Missing required parameter: session_id"), nil
		}

		s, errResult := serviceFromContext(ctx)
		if errResult != nil {
			return errResult, nil
		}

		view, err := call(s, sessionID)
		if err != nil {
			return errorResult(op, err), nil
		}
		return jsonResult(StudyResponse{SessionID: sessionID, View: view})
	}
}

func handleFinishStudySession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, ok := request.Params.Arguments["session_id"].(string)
	if !ok || sessionID == "" {
		return mcp.NewToolResultText("Missing required parameter: session_id"), nil
	}

	s, errResult := serviceFromContext(ctx)
	if errResult != nil {
		return errResult, nil
	}

	summary, record, err := s.FinishStudy(sessionID)
	if err != nil {
		return errorResult("finishing study session", err), nil
	}
	return jsonResult(StudySummaryResponse{Summary: summary, Record: record})
}

// --- Test handlers ---

func handleStartTest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	setID, ok := request.Params.Arguments["set_id"].(string)
	if !ok || setID == "" {
		return mcp.NewToolResultText("Missing required parameter: set_id"), nil
	}

	s, errResult := serviceFromContext(ctx)
	if errResult != nil {
		return errResult, nil
	}

	testID, view, err := s.StartTest(setID)
	if err != nil {
		return errorResult("starting test", err), nil
	}
	return jsonResult(TestResponse{TestID: testID, View: view})
}

func handleSubmitAnswer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	testID, ok := request.Params.Arguments["test_id"].(string)
	if !ok || testID == "" {
		return mcp.NewToolResultText("Missing required parameter: test_id"), nil
	}
	questionID, ok := request.Params.Arguments["question_id"].(string)
	if !ok || questionID == "" {
		return mcp.NewToolResultText("Missing required parameter: question_id"), nil
	}
	answer, ok := request.Params.Arguments["answer"].(string)
	if !ok {
		return mcp.NewToolResultText("Missing required parameter: answer"), nil
	}

	s, errResult := serviceFromContext(ctx)
	if errResult != nil {
		return errResult, nil
	}

	view, err := s.SubmitAnswer(testID, questionID, answer)
	if err != nil {
		return errorResult("submitting answer", err), nil
	}
	return jsonResult(TestResponse{TestID: testID, View: view})
}

func handleAdvanceTest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	testID, ok := request.Params.Arguments["test_id"].(string)
	if !ok || testID == "" {
		return mcp.NewToolResultText("Missing required parameter: test_id"), nil
	}

	s, errResult := serviceFromContext(ctx)
	if errResult != nil {
		return errResult, nil
	}

	view, err := s.AdvanceTest(testID)
	if err != nil {
		return errorResult("advancing test", err), nil
	}
	return jsonResult(TestResponse{TestID: testID, View: view})
}

func handleFinishTest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	testID, ok := request.Params.Arguments["test_id"].(string)
	if !ok || testID == "" {
		return mcp.NewToolResultText("Missing required parameter: test_id"), nil
	}

	s, errResult := serviceFromContext(ctx)
	if errResult != nil {
		return errResult, nil
	}

	score, record, err := s.FinishTest(testID)
	if err != nil {
		return errorResult("finishing test", err), nil
	}
	return jsonResult(ScoreResponse{Score: score, Record: record})
}

// --- Match handlers ---

func handleStartMatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	setID, ok := request.Params.Arguments["set_id"].(string)
	if !ok || setID == "" {
		return mcp.NewToolResultText("Missing required parameter: set_id"), nil
	}

	s, errResult := serviceFromContext(ctx)
	if errResult != nil {
		return errResult, nil
	}

	matchID, round, err := s.StartMatch(setID)
	if err != nil {
		return errorResult("starting match", err), nil
	}
	return jsonResult(matchBoard(matchID, round))
}

func handlePickTile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	matchID, ok := request.Params.Arguments["match_id"].(string)
	if !ok || matchID == "" {
		return mcp.NewToolResultText("Missing required parameter: match_id"), nil
	}
	tileID, ok := request.Params.Arguments["tile_id"].(string)
	if !ok || tileID == "" {
		return mcp.NewToolResultText("Missing required parameter: tile_id"), nil
	}

	s, errResult := serviceFromContext(ctx)
	if errResult != nil {
		return errResult, nil
	}

	outcome, round, err := s.PickTile(matchID, tileID)
	if err != nil {
		return errorResult("picking tile", err), nil
	}
	return jsonResult(PickTileResponse{Outcome: outcome, Board: matchBoard(matchID, round)})
}

func handleSettleMatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	matchID, ok := request.Params.Arguments["match_id"].(string)
	if !ok || matchID == "" {
		return mcp.NewToolResultText("Missing required parameter: match_id"), nil
	}

	s, errResult := serviceFromContext(ctx)
	if errResult != nil {
		return errResult, nil
	}

	round, err := s.SettleMatch(matchID)
	if err != nil {
		return errorResult("settling match", err), nil
	}
	return jsonResult(matchBoard(matchID, round))
}

func handleRestartMatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	matchID, ok := request.Params.Arguments["match_id"].(string)
	if !ok || matchID == "" {
		return mcp.NewToolResultText("Missing required parameter: match_id"), nil
	}

	s, errResult := serviceFromContext(ctx)
	if errResult != nil {
		return errResult, nil
	}

	round, err := s.RestartMatch(matchID)
	if err != nil {
		return errorResult("restarting match", err), nil
	}
	return jsonResult(matchBoard(matchID, round))
}

// --- Analytics ---

func handleGetAnalytics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	setID, _ := request.Params.Arguments["set_id"].(string)

	s, errResult := serviceFromContext(ctx)
	if errResult != nil {
		return errResult, nil
	}

	performance, recent, err := s.GetAnalytics(setID)
	if err != nil {
		return errorResult("computing analytics", err), nil
	}
	return jsonResult(AnalyticsResponse{Performance: performance, Recent: recent})
}

package main

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// callRequest builds a tool request with the given arguments.
func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	var request mcp.CallToolRequest
	request.Params.Arguments = args
	return request
}

// resultJSON unmarshals the text payload of a tool result into out.
func resultJSON(t *testing.T, result *mcp.CallToolResult, out interface{}) {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "Tool result should be text content")
	require.NoError(t, json.Unmarshal([]byte(text.Text), out), "Result should be JSON: %s", text.Text)
}

func setupHandlerContext(t *testing.T) (context.Context, *StudyService) {
	t.Helper()
	s := setupTestService(t)
	return context.WithValue(context.Background(), "service", s), s
}

func TestHandleCreateAndListSets(t *testing.T) {
	ctx, _ := setupHandlerContext(t)

	result, err := handleCreateSet(ctx, callRequest(map[string]interface{}{
		"title":       "Spanish Verbs",
		"description": "Common irregulars",
		"cards": []interface{}{
			map[string]interface{}{"term": "ser", "definition": "to be"},
			map[string]interface{}{"term": "ir", "definition": "to go"},
		},
	}))
	require.NoError(t, err)

	var created SetResponse
	resultJSON(t, result, &created)
	assert.Equal(t, "Spanish Verbs", created.Set.Title)
	assert.Len(t, created.Set.Cards, 2)
	assert.NotEmpty(t, created.Set.ID)

	result, err = handleListSets(ctx, callRequest(nil))
	require.NoError(t, err)

	var listed ListSetsResponse
	resultJSON(t, result, &listed)
	assert.Equal(t, 1, listed.Count)
}

func TestHandleCreateSetMissingTitle(t *testing.T) {
	ctx, _ := setupHandlerContext(t)

	result, err := handleCreateSet(ctx, callRequest(map[string]interface{}{
		"cards": []interface{}{
			map[string]interface{}{"term": "a", "definition": "b"},
		},
	}))
	require.NoError(t, err, "Parameter errors are reported in the result, not as Go errors")

	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "Missing required parameter: title")
}

func TestHandleStartStudySessionFlow(t *testing.T) {
	ctx, s := setupHandlerContext(t)
	d := createTestSet(t, s, 3)

	result, err := handleStartStudySession(ctx, callRequest(map[string]interface{}{
		"set_id": d.ID,
		"mode":   "learn",
	}))
	require.NoError(t, err)

	var started StudyResponse
	resultJSON(t, result, &started)
	require.NotEmpty(t, started.SessionID)
	assert.Equal(t, 1, started.View.Position)

	flip := studyHandler("flipping card", (*StudyService).FlipCard)
	result, err = flip(ctx, callRequest(map[string]interface{}{
		"session_id": started.SessionID,
	}))
	require.NoError(t, err)

	var flipped StudyResponse
	resultJSON(t, result, &flipped)
	assert.True(t, flipped.View.Flipped)
}

func TestHandleStartStudySessionUnknownSet(t *testing.T) {
	ctx, _ := setupHandlerContext(t)

	result, err := handleStartStudySession(ctx, callRequest(map[string]interface{}{
		"set_id": "missing",
	}))
	require.NoError(t, err)

	var payload map[string]string
	resultJSON(t, result, &payload)
	assert.Contains(t, payload["error"], "starting study session")
}

func TestHandleServiceMissingFromContext(t *testing.T) {
	result, err := handleListSets(context.Background(), callRequest(nil))
	require.NoError(t, err)

	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "Service not available")
}

func TestHandleGetAnalyticsEmptyHistory(t *testing.T) {
	ctx, _ := setupHandlerContext(t)

	result, err := handleGetAnalytics(ctx, callRequest(nil))
	require.NoError(t, err)

	var analytics AnalyticsResponse
	resultJSON(t, result, &analytics)
	assert.Equal(t, 0, analytics.Performance.Sessions)
}

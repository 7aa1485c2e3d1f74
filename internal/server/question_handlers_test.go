package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type questionPayload struct {
	ID        uint     `json:"id"`
	Title     string   `json:"title"`
	Tags      []string `json:"tags"`
	Views     int      `json:"views"`
	Upvotes   int      `json:"upvotes"`
	Downvotes int      `json:"downvotes"`
}

func createQuestion(t *testing.T, app *fiber.App, token, title string, tags ...string) questionPayload {
	t.Helper()
	status, env := doJSON(t, app, http.MethodPost, "/api/questions/", token, fiber.Map{
		"title":       title,
		"description": "description of " + title,
		"tags":        tags,
	})
	require.Equal(t, http.StatusCreated, status)

	var q questionPayload
	require.NoError(t, json.Unmarshal(env.Data, &q))
	return q
}

func TestCreateQuestion(t *testing.T) {
	app, _ := newTestApp(t)
	token, _ := signup(t, app, "asker@example.com")

	q := createQuestion(t, app, token, "How does GORM preload?", "Go", "gorm")
	assert.Equal(t, "How does GORM preload?", q.Title)
	// Tags come back normalized.
	assert.Equal(t, []string{"go", "gorm"}, q.Tags)

	status, env := doJSON(t, app, http.MethodPost, "/api/questions/", token, fiber.Map{
		"description": "no title",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Title is required", env.Message)
}

func TestGetQuestion_BumpsViews(t *testing.T) {
	app, _ := newTestApp(t)
	token, _ := signup(t, app, "asker@example.com")
	q := createQuestion(t, app, token, "Viewed question")

	for want := 1; want <= 2; want++ {
		status, env := doJSON(t, app, http.MethodGet, "/api/questions/"+itoa(q.ID), token, nil)
		require.Equal(t, http.StatusOK, status)
		var got questionPayload
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, want, got.Views)
	}
}

func TestVoteQuestion(t *testing.T) {
	app, _ := newTestApp(t)
	asker, _ := signup(t, app, "asker@example.com")
	voter, _ := signup(t, app, "voter@example.com")
	q := createQuestion(t, app, asker, "Voted question")

	path := "/api/questions/" + itoa(q.ID) + "/vote"

	status, env := doJSON(t, app, http.MethodPost, path, voter, fiber.Map{"vote_type": "upvote"})
	require.Equal(t, http.StatusOK, status)
	var got questionPayload
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, 1, got.Upvotes)

	status, env = doJSON(t, app, http.MethodPost, path, voter, fiber.Map{"vote_type": "downvote"})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, 1, got.Downvotes)

	status, env = doJSON(t, app, http.MethodPost, path, voter, fiber.Map{"vote_type": "sideways"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "vote_type must be 'upvote' or 'downvote'", env.Message)
}

func TestToggleBookmark(t *testing.T) {
	app, _ := newTestApp(t)
	asker, _ := signup(t, app, "asker@example.com")
	reader, _ := signup(t, app, "reader@example.com")
	q := createQuestion(t, app, asker, "Bookmarked question")

	path := "/api/questions/" + itoa(q.ID) + "/bookmark"

	status, env := doJSON(t, app, http.MethodPost, path, reader, nil)
	require.Equal(t, http.StatusOK, status)
	var got struct {
		Bookmarked bool `json:"bookmarked"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.True(t, got.Bookmarked)

	status, env = doJSON(t, app, http.MethodPost, path, reader, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.False(t, got.Bookmarked)
}

func TestDeleteQuestion_OwnerOnly(t *testing.T) {
	app, _ := newTestApp(t)
	asker, _ := signup(t, app, "asker@example.com")
	other, _ := signup(t, app, "other@example.com")
	q := createQuestion(t, app, asker, "Deletable question")

	path := "/api/questions/" + itoa(q.ID)

	status, _ := doJSON(t, app, http.MethodDelete, path, other, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = doJSON(t, app, http.MethodDelete, path, asker, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, app, http.MethodGet, path, asker, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

// The hot and trending routes must not be swallowed by the :id route.
func TestHotAndTrendingRoutes(t *testing.T) {
	app, _ := newTestApp(t)
	token, _ := signup(t, app, "asker@example.com")
	createQuestion(t, app, token, "Some question")

	for _, path := range []string{"/api/questions/hot", "/api/questions/trending"} {
		status, env := doJSON(t, app, http.MethodGet, path, token, nil)
		require.Equal(t, http.StatusOK, status, path)
		var list []questionPayload
		require.NoError(t, json.Unmarshal(env.Data, &list))
		assert.Len(t, list, 1, path)
	}
}

func TestAnswerFlow(t *testing.T) {
	app, _ := newTestApp(t)
	asker, _ := signup(t, app, "asker@example.com")
	answerer, _ := signup(t, app, "answerer@example.com")
	q := createQuestion(t, app, asker, "Answered question")

	status, env := doJSON(t, app, http.MethodPost, "/api/questions/"+itoa(q.ID)+"/answers", answerer, fiber.Map{
		"content": "Here is how.",
	})
	require.Equal(t, http.StatusCreated, status)
	var answer struct {
		ID         uint `json:"id"`
		IsAccepted bool `json:"is_accepted"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &answer))
	assert.False(t, answer.IsAccepted)

	// Only the question owner can accept.
	status, _ = doJSON(t, app, http.MethodPost, "/api/answers/"+itoa(answer.ID)+"/accept", answerer, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = doJSON(t, app, http.MethodPost, "/api/answers/"+itoa(answer.ID)+"/accept", asker, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &answer))
	assert.True(t, answer.IsAccepted)

	// The answer author was told about the accept.
	status, env = doJSON(t, app, http.MethodGet, "/api/notifications/summary", answerer, nil)
	require.Equal(t, http.StatusOK, status)
	var summary struct {
		Unread int `json:"unread"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 1, summary.Unread)
}

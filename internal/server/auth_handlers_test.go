package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup(t *testing.T) {
	app, _ := newTestApp(t)

	status, env := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", fiber.Map{
		"email":    "new@example.com",
		"password": "secret-password",
		"name":     "New User",
		"handle":   "@newuser",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "success", env.Status)

	var auth struct {
		Token string `json:"token"`
		User  struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Handle   string `json:"handle"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &auth))
	assert.NotEmpty(t, auth.Token)
	// Username defaults to the email's local part.
	assert.Equal(t, "new", auth.User.Username)
	assert.Equal(t, "new@example.com", auth.User.Email)
	assert.Equal(t, "@newuser", auth.User.Handle)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	app, _ := newTestApp(t)
	signup(t, app, "dupe@example.com")

	status, env := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", fiber.Map{
		"email":    "DUPE@example.com",
		"password": "secret-password",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, "Email already registered", env.Message)
}

func TestLogin(t *testing.T) {
	app, _ := newTestApp(t)
	signup(t, app, "login@example.com")

	status, env := doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "login@example.com",
		"password": "secret-password",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", env.Status)

	status, env = doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "login@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid email or password", env.Message)
}

func TestPasswordReset_Flow(t *testing.T) {
	app, _ := newTestApp(t)
	signup(t, app, "reset@example.com")

	status, env := doJSON(t, app, http.MethodPost, "/api/auth/reset-password/request", "", fiber.Map{
		"email": "reset@example.com",
	})
	require.Equal(t, http.StatusOK, status)

	var data struct {
		ResetToken string `json:"reset_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.ResetToken)

	status, _ = doJSON(t, app, http.MethodPost, "/api/auth/reset-password", "", fiber.Map{
		"token":        data.ResetToken,
		"new_password": "fresh-password",
	})
	require.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "reset@example.com",
		"password": "fresh-password",
	})
	assert.Equal(t, http.StatusOK, status)
}

func TestPasswordReset_UnknownEmailGetsSameResponse(t *testing.T) {
	app, _ := newTestApp(t)

	status, env := doJSON(t, app, http.MethodPost, "/api/auth/reset-password/request", "", fiber.Map{
		"email": "ghost@example.com",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", env.Status)
	// No token for unknown accounts, and no hint that the email is unknown.
	assert.Empty(t, env.Data)
}

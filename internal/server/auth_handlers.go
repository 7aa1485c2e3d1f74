package server

import (
	"strings"

	"stuverflow/internal/middleware"
	"stuverflow/internal/models"
	"stuverflow/internal/service"

	"github.com/gofiber/fiber/v2"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Handle   string `json:"handle"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Signup registers a new account and returns a bearer token. The username
// defaults to the email's local part.
func (s *Server) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	username := req.Email
	if at := strings.Index(req.Email, "@"); at > 0 {
		username = req.Email[:at]
	}

	user, err := s.userService.Signup(c.UserContext(), service.SignupInput{
		Username: username,
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Handle:   req.Handle,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}

	token, err := middleware.IssueToken(user.ID)
	if err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}
	return models.RespondWithData(c, fiber.StatusCreated, authResponse{Token: token, User: user})
}

// Login authenticates by email and password and returns a bearer token.
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Login(c.UserContext(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}

	token, err := middleware.IssueToken(user.ID)
	if err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}
	return models.RespondWithData(c, fiber.StatusOK, authResponse{Token: token, User: user})
}

// Logout is stateless: tokens simply expire. The endpoint exists so clients
// have a uniform call to clear their session.
func (s *Server) Logout(c *fiber.Ctx) error {
	return models.RespondWithMessage(c, fiber.StatusOK, "Logged out", nil)
}

// RequestPasswordReset issues a reset token. The response is identical for
// known and unknown emails.
func (s *Server) RequestPasswordReset(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return models.RespondWithError(c, models.NewValidationError("Email is required"))
	}

	token, err := s.userService.RequestPasswordReset(c.UserContext(), req.Email)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	// Token delivery would normally go out by email; it is returned here so
	// the flow works without a mail provider configured.
	var data interface{}
	if token != "" {
		data = fiber.Map{"reset_token": token}
	}
	return models.RespondWithMessage(c, fiber.StatusOK,
		"If the email is registered, a reset link has been sent", data)
}

// ResetPassword consumes a reset token and sets a new password.
func (s *Server) ResetPassword(c *fiber.Ctx) error {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return models.RespondWithError(c, models.NewValidationError("Token is required"))
	}

	if err := s.userService.ResetPassword(c.UserContext(), service.ResetPasswordInput{
		Token:       req.Token,
		NewPassword: req.NewPassword,
	}); err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithMessage(c, fiber.StatusOK, "Password updated", nil)
}

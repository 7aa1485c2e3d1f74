package models

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// SuccessResponse is the uniform success envelope: every successful response
// wraps its payload as {"status":"success","data":...}.
type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the uniform failure envelope.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// RespondWithData writes a success envelope with the given payload.
func RespondWithData(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(SuccessResponse{Status: "success", Data: data})
}

// RespondWithMessage writes a success envelope carrying a message and an
// optional payload.
func RespondWithMessage(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(SuccessResponse{Status: "success", Message: message, Data: data})
}

// RespondWithError converts any error into the failure envelope. Internal
// errors are logged with their cause and reported with a generic message.
func RespondWithError(c *fiber.Ctx, err error) error {
	status := StatusForError(err)
	message := err.Error()

	var appErr *AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
		if appErr.Code == CodeInternal && appErr.Err != nil {
			slog.ErrorContext(c.UserContext(), "internal error",
				slog.String("path", c.Path()),
				slog.String("error", appErr.Err.Error()),
			)
		}
	} else {
		slog.ErrorContext(c.UserContext(), "unclassified error",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
		message = "Internal server error"
	}

	return c.Status(status).JSON(ErrorResponse{Status: "error", Message: message})
}

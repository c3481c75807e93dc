package handler

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Client-facing messages. They never carry internal or upstream details.
const (
	MsgNoImage  = "No image uploaded"
	MsgInternal = "Internal Server Error"
)

// ErrorResponse is the JSON body of every error answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(ErrorResponse{Error: message})
}

// ErrorHandler returns a Fiber global error handler that answers with the
// standard status text only.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		msg := http.StatusText(status)
		if msg == "" {
			status, msg = fiber.StatusInternalServerError, MsgInternal
		}
		return writeError(c, status, msg)
	}
}

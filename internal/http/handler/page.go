package handler

import (
	"github.com/gofiber/fiber/v2"

	"platereader/web"
)

// Page serves the upload page.
func Page() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Type("html").Send(web.IndexHTML)
	}
}

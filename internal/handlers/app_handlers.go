package handlers

import "github.com/gofiber/fiber/v2"

// GET /status
func (h *Handler) Status(c *fiber.Ctx) error {
	return c.JSON(h.app.Status(c.UserContext()))
}

// GET /stats
func (h *Handler) Stats(c *fiber.Ctx) error {
	stats, err := h.app.Stats(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(stats)
}

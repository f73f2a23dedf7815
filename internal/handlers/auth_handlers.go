package handlers

import (
	"github.com/fathima-sithara/files-service/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

// GET /connect with Authorization: Basic base64(email:password)
func (h *Handler) Connect(c *fiber.Ctx) error {
	token, err := h.auth.Connect(c.UserContext(), c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"token": token})
}

// GET /disconnect
func (h *Handler) Disconnect(c *fiber.Ctx) error {
	if err := h.auth.Disconnect(c.UserContext(), c.Get(middleware.TokenHeader)); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /users
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerReq
	if err := parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}
	user, err := h.users.Register(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": user.ID.Hex(), "email": user.Email})
}

// GET /users/me
func (h *Handler) Me(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	return c.JSON(fiber.Map{"id": user.ID.Hex(), "email": user.Email})
}

package handlers

import (
	"errors"
	"fmt"

	"github.com/fathima-sithara/files-service/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var errInvalidBody = errors.New("invalid body")

type Handler struct {
	files  services.FileService
	pub    services.PublicationService
	auth   services.AuthService
	users  services.UserService
	app    services.AppService
	thumbs services.Enqueuer
	logger *zap.Logger
}

func NewHandler(
	files services.FileService,
	pub services.PublicationService,
	auth services.AuthService,
	users services.UserService,
	app services.AppService,
	thumbs services.Enqueuer,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		files:  files,
		pub:    pub,
		auth:   auth,
		users:  users,
		app:    app,
		thumbs: thumbs,
		logger: logger,
	}
}

func jsonError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// parseBody decodes a JSON body into v. An empty body, or one sent without a
// JSON content type, leaves v zero so field validation reports what is
// missing; malformed JSON is rejected.
func parseBody(c *fiber.Ctx, v any) error {
	if len(c.Body()) == 0 || !c.Is("json") {
		return nil
	}
	if err := c.BodyParser(v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}

// fail maps service errors onto HTTP responses. Internal details are logged
// and never returned.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	if v, ok := services.AsValidation(err); ok {
		return jsonError(c, fiber.StatusBadRequest, v.Reason)
	}
	switch {
	case errors.Is(err, errInvalidBody):
		return jsonError(c, fiber.StatusBadRequest, "invalid body")
	case errors.Is(err, services.ErrUnauthorized):
		return jsonError(c, fiber.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, services.ErrNotFound):
		return jsonError(c, fiber.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrUserExists):
		return jsonError(c, fiber.StatusBadRequest, "Already exist")
	}
	h.logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	return jsonError(c, fiber.StatusInternalServerError, "Internal Server Error")
}

package routes

import (
	"github.com/fathima-sithara/files-service/internal/handlers"
	"github.com/gofiber/fiber/v2"
)

// Middlewares groups the per-route guards.
type Middlewares struct {
	Auth         fiber.Handler
	OptionalAuth fiber.Handler
	ConnectLimit fiber.Handler
}

func Setup(app *fiber.App, h *handlers.Handler, mw Middlewares) {
	app.Get("/status", h.Status)
	app.Get("/stats", h.Stats)

	app.Post("/users", h.Register)
	app.Get("/connect", mw.ConnectLimit, h.Connect)
	app.Get("/disconnect", h.Disconnect)
	app.Get("/users/me", mw.Auth, h.Me)

	app.Post("/files", mw.Auth, h.CreateFile)
	app.Get("/files", mw.Auth, h.ListFiles)
	app.Get("/files/:id/data", mw.OptionalAuth, h.FileData)
	app.Get("/files/:id", mw.Auth, h.GetFile)
	app.Put("/files/:id/publish", mw.Auth, h.Publish)
	app.Put("/files/:id/unpublish", mw.Auth, h.Unpublish)
}

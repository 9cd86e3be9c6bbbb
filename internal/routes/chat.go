package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/memochat/memochat/internal/chat"
)

// RegisterChatRoutes wires the session endpoints. guards run before message submission.
func RegisterChatRoutes(r fiber.Router, h *chat.Handler, guards ...fiber.Handler) {
	r.Post("/session/mount", h.Mount)
	r.Post("/messages", append(guards, h.Send)...)
	r.Get("/messages", h.List)
	r.Get("/events", h.Events)
}

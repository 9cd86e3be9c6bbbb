package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/memochat/memochat/internal/funding"
)

// RegisterFundingRoutes wires the read-only funding status endpoint.
func RegisterFundingRoutes(r fiber.Router, h *funding.Handler) {
	r.Get("/funding", h.Status)
}

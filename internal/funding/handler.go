package funding

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/memochat/memochat/internal/identity"
)

// Handler exposes the read-only funding status endpoint.
type Handler struct {
	guard      *Guard
	identities identity.Provider
}

// NewHandler constructs a funding handler.
func NewHandler(guard *Guard, identities identity.Provider) *Handler {
	return &Handler{guard: guard, identities: identities}
}

// Status reports the sender balance against the funding threshold.
func (h *Handler) Status(c *fiber.Ctx) error {
	sender, err := h.identities.Sender(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusServiceUnavailable, err.Error())
	}
	result, err := h.guard.Status(c.UserContext(), sender)
	if err != nil {
		return fiber.NewError(http.StatusBadGateway, err.Error())
	}
	return c.Status(http.StatusOK).JSON(ToResponse(result))
}

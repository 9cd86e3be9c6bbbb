package wallet

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/memochat/memochat/internal/identity"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type walletResponse struct {
	Sender         string    `json:"sender"`
	SenderShort    string    `json:"sender_short"`
	Recipient      string    `json:"recipient"`
	RecipientShort string    `json:"recipient_short"`
	Balance        uint64    `json:"balance_lamports"`
	AsOf           time.Time `json:"as_of"`
}

// Get returns the sender and recipient banner with the current balance.
func (h *Handler) Get(c *fiber.Ctx) error {
	info, err := h.service.Info(c.UserContext())
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return fiber.NewError(http.StatusServiceUnavailable, err.Error())
		}
		return fiber.NewError(http.StatusBadGateway, err.Error())
	}
	return c.Status(http.StatusOK).JSON(walletResponse{
		Sender:         info.Sender,
		SenderShort:    info.SenderShort,
		Recipient:      info.Recipient,
		RecipientShort: info.RecipientShort,
		Balance:        info.Balance,
		AsOf:           info.AsOf,
	})
}

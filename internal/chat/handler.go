package chat

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
	"github.com/valyala/fasthttp"

	"github.com/memochat/memochat/internal/funding"
	"github.com/memochat/memochat/internal/logging"
	"github.com/memochat/memochat/internal/message"
	"github.com/memochat/memochat/internal/notification"
)

const heartbeatInterval = 15 * time.Second

var validate = validator.New()

// Handler exposes the session over HTTP.
type Handler struct {
	session *Session
	hub     *notification.Hub
	logger  *slog.Logger
}

// NewHandler constructs a chat handler. hub may be nil, in which case the
// events stream is unavailable.
func NewHandler(session *Session, hub *notification.Hub, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{session: session, hub: hub, logger: logger}
}

type sendRequest struct {
	Text string `json:"text" validate:"required"`
}

type recordResponse struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	DisplayText    string    `json:"display_text"`
	Sender         string    `json:"sender"`
	Signature      string    `json:"signature"`
	ProofReference string    `json:"proof_reference"`
	CreatedAt      time.Time `json:"created_at"`
}

type errorResponse struct {
	Category string `json:"category"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Draft    string `json:"draft"`
}

func toRecordResponse(r Record, _ int) recordResponse {
	return recordResponse{
		ID:             r.ID,
		Text:           r.Text,
		DisplayText:    r.DisplayText,
		Sender:         r.Sender,
		Signature:      r.Signature,
		ProofReference: r.ProofReference,
		CreatedAt:      r.CreatedAt,
	}
}

// Mount runs the funding check once per process.
func (h *Handler) Mount(c *fiber.Ctx) error {
	res, err := h.session.Mount(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusBadGateway, err.Error())
	}
	return c.Status(http.StatusOK).JSON(funding.ToResponse(res))
}

// Send submits one message and returns the accepted record.
func (h *Handler) Send(c *fiber.Ctx) error {
	var req sendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return h.sendFailed(c, &SendError{Category: CategoryValidation, Err: message.ErrEmptyMessage}, req.Text)
	}

	record, err := h.session.Send(c.UserContext(), req.Text)
	if err != nil {
		return h.sendFailed(c, err, req.Text)
	}
	return c.Status(http.StatusCreated).JSON(toRecordResponse(record, 0))
}

func (h *Handler) sendFailed(c *fiber.Ctx, err error, text string) error {
	var sendErr *SendError
	if !errors.As(err, &sendErr) {
		sendErr = &SendError{Category: Classify(err), Err: err}
	}

	status := http.StatusBadGateway
	switch sendErr.Category {
	case CategoryInsufficientFunds:
		status = http.StatusPaymentRequired
	case CategoryValidation:
		status = http.StatusBadRequest
		if errors.Is(err, message.ErrMessageTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
	}

	return c.Status(status).JSON(errorResponse{
		Category: string(sendErr.Category),
		Title:    sendErr.Title(),
		Message:  sendErr.Body(),
		Draft:    text,
	})
}

// List returns the accepted messages in order.
func (h *Handler) List(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"messages": lo.Map(h.session.Messages(), toRecordResponse),
		"state":    h.session.State(),
	})
}

// Events streams notifications as server-sent events until the client leaves.
func (h *Handler) Events(c *fiber.Ctx) error {
	if h.hub == nil {
		return fiber.NewError(http.StatusNotImplemented, "event stream disabled")
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	hub, logger := h.hub, h.logger

	// The writer may never run if the client leaves first, so the
	// subscription lives entirely inside it.
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		events, cancel := hub.Subscribe()
		defer cancel()
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()

		if err := writeComment(w, "connected"); err != nil {
			return
		}
		for {
			select {
			case msg, ok := <-events:
				if !ok {
					return
				}
				if err := writeEvent(w, msg); err != nil {
					logger.Debug("event stream closed", "error", err)
					return
				}
			case <-ticker.C:
				if err := writeComment(w, "ping"); err != nil {
					return
				}
			}
		}
	}))
	return nil
}

func writeEvent(w *bufio.Writer, msg notification.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Kind, payload); err != nil {
		return err
	}
	return w.Flush()
}

func writeComment(w *bufio.Writer, text string) error {
	if _, err := fmt.Fprintf(w, ": %s\n\n", text); err != nil {
		return err
	}
	return w.Flush()
}

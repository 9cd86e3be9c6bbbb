package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/memochat/memochat/internal/chat"
	"github.com/memochat/memochat/internal/config"
	"github.com/memochat/memochat/internal/routes"
)

// Server wraps the Fiber application and the chat session it serves.
type Server struct {
	app     *fiber.App
	cfg     config.Config
	session *chat.Session
	logger  *slog.Logger
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(deps routes.Deps) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:      deps.Cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
	})

	session, err := routes.Setup(app, deps)
	if err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: deps.Cfg, session: session, logger: deps.Logger}, nil
}

// Mount runs the startup funding check. Failures are logged; a later
// POST /api/v1/session/mount can retry.
func (s *Server) Mount(ctx context.Context) {
	res, err := s.session.Mount(ctx)
	if err != nil {
		s.logger.Error("startup funding check failed", "error", err)
		return
	}
	s.logger.Info("session mounted", "address", res.Address, "lamports", res.Balance, "topped_up", res.ToppedUp)
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

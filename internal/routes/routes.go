package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/memochat/memochat/internal/chat"
	"github.com/memochat/memochat/internal/config"
	"github.com/memochat/memochat/internal/funding"
	"github.com/memochat/memochat/internal/identity"
	"github.com/memochat/memochat/internal/ledger"
	"github.com/memochat/memochat/internal/middleware"
	"github.com/memochat/memochat/internal/notification"
	"github.com/memochat/memochat/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg        config.Config
	DB         *pgxpool.Pool
	Cache      *redis.Client
	Logger     *slog.Logger
	Ledger     ledger.Client
	Identities identity.Provider
}

// Setup configures middlewares and all application routes, and returns the
// chat session they serve.
func Setup(app *fiber.App, d Deps) (*chat.Session, error) {
	if d.Ledger == nil {
		return nil, fmt.Errorf("ledger client is required")
	}
	if d.Identities == nil {
		return nil, fmt.Errorf("identity provider is required")
	}
	if d.Cfg.IsProduction() {
		if d.DB == nil {
			return nil, fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return nil, fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	if !d.Cfg.IsProduction() {
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}
	app.Use(middleware.Audit(d.Logger))

	// Health
	RegisterHealthRoutes(app, d)

	// Services and handlers
	hub := notification.NewHub(32)
	notifier := notification.Multi{notification.NewLoggerNotifier(d.Logger), hub}

	policy, err := funding.ParsePolicy(d.Cfg.FundingPolicy)
	if err != nil {
		return nil, err
	}
	guard, err := funding.NewGuard(d.Ledger, notifier, d.Logger,
		funding.WithThreshold(d.Cfg.FundingThreshold),
		funding.WithTopUp(d.Cfg.FundingTopUp),
	)
	if err != nil {
		return nil, err
	}

	session, err := chat.NewSession(chat.SessionConfig{
		Submitter:  d.Ledger,
		Identities: d.Identities,
		Guard:      guard,
		Policy:     policy,
		Notifier:   notifier,
		Logger:     d.Logger,
		Explorer:   chat.Explorer{BaseURL: d.Cfg.ExplorerBaseURL, Cluster: d.Cfg.SolanaCluster},
	})
	if err != nil {
		return nil, err
	}

	chatHandler := chat.NewHandler(session, hub, d.Logger)
	fundingHandler := funding.NewHandler(guard, d.Identities)
	walletHandler := wallet.NewHandler(wallet.NewService(d.Identities, d.Ledger))

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFromCtx(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	sendGuards := []fiber.Handler{
		middleware.SendRateLimit(d.Cache, d.Cfg.SendRateLimit),
		middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger),
	}
	RegisterChatRoutes(api, chatHandler, sendGuards...)
	RegisterWalletRoutes(api, walletHandler)
	RegisterFundingRoutes(api, fundingHandler)

	return session, nil
}

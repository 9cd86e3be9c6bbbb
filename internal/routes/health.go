package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

type healthChecker interface {
	Health(ctx context.Context) error
}

const statusDisabled = "disabled"

// RegisterHealthRoutes adds liveness/readiness style endpoints.
func RegisterHealthRoutes(app *fiber.App, d Deps) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		dbStatus := statusDisabled
		redisStatus := statusDisabled
		rpcStatus := statusDisabled

		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if d.DB != nil {
			dbStatus = check(d.DB.Ping(ctx))
		}
		if d.Cache != nil {
			redisStatus = check(d.Cache.Ping(ctx).Err())
		}
		if hc, ok := d.Ledger.(healthChecker); ok {
			rpcStatus = check(hc.Health(ctx))
		}

		status := http.StatusOK
		for _, s := range []string{dbStatus, redisStatus, rpcStatus} {
			if s != "ok" && s != statusDisabled {
				status = http.StatusServiceUnavailable
			}
		}
		return c.Status(status).JSON(fiber.Map{
			"status":    fiber.Map{"postgres": dbStatus, "redis": redisStatus, "rpc": rpcStatus},
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}

func check(err error) string {
	if err != nil {
		return err.Error()
	}
	return "ok"
}

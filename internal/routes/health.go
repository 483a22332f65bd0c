package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

const healthProbeTimeout = 2 * time.Second

// RegisterHealthRoutes adds the readiness endpoint. The payload names this
// service's three backends; a dev-mode memory fallback reports its mode
// instead of failing, since there is nothing to probe.
func RegisterHealthRoutes(app *fiber.App, d Deps) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthProbeTimeout)
		defer cancel()

		healthy := true

		accounts := "in-memory"
		if d.DB != nil {
			accounts = "ok"
			if err := d.DB.Ping(ctx); err != nil {
				accounts = err.Error()
				healthy = false
			}
		}

		pendingStore := "in-memory"
		if d.Cache != nil {
			pendingStore = "ok"
			if err := d.Cache.Ping(ctx).Err(); err != nil {
				pendingStore = err.Error()
				healthy = false
			}
		}

		// The SMTP relay is not dialed here; a probe per scrape would spam
		// the relay. Only the configured mode is reported.
		mailTransport := "log"
		if d.Cfg.SMTPHost != "" {
			mailTransport = "smtp"
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{
			"accounts":  accounts,
			"pending":   pendingStore,
			"mail":      mailTransport,
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}

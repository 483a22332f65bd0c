package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/mailgate/mailgate/internal/config"
	"github.com/mailgate/mailgate/internal/identity"
	"github.com/mailgate/mailgate/internal/mail"
	"github.com/mailgate/mailgate/internal/middleware"
	"github.com/mailgate/mailgate/internal/pending"
	"github.com/mailgate/mailgate/internal/profile"
	"github.com/mailgate/mailgate/internal/registration"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Memory fallbacks are a development convenience only.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	var pendingStore pending.Store
	if d.Cache != nil {
		pendingStore = pending.NewRedisStore(d.Cache)
	} else {
		pendingStore = pending.NewMemoryStore()
	}

	var idProvider identity.Provider
	var profileStore profile.Store
	if d.DB != nil {
		idProvider = identity.NewPostgresProvider(d.DB)
		profileStore = profile.NewPostgresStore(d.DB)
	} else {
		idProvider = identity.NewMemoryProvider()
		profileStore = profile.NewMemoryStore()
	}

	var mailer mail.Mailer
	if d.Cfg.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(d.Cfg.SMTPHost, d.Cfg.SMTPPort, d.Cfg.SMTPUser, d.Cfg.SMTPPass, d.Cfg.MailFrom)
	} else {
		mailer = mail.NewLogMailer(d.Logger)
	}

	svc := registration.NewService(pendingStore, idProvider, profileStore, mailer, d.Logger, registration.Options{
		TokenTTL:      d.Cfg.TokenTTL,
		VerifyBaseURL: d.Cfg.VerifyBaseURL,
		MailSubject:   d.Cfg.MailSubject,
	})
	handler := registration.NewHandler(svc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterRegistrationRoutes(api, handler)

	return nil
}

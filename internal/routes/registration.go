package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mailgate/mailgate/internal/registration"
)

// RegisterRegistrationRoutes wires the two-phase registration endpoints.
// The GET verify route is the target of the mailed link; the POST complete
// route serves clients that collected the token themselves.
func RegisterRegistrationRoutes(r fiber.Router, h *registration.Handler) {
	r.Post("/registrations", h.Issue)
	r.Get("/registrations/verify", h.Complete)
	r.Post("/registrations/complete", h.Complete)
}

package registration

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the registration endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a registration HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type issueRequest struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	UserData map[string]any `json:"user_data"`
}

type completeRequest struct {
	Token string `json:"token"`
}

// Issue handles a registration request. The token never appears in the
// response; it reaches the user only through the verification mail.
func (h *Handler) Issue(c *fiber.Ctx) error {
	var req issueRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	_, err := h.service.IssueVerification(c.UserContext(), IssueInput{
		Email:    req.Email,
		Password: req.Password,
		UserData: req.UserData,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrMailDelivery):
			return fiber.NewError(http.StatusBadGateway, "could not send verification email")
		default:
			return fiber.NewError(http.StatusInternalServerError, "registration failed")
		}
	}

	return c.Status(http.StatusAccepted).JSON(fiber.Map{"success": true})
}

// Complete handles a verification callback carrying the token in the JSON
// body (POST) or as a query parameter (GET, the mailed link).
func (h *Handler) Complete(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		var req completeRequest
		if err := c.BodyParser(&req); err == nil {
			token = req.Token
		}
	}
	if token == "" {
		return fiber.NewError(http.StatusBadRequest, "token is required")
	}

	account, err := h.service.CompleteRegistration(c.UserContext(), token)
	if err != nil {
		switch {
		case errors.Is(err, ErrTokenNotFound):
			return fiber.NewError(http.StatusNotFound, "invalid or expired link")
		case errors.Is(err, ErrTokenExpired):
			return fiber.NewError(http.StatusGone, "verification link expired, please register again")
		case errors.Is(err, ErrEmailConflict):
			return fiber.NewError(http.StatusConflict, "account already exists")
		default:
			return fiber.NewError(http.StatusInternalServerError, "could not complete registration")
		}
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success":    true,
		"account_id": account.ID,
	})
}

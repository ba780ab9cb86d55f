package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/skcgolf/skc-api/internal/dto"
	"github.com/skcgolf/skc-api/internal/logging"
	"github.com/skcgolf/skc-api/internal/services"
)

type UserJWTHandler struct {
	auth *services.AuthService
}

func NewUserJWTHandler(auth *services.AuthService) *UserJWTHandler {
	return &UserJWTHandler{auth: auth}
}

// Authorize handles POST /api/authenticate.
func (h *UserJWTHandler) Authorize(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := Bind(c, &req); err != nil {
		return err
	}

	token, err := h.auth.Login(c.UserContext(), &req, c.IP())
	if err != nil {
		logging.For("security").Debug("authentication rejected", "username", req.Username, "error", err)
		return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}

	c.Set(fiber.HeaderAuthorization, "Bearer "+token)
	return c.JSON(dto.TokenResponse{IDToken: token})
}

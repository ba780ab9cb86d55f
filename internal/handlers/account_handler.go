package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/skcgolf/skc-api/internal/config"
	"github.com/skcgolf/skc-api/internal/dto"
	"github.com/skcgolf/skc-api/internal/logging"
	"github.com/skcgolf/skc-api/internal/security"
	"github.com/skcgolf/skc-api/internal/services"
)

const userManagement = "userManagement"

var (
	errLoginAlreadyUsed = &AlertError{
		Title: "Login name already used!", EntityName: userManagement, ErrorKey: "userexists", Type: dto.ProblemLoginAlreadyUsed,
	}
	errEmailAlreadyUsed = &AlertError{
		Title: "Email is already in use!", EntityName: userManagement, ErrorKey: "emailexists", Type: dto.ProblemEmailAlreadyUsed,
	}
)

func invalidPassword() error {
	return newProblem(fiber.StatusBadRequest, dto.ProblemInvalidPassword, "Incorrect password")
}

func accountProblem(title string) error {
	return newProblem(fiber.StatusInternalServerError, dto.ProblemDefaultType, title)
}

// mapUserError translates lifecycle errors shared by account and user endpoints.
func mapUserError(err error) error {
	switch {
	case errors.Is(err, services.ErrLoginInUse):
		return errLoginAlreadyUsed
	case errors.Is(err, services.ErrEmailInUse):
		return errEmailAlreadyUsed
	case errors.Is(err, services.ErrInvalidPassword), errors.Is(err, services.ErrWrongPassword):
		return invalidPassword()
	}
	return err
}

type AccountHandler struct {
	users  *services.UserService
	policy services.PasswordPolicy
}

func NewAccountHandler(users *services.UserService, cfg *config.Config) *AccountHandler {
	return &AccountHandler{
		users:  users,
		policy: services.PasswordPolicy{MinLength: cfg.PasswordMinLength, MaxLength: cfg.PasswordMaxLength},
	}
}

func (h *AccountHandler) checkPassword(password string) error {
	if err := h.policy.Check(password); err != nil {
		return mapUserError(err)
	}
	return nil
}

// Register handles POST /api/register.
func (h *AccountHandler) Register(c *fiber.Ctx) error {
	var req dto.ManagedUserVM
	if err := Bind(c, &req); err != nil {
		return err
	}
	if err := h.checkPassword(req.Password); err != nil {
		return err
	}

	if _, err := h.users.Register(c.UserContext(), req.UserDTO, req.Password); err != nil {
		return mapUserError(err)
	}
	return c.SendStatus(fiber.StatusCreated)
}

// Activate handles GET /api/activate?key=.
func (h *AccountHandler) Activate(c *fiber.Ctx) error {
	if _, err := h.users.Activate(c.UserContext(), c.Query("key")); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return accountProblem("No user was found for this activation key")
		}
		return err
	}
	return c.SendStatus(fiber.StatusOK)
}

// IsAuthenticated handles GET /api/authenticate and returns the caller's login.
func (h *AccountHandler) IsAuthenticated(c *fiber.Ctx) error {
	logging.For("web").Debug("REST request to check if the current user is authenticated")
	login, _ := security.CurrentLogin(c)
	return c.SendString(login)
}

// GetAccount handles GET /api/account.
func (h *AccountHandler) GetAccount(c *fiber.Ctx) error {
	user, err := h.users.CurrentUser(c.UserContext())
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) || errors.Is(err, services.ErrNotAuthenticated) {
			return accountProblem("User could not be found")
		}
		return err
	}
	return c.JSON(dto.NewUserDTO(user))
}

// SaveAccount handles POST /api/account.
func (h *AccountHandler) SaveAccount(c *fiber.Ctx) error {
	var req dto.UserDTO
	if err := Bind(c, &req); err != nil {
		return err
	}
	login, ok := security.CurrentLogin(c)
	if !ok {
		return accountProblem("Current user login not found")
	}

	existing, err := h.users.GetUserByEmail(c.UserContext(), req.Email)
	switch {
	case err == nil:
		if !strings.EqualFold(existing.Login, login) {
			return errEmailAlreadyUsed
		}
	case !errors.Is(err, services.ErrUserNotFound):
		return err
	}

	_, err = h.users.UpdateProfile(c.UserContext(), req.FirstName, req.LastName, req.Email, req.LangKey, req.ImageURL)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return accountProblem("User could not be found")
		}
		return mapUserError(err)
	}
	return c.SendStatus(fiber.StatusOK)
}

// ChangePassword handles POST /api/account/change-password.
func (h *AccountHandler) ChangePassword(c *fiber.Ctx) error {
	var req dto.PasswordChangeRequest
	if err := Bind(c, &req); err != nil {
		return err
	}
	if err := h.checkPassword(req.NewPassword); err != nil {
		return err
	}

	if err := h.users.ChangePassword(c.UserContext(), req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, services.ErrNotAuthenticated) {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}
		if errors.Is(err, services.ErrUserNotFound) {
			return accountProblem("User could not be found")
		}
		return mapUserError(err)
	}
	return c.SendStatus(fiber.StatusOK)
}

// RequestPasswordReset handles POST /api/account/reset-password/init. The
// body is the bare email address.
func (h *AccountHandler) RequestPasswordReset(c *fiber.Ctx) error {
	email := strings.Trim(strings.TrimSpace(string(c.Body())), `"`)

	if _, err := h.users.RequestPasswordReset(c.UserContext(), email); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return newProblem(fiber.StatusBadRequest, dto.ProblemEmailNotFound, "Email address not registered")
		}
		return err
	}
	return c.SendStatus(fiber.StatusOK)
}

// FinishPasswordReset handles POST /api/account/reset-password/finish.
func (h *AccountHandler) FinishPasswordReset(c *fiber.Ctx) error {
	var req dto.KeyAndPasswordRequest
	if err := Bind(c, &req); err != nil {
		return err
	}
	if err := h.checkPassword(req.NewPassword); err != nil {
		return err
	}

	if _, err := h.users.CompletePasswordReset(c.UserContext(), req.NewPassword, req.Key); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return accountProblem("No user was found for this reset key")
		}
		return err
	}
	return c.SendStatus(fiber.StatusOK)
}

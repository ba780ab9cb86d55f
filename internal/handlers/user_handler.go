package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/skcgolf/skc-api/internal/dto"
	"github.com/skcgolf/skc-api/internal/pagination"
	"github.com/skcgolf/skc-api/internal/services"
)

// userSortColumns whitelists the properties GET /api/users can sort by.
var userSortColumns = map[string]string{
	"id":               "id",
	"login":            "login",
	"firstName":        "first_name",
	"lastName":         "last_name",
	"email":            "email",
	"imageUrl":         "image_url",
	"activated":        "activated",
	"langKey":          "lang_key",
	"createdBy":        "created_by",
	"createdDate":      "created_at",
	"lastModifiedBy":   "last_modified_by",
	"lastModifiedDate": "updated_at",
}

// UserHandler serves the admin user management endpoints.
type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Create(c *fiber.Ctx) error {
	var req dto.UserDTO
	if err := Bind(c, &req); err != nil {
		return err
	}

	user, err := h.users.CreateUser(c.UserContext(), req)
	if err != nil {
		if errors.Is(err, services.ErrIDExists) {
			return BadRequestAlert("A new user cannot already have an ID", userManagement, "idexists")
		}
		return mapUserError(err)
	}

	c.Location("/api/users/" + user.Login)
	setAlert(c, userManagement+".created", user.Login)
	return c.Status(fiber.StatusCreated).JSON(dto.NewUserDTO(user))
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	var req dto.UserDTO
	if err := Bind(c, &req); err != nil {
		return err
	}

	user, err := h.users.UpdateUser(c.UserContext(), req)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return fiber.ErrNotFound
		}
		return mapUserError(err)
	}

	setAlert(c, userManagement+".updated", user.Login)
	return c.JSON(dto.NewUserDTO(user))
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	page, err := pagination.Parse(c, userSortColumns)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	users, total, err := h.users.ListUsers(c.UserContext(), page)
	if err != nil {
		return err
	}
	pagination.SetHeaders(c, page, total)
	return c.JSON(dto.NewUserDTOs(users))
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	user, err := h.users.GetUser(c.UserContext(), c.Params("login"))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return fiber.ErrNotFound
		}
		return err
	}
	return c.JSON(dto.NewUserDTO(user))
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	login := c.Params("login")
	if err := h.users.DeleteUser(c.UserContext(), login); err != nil {
		return err
	}
	setAlert(c, userManagement+".deleted", login)
	return c.SendStatus(fiber.StatusOK)
}

func (h *UserHandler) Authorities(c *fiber.Ctx) error {
	names, err := h.users.Authorities(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(names)
}

package dto

import (
	"time"

	"github.com/skcgolf/skc-api/internal/models"
)

// UserDTO is the outward representation of a user, shared by the account
// and user management endpoints.
type UserDTO struct {
	ID               *int64     `json:"id,omitempty"`
	Login            string     `json:"login" validate:"required,min=1,max=50,login"`
	FirstName        string     `json:"firstName" validate:"max=50"`
	LastName         string     `json:"lastName" validate:"max=50"`
	Email            string     `json:"email" validate:"required,email,min=5,max=254"`
	ImageURL         string     `json:"imageUrl" validate:"max=256"`
	Activated        bool       `json:"activated"`
	LangKey          string     `json:"langKey" validate:"omitempty,min=2,max=10"`
	CreatedBy        string     `json:"createdBy,omitempty"`
	CreatedDate      *time.Time `json:"createdDate,omitempty"`
	LastModifiedBy   string     `json:"lastModifiedBy,omitempty"`
	LastModifiedDate *time.Time `json:"lastModifiedDate,omitempty"`
	Authorities      []string   `json:"authorities"`
}

// ManagedUserVM is a UserDTO with a clear-text password, used for registration.
type ManagedUserVM struct {
	UserDTO
	Password string `json:"password"`
}

type LoginRequest struct {
	Username   string `json:"username" validate:"required,min=1,max=50"`
	Password   string `json:"password" validate:"required,min=4,max=100"`
	RememberMe bool   `json:"rememberMe"`
}

type TokenResponse struct {
	IDToken string `json:"id_token"`
}

type PasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type KeyAndPasswordRequest struct {
	Key         string `json:"key"`
	NewPassword string `json:"newPassword"`
}

func NewUserDTO(u *models.User) UserDTO {
	id := u.ID
	created, modified := u.CreatedAt, u.UpdatedAt
	d := UserDTO{
		ID:             &id,
		Login:          u.Login,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Email:          u.Email,
		ImageURL:       u.ImageURL,
		Activated:      u.Activated,
		LangKey:        u.LangKey,
		CreatedBy:      u.CreatedBy,
		LastModifiedBy: u.LastModifiedBy,
		Authorities:    u.AuthorityNames(),
	}
	if !created.IsZero() {
		d.CreatedDate = &created
	}
	if !modified.IsZero() {
		d.LastModifiedDate = &modified
	}
	return d
}

func NewUserDTOs(users []models.User) []UserDTO {
	out := make([]UserDTO, 0, len(users))
	for i := range users {
		out = append(out, NewUserDTO(&users[i]))
	}
	return out
}

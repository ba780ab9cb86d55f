package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/skcgolf/skc-api/internal/dto"
	"github.com/skcgolf/skc-api/internal/logging"
	"github.com/skcgolf/skc-api/internal/models"
	"github.com/skcgolf/skc-api/internal/repository"
	"github.com/skcgolf/skc-api/internal/security"
)

// CreateUser creates an activated account with a random password and an
// open reset key, so that the owner sets a real password through the
// reset flow. Authorities are taken as given.
func (s *UserService) CreateUser(ctx context.Context, req dto.UserDTO) (*models.User, error) {
	if req.ID != nil {
		return nil, ErrIDExists
	}
	login := strings.ToLower(req.Login)
	email := strings.ToLower(req.Email)

	if err := s.ensureFree(ctx, 0, login, email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(security.RandomPassword())
	if err != nil {
		return nil, err
	}
	authorities, err := s.repo.FindAuthorities(ctx, req.Authorities)
	if err != nil {
		return nil, fmt.Errorf("failed to load authorities: %w", err)
	}

	langKey := req.LangKey
	if langKey == "" {
		langKey = models.DefaultLanguage
	}
	resetKey := security.RandomKey()
	now := s.now()
	user := &models.User{
		Login:        login,
		Email:        email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		ImageURL:     req.ImageURL,
		LangKey:      langKey,
		Activated:    true,
		ResetKey:     &resetKey,
		ResetDate:    &now,
		Authorities:  authorities,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, mapDuplicate(err)
	}
	s.evict(ctx, []string{user.Login}, []string{user.Email})

	log := logging.For("account")
	log.Debug("created information for user", "login", user.Login)
	if err := s.mailer.SendCreationEmail(ctx, user); err != nil {
		log.Warn("creation email not sent", "login", user.Login, "error", err)
	}
	return user, nil
}

// UpdateUser replaces every field of the user identified by req.ID,
// including its authorities.
func (s *UserService) UpdateUser(ctx context.Context, req dto.UserDTO) (*models.User, error) {
	if req.ID == nil {
		return nil, fmt.Errorf("no id given: %w", ErrUserNotFound)
	}
	login := strings.ToLower(req.Login)
	email := strings.ToLower(req.Email)

	if err := s.ensureFree(ctx, *req.ID, login, email); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, *req.ID)
	if err != nil {
		return nil, notFound("id", err)
	}
	authorities, err := s.repo.FindAuthorities(ctx, req.Authorities)
	if err != nil {
		return nil, fmt.Errorf("failed to load authorities: %w", err)
	}

	oldLogin, oldEmail := user.Login, user.Email
	user.Login = login
	user.Email = email
	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.ImageURL = req.ImageURL
	setActivated(user, req.Activated)
	user.LangKey = req.LangKey
	user.Authorities = authorities

	if err := s.repo.Save(ctx, user); err != nil {
		return nil, mapDuplicate(err)
	}
	s.evict(ctx, []string{oldLogin, user.Login}, []string{oldEmail, user.Email})
	logging.For("account").Debug("changed information for user", "login", user.Login)
	return user, nil
}

// setActivated keeps the activation key in step with the flag: an active
// account has no key and a deactivated one gets a fresh key.
func setActivated(user *models.User, activated bool) {
	switch {
	case activated && !user.Activated:
		user.ActivationKey = nil
	case !activated && user.Activated:
		key := security.RandomKey()
		user.ActivationKey = &key
	}
	user.Activated = activated
}

// ensureFree fails when login or email belongs to a user other than id.
func (s *UserService) ensureFree(ctx context.Context, id int64, login, email string) error {
	if other, err := s.repo.FindByEmail(ctx, email); err == nil {
		if other.ID != id {
			return ErrEmailInUse
		}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to look up email: %w", err)
	}

	if other, err := s.repo.FindByLogin(ctx, login); err == nil {
		if other.ID != id {
			return ErrLoginInUse
		}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to look up login: %w", err)
	}
	return nil
}

// DeleteUser removes the account. Deleting an unknown login is a no-op.
func (s *UserService) DeleteUser(ctx context.Context, login string) error {
	user, err := s.repo.FindByLogin(ctx, login)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up login: %w", err)
	}
	if err := s.repo.Delete(ctx, user); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	s.evict(ctx, []string{user.Login}, []string{user.Email})
	logging.For("account").Debug("deleted user", "login", user.Login)
	return nil
}

// ListUsers pages through every account except the anonymous one.
func (s *UserService) ListUsers(ctx context.Context, page repository.Pageable) ([]models.User, int64, error) {
	return s.repo.List(ctx, page, models.AnonymousAccount)
}

func (s *UserService) GetUser(ctx context.Context, login string) (*models.User, error) {
	user, err := s.repo.FindByLogin(ctx, login)
	if err != nil {
		return nil, notFound("login", err)
	}
	return user, nil
}

// Authorities lists every role name.
func (s *UserService) Authorities(ctx context.Context) ([]string, error) {
	authorities, err := s.repo.ListAuthorities(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(authorities))
	for _, a := range authorities {
		names = append(names, a.Name)
	}
	return names, nil
}

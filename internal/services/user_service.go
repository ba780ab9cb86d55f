package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skcgolf/skc-api/internal/cache"
	"github.com/skcgolf/skc-api/internal/dto"
	"github.com/skcgolf/skc-api/internal/logging"
	"github.com/skcgolf/skc-api/internal/mail"
	"github.com/skcgolf/skc-api/internal/models"
	"github.com/skcgolf/skc-api/internal/repository"
	"github.com/skcgolf/skc-api/internal/security"
)

const (
	ResetKeyValidity = 24 * time.Hour
	StaleAccountAge  = 3 * 24 * time.Hour
)

// UserService owns the account lifecycle. Every write to a user record is
// followed by eviction of the by-login and by-email caches.
type UserService struct {
	repo   repository.UserRepository
	hasher security.PasswordHasher
	mailer mail.Mailer
	caches *cache.Users
	now    func() time.Time
}

func NewUserService(
	repo repository.UserRepository,
	hasher security.PasswordHasher,
	mailer mail.Mailer,
	caches *cache.Users,
) *UserService {
	return &UserService{
		repo:   repo,
		hasher: hasher,
		mailer: mailer,
		caches: caches,
		now:    time.Now,
	}
}

// Register creates an unactivated account with the ROLE_USER authority.
// Unactivated records holding the same login or email are removed first.
func (s *UserService) Register(ctx context.Context, req dto.UserDTO, password string) (*models.User, error) {
	log := logging.For("account")
	login := strings.ToLower(req.Login)
	email := strings.ToLower(req.Email)

	existing, err := s.repo.FindByLogin(ctx, login)
	switch {
	case err == nil:
		if existing.Activated {
			return nil, ErrLoginInUse
		}
		if err := s.removeNonActivated(ctx, existing); err != nil {
			return nil, err
		}
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to look up login: %w", err)
	}

	existing, err = s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Activated {
			return nil, ErrEmailInUse
		}
		if err := s.removeNonActivated(ctx, existing); err != nil {
			return nil, err
		}
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	authorities, err := s.repo.FindAuthorities(ctx, []string{models.RoleUser})
	if err != nil {
		return nil, fmt.Errorf("failed to load authorities: %w", err)
	}

	activationKey := security.RandomKey()
	user := &models.User{
		Login:         login,
		Email:         email,
		PasswordHash:  hash,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		ImageURL:      req.ImageURL,
		LangKey:       req.LangKey,
		Activated:     false,
		ActivationKey: &activationKey,
		Authorities:   authorities,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, mapDuplicate(err)
	}
	s.evict(ctx, []string{user.Login}, []string{user.Email})
	log.Debug("created information for user", "login", user.Login)

	if err := s.mailer.SendActivationEmail(ctx, user); err != nil {
		log.Warn("activation email not sent", "login", user.Login, "error", err)
	}
	return user, nil
}

func (s *UserService) removeNonActivated(ctx context.Context, user *models.User) error {
	if err := s.repo.Delete(ctx, user); err != nil {
		return fmt.Errorf("failed to remove non activated user: %w", err)
	}
	s.evict(ctx, []string{user.Login}, []string{user.Email})
	logging.For("account").Debug("removed non activated user", "login", user.Login)
	return nil
}

// Activate consumes an activation key.
func (s *UserService) Activate(ctx context.Context, key string) (*models.User, error) {
	log := logging.For("account")
	log.Debug("activating user", "key", key)

	user, err := s.repo.FindByActivationKey(ctx, key)
	if err != nil {
		return nil, notFound("activation key", err)
	}

	user.Activated = true
	user.ActivationKey = nil
	if err := s.save(ctx, user, user.Login, user.Email); err != nil {
		return nil, err
	}
	log.Debug("activated user", "login", user.Login)
	return user, nil
}

// RequestPasswordReset opens a reset window for an activated account.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, notFound("email", err)
	}
	if !user.Activated {
		return nil, fmt.Errorf("account %s is not activated: %w", user.Login, ErrUserNotFound)
	}

	key := security.RandomKey()
	now := s.now()
	user.ResetKey = &key
	user.ResetDate = &now
	if err := s.save(ctx, user, user.Login, user.Email); err != nil {
		return nil, err
	}

	if err := s.mailer.SendPasswordResetMail(ctx, user); err != nil {
		logging.For("account").Warn("password reset email not sent", "login", user.Login, "error", err)
	}
	return user, nil
}

// CompletePasswordReset sets a new password if the key was issued less than
// 24 hours ago. An expired key is reported as ErrResetKeyExpired, which
// matches ErrUserNotFound.
func (s *UserService) CompletePasswordReset(ctx context.Context, newPassword, key string) (*models.User, error) {
	log := logging.For("account")
	log.Debug("reset user password", "key", key)

	user, err := s.repo.FindByResetKey(ctx, key)
	if err != nil {
		return nil, notFound("reset key", err)
	}
	if user.ResetDate == nil || !user.ResetDate.After(s.now().Add(-ResetKeyValidity)) {
		log.Info("expired reset key used", "login", user.Login)
		return nil, ErrResetKeyExpired
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	user.ResetKey = nil
	user.ResetDate = nil
	if err := s.save(ctx, user, user.Login, user.Email); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the password of the authenticated user.
func (s *UserService) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	user, err := s.currentUser(ctx)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(user.PasswordHash, currentPassword) {
		return ErrWrongPassword
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.save(ctx, user, user.Login, user.Email); err != nil {
		return err
	}
	logging.For("account").Debug("changed password for user", "login", user.Login)
	return nil
}

// UpdateProfile changes the non-credential fields of the authenticated user.
// Email uniqueness is left to the caller and the store.
func (s *UserService) UpdateProfile(ctx context.Context, firstName, lastName, email, langKey, imageURL string) (*models.User, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	oldEmail := user.Email

	user.FirstName = firstName
	user.LastName = lastName
	user.Email = strings.ToLower(email)
	user.LangKey = langKey
	user.ImageURL = imageURL
	if err := s.save(ctx, user, user.Login, oldEmail, user.Email); err != nil {
		return nil, err
	}
	logging.For("account").Debug("changed information for user", "login", user.Login)
	return user, nil
}

// CurrentUser returns the authenticated user with its authorities.
func (s *UserService) CurrentUser(ctx context.Context) (*models.User, error) {
	return s.currentUser(ctx)
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, notFound("email", err)
	}
	return user, nil
}

func (s *UserService) currentUser(ctx context.Context) (*models.User, error) {
	p := security.PrincipalFrom(ctx)
	if p == nil || p.Login == "" {
		return nil, ErrNotAuthenticated
	}
	user, err := s.repo.FindByLogin(ctx, p.Login)
	if err != nil {
		return nil, notFound("login", err)
	}
	return user, nil
}

// save persists user, then evicts its current login and email plus the
// previous values passed in.
func (s *UserService) save(ctx context.Context, user *models.User, login string, emails ...string) error {
	if err := s.repo.Save(ctx, user); err != nil {
		return mapDuplicate(err)
	}
	s.evict(ctx, []string{login, user.Login}, append(emails, user.Email))
	return nil
}

func (s *UserService) evict(ctx context.Context, logins, emails []string) {
	if err := s.caches.Evict(ctx, logins, emails); err != nil {
		logging.For("account").Error("user cache eviction failed",
			"logins", logins, "emails", emails, "error", err)
	}
}

func notFound(what string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("no user for %s: %w", what, ErrUserNotFound)
	}
	return fmt.Errorf("failed to look up user by %s: %w", what, err)
}

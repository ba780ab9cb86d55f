package security

import (
	"context"
	"errors"
	"strings"

	"github.com/skcgolf/skc-api/internal/cache"
	"github.com/skcgolf/skc-api/internal/logging"
	"github.com/skcgolf/skc-api/internal/models"
	"github.com/skcgolf/skc-api/internal/repository"
	"github.com/skcgolf/skc-api/internal/validation"
)

// UserLookup is the part of the credential store the gate reads.
type UserLookup interface {
	FindByLogin(ctx context.Context, login string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// Gate resolves a login identifier (login or email) to a credential record.
// It never compares passwords.
type Gate struct {
	users UserLookup
	cache *cache.Users
	v     *validation.Validator
}

func NewGate(users UserLookup, caches *cache.Users) *Gate {
	return &Gate{users: users, cache: caches, v: validation.Default()}
}

// Resolve returns ErrUserNotFound or ErrUserNotActivated on failure.
func (g *Gate) Resolve(ctx context.Context, identifier string) (*models.User, error) {
	log := logging.For("security")

	var (
		user *models.User
		err  error
	)
	if g.v.IsEmail(identifier) {
		user, err = g.lookup(ctx, g.cacheStore(true), strings.ToLower(identifier), g.users.FindByEmail)
	} else {
		user, err = g.lookup(ctx, g.cacheStore(false), strings.ToLower(identifier), g.users.FindByLogin)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Debug("authentication lookup miss", "identifier", identifier)
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !user.Activated {
		return nil, ErrUserNotActivated
	}
	return user, nil
}

func (g *Gate) cacheStore(byEmail bool) cache.Store {
	if g.cache == nil {
		return nil
	}
	if byEmail {
		return g.cache.ByEmail
	}
	return g.cache.ByLogin
}

func (g *Gate) lookup(
	ctx context.Context,
	store cache.Store,
	key string,
	find func(context.Context, string) (*models.User, error),
) (*models.User, error) {
	log := logging.For("security")
	if store != nil {
		cached, err := store.Get(ctx, key)
		if err != nil {
			log.Warn("user cache read failed", "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	// taken before the read so an eviction during find cancels the fill
	var gen uint64
	fill := store != nil
	if fill {
		var err error
		if gen, err = store.Generation(ctx, key); err != nil {
			log.Warn("user cache generation read failed", "error", err)
			fill = false
		}
	}

	user, err := find(ctx, key)
	if err != nil {
		return nil, err
	}

	if fill {
		if _, err := store.Fill(ctx, key, gen, user); err != nil {
			log.Warn("user cache write failed", "error", err)
		}
	}
	return user, nil
}

// Package cache holds the by-login and by-email user lookup caches.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/skcgolf/skc-api/internal/models"
)

const (
	UsersByLogin = "usersByLogin"
	UsersByEmail = "usersByEmail"
)

// Store caches user records under a string key. A miss returns (nil, nil).
//
// Readers fill the cache from the database: take Generation before the read,
// then Fill with it. Delete advances the generation, so a fill that raced an
// eviction is dropped instead of caching the pre-eviction record.
type Store interface {
	Get(ctx context.Context, key string) (*models.User, error)
	Generation(ctx context.Context, key string) (uint64, error)
	Fill(ctx context.Context, key string, gen uint64, user *models.User) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// Users pairs the two lookup caches that must be evicted together.
type Users struct {
	ByLogin Store
	ByEmail Store
}

// Evict drops the given logins and emails from both caches. Blank values are skipped.
func (u *Users) Evict(ctx context.Context, logins []string, emails []string) error {
	if u == nil {
		return nil
	}
	return errors.Join(
		u.ByLogin.Delete(ctx, normalize(logins)...),
		u.ByEmail.Delete(ctx, normalize(emails)...),
	)
}

func normalize(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// NewMemoryUsers builds an in-process cache pair.
func NewMemoryUsers(ttl time.Duration, maxEntries int) *Users {
	return &Users{
		ByLogin: NewMemoryStore(ttl, maxEntries),
		ByEmail: NewMemoryStore(ttl, maxEntries),
	}
}

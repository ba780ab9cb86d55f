package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/skcgolf/skc-api/internal/logging"
)

// PurgeStaleUnactivated deletes accounts never activated and created more
// than three days ago. It returns how many were removed.
func (s *UserService) PurgeStaleUnactivated(ctx context.Context) (int, error) {
	log := logging.For("account")

	stale, err := s.repo.FindStaleUnactivated(ctx, s.now().Add(-StaleAccountAge))
	if err != nil {
		return 0, fmt.Errorf("failed to find stale users: %w", err)
	}

	var (
		removed int
		errs    []error
	)
	for i := range stale {
		user := &stale[i]
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		log.Debug("deleting not activated user", "login", user.Login)
		if err := s.repo.Delete(ctx, user); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", user.Login, err))
			continue
		}
		s.evict(ctx, []string{user.Login}, []string{user.Email})
		removed++
	}
	return removed, errors.Join(errs...)
}

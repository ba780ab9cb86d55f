// Package repotest provides in-memory repositories for tests.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/skcgolf/skc-api/internal/models"
	"github.com/skcgolf/skc-api/internal/repository"
)

var (
	_ repository.UserRepository       = (*MemUserRepo)(nil)
	_ repository.AuditEventRepository = (*MemAuditRepo)(nil)
)

// MemUserRepo is an in-memory UserRepository enforcing the unique
// login/email constraints.
type MemUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]models.User
	auths  []models.Authority
}

func NewMemUserRepo() *MemUserRepo {
	return &MemUserRepo{
		users: map[int64]models.User{},
		auths: []models.Authority{{Name: models.RoleAdmin}, {Name: models.RoleUser}},
	}
}

func (r *MemUserRepo) find(match func(models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			c := u
			c.Authorities = append([]models.Authority(nil), u.Authorities...)
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *MemUserRepo) FindByID(_ context.Context, id int64) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id })
}

func (r *MemUserRepo) FindByLogin(_ context.Context, login string) (*models.User, error) {
	login = strings.ToLower(login)
	return r.find(func(u models.User) bool { return u.Login == login })
}

func (r *MemUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	email = strings.ToLower(email)
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r *MemUserRepo) FindByActivationKey(_ context.Context, key string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ActivationKey != nil && *u.ActivationKey == key })
}

func (r *MemUserRepo) FindByResetKey(_ context.Context, key string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ResetKey != nil && *u.ResetKey == key })
}

func (r *MemUserRepo) FindStaleUnactivated(_ context.Context, before time.Time) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, u := range r.users {
		if !u.Activated && u.CreatedAt.Before(before) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *MemUserRepo) List(_ context.Context, page repository.Pageable, exclude string) ([]models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []models.User
	for _, u := range r.users {
		if u.Login != exclude {
			all = append(all, u)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	start := page.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + page.Size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *MemUserRepo) checkUnique(u *models.User) error {
	for id, other := range r.users {
		if id == u.ID {
			continue
		}
		if other.Login == u.Login {
			return repository.ErrDuplicateLogin
		}
		if other.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	return nil
}

func (r *MemUserRepo) Create(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.Login, u.Email = strings.ToLower(u.Login), strings.ToLower(u.Email)
	if err := r.checkUnique(u); err != nil {
		return err
	}
	r.nextID++
	u.ID = r.nextID
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	u.CreatedBy = models.AuditorFrom(ctx)
	u.LastModifiedBy = u.CreatedBy
	r.users[u.ID] = *u
	return nil
}

func (r *MemUserRepo) Save(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.Login, u.Email = strings.ToLower(u.Login), strings.ToLower(u.Email)
	if err := r.checkUnique(u); err != nil {
		return err
	}
	u.LastModifiedBy = models.AuditorFrom(ctx)
	r.users[u.ID] = *u
	return nil
}

func (r *MemUserRepo) Delete(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, u.ID)
	return nil
}

func (r *MemUserRepo) FindAuthorities(_ context.Context, names []string) ([]models.Authority, error) {
	var out []models.Authority
	for _, a := range r.auths {
		for _, n := range names {
			if a.Name == n {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

func (r *MemUserRepo) ListAuthorities(context.Context) ([]models.Authority, error) {
	return r.auths, nil
}

// Put stores u as-is, bypassing normalization and constraints.
func (r *MemUserRepo) Put(u models.User) models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	u.ID = r.nextID
	r.users[u.ID] = u
	return u
}

func (r *MemUserRepo) Get(id int64) (models.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	return u, ok
}

// MemAuditRepo is an in-memory AuditEventRepository.
type MemAuditRepo struct {
	mu     sync.Mutex
	events []models.PersistentAuditEvent
}

func (r *MemAuditRepo) Create(_ context.Context, e *models.PersistentAuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = int64(len(r.events) + 1)
	r.events = append(r.events, *e)
	return nil
}

func (r *MemAuditRepo) Find(_ context.Context, principal string, after time.Time, eventType string) ([]models.PersistentAuditEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.PersistentAuditEvent
	for _, e := range r.events {
		if (principal == "" || e.Principal == principal) && e.EventDate.After(after) && (eventType == "" || e.EventType == eventType) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *MemAuditRepo) FindByDates(_ context.Context, from, to time.Time, _ repository.Pageable) ([]models.PersistentAuditEvent, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.PersistentAuditEvent
	for _, e := range r.events {
		if !e.EventDate.Before(from) && e.EventDate.Before(to) {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func (r *MemAuditRepo) FindByID(_ context.Context, id int64) (*models.PersistentAuditEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.ID == id {
			c := e
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

// Events returns a copy of every stored event in insertion order.
func (r *MemAuditRepo) Events() []models.PersistentAuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.PersistentAuditEvent(nil), r.events...)
}

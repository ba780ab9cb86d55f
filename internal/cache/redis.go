package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/skcgolf/skc-api/internal/models"
)

// record is the cached shape; the password hash is kept because the
// login path reads the credential through the cache.
type record struct {
	ID             int64      `json:"id"`
	Login          string     `json:"login"`
	PasswordHash   string     `json:"password_hash"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Email          string     `json:"email"`
	ImageURL       string     `json:"image_url"`
	Activated      bool       `json:"activated"`
	LangKey        string     `json:"lang_key"`
	ActivationKey  *string    `json:"activation_key,omitempty"`
	ResetKey       *string    `json:"reset_key,omitempty"`
	ResetDate      *time.Time `json:"reset_date,omitempty"`
	Authorities    []string   `json:"authorities"`
	CreatedBy      string     `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	LastModifiedBy string     `json:"last_modified_by"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func toRecord(u *models.User) record {
	return record{
		ID:             u.ID,
		Login:          u.Login,
		PasswordHash:   u.PasswordHash,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Email:          u.Email,
		ImageURL:       u.ImageURL,
		Activated:      u.Activated,
		LangKey:        u.LangKey,
		ActivationKey:  u.ActivationKey,
		ResetKey:       u.ResetKey,
		ResetDate:      u.ResetDate,
		Authorities:    u.AuthorityNames(),
		CreatedBy:      u.CreatedBy,
		CreatedAt:      u.CreatedAt,
		LastModifiedBy: u.LastModifiedBy,
		UpdatedAt:      u.UpdatedAt,
	}
}

func (r record) user() *models.User {
	u := &models.User{
		ID:             r.ID,
		Login:          r.Login,
		PasswordHash:   r.PasswordHash,
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Email:          r.Email,
		ImageURL:       r.ImageURL,
		Activated:      r.Activated,
		LangKey:        r.LangKey,
		ActivationKey:  r.ActivationKey,
		ResetKey:       r.ResetKey,
		ResetDate:      r.ResetDate,
		CreatedBy:      r.CreatedBy,
		CreatedAt:      r.CreatedAt,
		LastModifiedBy: r.LastModifiedBy,
		UpdatedAt:      r.UpdatedAt,
	}
	for _, name := range r.Authorities {
		u.Authorities = append(u.Authorities, models.Authority{Name: name})
	}
	return u
}

// RedisStore shares a cache between instances. Keys are namespaced by the
// cache name.
type RedisStore struct {
	client redis.UniversalClient
	name   string
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, name string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, name: name, ttl: ttl}
}

// Entry and generation keys share a hash tag so the fill script touches a
// single cluster slot.
func (s *RedisStore) key(k string) string {
	return "skc:{" + s.name + ":" + k + "}"
}

func (s *RedisStore) genKey(k string) string {
	return "skc:gen:{" + s.name + ":" + k + "}"
}

// genTTL keeps a bumped generation alive at least as long as a cached entry.
func (s *RedisStore) genTTL() time.Duration {
	if s.ttl < time.Minute {
		return time.Minute
	}
	return s.ttl
}

// fillScript writes KEYS[1] only while the generation in KEYS[2] still equals
// ARGV[1]. A missing generation key reads as 0.
var fillScript = redis.NewScript(`
local gen = redis.call('GET', KEYS[2]) or '0'
if gen ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

func (s *RedisStore) Get(ctx context.Context, key string) (*models.User, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache %s get: %w", s.name, err)
	}
	var r record
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("cache %s decode: %w", s.name, err)
	}
	return r.user(), nil
}

func (s *RedisStore) Generation(ctx context.Context, key string) (uint64, error) {
	raw, err := s.client.Get(ctx, s.genKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache %s generation: %w", s.name, err)
	}
	gen, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cache %s generation: %w", s.name, err)
	}
	return gen, nil
}

func (s *RedisStore) Fill(ctx context.Context, key string, gen uint64, user *models.User) (bool, error) {
	if user == nil {
		return false, nil
	}
	raw, err := json.Marshal(toRecord(user))
	if err != nil {
		return false, fmt.Errorf("cache %s encode: %w", s.name, err)
	}
	keys := []string{s.key(key), s.genKey(key)}
	n, err := fillScript.Run(ctx, s.client, keys, strconv.FormatUint(gen, 10), raw, s.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("cache %s fill: %w", s.name, err)
	}
	return n == 1, nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	// the generation moves before the entry goes, so no fill can land in between
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			pipe.Incr(ctx, s.genKey(k))
			pipe.Expire(ctx, s.genKey(k), s.genTTL())
			pipe.Del(ctx, s.key(k))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache %s delete: %w", s.name, err)
	}
	return nil
}

// NewRedisUsers builds a cache pair sharing one client.
func NewRedisUsers(client redis.UniversalClient, ttl time.Duration) *Users {
	return &Users{
		ByLogin: NewRedisStore(client, UsersByLogin, ttl),
		ByEmail: NewRedisStore(client, UsersByEmail, ttl),
	}
}

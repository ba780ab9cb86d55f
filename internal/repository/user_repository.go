package repository

import (
	"context"
	"strings"
	"time"

	"github.com/skcgolf/skc-api/internal/models"
	"gorm.io/gorm"
)

// UserRepository is the credential store.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByLogin(ctx context.Context, login string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByActivationKey(ctx context.Context, key string) (*models.User, error)
	FindByResetKey(ctx context.Context, key string) (*models.User, error)
	FindStaleUnactivated(ctx context.Context, before time.Time) ([]models.User, error)
	List(ctx context.Context, page Pageable, excludeLogin string) ([]models.User, int64, error)
	Create(ctx context.Context, user *models.User) error
	Save(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, user *models.User) error
	FindAuthorities(ctx context.Context, names []string) ([]models.Authority, error)
	ListAuthorities(ctx context.Context) ([]models.Authority, error)
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) withAuthorities(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Authorities")
}

func (r *GormUserRepository) first(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	if err := r.withAuthorities(ctx).Where(query, arg).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormUserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *GormUserRepository) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	return r.first(ctx, "login = ?", strings.ToLower(login))
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", strings.ToLower(email))
}

func (r *GormUserRepository) FindByActivationKey(ctx context.Context, key string) (*models.User, error) {
	return r.first(ctx, "activation_key = ?", key)
}

func (r *GormUserRepository) FindByResetKey(ctx context.Context, key string) (*models.User, error) {
	return r.first(ctx, "reset_key = ?", key)
}

func (r *GormUserRepository) FindStaleUnactivated(ctx context.Context, before time.Time) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("activated = ? AND created_at < ?", false, before).
		Find(&users).Error
	return users, translate(err)
}

func (r *GormUserRepository) List(ctx context.Context, page Pageable, excludeLogin string) ([]models.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.User{})
	if excludeLogin != "" {
		q = q.Where("login <> ?", excludeLogin)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var users []models.User
	err := q.Preload("Authorities").
		Order(page.OrderClause("id ASC")).
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&users).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return users, total, nil
}

func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

// Save writes every column and replaces the authority set.
func (r *GormUserRepository) Save(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Authorities").Save(user).Error; err != nil {
			return err
		}
		return tx.Model(user).Association("Authorities").Replace(user.Authorities)
	}))
}

func (r *GormUserRepository) Delete(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Association("Authorities").Clear(); err != nil {
			return err
		}
		return tx.Delete(user).Error
	}))
}

func (r *GormUserRepository) FindAuthorities(ctx context.Context, names []string) ([]models.Authority, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var authorities []models.Authority
	err := r.db.WithContext(ctx).Where("name IN ?", names).Find(&authorities).Error
	return authorities, translate(err)
}

func (r *GormUserRepository) ListAuthorities(ctx context.Context) ([]models.Authority, error) {
	var authorities []models.Authority
	err := r.db.WithContext(ctx).Order("name").Find(&authorities).Error
	return authorities, translate(err)
}

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/skcgolf/skc-api/internal/config"
	"github.com/skcgolf/skc-api/internal/logging"
	"github.com/skcgolf/skc-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Connect(cfg *config.Config) error {
	var err error
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	logging.For("database").Info("database connected")
	return nil
}

// MigrateShared runs AutoMigrate for the account, audit and log tables.
func MigrateShared() error {
	return DB.AutoMigrate(
		&models.Authority{},
		&models.User{},
		&models.PersistentAuditEvent{},
		&models.SystemLog{},
	)
}

// MigrateModels runs AutoMigrate for arbitrary models (used by plugins).
func MigrateModels(modelList []interface{}) error {
	if len(modelList) == 0 {
		return nil
	}
	return DB.AutoMigrate(modelList...)
}

func Ping() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Hasher hashes seeded passwords.
type Hasher interface {
	Hash(raw string) (string, error)
}

// Seed ensures the roles exist and, on an empty users table, creates the
// built-in accounts. The admin account is only created when adminPassword is
// set; the other accounts get a random password.
func Seed(ctx context.Context, db *gorm.DB, hasher Hasher, adminPassword, randomPassword string) error {
	ctx = models.WithAuditor(ctx, models.SystemAccount)
	log := logging.For("database")

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		admin := models.Authority{Name: models.RoleAdmin}
		user := models.Authority{Name: models.RoleUser}
		for _, a := range []*models.Authority{&admin, &user} {
			if err := tx.FirstOrCreate(a, models.Authority{Name: a.Name}).Error; err != nil {
				return fmt.Errorf("failed to seed authority %s: %w", a.Name, err)
			}
		}

		var count int64
		if err := tx.Model(&models.User{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		accounts := []struct {
			login       string
			password    string
			authorities []models.Authority
		}{
			{models.SystemAccount, randomPassword, []models.Authority{admin, user}},
			{models.AnonymousAccount, randomPassword, nil},
			{"admin", adminPassword, []models.Authority{admin, user}},
			{"user", randomPassword, []models.Authority{user}},
		}
		for _, a := range accounts {
			if a.password == "" {
				log.Warn("ADMIN_INITIAL_PASSWORD not set, skipping seed account", "login", a.login)
				continue
			}
			hash, err := hasher.Hash(a.password)
			if err != nil {
				return err
			}
			u := &models.User{
				Login:        a.login,
				Email:        a.login + "@localhost",
				PasswordHash: hash,
				FirstName:    a.login,
				Activated:    true,
				LangKey:      models.DefaultLanguage,
				Authorities:  a.authorities,
			}
			if err := tx.Create(u).Error; err != nil {
				return fmt.Errorf("failed to seed user %s: %w", a.login, err)
			}
			log.Info("seeded account", "login", a.login)
		}
		return nil
	})
}

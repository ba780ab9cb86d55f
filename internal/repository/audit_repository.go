package repository

import (
	"context"
	"time"

	"github.com/skcgolf/skc-api/internal/models"
	"gorm.io/gorm"
)

type AuditEventRepository interface {
	Create(ctx context.Context, event *models.PersistentAuditEvent) error
	Find(ctx context.Context, principal string, after time.Time, eventType string) ([]models.PersistentAuditEvent, error)
	FindByDates(ctx context.Context, from, to time.Time, page Pageable) ([]models.PersistentAuditEvent, int64, error)
	FindByID(ctx context.Context, id int64) (*models.PersistentAuditEvent, error)
}

type GormAuditEventRepository struct {
	db *gorm.DB
}

func NewAuditEventRepository(db *gorm.DB) *GormAuditEventRepository {
	return &GormAuditEventRepository{db: db}
}

func (r *GormAuditEventRepository) Create(ctx context.Context, event *models.PersistentAuditEvent) error {
	return translate(r.db.WithContext(ctx).Create(event).Error)
}

// Find returns events after the given instant; empty principal or type match everything.
func (r *GormAuditEventRepository) Find(ctx context.Context, principal string, after time.Time, eventType string) ([]models.PersistentAuditEvent, error) {
	q := r.db.WithContext(ctx).Where("event_date > ?", after)
	if principal != "" {
		q = q.Where("principal = ?", principal)
	}
	if eventType != "" {
		q = q.Where("event_type = ?", eventType)
	}

	var events []models.PersistentAuditEvent
	err := q.Order("event_date ASC").Find(&events).Error
	return events, translate(err)
}

// FindByDates returns events in [from, to).
func (r *GormAuditEventRepository) FindByDates(ctx context.Context, from, to time.Time, page Pageable) ([]models.PersistentAuditEvent, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.PersistentAuditEvent{}).
		Where("event_date >= ? AND event_date < ?", from, to)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var events []models.PersistentAuditEvent
	err := q.Order(page.OrderClause("event_date DESC")).
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&events).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return events, total, nil
}

func (r *GormAuditEventRepository) FindByID(ctx context.Context, id int64) (*models.PersistentAuditEvent, error) {
	var event models.PersistentAuditEvent
	if err := r.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

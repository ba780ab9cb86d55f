package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/skcgolf/skc-api/internal/logging"
	"github.com/skcgolf/skc-api/internal/models"
	"github.com/skcgolf/skc-api/internal/repository"
	"gorm.io/datatypes"
)

const EventDataMaxLength = 255

type AuditService struct {
	repo repository.AuditEventRepository
	now  func() time.Time
}

func NewAuditService(repo repository.AuditEventRepository) *AuditService {
	return &AuditService{repo: repo, now: time.Now}
}

// Add stores an event. Authorization failures and anonymous principals are
// not stored; data values are cut to EventDataMaxLength characters.
func (s *AuditService) Add(ctx context.Context, principal, eventType string, data map[string]string) error {
	if eventType == AuthorizationFailure || principal == models.AnonymousAccount {
		return nil
	}

	raw, err := json.Marshal(truncate(data))
	if err != nil {
		return fmt.Errorf("encode audit data: %w", err)
	}
	event := &models.PersistentAuditEvent{
		Principal: principal,
		EventDate: s.now(),
		EventType: eventType,
		Data:      datatypes.JSON(raw),
	}
	return s.repo.Create(ctx, event)
}

func truncate(data map[string]string) map[string]string {
	out := make(map[string]string, len(data))
	for k, v := range data {
		if r := []rune(v); len(r) > EventDataMaxLength {
			logging.For("audit").Warn("event data exceeds max length, truncating",
				"key", k, "length", len(r), "max", EventDataMaxLength)
			v = string(r[:EventDataMaxLength])
		}
		out[k] = v
	}
	return out
}

func (s *AuditService) Find(ctx context.Context, principal string, after time.Time, eventType string) ([]models.PersistentAuditEvent, error) {
	return s.repo.Find(ctx, principal, after, eventType)
}

// FindByDates pages through events between two calendar days, both inclusive.
func (s *AuditService) FindByDates(ctx context.Context, from, to time.Time, page repository.Pageable) ([]models.PersistentAuditEvent, int64, error) {
	return s.repo.FindByDates(ctx, from, to.AddDate(0, 0, 1), page)
}

// FindAll pages through every event.
func (s *AuditService) FindAll(ctx context.Context, page repository.Pageable) ([]models.PersistentAuditEvent, int64, error) {
	return s.repo.FindByDates(ctx, time.Time{}, s.now().Add(time.Hour), page)
}

func (s *AuditService) FindByID(ctx context.Context, id int64) (*models.PersistentAuditEvent, error) {
	event, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAuditEventNotFound
	}
	return event, err
}

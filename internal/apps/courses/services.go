package courses

import (
	"context"
	"errors"
	"fmt"

	"github.com/skcgolf/skc-api/internal/logging"
	"github.com/skcgolf/skc-api/internal/repository"
	"gorm.io/gorm"
)

var ErrCourseNotFound = errors.New("course not found")

type CourseService struct {
	db *gorm.DB
}

func NewCourseService(db *gorm.DB) *CourseService {
	return &CourseService{db: db}
}

// Create inserts the course together with its address.
func (s *CourseService) Create(ctx context.Context, course *Course) error {
	logging.For("courses").Debug("request to save course", "name", course.Name)
	course.ID = 0
	if course.Address != nil {
		course.Address.ID = 0
	}
	return s.db.WithContext(ctx).Create(course).Error
}

// Update replaces the stored course and its address.
func (s *CourseService) Update(ctx context.Context, course *Course) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Course
		if err := tx.First(&existing, course.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCourseNotFound
			}
			return err
		}

		course.AddressID = existing.AddressID
		course.Address.ID = existing.AddressID
		if err := tx.Save(course.Address).Error; err != nil {
			return fmt.Errorf("failed to save address: %w", err)
		}
		return tx.Omit("Address").Save(course).Error
	})
}

// FindByCriteria returns one page of matching courses with their address.
func (s *CourseService) FindByCriteria(ctx context.Context, cr CourseCriteria, page repository.Pageable) ([]Course, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&Course{}).Scopes(cr.Scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var courses []Course
	err := s.db.WithContext(ctx).Preload("Address").Scopes(cr.Scope).
		Order(page.OrderClause("courses.id ASC")).
		Limit(page.Size).
		Offset(page.Offset()).
		Find(&courses).Error
	return courses, total, err
}

func (s *CourseService) CountByCriteria(ctx context.Context, cr CourseCriteria) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&Course{}).Scopes(cr.Scope).Count(&total).Error
	return total, err
}

func (s *CourseService) FindOne(ctx context.Context, id int64) (*Course, error) {
	var course Course
	err := s.db.WithContext(ctx).Preload("Address").First(&course, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// Delete removes the course and its address. Unknown ids are a no-op.
func (s *CourseService) Delete(ctx context.Context, id int64) error {
	logging.For("courses").Debug("request to delete course", "id", id)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course Course
		if err := tx.First(&course, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := tx.Delete(&course).Error; err != nil {
			return err
		}
		return tx.Delete(&Address{}, course.AddressID).Error
	})
}

package class

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/simp-lee/studiogate/internal/domain"
)

type classService struct {
	repo domain.ClassRepository
}

// NewClassService creates a ClassService backed by repo.
func NewClassService(repo domain.ClassRepository) domain.ClassService {
	return &classService{repo: repo}
}

func (s *classService) CreateClass(ctx context.Context, p domain.ClassParams) (*domain.Class, error) {
	class := &domain.Class{}
	apply(class, p)
	if err := validate(class); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, err
	}
	return class, nil
}

func (s *classService) GetClass(ctx context.Context, id uint) (*domain.Class, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *classService) ListClasses(ctx context.Context, req domain.PageRequest) (*domain.PageResult[domain.Class], error) {
	return s.repo.List(ctx, req)
}

// UpdateClass replaces every writable field. Capacity may not drop below
// the number of confirmed bookings.
func (s *classService) UpdateClass(ctx context.Context, id uint, p domain.ClassParams) (*domain.Class, error) {
	return s.repo.Update(ctx, id, func(class *domain.Class, booked int64) error {
		apply(class, p)
		if err := validate(class); err != nil {
			return err
		}
		if int64(class.Capacity) < booked {
			return domain.NewAppError(domain.CodeConflict,
				fmt.Sprintf("capacity %d is below %d confirmed bookings", class.Capacity, booked), nil)
		}
		return nil
	})
}

// DeleteClass removes the class and its bookings.
func (s *classService) DeleteClass(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

func apply(class *domain.Class, p domain.ClassParams) {
	class.Name = strings.TrimSpace(p.Name)
	class.Description = strings.TrimSpace(p.Description)
	class.Instructor = strings.TrimSpace(p.Instructor)
	class.StartsAt = p.StartsAt.UTC()
	class.DurationMinutes = p.DurationMinutes
	class.Capacity = p.Capacity
}

func validate(c *domain.Class) error {
	if n := utf8.RuneCountInString(c.Name); n < 2 || n > 100 {
		return domain.NewAppError(domain.CodeValidation, "name must be 2-100 characters", nil)
	}
	if utf8.RuneCountInString(c.Description) > 1000 {
		return domain.NewAppError(domain.CodeValidation, "description must be at most 1000 characters", nil)
	}
	if n := utf8.RuneCountInString(c.Instructor); n == 0 || n > 100 {
		return domain.NewAppError(domain.CodeValidation, "instructor must be 1-100 characters", nil)
	}
	if c.StartsAt.IsZero() {
		return domain.NewAppError(domain.CodeValidation, "starts_at is required", nil)
	}
	if c.DurationMinutes < domain.MinClassDuration || c.DurationMinutes > domain.MaxClassDuration {
		return domain.NewAppError(domain.CodeValidation,
			fmt.Sprintf("duration_minutes must be between %d and %d", domain.MinClassDuration, domain.MaxClassDuration), nil)
	}
	if c.Capacity < domain.MinClassCapacity || c.Capacity > domain.MaxClassCapacity {
		return domain.NewAppError(domain.CodeValidation,
			fmt.Sprintf("capacity must be between %d and %d", domain.MinClassCapacity, domain.MaxClassCapacity), nil)
	}
	return nil
}

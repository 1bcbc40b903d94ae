package domain

import (
	"context"
	"time"
)

// Class limits.
const (
	MinClassCapacity = 1
	MaxClassCapacity = 500
	MinClassDuration = 5
	MaxClassDuration = 480
)

// Class is a scheduled studio session that members can book.
type Class struct {
	BaseModel
	Name            string    `gorm:"size:100;not null" json:"name"`
	Description     string    `gorm:"size:1000" json:"description"`
	Instructor      string    `gorm:"size:100;not null" json:"instructor"`
	StartsAt        time.Time `gorm:"not null;index" json:"starts_at"`
	DurationMinutes int       `gorm:"not null" json:"duration_minutes"`
	Capacity        int       `gorm:"not null" json:"capacity"`
}

// EndsAt returns the time the class finishes.
func (c *Class) EndsAt() time.Time {
	return c.StartsAt.Add(time.Duration(c.DurationMinutes) * time.Minute)
}

// ClassParams carries the writable fields of a class.
type ClassParams struct {
	Name            string
	Description     string
	Instructor      string
	StartsAt        time.Time
	DurationMinutes int
	Capacity        int
}

// ClassRepository defines the data access interface for classes.
type ClassRepository interface {
	Create(ctx context.Context, class *Class) error
	GetByID(ctx context.Context, id uint) (*Class, error)
	List(ctx context.Context, req PageRequest) (*PageResult[Class], error)
	// Update locks the class row, hands it to fn with its confirmed booking
	// count and saves the result in the same transaction. An error from fn
	// aborts the update.
	Update(ctx context.Context, id uint, fn func(class *Class, booked int64) error) (*Class, error)
	Delete(ctx context.Context, id uint) error
}

// ClassService defines the business logic interface for classes.
type ClassService interface {
	CreateClass(ctx context.Context, params ClassParams) (*Class, error)
	GetClass(ctx context.Context, id uint) (*Class, error)
	ListClasses(ctx context.Context, req PageRequest) (*PageResult[Class], error)
	UpdateClass(ctx context.Context, id uint, params ClassParams) (*Class, error)
	DeleteClass(ctx context.Context, id uint) error
}

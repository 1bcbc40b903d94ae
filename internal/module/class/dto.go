package class

import (
	"time"

	"github.com/simp-lee/studiogate/internal/domain"
)

// ClassRequest is the body of POST /api/classes and PUT /api/classes/:id.
type ClassRequest struct {
	Name            string    `json:"name" form:"name" binding:"required,min=2,max=100"`
	Description     string    `json:"description" form:"description" binding:"max=1000"`
	Instructor      string    `json:"instructor" form:"instructor" binding:"required,max=100"`
	StartsAt        time.Time `json:"starts_at" form:"starts_at" time_format:"2006-01-02T15:04:05Z07:00" binding:"required"`
	DurationMinutes int       `json:"duration_minutes" form:"duration_minutes" binding:"required,min=5,max=480"`
	Capacity        int       `json:"capacity" form:"capacity" binding:"required,min=1,max=500"`
}

func (r ClassRequest) params() domain.ClassParams {
	return domain.ClassParams{
		Name:            r.Name,
		Description:     r.Description,
		Instructor:      r.Instructor,
		StartsAt:        r.StartsAt,
		DurationMinutes: r.DurationMinutes,
		Capacity:        r.Capacity,
	}
}

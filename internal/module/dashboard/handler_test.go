package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/studiogate/internal/domain"
	"github.com/simp-lee/studiogate/internal/middleware"
)

type recordingRepo struct {
	limit int
	at    time.Time
	err   error
}

func (r *recordingRepo) Stats(_ context.Context, at time.Time) (*domain.DashboardStats, error) {
	r.at = at
	if r.err != nil {
		return nil, r.err
	}
	return &domain.DashboardStats{Users: 7, GeneratedAt: at}, nil
}

func (r *recordingRepo) Upcoming(_ context.Context, at time.Time, limit int) ([]domain.ClassOccupancy, error) {
	r.at, r.limit = at, limit
	return []domain.ClassOccupancy{}, r.err
}

func setupRouter(repo domain.DashboardRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := NewDashboardService(repo).(*dashboardService)
	svc.now = func() time.Time { return now }

	r := gin.New()
	r.Use(middleware.ErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), middleware.ErrorHandlerConfig{}))
	api := r.Group("/api")
	NewModule(NewDashboardHandler(svc)).RegisterRoutes(api, api)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestDashboardHandler_Stats(t *testing.T) {
	repo := &recordingRepo{}
	w := get(setupRouter(repo), "/api/dashboard/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}

	var resp struct {
		Data domain.DashboardStats `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Users != 7 || !resp.Data.GeneratedAt.Equal(now) || !repo.at.Equal(now) {
		t.Errorf("got %+v", resp.Data)
	}
}

func TestDashboardHandler_StatsFailure(t *testing.T) {
	w := get(setupRouter(&recordingRepo{err: domain.ErrInternal}), "/api/dashboard/stats")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", w.Code)
	}
}

func TestDashboardHandler_UpcomingLimit(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 10},
		{"?limit=3", 3},
		{"?limit=0", 10},
		{"?limit=abc", 10},
		{"?limit=500", 50},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			repo := &recordingRepo{}
			w := get(setupRouter(repo), "/api/dashboard/upcoming"+tt.query)
			if w.Code != http.StatusOK {
				t.Fatalf("status %d", w.Code)
			}
			if repo.limit != tt.want {
				t.Errorf("limit = %d, want %d", repo.limit, tt.want)
			}
		})
	}
}

func TestUpcoming_ServiceClamp(t *testing.T) {
	repo := &recordingRepo{}
	svc := NewDashboardService(repo)
	for in, want := range map[int]int{-1: 10, 0: 10, 25: 25, 51: 50} {
		if _, err := svc.Upcoming(context.Background(), in); err != nil {
			t.Fatalf("Upcoming(%d): %v", in, err)
		}
		if repo.limit != want {
			t.Errorf("Upcoming(%d) used limit %d, want %d", in, repo.limit, want)
		}
	}
}

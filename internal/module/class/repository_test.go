package class

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/simp-lee/studiogate/internal/config"
	"github.com/simp-lee/studiogate/internal/domain"
	"github.com/simp-lee/studiogate/internal/module/booking"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(domain.Models()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedClass(t *testing.T, repo domain.ClassRepository, name, instructor string) *domain.Class {
	t.Helper()
	c := &domain.Class{Name: name, Instructor: instructor, StartsAt: startsAt, DurationMinutes: 45, Capacity: 10}
	if err := repo.Create(context.Background(), c); err != nil {
		t.Fatalf("seed class: %v", err)
	}
	return c
}

func TestRepository_UpdateAndDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClassRepository(db)
	ctx := context.Background()
	flow := seedClass(t, repo, "Flow", "Ivy")
	spin := seedClass(t, repo, "Spin", "Sam")

	for _, b := range []domain.Booking{
		{UserID: 1, ClassID: flow.ID, Status: domain.BookingConfirmed},
		{UserID: 2, ClassID: flow.ID, Status: domain.BookingConfirmed},
		{UserID: 3, ClassID: flow.ID, Status: domain.BookingCancelled},
		{UserID: 1, ClassID: spin.ID, Status: domain.BookingConfirmed},
	} {
		if err := db.Create(&b).Error; err != nil {
			t.Fatalf("seed booking: %v", err)
		}
	}

	var seen int64
	updated, err := repo.Update(ctx, flow.ID, func(c *domain.Class, booked int64) error {
		seen = booked
		c.Capacity = 7
		return nil
	})
	if err != nil || seen != 2 || updated.Capacity != 7 {
		t.Fatalf("Update: booked = %d, class = %+v, err = %v; want 2 booked", seen, updated, err)
	}

	stop := errors.New("stop")
	if _, err := repo.Update(ctx, spin.ID, func(c *domain.Class, _ int64) error {
		c.Capacity = 1
		return stop
	}); !errors.Is(err, stop) {
		t.Fatalf("Update abort: err = %v", err)
	}
	if got, _ := repo.GetByID(ctx, spin.ID); got.Capacity == 1 {
		t.Fatal("aborted update was saved")
	}
	if _, err := repo.Update(ctx, 99, func(*domain.Class, int64) error { return nil }); !domain.IsNotFound(err) {
		t.Fatalf("Update missing class: err = %v", err)
	}

	if err := repo.Delete(ctx, flow.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, flow.ID); !domain.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}

	var remaining int64
	db.Model(&domain.Booking{}).Count(&remaining)
	if remaining != 1 {
		t.Errorf("bookings left = %d, want 1 (spin only)", remaining)
	}

	if err := repo.Delete(ctx, flow.ID); !domain.IsNotFound(err) {
		t.Errorf("second delete: expected not found, got %v", err)
	}
}

func TestRepository_List(t *testing.T) {
	repo := NewClassRepository(setupTestDB(t))
	seedClass(t, repo, "Morning Yoga", "Ivy")
	seedClass(t, repo, "Evening Yoga", "Sam")
	seedClass(t, repo, "Spin", "Ivy")

	tests := []struct {
		name      string
		req       domain.PageRequest
		wantTotal int64
		wantFirst string
	}{
		{"by instructor", domain.PageRequest{Sort: "name:asc", Filter: map[string]string{"instructor": "Ivy"}}, 2, "Morning Yoga"},
		{"name like", domain.PageRequest{Sort: "name:asc", Filter: map[string]string{"name__like": "yoga"}}, 2, "Evening Yoga"},
		{"all newest first", domain.PageRequest{Sort: "id:desc"}, 3, "Spin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Page, tt.req.PageSize = 1, 10
			result, err := repo.List(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if result.Total != tt.wantTotal || result.Items[0].Name != tt.wantFirst {
				t.Errorf("total=%d first=%q; want %d/%q", result.Total, result.Items[0].Name, tt.wantTotal, tt.wantFirst)
			}
		})
	}
}

func TestUpdateClass_ConcurrentWithReservations(t *testing.T) {
	db, err := config.SetupDatabase(&config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "studio.db")},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("SetupDatabase: %v", err)
	}
	t.Cleanup(func() { _ = config.CloseDatabase(db) })
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	const members = 12
	at := startsAt.Add(-24 * time.Hour)
	classes := NewClassRepository(db)
	flow := seedClass(t, classes, "Flow", "Ivy")
	var users []uint
	for i := 0; i < members; i++ {
		u := domain.User{Name: "Member", Email: fmt.Sprintf("member%d@example.com", i)}
		if err := db.Create(&u).Error; err != nil {
			t.Fatalf("seed user: %v", err)
		}
		sub := domain.Subscription{UserID: u.ID, Plan: domain.PlanBasic, Status: domain.SubscriptionActive,
			StartsAt: at.Add(-time.Hour), EndsAt: startsAt.Add(time.Hour)}
		if err := db.Create(&sub).Error; err != nil {
			t.Fatalf("seed subscription: %v", err)
		}
		users = append(users, u.ID)
	}

	svc := NewClassService(classes)
	bookings := booking.NewBookingRepository(db)
	shrink := validParams()
	shrink.Capacity = 4

	var wg sync.WaitGroup
	var mu sync.Mutex
	var failures []error
	record := func(err error) {
		if err != nil && domain.HTTPStatusCode(err) >= http.StatusInternalServerError {
			mu.Lock()
			failures = append(failures, err)
			mu.Unlock()
		}
	}
	start := make(chan struct{})
	for _, uid := range users {
		wg.Add(1)
		go func(uid uint) {
			defer wg.Done()
			<-start
			_, err := bookings.Reserve(context.Background(), uid, flow.ID, at)
			record(err)
		}(uid)
	}
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.UpdateClass(context.Background(), flow.ID, shrink)
			record(err)
		}()
	}
	close(start)
	wg.Wait()

	for _, err := range failures {
		t.Errorf("server error: %v", err)
	}

	final, err := classes.GetByID(context.Background(), flow.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	var confirmed int64
	db.Model(&domain.Booking{}).Where("class_id = ? AND status = ?", flow.ID, domain.BookingConfirmed).Count(&confirmed)
	if confirmed > int64(final.Capacity) {
		t.Fatalf("confirmed bookings %d exceed capacity %d", confirmed, final.Capacity)
	}
}

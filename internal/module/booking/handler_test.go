package booking

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/studiogate/internal/domain"
	"github.com/simp-lee/studiogate/internal/middleware"
	"github.com/simp-lee/studiogate/internal/pkg"
)

const testSecret = "booking-handler-test-secret-0123456789"

func setupRouter(t *testing.T, s *studio, withAuth bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := NewBookingService(NewBookingRepository(s.db)).(*bookingService)
	svc.now = func() time.Time { return now }

	r := gin.New()
	r.Use(middleware.ErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), middleware.ErrorHandlerConfig{}))
	api := r.Group("/api")
	protected := api
	if withAuth {
		protected = api.Group("", middleware.JWTAuth(newTokens(t)))
	}
	policy, err := pkg.NewAccessPolicy()
	if err != nil {
		t.Fatalf("NewAccessPolicy: %v", err)
	}
	t.Cleanup(func() { _ = policy.Close() })
	NewModule(NewBookingHandler(svc, policy)).RegisterRoutes(api, protected)
	return r
}

func newTokens(t *testing.T) *pkg.TokenService {
	t.Helper()
	tokens, err := pkg.NewTokenService(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	t.Cleanup(tokens.Close)
	return tokens
}

func send(r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func issue(t *testing.T, userID uint, role string) string {
	t.Helper()
	token, _, err := newTokens(t).Issue(userID, role)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return token
}

func TestBookingHandler_BookAndCancel(t *testing.T) {
	s := seedStudio(t, 1, 2)
	r := setupRouter(t, s, false)

	body := fmt.Sprintf(`{"user_id":%d,"class_id":%d}`, s.users[0], s.classID)
	if w := send(r, http.MethodPost, "/api/bookings", body, ""); w.Code != http.StatusCreated {
		t.Fatalf("book: status %d: %s", w.Code, w.Body.String())
	}
	if w := send(r, http.MethodPost, "/api/bookings", body, ""); w.Code != http.StatusConflict {
		t.Fatalf("double book: status %d", w.Code)
	}

	other := fmt.Sprintf(`{"user_id":%d,"class_id":%d}`, s.users[1], s.classID)
	w := send(r, http.MethodPost, "/api/bookings", other, "")
	if w.Code != http.StatusConflict || !strings.Contains(w.Body.String(), "class is full") {
		t.Fatalf("full: status %d: %s", w.Code, w.Body.String())
	}

	w = send(r, http.MethodPost, "/api/bookings/1/cancel", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"cancelled_at"`) {
		t.Fatalf("cancel: status %d: %s", w.Code, w.Body.String())
	}
	if w := send(r, http.MethodPost, "/api/bookings/1/cancel", "", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("cancel twice: status %d", w.Code)
	}

	if w := send(r, http.MethodPost, "/api/bookings", other, ""); w.Code != http.StatusCreated {
		t.Fatalf("freed seat: status %d: %s", w.Code, w.Body.String())
	}
	if w := send(r, http.MethodGet, "/api/bookings?status=confirmed", "", ""); !strings.Contains(w.Body.String(), `"total":1`) {
		t.Fatalf("list: %s", w.Body.String())
	}
}

func TestBookingHandler_Errors(t *testing.T) {
	s := seedStudio(t, 5, 1)
	r := setupRouter(t, s, false)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing class", `{"user_id":1}`, http.StatusBadRequest},
		{"missing user without auth", `{"class_id":1}`, http.StatusBadRequest},
		{"unknown class", `{"user_id":1,"class_id":9}`, http.StatusNotFound},
		{"unknown user", `{"user_id":9,"class_id":1}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := send(r, http.MethodPost, "/api/bookings", tt.body, ""); w.Code != tt.want {
				t.Fatalf("status %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestBookingHandler_Authenticated(t *testing.T) {
	s := seedStudio(t, 5, 2)
	r := setupRouter(t, s, true)
	classBody := fmt.Sprintf(`{"class_id":%d}`, s.classID)

	if w := send(r, http.MethodPost, "/api/bookings", classBody, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: status %d, want 401", w.Code)
	}

	member := issue(t, s.users[0], domain.RoleMember)
	w := send(r, http.MethodPost, "/api/bookings", classBody, member)
	if w.Code != http.StatusCreated || !strings.Contains(w.Body.String(), fmt.Sprintf(`"user_id":%d`, s.users[0])) {
		t.Fatalf("self booking: status %d: %s", w.Code, w.Body.String())
	}

	forOther := fmt.Sprintf(`{"user_id":%d,"class_id":%d}`, s.users[1], s.classID)
	if w := send(r, http.MethodPost, "/api/bookings", forOther, member); w.Code != http.StatusForbidden {
		t.Fatalf("member booking for other: status %d, want 403", w.Code)
	}

	admin := issue(t, 99, domain.RoleAdmin)
	if w := send(r, http.MethodPost, "/api/bookings", forOther, admin); w.Code != http.StatusCreated {
		t.Fatalf("admin booking for other: status %d: %s", w.Code, w.Body.String())
	}
}

func TestBookingHandler_CancelOwnership(t *testing.T) {
	s := seedStudio(t, 5, 2)
	r := setupRouter(t, s, true)

	admin := issue(t, 99, domain.RoleAdmin)
	for _, uid := range s.users {
		body := fmt.Sprintf(`{"user_id":%d,"class_id":%d}`, uid, s.classID)
		if w := send(r, http.MethodPost, "/api/bookings", body, admin); w.Code != http.StatusCreated {
			t.Fatalf("seed booking: status %d: %s", w.Code, w.Body.String())
		}
	}

	member := issue(t, s.users[0], domain.RoleMember)
	instructor := issue(t, 98, domain.RoleInstructor)

	if w := send(r, http.MethodPost, "/api/bookings/2/cancel", "", member); w.Code != http.StatusForbidden {
		t.Fatalf("member cancelling other's booking: status %d, want 403", w.Code)
	}
	if w := send(r, http.MethodPost, "/api/bookings/2/cancel", "", instructor); w.Code != http.StatusForbidden {
		t.Fatalf("instructor cancelling other's booking: status %d, want 403", w.Code)
	}
	if w := send(r, http.MethodPost, "/api/bookings/9/cancel", "", member); w.Code != http.StatusNotFound {
		t.Fatalf("unknown booking: status %d, want 404", w.Code)
	}
	if w := send(r, http.MethodPost, "/api/bookings/1/cancel", "", member); w.Code != http.StatusOK {
		t.Fatalf("member cancelling own booking: status %d: %s", w.Code, w.Body.String())
	}
	if w := send(r, http.MethodPost, "/api/bookings/2/cancel", "", admin); w.Code != http.StatusOK {
		t.Fatalf("admin cancelling other's booking: status %d: %s", w.Code, w.Body.String())
	}
}

func TestBookingHandler_InstructorBooksForOthers(t *testing.T) {
	s := seedStudio(t, 5, 1)
	r := setupRouter(t, s, true)

	body := fmt.Sprintf(`{"user_id":%d,"class_id":%d}`, s.users[0], s.classID)
	if w := send(r, http.MethodPost, "/api/bookings", body, issue(t, 98, domain.RoleInstructor)); w.Code != http.StatusCreated {
		t.Fatalf("instructor booking for member: status %d: %s", w.Code, w.Body.String())
	}
}

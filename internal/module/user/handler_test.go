package user

import (
	"context"
	"encoding/json"
	"errors"
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

// setupAPIRouter wires the handler behind the error middleware so 5xx
// responses are rendered the way the server renders them.
func setupAPIRouter(h *UserHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), middleware.ErrorHandlerConfig{}))

	api := r.Group("/api")
	NewModule(h).RegisterRoutes(api, api)
	return r
}

func newTestHandler() (*UserHandler, *mockUserRepo) {
	repo := newMockRepo()
	return NewUserHandler(NewUserService(repo), nil), repo
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUserHandler_Create(t *testing.T) {
	h, _ := newTestHandler()
	r := setupAPIRouter(h)

	w := doJSON(r, http.MethodPost, "/api/users", `{"name":"Alice","email":"alice@example.com","role":"instructor"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Code int         `json:"code"`
		Data domain.User `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Code != http.StatusCreated {
		t.Errorf("expected response code 201, got %d", resp.Code)
	}
	if resp.Data.ID == 0 || resp.Data.Role != domain.RoleInstructor {
		t.Errorf("unexpected user %+v", resp.Data)
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Error("password hash must not be serialized")
	}
}

func TestUserHandler_Create_ValidationError(t *testing.T) {
	h, _ := newTestHandler()
	r := setupAPIRouter(h)

	w := doJSON(r, http.MethodPost, "/api/users", `{"name":"","email":"","role":"owner"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}

	var resp pkg.ValidationErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Message != "validation error" {
		t.Errorf("expected message 'validation error', got %q", resp.Message)
	}
	for _, field := range []string{"name", "email", "role"} {
		if _, ok := resp.Errors[field]; !ok {
			t.Errorf("expected %q field in errors map, got %v", field, resp.Errors)
		}
	}
}

func TestUserHandler_Create_Conflict(t *testing.T) {
	h, repo := newTestHandler()
	repo.createErr = errEmailTaken
	r := setupAPIRouter(h)

	w := doJSON(r, http.MethodPost, "/api/users", `{"name":"Alice","email":"alice@example.com"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "email already registered") {
		t.Errorf("unexpected body %s", w.Body.String())
	}
}

func TestUserHandler_Create_InternalError(t *testing.T) {
	h, repo := newTestHandler()
	repo.createErr = errors.New("disk on fire")
	r := setupAPIRouter(h)

	w := doJSON(r, http.MethodPost, "/api/users", `{"name":"Alice","email":"alice@example.com"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "disk on fire") {
		t.Error("internal error details leaked to client")
	}
}

func TestUserHandler_Get(t *testing.T) {
	h, repo := newTestHandler()
	repo.users[1] = &domain.User{BaseModel: domain.BaseModel{ID: 1}, Name: "Alice", Email: "alice@example.com"}
	r := setupAPIRouter(h)

	tests := []struct {
		path string
		want int
	}{
		{"/api/users/1", http.StatusOK},
		{"/api/users/2", http.StatusNotFound},
		{"/api/users/abc", http.StatusBadRequest},
		{"/api/users/0", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := doJSON(r, http.MethodGet, tt.path, "")
			if w.Code != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestUserHandler_List(t *testing.T) {
	h, repo := newTestHandler()
	repo.users[1] = &domain.User{BaseModel: domain.BaseModel{ID: 1}, Name: "Alice", Email: "alice@example.com"}
	r := setupAPIRouter(h)

	w := doJSON(r, http.MethodGet, "/api/users?page=2&page_size=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp struct {
		Data domain.PageResult[domain.User] `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Data.Page != 2 || resp.Data.PageSize != 5 {
		t.Errorf("page = %d/%d, want 2/5", resp.Data.Page, resp.Data.PageSize)
	}
	if resp.Data.Total != 1 {
		t.Errorf("total = %d, want 1", resp.Data.Total)
	}
}

func TestUserHandler_Update(t *testing.T) {
	h, repo := newTestHandler()
	repo.users[1] = &domain.User{BaseModel: domain.BaseModel{ID: 1}, Name: "Alice", Email: "alice@example.com", Role: domain.RoleMember}
	r := setupAPIRouter(h)

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"ok", "/api/users/1", `{"name":"Alice Smith","email":"alice@example.com","role":"admin"}`, http.StatusOK},
		{"invalid id", "/api/users/x", `{"name":"Alice","email":"alice@example.com"}`, http.StatusBadRequest},
		{"validation", "/api/users/1", `{"name":"A","email":"bad"}`, http.StatusBadRequest},
		{"not found", "/api/users/9", `{"name":"Alice","email":"alice@example.com"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPut, tt.path, tt.body)
			if w.Code != tt.want {
				t.Fatalf("expected status %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
	if repo.users[1].Role != domain.RoleAdmin {
		t.Errorf("role = %q, want admin", repo.users[1].Role)
	}
}

func TestUserHandler_Delete(t *testing.T) {
	h, repo := newTestHandler()
	repo.users[1] = &domain.User{BaseModel: domain.BaseModel{ID: 1}, Name: "Alice", Email: "alice@example.com"}
	r := setupAPIRouter(h)

	if w := doJSON(r, http.MethodDelete, "/api/users/1", ""); w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodDelete, "/api/users/1", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodDelete, "/api/users/-1", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

const testSecret = "user-handler-test-secret-0123456789abc"

// authedFixture serves the user routes behind JWTAuth and the studio access
// policy, seeded with one account per role.
type authedFixture struct {
	router                  *gin.Engine
	repo                    *mockUserRepo
	tokens                  *pkg.TokenService
	admin, member, neighbor *domain.User
}

func setupAuthedRouter(t *testing.T) *authedFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := pkg.NewTokenService(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	t.Cleanup(tokens.Close)
	policy, err := pkg.NewAccessPolicy()
	if err != nil {
		t.Fatalf("NewAccessPolicy: %v", err)
	}
	t.Cleanup(func() { _ = policy.Close() })

	f := &authedFixture{repo: newMockRepo(), tokens: tokens}
	seed := func(name, role string) *domain.User {
		u := &domain.User{Name: name, Email: strings.ToLower(name) + "@example.com", Role: role}
		if err := f.repo.Create(context.Background(), u); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
		return u
	}
	f.admin = seed("Admin", domain.RoleAdmin)
	f.member = seed("Mia", domain.RoleMember)
	f.neighbor = seed("Ned", domain.RoleMember)

	r := gin.New()
	r.Use(middleware.ErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), middleware.ErrorHandlerConfig{}))
	api := r.Group("/api")
	NewModule(NewUserHandler(NewUserService(f.repo), policy)).RegisterRoutes(api, api.Group("", middleware.JWTAuth(tokens)))
	f.router = r
	return f
}

func (f *authedFixture) do(t *testing.T, as *domain.User, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	token, _, err := f.tokens.Issue(as.ID, as.Role)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestUserHandler_MemberCannotEscalate(t *testing.T) {
	f := setupAuthedRouter(t)
	self := fmt.Sprintf("/api/users/%d", f.member.ID)

	w := f.do(t, f.member, http.MethodPut, self, `{"name":"Mia","email":"mia@example.com","role":"admin"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("self promotion: status %d, want 403: %s", w.Code, w.Body.String())
	}
	if u, _ := f.repo.GetByID(context.Background(), f.member.ID); u.Role != domain.RoleMember {
		t.Fatalf("role changed to %q", u.Role)
	}

	// Restating the current role is not a change.
	w = f.do(t, f.member, http.MethodPut, self, `{"name":"Mia B","email":"mia@example.com","role":"member"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("self update: status %d: %s", w.Code, w.Body.String())
	}

	w = f.do(t, f.member, http.MethodPost, "/api/users", `{"name":"Eve","email":"eve@example.com","role":"admin"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("create admin: status %d, want 403", w.Code)
	}
	w = f.do(t, f.member, http.MethodPost, "/api/users", `{"name":"Eve","email":"eve@example.com"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create member: status %d: %s", w.Code, w.Body.String())
	}
}

func TestUserHandler_MemberCannotTouchOthers(t *testing.T) {
	f := setupAuthedRouter(t)
	other := fmt.Sprintf("/api/users/%d", f.neighbor.ID)

	if w := f.do(t, f.member, http.MethodPut, other, `{"name":"Ned","email":"hacked@example.com"}`); w.Code != http.StatusForbidden {
		t.Fatalf("update other: status %d, want 403", w.Code)
	}
	if w := f.do(t, f.member, http.MethodDelete, other, ""); w.Code != http.StatusForbidden {
		t.Fatalf("delete other: status %d, want 403", w.Code)
	}
	if w := f.do(t, f.member, http.MethodDelete, fmt.Sprintf("/api/users/%d", f.member.ID), ""); w.Code != http.StatusForbidden {
		t.Fatalf("delete self: status %d, want 403", w.Code)
	}
	if _, err := f.repo.GetByID(context.Background(), f.neighbor.ID); err != nil {
		t.Fatalf("neighbor gone: %v", err)
	}
}

func TestUserHandler_AdminManagesUsers(t *testing.T) {
	f := setupAuthedRouter(t)
	other := fmt.Sprintf("/api/users/%d", f.neighbor.ID)

	w := f.do(t, f.admin, http.MethodPut, other, `{"name":"Ned","email":"ned@example.com","role":"instructor"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("promote: status %d: %s", w.Code, w.Body.String())
	}
	if u, _ := f.repo.GetByID(context.Background(), f.neighbor.ID); u.Role != domain.RoleInstructor {
		t.Fatalf("role = %q, want instructor", u.Role)
	}

	if w := f.do(t, f.admin, http.MethodPut, "/api/users/999", `{"name":"Ghost","email":"ghost@example.com","role":"admin"}`); w.Code != http.StatusNotFound {
		t.Fatalf("promote missing user: status %d, want 404", w.Code)
	}

	if w := f.do(t, f.admin, http.MethodDelete, other, ""); w.Code != http.StatusOK {
		t.Fatalf("delete: status %d: %s", w.Code, w.Body.String())
	}
	if _, err := f.repo.GetByID(context.Background(), f.neighbor.ID); !domain.IsNotFound(err) {
		t.Fatalf("neighbor still present: %v", err)
	}
}

package auth

import (
	"context"
	"net/mail"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/simp-lee/studiogate/internal/domain"
)

// Service defines the authentication operations.
type Service interface {
	Login(ctx context.Context, email, password string) (*TokenResponse, error)
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	Me(ctx context.Context, userID uint) (*domain.User, error)
	Logout(ctx context.Context, token string) error
}

// TokenIssuer signs and revokes access tokens.
type TokenIssuer interface {
	Issue(userID uint, role string) (string, time.Time, error)
	Revoke(token string) error
}

type authService struct {
	tokens   TokenIssuer
	userRepo domain.UserRepository
	cost     int
}

// NewService creates an auth Service.
func NewService(tokens TokenIssuer, userRepo domain.UserRepository) Service {
	return &authService{tokens: tokens, userRepo: userRepo, cost: bcrypt.DefaultCost}
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// burnCompare spends the same bcrypt work as a real check so that unknown
// emails are not distinguishable by latency.
func burnCompare(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// Login returns a token for valid credentials. Unknown emails and wrong
// passwords both yield ErrUnauthorized.
func (s *authService) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if domain.IsNotFound(err) {
			burnCompare(password)
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}

	if user.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrUnauthorized
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{Token: token, ExpiresAt: expiresAt.Unix()}, nil
}

// Register creates a member account with a bcrypt password hash.
func (s *authService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if err := validateRegisterInput(name, email, password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "failed to hash password", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		Role:         domain.RoleMember,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Me loads the account behind an authenticated token. A token whose user was
// deleted is treated as unauthorized.
func (s *authService) Me(ctx context.Context, userID uint) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if domain.IsNotFound(err) {
		return nil, domain.NewAppError(domain.CodeUnauthorized, "account no longer exists", nil)
	}
	return user, err
}

// Logout revokes token so it is refused for the rest of its lifetime.
func (s *authService) Logout(_ context.Context, token string) error {
	if token == "" {
		return domain.ErrUnauthorized
	}
	return s.tokens.Revoke(token)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateRegisterInput(name, email, password string) error {
	switch n := utf8.RuneCountInString(name); {
	case n < 2:
		return domain.NewAppError(domain.CodeValidation, "name must be at least 2 characters", nil)
	case n > 100:
		return domain.NewAppError(domain.CodeValidation, "name must be at most 100 characters", nil)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return domain.NewAppError(domain.CodeValidation, "email must be a valid email address", nil)
	}
	// bcrypt ignores bytes past 72.
	if len(password) < 8 || len(password) > 72 {
		return domain.NewAppError(domain.CodeValidation, "password must be 8-72 bytes", nil)
	}
	return nil
}

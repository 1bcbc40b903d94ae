package user

import (
	"context"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/simp-lee/studiogate/internal/domain"
)

type userService struct {
	repo domain.UserRepository
}

// NewUserService creates a UserService backed by repo.
func NewUserService(repo domain.UserRepository) domain.UserService {
	return &userService{repo: repo}
}

// CreateUser validates and stores a new user. An empty role means member.
func (s *userService) CreateUser(ctx context.Context, name, email, role string) (*domain.User, error) {
	name, email = normalize(name, email)
	if role == "" {
		role = domain.RoleMember
	}
	if err := validateUser(name, email, role); err != nil {
		return nil, err
	}

	user := &domain.User{Name: name, Email: email, Role: role}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, id uint) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *userService) ListUsers(ctx context.Context, req domain.PageRequest) (*domain.PageResult[domain.User], error) {
	return s.repo.List(ctx, req)
}

// UpdateUser replaces name and email. An empty role keeps the current role.
func (s *userService) UpdateUser(ctx context.Context, id uint, name, email, role string) (*domain.User, error) {
	name, email = normalize(name, email)

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role == "" {
		role = user.Role
	}
	if err := validateUser(name, email, role); err != nil {
		return nil, err
	}

	user.Name = name
	user.Email = email
	user.Role = role
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes the user together with their subscriptions and bookings.
func (s *userService) DeleteUser(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

func normalize(name, email string) (string, string) {
	return strings.TrimSpace(name), strings.ToLower(strings.TrimSpace(email))
}

func validateUser(name, email, role string) error {
	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		return domain.NewAppError(domain.CodeValidation, "name is required", nil)
	case n < 2:
		return domain.NewAppError(domain.CodeValidation, "name must be at least 2 characters", nil)
	case n > 100:
		return domain.NewAppError(domain.CodeValidation, "name must be at most 100 characters", nil)
	}

	if email == "" {
		return domain.NewAppError(domain.CodeValidation, "email is required", nil)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return domain.NewAppError(domain.CodeValidation, "email must be a valid email address", nil)
	}

	if !domain.ValidRole(role) {
		return domain.NewAppError(domain.CodeValidation, "role must be one of member, instructor, admin", nil)
	}
	return nil
}

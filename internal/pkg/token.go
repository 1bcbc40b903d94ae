package pkg

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/simp-lee/jwt"

	"github.com/simp-lee/studiogate/internal/domain"
)

// TokenIssuer is the iss claim of every access token.
const TokenIssuer = "studio-gateway"

var errInvalidToken = domain.NewAppError(domain.CodeUnauthorized, "invalid or expired token", nil)

// TokenClaims are the verified claims of an access token. Subject holds the
// user id.
type TokenClaims struct {
	Subject   string
	Role      string
	Issuer    string
	TokenID   string
	ExpiresAt time.Time
}

// UserID returns the numeric user id held in the subject claim.
func (c *TokenClaims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalidToken
	}
	return uint(id), nil
}

// TokenService issues, verifies and revokes HS256 access tokens. Call Close
// to stop its revocation cleanup goroutine.
type TokenService struct {
	jwt jwt.Service
	ttl time.Duration
}

// NewTokenService returns a TokenService signing with secret. Tokens expire
// after ttl. Extra options are applied after the defaults.
func NewTokenService(secret string, ttl time.Duration, opts ...jwt.Option) (*TokenService, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	base := []jwt.Option{
		jwt.WithIssuer(TokenIssuer),
		jwt.WithMaxTokenLifetime(ttl),
		jwt.WithUserRevocationTTL(max(ttl, jwt.DefaultUserRevocationTTL)),
	}
	svc, err := jwt.New(secret, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}
	return &TokenService{jwt: svc, ttl: ttl}, nil
}

// Issue signs a token for the given user.
func (s *TokenService) Issue(userID uint, role string) (string, time.Time, error) {
	token, err := s.jwt.GenerateToken(strconv.FormatUint(uint64(userID), 10), []string{role}, s.ttl)
	if err != nil {
		return "", time.Time{}, domain.NewAppError(domain.CodeInternal, "sign token", err)
	}
	parsed, err := s.jwt.ParseToken(token)
	if err != nil {
		return "", time.Time{}, domain.NewAppError(domain.CodeInternal, "parse issued token", err)
	}
	return token, parsed.ExpiresAt, nil
}

// Parse verifies signature, algorithm, issuer, expiry and revocation of raw
// and returns its claims. Every failure is reported as a CodeUnauthorized
// AppError.
func (s *TokenService) Parse(raw string) (*TokenClaims, error) {
	token, err := s.jwt.ValidateToken(raw)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrExpiredToken):
			return nil, domain.NewAppError(domain.CodeUnauthorized, "token expired", err)
		case errors.Is(err, jwt.ErrRevokedToken):
			return nil, domain.NewAppError(domain.CodeUnauthorized, "token revoked", err)
		}
		return nil, domain.NewAppError(domain.CodeUnauthorized, "invalid or expired token", err)
	}

	claims := &TokenClaims{
		Subject:   token.UserID,
		Issuer:    token.Issuer,
		TokenID:   token.TokenID,
		ExpiresAt: token.ExpiresAt,
	}
	if len(token.Roles) > 0 {
		claims.Role = token.Roles[0]
	}
	return claims, nil
}

// Revoke invalidates raw until it would have expired anyway.
func (s *TokenService) Revoke(raw string) error {
	if err := s.jwt.RevokeToken(raw); err != nil {
		return domain.NewAppError(domain.CodeUnauthorized, "invalid or expired token", err)
	}
	return nil
}

// Close stops background cleanup. Parse fails on a closed service.
func (s *TokenService) Close() {
	s.jwt.Close()
}

package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/samirrijal/cragtopo/internal/core/domain"
	"github.com/samirrijal/cragtopo/internal/core/ports"
)

// rolePermissions is the whole RBAC model: a flat role lookup.
var rolePermissions = map[domain.Role][]domain.Permission{
	domain.RoleAdmin: {
		domain.PermCragWrite, domain.PermRouteWrite, domain.PermTopoWrite,
		domain.PermRouteAdmin, domain.PermUserManage,
	},
	domain.RoleEditor: {domain.PermCragWrite, domain.PermRouteWrite, domain.PermTopoWrite},
	domain.RoleUser:   {},
}

// AuthService resolves API tokens to users and checks permissions.
type AuthService struct {
	users ports.UserRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(users ports.UserRepository) *AuthService {
	return &AuthService{users: users}
}

// HashToken is how tokens are stored: hex SHA-256.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// Authenticate returns the user owning token.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}
	u, err := s.users.GetByTokenHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("lookup token: %w", err)
	}
	return u, nil
}

// Authorize reports whether user may perform perm.
func (s *AuthService) Authorize(user *domain.User, perm domain.Permission) error {
	if user == nil {
		return domain.ErrUnauthorized
	}
	for _, p := range rolePermissions[user.Role] {
		if p == perm {
			return nil
		}
	}
	return fmt.Errorf("%w: role %q lacks %s", domain.ErrForbidden, user.Role, perm)
}

package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/cragtopo/internal/core/domain"
	"github.com/samirrijal/cragtopo/internal/core/usecases"
)

func TestAuthService(t *testing.T) {
	users := &mockUserRepo{}
	editor := &domain.User{ID: "u1", Role: domain.RoleEditor}
	_ = users.Create(context.Background(), editor, usecases.HashToken("secret"))
	svc := usecases.NewAuthService(users)

	u, err := svc.Authenticate(context.Background(), "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != "u1" {
		t.Errorf("expected u1, got %s", u.ID)
	}

	if _, err := svc.Authenticate(context.Background(), "wrong"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), ""); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for empty token, got %v", err)
	}

	if err := svc.Authorize(u, domain.PermTopoWrite); err != nil {
		t.Errorf("editor should write topo lines: %v", err)
	}
	if err := svc.Authorize(u, domain.PermRouteAdmin); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("editor must not delete routes, got %v", err)
	}
	if err := svc.Authorize(nil, domain.PermTopoWrite); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for nil user, got %v", err)
	}
}

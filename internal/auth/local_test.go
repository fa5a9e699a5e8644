package auth

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/time/rate"

	"github.com/YnTheNerd/cleanspot/internal/storage"
)

func setupProvider(t *testing.T) *LocalProvider {
	t.Helper()
	store, err := storage.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewLocalProvider(store)
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var coded *CodedError
	if !errors.As(err, &coded) {
		t.Fatalf("expected CodedError, got %v", err)
	}
	return coded.Code
}

func TestLocalProvider_RegisterAndLogin(t *testing.T) {
	p := setupProvider(t)
	ctx := context.Background()

	id, err := p.Register(ctx, "Marie@Example.cm", "secret123", "Marie")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if id.Email != "marie@example.cm" {
		t.Errorf("expected normalized email, got %q", id.Email)
	}
	if id.UID == "" {
		t.Error("expected assigned UID")
	}

	logged, err := p.Login(ctx, "marie@example.cm", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if logged.UID != id.UID {
		t.Errorf("expected stable UID across sessions, got %q vs %q", logged.UID, id.UID)
	}
	if logged.DisplayName != "Marie" {
		t.Errorf("expected display name round-trip, got %q", logged.DisplayName)
	}
}

func TestLocalProvider_RegisterRejections(t *testing.T) {
	p := setupProvider(t)
	ctx := context.Background()

	if _, err := p.Register(ctx, "not-an-email", "secret123", ""); codeOf(t, err) != CodeInvalidEmail {
		t.Errorf("expected invalid email code, got %v", err)
	}
	if _, err := p.Register(ctx, "a@b.cm", "short", ""); codeOf(t, err) != CodeWeakPassword {
		t.Errorf("expected weak password code, got %v", err)
	}

	if _, err := p.Register(ctx, "a@b.cm", "secret123", ""); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := p.Register(ctx, "A@b.cm", "secret123", ""); codeOf(t, err) != CodeEmailInUse {
		t.Errorf("expected email-in-use code, got %v", err)
	}
}

func TestLocalProvider_LoginFailures(t *testing.T) {
	p := setupProvider(t)
	ctx := context.Background()

	if _, err := p.Login(ctx, "ghost@b.cm", "whatever"); codeOf(t, err) != CodeUserNotFound {
		t.Errorf("expected user-not-found code, got %v", err)
	}

	if _, err := p.Register(ctx, "a@b.cm", "secret123", ""); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := p.Login(ctx, "a@b.cm", "wrongpass"); codeOf(t, err) != CodeWrongPassword {
		t.Errorf("expected wrong-password code, got %v", err)
	}
}

func TestLocalProvider_LoginRateLimited(t *testing.T) {
	p := setupProvider(t)
	p.attempts = rate.Limit(1e-9)
	p.burst = 1
	ctx := context.Background()

	p.Login(ctx, "a@b.cm", "x")
	_, err := p.Login(ctx, "a@b.cm", "x")
	if codeOf(t, err) != CodeTooManyRequests {
		t.Errorf("expected too-many-requests code, got %v", err)
	}
}

func TestLocalProvider_LogoutClearsIdentity(t *testing.T) {
	p := setupProvider(t)
	ctx := context.Background()

	if _, err := p.Register(ctx, "a@b.cm", "secret123", ""); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	current, _ := p.CurrentIdentity(ctx)
	if current == nil {
		t.Fatal("expected identity after registration")
	}

	if err := p.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	current, _ = p.CurrentIdentity(ctx)
	if current != nil {
		t.Errorf("expected nil identity after logout, got %+v", current)
	}
}

func TestLocalProvider_ResetPassword(t *testing.T) {
	p := setupProvider(t)
	ctx := context.Background()

	if err := p.ResetPassword(ctx, "ghost@b.cm"); codeOf(t, err) != CodeUserNotFound {
		t.Errorf("expected user-not-found code, got %v", err)
	}

	if _, err := p.Register(ctx, "a@b.cm", "secret123", ""); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := p.ResetPassword(ctx, "a@b.cm"); err != nil {
		t.Errorf("ResetPassword failed: %v", err)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newUserAuthTestService(t *testing.T) (*UserAuthService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:user_auth_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	cfg := &config.Config{}
	cfg.UserJWT.SecretKey = "user-auth-test-secret-0123456789abcdef"
	cfg.UserJWT.ExpireHours = 1

	return NewUserAuthService(cfg, repository.NewUserRepository(db), nil), db
}

func TestUserRegisterAndLogin(t *testing.T) {
	svc, _ := newUserAuthTestService(t)

	user, token, expiresAt, err := svc.Register("Shopper@Example.com", "s3cret-pass", " Alice ")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Email != "shopper@example.com" {
		t.Fatalf("email should be normalized, got %s", user.Email)
	}
	if user.DisplayName != "Alice" {
		t.Fatalf("display name should be trimmed, got %q", user.DisplayName)
	}
	if token == "" || !expiresAt.After(time.Now()) {
		t.Fatalf("expected a future-dated token, got token=%q expires=%v", token, expiresAt)
	}

	claims, err := svc.ParseUserJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != user.Email {
		t.Fatalf("claims mismatch: %+v", claims)
	}

	if _, _, _, err := svc.Login(context.Background(), "shopper@example.com", "s3cret-pass", ""); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, _, _, err := svc.Login(context.Background(), "shopper@example.com", "wrong", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got: %v", err)
	}
}

func TestUserRegisterRejectsDuplicatesAndWeakInput(t *testing.T) {
	svc, _ := newUserAuthTestService(t)

	if _, _, _, err := svc.Register("taken@example.com", "s3cret-pass", ""); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, _, _, err := svc.Register("taken@example.com", "another-pass", ""); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got: %v", err)
	}
	if _, _, _, err := svc.Register("not-an-email", "s3cret-pass", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad email, got: %v", err)
	}
	if _, _, _, err := svc.Register("short@example.com", "abc", ""); !errors.Is(err, ErrPasswordTooWeak) {
		t.Fatalf("expected ErrPasswordTooWeak, got: %v", err)
	}
}

func TestUserLoginRejectsDisabledAccount(t *testing.T) {
	svc, db := newUserAuthTestService(t)

	user, _, _, err := svc.Register("banned@example.com", "s3cret-pass", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("status", "disabled").Error; err != nil {
		t.Fatalf("disable user failed: %v", err)
	}

	if _, _, _, err := svc.Login(context.Background(), "banned@example.com", "s3cret-pass", ""); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("expected ErrUserDisabled, got: %v", err)
	}
}

func TestUserChangePasswordInvalidatesOldTokens(t *testing.T) {
	svc, _ := newUserAuthTestService(t)

	user, _, _, err := svc.Register("rotate@example.com", "old-password", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	oldVersion := user.TokenVersion

	if err := svc.ChangePassword(user.ID, "wrong", "new-password"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got: %v", err)
	}
	if err := svc.ChangePassword(user.ID, "old-password", "abc"); !errors.Is(err, ErrPasswordTooWeak) {
		t.Fatalf("expected ErrPasswordTooWeak, got: %v", err)
	}
	if err := svc.ChangePassword(user.ID, "old-password", "new-password"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}

	updated, err := svc.GetUserByID(user.ID)
	if err != nil {
		t.Fatalf("get user failed: %v", err)
	}
	if updated.TokenVersion != oldVersion+1 {
		t.Fatalf("token version should bump, got %d want %d", updated.TokenVersion, oldVersion+1)
	}
	if updated.TokenInvalidBefore == nil {
		t.Fatalf("token invalid-before watermark should be set")
	}

	if _, _, _, err := svc.Login(context.Background(), "rotate@example.com", "old-password", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password should stop working, got: %v", err)
	}
	if _, _, _, err := svc.Login(context.Background(), "rotate@example.com", "new-password", ""); err != nil {
		t.Fatalf("new password login failed: %v", err)
	}
}

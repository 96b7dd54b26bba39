package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"iot-device-manager/internal/config"
	domainUser "iot-device-manager/internal/domain/user"
	"iot-device-manager/internal/infrastructure/database/memory"
	appErrors "iot-device-manager/pkg/errors"
)

const testSecret = "test-secret"

func newTestService() (*Service, *memory.UserRepository) {
	repo := memory.NewUserRepository()
	return NewService(repo, config.JWTConfig{Secret: testSecret, ExpiresIn: time.Hour}), repo
}

func TestRegisterIssuesVerifiableToken(t *testing.T) {
	svc, _ := newTestService()
	email := "  Alice@Example.COM "

	resp, err := svc.Register(context.Background(), &RegisterRequest{
		Username: "  alice ",
		Password: "secret1",
		Email:    &email,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if resp.User.Username != "alice" {
		t.Errorf("username = %q, want trimmed", resp.User.Username)
	}
	if resp.User.Email == nil || *resp.User.Email != "alice@example.com" {
		t.Errorf("email = %v, want lower-cased", resp.User.Email)
	}
	if resp.User.Role != domainUser.RoleUser {
		t.Errorf("role = %q, want user", resp.User.Role)
	}

	claims, err := svc.VerifyToken(resp.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != resp.User.ID || claims.Username != "alice" || claims.Role != "user" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestRegisterStoresOnlyHash(t *testing.T) {
	svc, repo := newTestService()

	if _, err := svc.Register(context.Background(), &RegisterRequest{Username: "bob", Password: "hunter22"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	creds, err := repo.GetCredentials(context.Background(), "bob")
	if err != nil {
		t.Fatalf("credentials: %v", err)
	}
	if creds.PasswordHashed == "" || creds.PasswordHashed == "hunter22" {
		t.Errorf("stored password is not a hash: %q", creds.PasswordHashed)
	}

	public, _ := repo.GetByUsername(context.Background(), "bob")
	if public.PasswordHashed != "" {
		t.Error("default read exposed the password hash")
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, &RegisterRequest{Username: "carol", Password: "secret1"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := svc.Register(ctx, &RegisterRequest{Username: "carol", Password: "another1"})
	if !errors.Is(err, domainUser.ErrUserAlreadyExists) {
		t.Fatalf("expected ErrUserAlreadyExists, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	email := "ops@example.com"
	shouted := " OPS@example.com"

	if _, err := svc.Register(ctx, &RegisterRequest{Username: "erin", Password: "secret1", Email: &email}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := svc.Register(ctx, &RegisterRequest{Username: "frank", Password: "secret1", Email: &shouted})
	if !errors.Is(err, domainUser.ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService()

	tests := []struct {
		name string
		req  *RegisterRequest
	}{
		{"short username", &RegisterRequest{Username: "ab", Password: "secret1"}},
		{"blank username after trim", &RegisterRequest{Username: "     ", Password: "secret1"}},
		{"short password", &RegisterRequest{Username: "dave", Password: "123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.req)
			var appErr *appErrors.AppError
			if !errors.As(err, &appErr) || appErr.Code != appErrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, &RegisterRequest{Username: "erin", Password: "correct1"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, wrongPassword := svc.Login(ctx, &LoginRequest{Username: "erin", Password: "wrong"})
	_, unknownUser := svc.Login(ctx, &LoginRequest{Username: "nobody", Password: "correct1"})

	if !errors.Is(wrongPassword, appErrors.ErrInvalidCredentials) || !errors.Is(unknownUser, appErrors.ErrInvalidCredentials) {
		t.Fatalf("errors = %v / %v", wrongPassword, unknownUser)
	}
	if wrongPassword.Error() != unknownUser.Error() {
		t.Errorf("messages differ: %q vs %q", wrongPassword, unknownUser)
	}

	resp, err := svc.Login(ctx, &LoginRequest{Username: "erin", Password: "correct1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Token == "" {
		t.Error("empty token")
	}
}

func TestProfileAndListUsers(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	reg, err := svc.Register(ctx, &RegisterRequest{Username: "frank", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.CreateUser(ctx, "root", "secret1", nil, domainUser.RoleAdmin); err != nil {
		t.Fatalf("create admin: %v", err)
	}

	profile, err := svc.Profile(ctx, reg.User.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.Username != "frank" {
		t.Errorf("profile = %+v", profile)
	}

	users, err := svc.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("listed %d users, want 2", len(users))
	}

	if _, err := svc.CreateUser(ctx, "ghost", "secret1", nil, "superuser"); !errors.Is(err, domainUser.ErrInvalidUserRole) {
		t.Errorf("expected ErrInvalidUserRole, got %v", err)
	}
}

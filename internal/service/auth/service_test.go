// Package auth 提供认证服务单元测试
package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/ashwinyue/next-chat/internal/model"
	"github.com/ashwinyue/next-chat/internal/service/types"
)

// ========== Mock Repository ==========

type fakeAuthRepo struct {
	byID    map[string]*model.User
	byEmail map[string]*model.User
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{
		byID:    make(map[string]*model.User),
		byEmail: make(map[string]*model.User),
	}
}

func (r *fakeAuthRepo) CreateUser(user *model.User) error {
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user
	return nil
}

func (r *fakeAuthRepo) GetUserByID(id string) (*model.User, error) {
	user, ok := r.byID[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return user, nil
}

func (r *fakeAuthRepo) GetUserByEmail(email string) (*model.User, error) {
	user, ok := r.byEmail[email]
	if !ok {
		return nil, types.ErrNotFound
	}
	return user, nil
}

// ========== Signup 测试 ==========

func TestSignup(t *testing.T) {
	svc := NewService(newFakeAuthRepo())

	info, err := svc.Signup(context.Background(), &SignupRequest{Email: "a@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	if info.ID == "" {
		t.Error("user ID should be assigned")
	}
	if info.Email != "a@example.com" {
		t.Errorf("email = %q, want %q", info.Email, "a@example.com")
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	svc := NewService(newFakeAuthRepo())

	ctx := context.Background()
	if _, err := svc.Signup(ctx, &SignupRequest{Email: "a@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("first Signup() error = %v", err)
	}
	if _, err := svc.Signup(ctx, &SignupRequest{Email: "a@example.com", Password: "other12"}); !errors.Is(err, types.ErrValidation) {
		t.Errorf("duplicate Signup() error = %v, want ErrValidation", err)
	}
}

func TestSignup_PasswordNotStoredInPlaintext(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := NewService(repo)

	if _, err := svc.Signup(context.Background(), &SignupRequest{Email: "a@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	user := repo.byEmail["a@example.com"]
	if user.PasswordHash == "secret1" || user.PasswordHash == "" {
		t.Error("password must be stored as a hash")
	}
}

// ========== Login 测试 ==========

func TestLogin(t *testing.T) {
	svc := NewService(newFakeAuthRepo())
	ctx := context.Background()

	if _, err := svc.Signup(ctx, &SignupRequest{Email: "a@example.com", Password: "secret1"}); err != nil {
		t.Fatal(err)
	}

	resp, err := svc.Login(ctx, &LoginRequest{Email: "a@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if resp.Token == "" {
		t.Error("login should issue a token")
	}
	if resp.User.Email != "a@example.com" {
		t.Errorf("user email = %q, want %q", resp.User.Email, "a@example.com")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := NewService(newFakeAuthRepo())
	ctx := context.Background()

	if _, err := svc.Signup(ctx, &SignupRequest{Email: "a@example.com", Password: "secret1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Login(ctx, &LoginRequest{Email: "a@example.com", Password: "wrong"}); !errors.Is(err, types.ErrUnauthorized) {
		t.Errorf("wrong password error = %v, want ErrUnauthorized", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := NewService(newFakeAuthRepo())

	if _, err := svc.Login(context.Background(), &LoginRequest{Email: "x@example.com", Password: "secret1"}); !errors.Is(err, types.ErrUnauthorized) {
		t.Errorf("unknown email error = %v, want ErrUnauthorized", err)
	}
}

// ========== ValidateToken 测试 ==========

func TestValidateToken_RoundTrip(t *testing.T) {
	svc := NewService(newFakeAuthRepo())
	ctx := context.Background()

	info, err := svc.Signup(ctx, &SignupRequest{Email: "a@example.com", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := svc.Login(ctx, &LoginRequest{Email: "a@example.com", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}

	identity, err := svc.ValidateToken(ctx, resp.Token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if identity.UserID != info.ID {
		t.Errorf("identity.UserID = %q, want %q", identity.UserID, info.ID)
	}
	if identity.Email != "a@example.com" {
		t.Errorf("identity.Email = %q, want %q", identity.Email, "a@example.com")
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := NewService(newFakeAuthRepo())

	if _, err := svc.ValidateToken(context.Background(), "not-a-token"); !errors.Is(err, types.ErrUnauthorized) {
		t.Errorf("garbage token error = %v, want ErrUnauthorized", err)
	}
}

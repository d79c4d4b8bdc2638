package services

import (
	"context"
	"testing"
	"time"

	"github.com/gamehub/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{name: "missing name", in: RegisterInput{Email: "a@x.com", Password: "secret1"}},
		{name: "blank name", in: RegisterInput{Name: "   ", Email: "a@x.com", Password: "secret1"}},
		{name: "missing email", in: RegisterInput{Name: "A", Password: "secret1"}},
		{name: "missing password", in: RegisterInput{Name: "A", Email: "a@x.com"}},
		{name: "short password", in: RegisterInput{Name: "A", Email: "a@x.com", Password: "12345"}},
		{name: "bad email", in: RegisterInput{Name: "A", Email: "not-an-email", Password: "secret1"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.auth.Register(ctx, tc.in)
			assertKind(t, err, KindValidation)
		})
	}
}

func TestRegisterDuplicateEmailIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.register(t, "A", "a@x.com", "secret1")
	if user.Email != "a@x.com" {
		t.Fatalf("unexpected email %q", user.Email)
	}
	if cost, err := bcrypt.Cost([]byte(user.PasswordHash)); err != nil || cost != bcrypt.DefaultCost {
		t.Fatalf("expected bcrypt cost %d, got %d (%v)", bcrypt.DefaultCost, cost, err)
	}

	_, err := f.auth.Register(ctx, RegisterInput{Name: "B", Email: "  A@X.COM ", Password: "secret2"})
	assertKind(t, err, KindConflict)
	if MessageOf(err) != "Email already in use" {
		t.Fatalf("unexpected message %q", MessageOf(err))
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "A", "a@x.com", "secret1")

	_, _, wrongPassword := f.auth.Login(ctx, "a@x.com", "wrong-password")
	_, _, unknownEmail := f.auth.Login(ctx, "nobody@x.com", "secret1")

	assertKind(t, wrongPassword, KindAuth)
	assertKind(t, unknownEmail, KindAuth)
	if MessageOf(wrongPassword) != MessageOf(unknownEmail) {
		t.Fatalf("expected identical messages, got %q and %q", MessageOf(wrongPassword), MessageOf(unknownEmail))
	}

	_, _, err := f.auth.Login(ctx, "", "secret1")
	assertKind(t, err, KindValidation)
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "A", "a@x.com", "secret1")

	token, summary, err := f.auth.Login(ctx, "A@x.com", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if summary.ID != user.ID || summary.Name != "A" {
		t.Fatalf("unexpected summary %+v", summary)
	}

	claims, err := f.tokens.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != "a@x.com" || claims.ID == "" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time); ttl != 24*time.Hour {
		t.Fatalf("expected 24h validity, got %s", ttl)
	}
}

func TestAuthenticateAndLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "A", "a@x.com", "secret1")
	token, _, err := f.auth.Login(ctx, "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	got, claims, err := f.auth.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, got.ID)
	}

	if err := f.auth.Logout(ctx, claims); err != nil {
		t.Fatalf("logout: %v", err)
	}
	_, _, err = f.auth.Authenticate(ctx, token)
	assertKind(t, err, KindAuth)

	_, err = f.auth.Me(ctx, token)
	assertKind(t, err, KindAuth)
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "A", "a@x.com", "secret1")

	other, err := NewTokenIssuer("another-secret", time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	forged, _, err := other.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	expiredIssuer, _ := NewTokenIssuer(testSecret, time.Hour)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := expiredIssuer.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	for name, token := range map[string]string{
		"empty":     "",
		"malformed": "not-a-jwt",
		"forged":    forged,
		"expired":   expired,
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := f.auth.Authenticate(ctx, token)
			assertKind(t, err, KindAuth)
		})
	}
}

func TestMeReportsMissingUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token, _, err := f.tokens.Issue(types.User{ID: "deleted-user", Email: "gone@x.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = f.auth.Me(ctx, token)
	assertKind(t, err, KindNotFound)

	_, err = f.auth.Me(ctx, "")
	assertKind(t, err, KindAuth)

	_, _, err = f.auth.Authenticate(ctx, token)
	assertKind(t, err, KindAuth)
}

func TestAuthenticateGoogleUpsertsByEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	existing := f.register(t, "A", "a@x.com", "secret1")

	_, user, err := f.auth.AuthenticateGoogle(ctx, GoogleProfile{Email: "A@X.com", Name: "Google A"})
	if err != nil {
		t.Fatalf("google existing: %v", err)
	}
	if user.ID != existing.ID || user.Name != "A" {
		t.Fatalf("expected existing user to be reused, got %+v", user)
	}

	token, created, err := f.auth.AuthenticateGoogle(ctx, GoogleProfile{Email: "new@x.com"})
	if err != nil {
		t.Fatalf("google new: %v", err)
	}
	if created.Name != "User" {
		t.Fatalf("expected default name, got %q", created.Name)
	}
	if created.PasswordHash == "" {
		t.Fatalf("expected placeholder password hash")
	}
	if _, err := f.tokens.Parse(token); err != nil {
		t.Fatalf("expected usable token: %v", err)
	}

	_, _, err = f.auth.AuthenticateGoogle(ctx, GoogleProfile{Name: "No Email"})
	assertKind(t, err, KindAuth)
}

func TestNewTokenIssuerRequiresSecret(t *testing.T) {
	if _, err := NewTokenIssuer("  ", time.Hour); err != ErrEmptySecret {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
}

package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/gamehub/apiserver/internal/store"
	"github.com/gamehub/apiserver/types"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength  = 6
	defaultDisplayName = "User"
	placeholderBytes   = 16
)

var emailPattern = regexp.MustCompile(`.+@.+\..+`)

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// GoogleProfile is the identity asserted by the Google provider.
type GoogleProfile struct {
	Subject string
	Email   string
	Name    string
}

// AuthService registers users, verifies credentials and manages session
// tokens.
type AuthService struct {
	repo     UserRepository
	tokens   *TokenIssuer
	denylist Denylist
	log      *zap.Logger
}

func NewAuthService(repo UserRepository, tokens *TokenIssuer, denylist Denylist, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{repo: repo, tokens: tokens, denylist: denylist, log: log}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (types.UserSummary, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return types.UserSummary{}, validationError("All fields are required")
	}
	if len(in.Password) < minPasswordLength {
		return types.UserSummary{}, validationError("Password must be at least 6 characters")
	}
	if !emailPattern.MatchString(email) {
		return types.UserSummary{}, validationError("Please fill a valid email address")
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return types.UserSummary{}, conflictError("Email already in use")
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.UserSummary{}, internalError("Server error during registration", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return types.UserSummary{}, internalError("Server error during registration", err)
	}

	user, err := s.repo.Create(ctx, types.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.UserSummary{}, conflictError("Email already in use")
		}
		return types.UserSummary{}, internalError("Server error during registration", err)
	}

	s.log.Info("user registered", zap.String("user_id", user.ID))
	return user.Summary(), nil
}

// Login verifies credentials. Unknown email and wrong password fail with
// the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, types.UserSummary, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", types.UserSummary{}, validationError("Email and password are required")
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", types.UserSummary{}, authError("Invalid credentials", nil)
		}
		return "", types.UserSummary{}, internalError("Server error during login", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", types.UserSummary{}, authError("Invalid credentials", nil)
	}

	token, _, err := s.tokens.Issue(user)
	if err != nil {
		return "", types.UserSummary{}, internalError("Server error during login", err)
	}
	return token, user.Summary(), nil
}

// AuthenticateGoogle upserts a user by the profile email and issues a
// session token for it.
func (s *AuthService) AuthenticateGoogle(ctx context.Context, profile GoogleProfile) (string, types.User, error) {
	email := normalizeEmail(profile.Email)
	if email == "" {
		return "", types.User{}, authError("Google account has no email", nil)
	}

	user, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		user, err = s.createOAuthUser(ctx, email, profile.Name)
		if err != nil {
			return "", types.User{}, err
		}
	default:
		return "", types.User{}, internalError("Server error during Google sign-in", err)
	}

	token, _, err := s.tokens.Issue(user)
	if err != nil {
		return "", types.User{}, internalError("Server error during Google sign-in", err)
	}
	return token, user, nil
}

func (s *AuthService) createOAuthUser(ctx context.Context, email, name string) (types.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultDisplayName
	}

	secret := make([]byte, placeholderBytes)
	if _, err := rand.Read(secret); err != nil {
		return types.User{}, internalError("Server error during Google sign-in", err)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(secret)), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, internalError("Server error during Google sign-in", err)
	}

	user, err := s.repo.Create(ctx, types.User{Name: name, Email: email, PasswordHash: string(hashed)})
	if errors.Is(err, store.ErrDuplicate) {
		// Lost a race with a concurrent first sign-in.
		user, err = s.repo.GetByEmail(ctx, email)
	}
	if err != nil {
		return types.User{}, internalError("Server error during Google sign-in", err)
	}

	s.log.Info("user registered via google", zap.String("user_id", user.ID))
	return user, nil
}

// Authenticate verifies a bearer token and loads the referenced user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (types.User, Claims, error) {
	if strings.TrimSpace(token) == "" {
		return types.User{}, Claims{}, authError("Not authorized, no token or wrong format", nil)
	}

	claims, err := s.verify(ctx, token)
	if err != nil {
		return types.User{}, Claims{}, err
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, Claims{}, authError("Not authorized, token failed", err)
		}
		return types.User{}, Claims{}, internalError("Server error during authentication", err)
	}
	return user, claims, nil
}

// Me returns the user a token refers to. A valid token for a deleted user
// is reported as not found.
func (s *AuthService) Me(ctx context.Context, token string) (types.User, error) {
	if strings.TrimSpace(token) == "" {
		return types.User{}, authError("No token provided", nil)
	}

	claims, err := s.verify(ctx, token)
	if err != nil {
		return types.User{}, err
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, notFoundError("User not found")
		}
		return types.User{}, internalError("Authentication failed or server error", err)
	}
	return user, nil
}

// Logout revokes the token described by claims until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, claims Claims) error {
	if s.denylist == nil || claims.ID == "" {
		return nil
	}

	until := time.Now().Add(defaultTokenTTL)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	if err := s.denylist.Revoke(ctx, claims.ID, until); err != nil {
		return internalError("Server error during logout", err)
	}

	s.log.Info("session revoked", zap.String("user_id", claims.UserID), zap.String("jti", claims.ID))
	return nil
}

func (s *AuthService) verify(ctx context.Context, token string) (Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return Claims{}, authError("Not authorized, token failed", err)
	}

	if s.denylist != nil && claims.ID != "" {
		revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return Claims{}, internalError("Server error during authentication", err)
		}
		if revoked {
			return Claims{}, authError("Not authorized, token revoked", nil)
		}
	}
	return claims, nil
}

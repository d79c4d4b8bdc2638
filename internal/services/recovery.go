package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/gamehub/apiserver/internal/store"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	resetTokenBytes      = 32
	defaultResetTokenTTL = time.Hour

	ForgotPasswordMessage = "If an account exists for that email, a password reset link has been sent."
	ResetPasswordMessage  = "Your password has been successfully updated!"
)

// RecoveryService runs the password reset flow.
type RecoveryService struct {
	repo        UserRepository
	mailer      Mailer
	frontendURL string
	ttl         time.Duration
	now         func() time.Time
	log         *zap.Logger
}

func NewRecoveryService(repo UserRepository, mailer Mailer, frontendURL string, ttl time.Duration, log *zap.Logger) *RecoveryService {
	if ttl <= 0 {
		ttl = defaultResetTokenTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RecoveryService{
		repo:        repo,
		mailer:      mailer,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		ttl:         ttl,
		now:         time.Now,
		log:         log,
	}
}

// HashResetToken returns the stored form of a raw reset token.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ForgotPassword issues a reset token for an existing account and mails the
// link. The returned message is the same whether or not the account exists.
func (s *RecoveryService) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", validationError("Email is required")
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ForgotPasswordMessage, nil
		}
		return "", internalError("Error processing password reset request.", err)
	}

	raw := make([]byte, resetTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", internalError("Error processing password reset request.", err)
	}
	token := hex.EncodeToString(raw)

	if err := s.repo.SetResetToken(ctx, user.ID, HashResetToken(token), s.now().Add(s.ttl)); err != nil {
		return "", internalError("Error processing password reset request.", err)
	}

	mail := PasswordResetMail{
		To:       user.Email,
		Name:     user.Name,
		ResetURL: s.frontendURL + "/reset-password/" + token,
	}
	if s.mailer == nil {
		s.log.Error("password reset mail not sent: no mailer configured", zap.String("user_id", user.ID))
		return ForgotPasswordMessage, nil
	}
	if err := s.mailer.SendPasswordReset(ctx, mail); err != nil {
		s.log.Error("password reset mail delivery failed",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
	}

	return ForgotPasswordMessage, nil
}

// ResetPassword consumes an unexpired reset token and replaces the
// password in the same update.
func (s *RecoveryService) ResetPassword(ctx context.Context, token, password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", validationError("New password must be at least 6 characters.")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", tokenError("Password reset token is invalid or has expired.")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", internalError("Error processing new password.", err)
	}

	user, err := s.repo.ConsumeResetToken(ctx, HashResetToken(token), s.now(), string(hashed))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", tokenError("Password reset token is invalid or has expired.")
		}
		return "", internalError("Error processing new password.", err)
	}

	s.log.Info("password reset", zap.String("user_id", user.ID))
	return ResetPasswordMessage, nil
}

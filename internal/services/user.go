package services

import (
	"context"
	"time"

	"github.com/gamehub/apiserver/types"
)

// UserRepository defines persistence operations for users.
//
// Every mutating method must be a single atomic operation in the backing
// store and return the user as it is after the update.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (types.User, error)
	RecordOutcome(ctx context.Context, id, gameID string, outcome types.Outcome) (types.User, error)
	AddFavorite(ctx context.Context, id, gameID string) (types.User, error)
	RemoveFavorite(ctx context.Context, id, gameID string) (types.User, error)
}

// Denylist records revoked session token ids until they expire.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// PasswordResetMail is the content of a password reset email.
type PasswordResetMail struct {
	To       string
	Name     string
	ResetURL string
}

// Mailer delivers transactional email.
type Mailer interface {
	SendPasswordReset(ctx context.Context, mail PasswordResetMail) error
}

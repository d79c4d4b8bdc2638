package types

import "time"

// User represents a registered player account.
// It carries identity, aggregate game statistics and favorites.
type User struct {
	// ID is the unique identifier of the user.
	ID string `json:"_id"`

	// Name is the user's display name.
	Name string `json:"name"`

	// Email is the user's email address, stored lower-cased and trimmed.
	Email string `json:"email"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-"`

	// ResetTokenHash is the SHA-256 hex digest of a pending password-reset
	// token. Empty when no reset is pending.
	ResetTokenHash string `json:"-"`

	// ResetTokenExpiresAt is the instant after which the pending reset
	// token is no longer accepted.
	ResetTokenExpiresAt *time.Time `json:"-"`

	// GameStats holds the aggregate win/loss/draw counters.
	GameStats GameStats `json:"gameStats"`

	// FavoriteGames is the set of catalog game ids the user starred.
	FavoriteGames []string `json:"favoriteGames"`

	// HighScores maps a game id to the best score reported for it.
	HighScores map[string]int64 `json:"highScores"`

	// BestMoves maps a game id to the fewest moves reported for a solve.
	BestMoves map[string]int64 `json:"bestMoves"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the timestamp of the most recent mutation.
	UpdatedAt time.Time `json:"updatedAt"`
}

// GameStats are the per-user aggregate counters.
// TotalPlayed always equals Wins + Losses + Draws.
type GameStats struct {
	TotalPlayed int64 `json:"totalPlayed"`
	Wins        int64 `json:"wins"`
	Losses      int64 `json:"losses"`
	Draws       int64 `json:"draws"`
}

// UserSummary is the sanitized view returned by register and login.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Summary returns the sanitized identity of u.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Normalize fills nil collections so the JSON form always carries arrays
// and objects instead of null.
func (u User) Normalize() User {
	if u.FavoriteGames == nil {
		u.FavoriteGames = []string{}
	}
	if u.HighScores == nil {
		u.HighScores = map[string]int64{}
	}
	if u.BestMoves == nil {
		u.BestMoves = map[string]int64{}
	}
	return u
}

// HasFavorite reports whether gameID is in the user's favorites.
func (u User) HasFavorite(gameID string) bool {
	for _, id := range u.FavoriteGames {
		if id == gameID {
			return true
		}
	}
	return false
}

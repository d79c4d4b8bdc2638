package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gamehub/apiserver/types"
	"github.com/google/uuid"
)

// MemoryUserRepository keeps users in process memory. It backs local
// development and tests; every method holds the lock for its whole
// read-modify-write so mutations are atomic per call.
type MemoryUserRepository struct {
	mu      sync.Mutex
	users   map[string]types.User
	byEmail map[string]string
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:   make(map[string]types.User),
		byEmail: make(map[string]string),
	}
}

func cloneUser(u types.User) types.User {
	u = u.Normalize()
	u.FavoriteGames = append([]string{}, u.FavoriteGames...)

	highScores := make(map[string]int64, len(u.HighScores))
	for k, v := range u.HighScores {
		highScores[k] = v
	}
	u.HighScores = highScores

	bestMoves := make(map[string]int64, len(u.BestMoves))
	for k, v := range u.BestMoves {
		bestMoves[k] = v
	}
	u.BestMoves = bestMoves

	if u.ResetTokenExpiresAt != nil {
		t := *u.ResetTokenExpiresAt
		u.ResetTokenExpiresAt = &t
	}
	return u
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return types.User{}, ErrNotFound
	}
	return cloneUser(user), nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return types.User{}, ErrNotFound
	}
	return cloneUser(r.users[id]), nil
}

func (r *MemoryUserRepository) Create(_ context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(user.Email))
	if _, exists := r.byEmail[email]; exists {
		return types.User{}, ErrDuplicate
	}

	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.Email = email
	user.GameStats = types.GameStats{}
	user.FavoriteGames = nil
	user.HighScores = nil
	user.BestMoves = nil
	user.CreatedAt = now
	user.UpdatedAt = now

	r.users[user.ID] = cloneUser(user)
	r.byEmail[email] = user.ID
	return cloneUser(user), nil
}

func (r *MemoryUserRepository) SetResetToken(_ context.Context, id, tokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	user.ResetTokenHash = tokenHash
	user.ResetTokenExpiresAt = &expiresAt
	user.UpdatedAt = time.Now().UTC()
	r.users[id] = user
	return nil
}

func (r *MemoryUserRepository) ConsumeResetToken(_ context.Context, tokenHash string, now time.Time, passwordHash string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, user := range r.users {
		if user.ResetTokenHash == "" || user.ResetTokenHash != tokenHash {
			continue
		}
		if user.ResetTokenExpiresAt == nil || !user.ResetTokenExpiresAt.After(now) {
			return types.User{}, ErrNotFound
		}
		user.PasswordHash = passwordHash
		user.ResetTokenHash = ""
		user.ResetTokenExpiresAt = nil
		user.UpdatedAt = time.Now().UTC()
		r.users[id] = user
		return cloneUser(user), nil
	}
	return types.User{}, ErrNotFound
}

func (r *MemoryUserRepository) mutate(id string, fn func(*types.User) error) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return types.User{}, ErrNotFound
	}
	user = cloneUser(user)
	if err := fn(&user); err != nil {
		return types.User{}, err
	}
	user.UpdatedAt = time.Now().UTC()
	r.users[id] = user
	return cloneUser(user), nil
}

func (r *MemoryUserRepository) RecordOutcome(_ context.Context, id, gameID string, outcome types.Outcome) (types.User, error) {
	return r.mutate(id, func(u *types.User) error {
		switch outcome.Kind {
		case types.OutcomeWin:
			u.GameStats.TotalPlayed++
			u.GameStats.Wins++
		case types.OutcomeLoss:
			u.GameStats.TotalPlayed++
			u.GameStats.Losses++
		case types.OutcomeDraw:
			u.GameStats.TotalPlayed++
			u.GameStats.Draws++
		case types.OutcomeScore:
			if best, ok := u.HighScores[gameID]; !ok || outcome.Value > best {
				u.HighScores[gameID] = outcome.Value
			}
		case types.OutcomeMoves:
			u.GameStats.TotalPlayed++
			u.GameStats.Wins++
			if best, ok := u.BestMoves[gameID]; !ok || outcome.Value < best {
				u.BestMoves[gameID] = outcome.Value
			}
		default:
			return fmt.Errorf("unsupported outcome kind %q", outcome.Kind)
		}
		return nil
	})
}

func (r *MemoryUserRepository) AddFavorite(_ context.Context, id, gameID string) (types.User, error) {
	return r.mutate(id, func(u *types.User) error {
		if !u.HasFavorite(gameID) {
			u.FavoriteGames = append(u.FavoriteGames, gameID)
		}
		return nil
	})
}

func (r *MemoryUserRepository) RemoveFavorite(_ context.Context, id, gameID string) (types.User, error) {
	return r.mutate(id, func(u *types.User) error {
		kept := u.FavoriteGames[:0]
		for _, fav := range u.FavoriteGames {
			if fav != gameID {
				kept = append(kept, fav)
			}
		}
		u.FavoriteGames = kept
		return nil
	})
}

package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/gamehub/apiserver/internal/store"
	"github.com/gamehub/apiserver/types"
	"go.uber.org/zap"
)

var gameIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,63}$`)

const (
	FavoriteAdded          = "Game added to favorites."
	FavoriteAlreadyPresent = "Game already in favorites."
	FavoriteRemoved        = "Game removed from favorites."
	FavoriteNotPresent     = "Game was not in favorites."
	ResultRecorded         = "Game result recorded!"
)

// StatsService mutates per-user statistics and favorites.
type StatsService struct {
	repo UserRepository
	log  *zap.Logger
}

func NewStatsService(repo UserRepository, log *zap.Logger) *StatsService {
	if log == nil {
		log = zap.NewNop()
	}
	return &StatsService{repo: repo, log: log}
}

// ValidGameID reports whether id is usable as a stats or favorites key.
func ValidGameID(id string) bool {
	return gameIDPattern.MatchString(id)
}

func cleanGameID(gameID string) (string, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return "", validationError("Game ID is required.")
	}
	if !ValidGameID(gameID) {
		return "", validationError("Game ID is invalid.")
	}
	return gameID, nil
}

// RecordGameResult applies one game outcome to the user's record in a
// single atomic update and returns the updated user.
func (s *StatsService) RecordGameResult(ctx context.Context, user types.User, gameID, result string, value *int64) (types.User, error) {
	gameID, err := cleanGameID(gameID)
	if err != nil {
		return types.User{}, err
	}
	if strings.TrimSpace(result) == "" {
		return types.User{}, validationError("Game result is required.")
	}

	outcome, err := types.ParseOutcome(result, value)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrMissingValue):
			return types.User{}, validationError("Game result value is required.")
		case errors.Is(err, types.ErrNegativeValue):
			return types.User{}, validationError("Game result value must not be negative.")
		default:
			return types.User{}, validationError("Game result must be one of win, loss, draw, score, moves.")
		}
	}

	updated, err := s.repo.RecordOutcome(ctx, user.ID, gameID, outcome)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, notFoundError("User not found")
		}
		return types.User{}, internalError("Server error while recording stats.", err)
	}

	s.log.Debug("game result recorded",
		zap.String("user_id", user.ID),
		zap.String("game_id", gameID),
		zap.Stringer("outcome", outcome),
	)
	return updated, nil
}

// ToggleFavorite adds or removes gameID from the user's favorites. Both
// directions are idempotent; the message tells whether anything changed.
func (s *StatsService) ToggleFavorite(ctx context.Context, user types.User, gameID string, add bool) (types.User, string, error) {
	gameID, err := cleanGameID(gameID)
	if err != nil {
		return types.User{}, "", err
	}

	present := user.HasFavorite(gameID)

	var updated types.User
	if add {
		updated, err = s.repo.AddFavorite(ctx, user.ID, gameID)
	} else {
		updated, err = s.repo.RemoveFavorite(ctx, user.ID, gameID)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, "", notFoundError("User not found")
		}
		return types.User{}, "", internalError("Server error.", err)
	}

	switch {
	case add && present:
		return updated, FavoriteAlreadyPresent, nil
	case add:
		return updated, FavoriteAdded, nil
	case present:
		return updated, FavoriteRemoved, nil
	default:
		return updated, FavoriteNotPresent, nil
	}
}

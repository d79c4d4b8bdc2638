package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gamehub/apiserver/types"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

const userColumns = `
	id, name, email, password_hash, reset_token_hash, reset_token_expires_at,
	total_played, wins, losses, draws, favorite_games, high_scores, best_moves,
	created_at, updated_at`

// UserRepository handles persistence for users in PostgreSQL.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (types.User, error) {
	var (
		user       types.User
		resetHash  sql.NullString
		resetUntil sql.NullTime
		highScores []byte
		bestMoves  []byte
	)
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&resetHash,
		&resetUntil,
		&user.GameStats.TotalPlayed,
		&user.GameStats.Wins,
		&user.GameStats.Losses,
		&user.GameStats.Draws,
		pq.Array(&user.FavoriteGames),
		&highScores,
		&bestMoves,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}

	user.ResetTokenHash = resetHash.String
	if resetUntil.Valid {
		t := resetUntil.Time
		user.ResetTokenExpiresAt = &t
	}
	if err := json.Unmarshal(highScores, &user.HighScores); err != nil {
		return types.User{}, fmt.Errorf("decode high_scores: %w", err)
	}
	if err := json.Unmarshal(bestMoves, &user.BestMoves); err != nil {
		return types.User{}, fmt.Errorf("decode best_moves: %w", err)
	}
	return user.Normalize(), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return types.User{}, ErrNotFound
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))))
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	query := `
		INSERT INTO users (id, name, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns
	created, err := scanUser(r.db.QueryRowContext(
		ctx,
		query,
		uuid.NewString(),
		user.Name,
		user.Email,
		user.PasswordHash,
	))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return types.User{}, ErrDuplicate
		}
		return types.User{}, err
	}
	return created, nil
}

func (r *UserRepository) SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	const query = `
		UPDATE users
		SET reset_token_hash = $1,
			reset_token_expires_at = $2,
			updated_at = NOW()
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, tokenHash, expiresAt, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumeResetToken swaps the password hash and clears the reset fields in
// one statement, matching only an unexpired token.
func (r *UserRepository) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (types.User, error) {
	query := `
		UPDATE users
		SET password_hash = $1,
			reset_token_hash = NULL,
			reset_token_expires_at = NULL,
			updated_at = NOW()
		WHERE reset_token_hash = $2 AND reset_token_expires_at > $3
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, passwordHash, tokenHash, now))
}

func (r *UserRepository) RecordOutcome(ctx context.Context, id, gameID string, outcome types.Outcome) (types.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return types.User{}, ErrNotFound
	}

	var (
		set  string
		args = []any{id}
	)
	switch outcome.Kind {
	case types.OutcomeWin:
		set = `total_played = total_played + 1, wins = wins + 1`
	case types.OutcomeLoss:
		set = `total_played = total_played + 1, losses = losses + 1`
	case types.OutcomeDraw:
		set = `total_played = total_played + 1, draws = draws + 1`
	case types.OutcomeScore:
		set = `high_scores = jsonb_set(high_scores, ARRAY[$2::text],
			to_jsonb(GREATEST(COALESCE((high_scores->>$2::text)::bigint, $3::bigint), $3::bigint)))`
		args = append(args, gameID, outcome.Value)
	case types.OutcomeMoves:
		set = `total_played = total_played + 1, wins = wins + 1,
			best_moves = jsonb_set(best_moves, ARRAY[$2::text],
			to_jsonb(LEAST(COALESCE((best_moves->>$2::text)::bigint, $3::bigint), $3::bigint)))`
		args = append(args, gameID, outcome.Value)
	default:
		return types.User{}, fmt.Errorf("unsupported outcome kind %q", outcome.Kind)
	}

	query := `UPDATE users SET ` + set + `, updated_at = NOW() WHERE id = $1 RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, args...))
}

func (r *UserRepository) AddFavorite(ctx context.Context, id, gameID string) (types.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return types.User{}, ErrNotFound
	}
	query := `
		UPDATE users
		SET favorite_games = CASE
				WHEN $2::text = ANY(favorite_games) THEN favorite_games
				ELSE array_append(favorite_games, $2::text)
			END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, id, gameID))
}

func (r *UserRepository) RemoveFavorite(ctx context.Context, id, gameID string) (types.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return types.User{}, ErrNotFound
	}
	query := `
		UPDATE users
		SET favorite_games = array_remove(favorite_games, $2::text),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, id, gameID))
}

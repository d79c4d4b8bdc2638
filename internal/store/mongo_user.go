package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gamehub/apiserver/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type gameStatsDocument struct {
	TotalPlayed int64 `bson:"totalPlayed"`
	Wins        int64 `bson:"wins"`
	Losses      int64 `bson:"losses"`
	Draws       int64 `bson:"draws"`
}

type userDocument struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty"`
	Name                string             `bson:"name"`
	Email               string             `bson:"email"`
	PasswordHash        string             `bson:"password"`
	ResetTokenHash      string             `bson:"resetTokenHash,omitempty"`
	ResetTokenExpiresAt *time.Time         `bson:"resetTokenExpiresAt,omitempty"`
	GameStats           gameStatsDocument  `bson:"gameStats"`
	FavoriteGames       []string           `bson:"favoriteGames"`
	HighScores          map[string]int64   `bson:"highScores,omitempty"`
	BestMoves           map[string]int64   `bson:"bestMoves,omitempty"`
	CreatedAt           time.Time          `bson:"createdAt"`
	UpdatedAt           time.Time          `bson:"updatedAt"`
}

func (d userDocument) toUser() types.User {
	return types.User{
		ID:                  d.ID.Hex(),
		Name:                d.Name,
		Email:               d.Email,
		PasswordHash:        d.PasswordHash,
		ResetTokenHash:      d.ResetTokenHash,
		ResetTokenExpiresAt: d.ResetTokenExpiresAt,
		GameStats: types.GameStats{
			TotalPlayed: d.GameStats.TotalPlayed,
			Wins:        d.GameStats.Wins,
			Losses:      d.GameStats.Losses,
			Draws:       d.GameStats.Draws,
		},
		FavoriteGames: d.FavoriteGames,
		HighScores:    d.HighScores,
		BestMoves:     d.BestMoves,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}.Normalize()
}

// MongoUserRepository handles persistence for users in MongoDB.
// Every mutation is a single FindOneAndUpdate returning the new document.
type MongoUserRepository struct {
	users *mongo.Collection
}

func NewMongoUserRepository(database *mongo.Database, collection string) *MongoUserRepository {
	return &MongoUserRepository{users: database.Collection(collection)}
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (types.User, error) {
	var doc userDocument
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return doc.toUser(), nil
}

func (r *MongoUserRepository) update(ctx context.Context, filter bson.M, update bson.M) (types.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	if err := r.users.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return doc.toUser(), nil
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return types.User{}, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (r *MongoUserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now().UTC()
	doc := userDocument{
		ID:            primitive.NewObjectID(),
		Name:          user.Name,
		Email:         user.Email,
		PasswordHash:  user.PasswordHash,
		FavoriteGames: []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return types.User{}, ErrDuplicate
		}
		return types.User{}, err
	}
	return doc.toUser(), nil
}

func (r *MongoUserRepository) SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	result, err := r.users.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{
			"resetTokenHash":      tokenHash,
			"resetTokenExpiresAt": expiresAt.UTC(),
			"updatedAt":           time.Now().UTC(),
		},
	})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoUserRepository) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (types.User, error) {
	filter := bson.M{
		"resetTokenHash":      tokenHash,
		"resetTokenExpiresAt": bson.M{"$gt": now.UTC()},
	}
	return r.update(ctx, filter, bson.M{
		"$set":   bson.M{"password": passwordHash, "updatedAt": time.Now().UTC()},
		"$unset": bson.M{"resetTokenHash": "", "resetTokenExpiresAt": ""},
	})
}

func (r *MongoUserRepository) RecordOutcome(ctx context.Context, id, gameID string, outcome types.Outcome) (types.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return types.User{}, ErrNotFound
	}

	update := bson.M{"$set": bson.M{"updatedAt": time.Now().UTC()}}
	switch outcome.Kind {
	case types.OutcomeWin:
		update["$inc"] = bson.M{"gameStats.totalPlayed": 1, "gameStats.wins": 1}
	case types.OutcomeLoss:
		update["$inc"] = bson.M{"gameStats.totalPlayed": 1, "gameStats.losses": 1}
	case types.OutcomeDraw:
		update["$inc"] = bson.M{"gameStats.totalPlayed": 1, "gameStats.draws": 1}
	case types.OutcomeScore:
		update["$max"] = bson.M{"highScores." + gameID: outcome.Value}
	case types.OutcomeMoves:
		update["$inc"] = bson.M{"gameStats.totalPlayed": 1, "gameStats.wins": 1}
		update["$min"] = bson.M{"bestMoves." + gameID: outcome.Value}
	default:
		return types.User{}, fmt.Errorf("unsupported outcome kind %q", outcome.Kind)
	}

	return r.update(ctx, bson.M{"_id": oid}, update)
}

func (r *MongoUserRepository) AddFavorite(ctx context.Context, id, gameID string) (types.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return types.User{}, ErrNotFound
	}
	return r.update(ctx, bson.M{"_id": oid}, bson.M{
		"$addToSet": bson.M{"favoriteGames": gameID},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (r *MongoUserRepository) RemoveFavorite(ctx context.Context, id, gameID string) (types.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return types.User{}, ErrNotFound
	}
	return r.update(ctx, bson.M{"_id": oid}, bson.M{
		"$pull": bson.M{"favoriteGames": gameID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
}

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/gamehub/apiserver/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UsersCollection = "users"

	mongoConnectTimeout   = 30 * time.Second
	mongoSelectionTimeout = 10 * time.Second
	mongoIndexTimeout     = 10 * time.Second
)

// ConnectMongo dials MongoDB, pings it and ensures the users indexes exist.
func ConnectMongo(ctx context.Context, cfg config.Config) (*mongo.Client, *mongo.Database, error) {
	connectCtx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetServerSelectionTimeout(mongoSelectionTimeout)

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer pingCancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}

	database := client.Database(cfg.Mongo.Database)
	if err := EnsureMongoIndexes(ctx, database); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	return client, database, nil
}

// EnsureMongoIndexes creates the unique email index and the reset token
// lookup index on the users collection.
func EnsureMongoIndexes(ctx context.Context, database *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, mongoIndexTimeout)
	defer cancel()

	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
		{
			Keys: bson.D{{Key: "resetTokenHash", Value: 1}},
			Options: options.Index().
				SetName("reset_token_lookup").
				SetPartialFilterExpression(bson.M{"resetTokenHash": bson.M{"$exists": true}}),
		},
	}

	if _, err := database.Collection(UsersCollection).Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

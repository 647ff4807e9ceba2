// internal/database/database.go
package database

import (
	"context"
	"fmt"
	"time"

	"riff-review/internal/models"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CommentRepository is the backing store for rendered comment lists.
// Lookups of unknown ids fail with a utils.ErrNotFound AppError.
type CommentRepository interface {
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	ListComments(ctx context.Context, containerID string) ([]*models.Comment, error)
	AddComment(ctx context.Context, comment *models.Comment) error
	// UpdateComment saves an edited body. Likes are only changed by SetLike.
	UpdateComment(ctx context.Context, comment *models.Comment) error
	// SetLike records whether userID likes a comment and returns the
	// resulting like count. Repeating the current state changes nothing.
	SetLike(ctx context.Context, commentID, userID string, liked bool) (int, error)
	RemoveComment(ctx context.Context, id string) error
	Close(ctx context.Context) error
}

type MongoDB struct {
	Client   *mongo.Client
	Comments *mongo.Collection
}

func NewMongoDB(uri, database string) (*MongoDB, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Info().Str("database", database).Msg("Successfully connected to MongoDB")

	db := client.Database(database)
	return &MongoDB{
		Client:   client,
		Comments: db.Collection("comments"),
	}, nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

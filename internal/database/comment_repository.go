package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"riff-review/internal/models"
	"riff-review/internal/utils"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CommentDocument represents comment data in MongoDB
type CommentDocument struct {
	ID          string    `bson:"_id"`
	ContainerID string    `bson:"containerId"`
	UserID      string    `bson:"userId"`
	DisplayName string    `bson:"displayName"`
	AvatarURL   string    `bson:"avatarUrl"`
	Content     string    `bson:"content"`
	Likes       int       `bson:"likes"`
	LikedBy     []string  `bson:"likedBy"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

var _ CommentRepository = (*MongoDB)(nil)

// GetComment retrieves a comment by ID
func (m *MongoDB) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	var doc CommentDocument
	err := m.Comments.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewNotFoundError("Comment", id)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to get comment", err)
	}
	return convertCommentDocumentToModel(&doc), nil
}

// ListComments returns a container's comments oldest first
func (m *MongoDB) ListComments(ctx context.Context, containerID string) ([]*models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := m.Comments.Find(ctx, bson.M{"containerId": containerID}, opts)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to list comments", err)
	}
	defer cursor.Close(ctx)

	comments := make([]*models.Comment, 0)
	for cursor.Next(ctx) {
		var doc CommentDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "Failed to decode comment", err)
		}
		comments = append(comments, convertCommentDocumentToModel(&doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to iterate comments", err)
	}
	return comments, nil
}

// AddComment inserts a new comment, refusing duplicate ids
func (m *MongoDB) AddComment(ctx context.Context, comment *models.Comment) error {
	_, err := m.Comments.InsertOne(ctx, convertCommentModelToDocument(comment))
	if mongo.IsDuplicateKeyError(err) {
		return utils.NewAppError(utils.ErrDuplicate, "Comment already exists: "+comment.ID, err)
	}
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to save comment", err)
	}
	log.Debug().Str("comment_id", comment.ID).Msg("Inserted comment")
	return nil
}

// UpdateComment saves the edited body of an existing comment
func (m *MongoDB) UpdateComment(ctx context.Context, comment *models.Comment) error {
	update := bson.M{"$set": bson.M{
		"content":   comment.Content,
		"updatedAt": comment.UpdatedAt,
	}}
	result, err := m.Comments.UpdateByID(ctx, comment.ID, update)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to update comment", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewNotFoundError("Comment", comment.ID)
	}
	return nil
}

// SetLike adds or pulls userID in likedBy and moves the counter with it. The
// filter only matches when the state actually changes, so repeats are no-ops.
func (m *MongoDB) SetLike(ctx context.Context, commentID, userID string, liked bool) (int, error) {
	if userID == "" {
		return 0, utils.NewInvalidInputError("user id is required to like a comment")
	}

	filter := bson.M{"_id": commentID, "likedBy": bson.M{"$ne": userID}}
	update := bson.M{"$addToSet": bson.M{"likedBy": userID}, "$inc": bson.M{"likes": 1}}
	if !liked {
		filter = bson.M{"_id": commentID, "likedBy": userID}
		update = bson.M{"$pull": bson.M{"likedBy": userID}, "$inc": bson.M{"likes": -1}}
	}

	if _, err := m.Comments.UpdateOne(ctx, filter, update); err != nil {
		return 0, utils.NewAppError(utils.ErrDatabase, "Failed to update like", err)
	}

	stored, err := m.GetComment(ctx, commentID)
	if err != nil {
		return 0, err
	}
	return stored.Likes, nil
}

// RemoveComment hard-deletes a comment
func (m *MongoDB) RemoveComment(ctx context.Context, id string) error {
	result, err := m.Comments.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to delete comment", err)
	}
	if result.DeletedCount == 0 {
		return utils.NewNotFoundError("Comment", id)
	}
	return nil
}

// EnsureCommentIndexes creates required indexes for the comments collection
func (m *MongoDB) EnsureCommentIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "containerId", Value: 1},
				{Key: "createdAt", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}},
		},
	}

	if _, err := m.Comments.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create comment indexes: %w", err)
	}
	return nil
}

// SeedComments inserts fixtures into an empty collection
func (m *MongoDB) SeedComments(ctx context.Context, comments []*models.Comment) error {
	count, err := m.Comments.EstimatedDocumentCount(ctx)
	if err != nil {
		return fmt.Errorf("failed to count comments: %w", err)
	}
	if count > 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(comments))
	for _, c := range comments {
		docs = append(docs, convertCommentModelToDocument(c))
	}
	if _, err := m.Comments.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}
	log.Info().Int("count", len(docs)).Msg("Seeded comments collection")
	return nil
}

func convertCommentModelToDocument(c *models.Comment) CommentDocument {
	return CommentDocument{
		ID:          c.ID,
		ContainerID: c.ContainerID,
		UserID:      c.UserID,
		DisplayName: c.DisplayName,
		AvatarURL:   c.AvatarURL,
		Content:     c.Content,
		Likes:       c.Likes,
		LikedBy:     likers(c.LikedBy),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func convertCommentDocumentToModel(doc *CommentDocument) *models.Comment {
	return &models.Comment{
		ID:          doc.ID,
		ContainerID: doc.ContainerID,
		UserID:      doc.UserID,
		DisplayName: doc.DisplayName,
		AvatarURL:   doc.AvatarURL,
		Content:     doc.Content,
		Likes:       doc.Likes,
		LikedBy:     doc.LikedBy,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}

// likers keeps likedBy an array in stored documents; $addToSet fails on null.
func likers(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

// internal/database/comment_repository.go
package database

import (
	"context"
	"log"
	"time"

	"leaflog/internal/models"
	"leaflog/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CommentDocument represents comment data in MongoDB. Comments are
// scoped to their post by postId, the document-store equivalent of a
// per-post sub-collection.
type CommentDocument struct {
	ID          string    `bson:"_id"`
	PostID      string    `bson:"postId"`
	ParentID    *string   `bson:"parentId"`
	AuthorID    string    `bson:"authorId"`
	AuthorName  string    `bson:"authorName"`
	AuthorPhoto string    `bson:"authorPhoto"`
	Text        string    `bson:"text"`
	CreatedAt   time.Time `bson:"createdAt"`
}

func commentToDocument(c *models.Comment) *CommentDocument {
	return &CommentDocument{
		ID:          c.ID,
		PostID:      c.PostID,
		ParentID:    c.ParentID,
		AuthorID:    c.AuthorID,
		AuthorName:  c.AuthorName,
		AuthorPhoto: c.AuthorPhoto,
		Text:        c.Text,
		CreatedAt:   c.CreatedAt,
	}
}

func documentToComment(doc *CommentDocument) *models.Comment {
	return &models.Comment{
		ID:          doc.ID,
		PostID:      doc.PostID,
		ParentID:    doc.ParentID,
		AuthorID:    doc.AuthorID,
		AuthorName:  doc.AuthorName,
		AuthorPhoto: doc.AuthorPhoto,
		Text:        doc.Text,
		CreatedAt:   doc.CreatedAt,
	}
}

// AddComment appends a comment to its post's sub-collection.
func (m *MongoDB) AddComment(ctx context.Context, comment *models.Comment) error {
	if _, err := m.Comments.InsertOne(ctx, commentToDocument(comment)); err != nil {
		return storeError("add comment", err)
	}
	return nil
}

// UpdateComment rewrites a comment's text. Author checks happen above
// this layer and again in the store's access rules.
func (m *MongoDB) UpdateComment(ctx context.Context, postID, commentID, text string) error {
	result, err := m.Comments.UpdateOne(ctx,
		bson.M{"_id": commentID, "postId": postID},
		bson.M{"$set": bson.M{"text": text}},
	)
	if err != nil {
		return storeError("edit comment", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Comment not found", nil)
	}
	return nil
}

// DeleteComment removes a comment from its post's sub-collection.
func (m *MongoDB) DeleteComment(ctx context.Context, postID, commentID string) error {
	result, err := m.Comments.DeleteOne(ctx, bson.M{"_id": commentID, "postId": postID})
	if err != nil {
		return storeError("delete comment", err)
	}
	if result.DeletedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Comment not found", nil)
	}
	return nil
}

// ListComments retrieves all comments for a post, createdAt ascending.
func (m *MongoDB) ListComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := m.Comments.Find(ctx, bson.M{"postId": postID}, opts)
	if err != nil {
		return nil, storeError("list comments", err)
	}
	defer cursor.Close(ctx)

	comments := []*models.Comment{}
	for cursor.Next(ctx) {
		var doc CommentDocument
		if err := cursor.Decode(&doc); err != nil {
			log.Printf("Error decoding comment document: %v", err)
			continue
		}
		comments = append(comments, documentToComment(&doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, storeError("list comments", err)
	}

	return comments, nil
}

// WatchComments opens a change stream scoped to one post's comments and
// re-reads the ordered list on every relevant event. Each delivery on
// the subscription is the whole list, never a diff.
func (m *MongoDB) WatchComments(ctx context.Context, postID string) (*CommentSubscription, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"$or": []bson.M{
			{"fullDocument.postId": postID},
			{"operationType": "delete"},
		}}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	streamCtx, cancel := context.WithCancel(ctx)
	stream, err := m.Comments.Watch(streamCtx, pipeline, opts)
	if err != nil {
		cancel()
		return nil, storeError("comment subscription", err)
	}

	snapshots := make(chan []*models.Comment, 8)
	go func() {
		defer close(snapshots)
		defer stream.Close(context.Background())

		emit := func() bool {
			comments, err := m.ListComments(streamCtx, postID)
			if err != nil {
				log.Printf("Comment stream for post %s: snapshot read failed: %v", postID, err)
				return false
			}
			select {
			case snapshots <- comments:
			case <-streamCtx.Done():
				return false
			}
			return true
		}

		// Initial snapshot on subscribe.
		if !emit() {
			return
		}
		for stream.Next(streamCtx) {
			if !emit() {
				return
			}
		}
		if err := stream.Err(); err != nil && streamCtx.Err() == nil {
			log.Printf("Comment stream for post %s ended: %v", postID, err)
		}
	}()

	return NewCommentSubscription(snapshots, cancel), nil
}

// EnsureCommentIndexes creates required indexes for the comments collection.
func (m *MongoDB) EnsureCommentIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "postId", Value: 1},
				{Key: "createdAt", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "authorId", Value: 1}},
		},
	}

	if _, err := m.Comments.Indexes().CreateMany(ctx, indexes); err != nil {
		return storeError("create comment indexes", err)
	}
	return nil
}

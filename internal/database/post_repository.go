// internal/database/post_repository.go
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

// PostDocument represents the MongoDB schema for a post.
type PostDocument struct {
	ID          string            `bson:"_id"`
	AuthorID    string            `bson:"authorId"`
	AuthorName  string            `bson:"authorName"`
	AuthorPhoto string            `bson:"authorPhoto"`
	BookTitle   string            `bson:"bookTitle"`
	BookAuthor  string            `bson:"bookAuthor"`
	CoverImage  string            `bson:"coverImage"`
	Quote       string            `bson:"quote"`
	Review      string            `bson:"review"`
	Rating      int               `bson:"rating"`
	Likes       []string          `bson:"likes"`
	CreatedAt   time.Time         `bson:"createdAt"`
	Location    *LocationDocument `bson:"location,omitempty"`
}

type LocationDocument struct {
	Lat  float64 `bson:"lat"`
	Lng  float64 `bson:"lng"`
	Name string  `bson:"name"`
}

func postToDocument(post *models.Post) *PostDocument {
	doc := &PostDocument{
		ID:          post.ID,
		AuthorID:    post.AuthorID,
		AuthorName:  post.AuthorName,
		AuthorPhoto: post.AuthorPhoto,
		BookTitle:   post.BookTitle,
		BookAuthor:  post.BookAuthor,
		CoverImage:  post.CoverImage,
		Quote:       post.Quote,
		Review:      post.Review,
		Rating:      post.Rating,
		Likes:       post.Likes,
		CreatedAt:   post.CreatedAt,
	}
	if post.Location != nil {
		doc.Location = &LocationDocument{
			Lat:  post.Location.Lat,
			Lng:  post.Location.Lng,
			Name: post.Location.Name,
		}
	}
	return doc
}

func documentToPost(doc *PostDocument) *models.Post {
	post := &models.Post{
		ID:          doc.ID,
		AuthorID:    doc.AuthorID,
		AuthorName:  doc.AuthorName,
		AuthorPhoto: doc.AuthorPhoto,
		BookTitle:   doc.BookTitle,
		BookAuthor:  doc.BookAuthor,
		CoverImage:  doc.CoverImage,
		Quote:       doc.Quote,
		Review:      doc.Review,
		Rating:      doc.Rating,
		Likes:       doc.Likes,
		CreatedAt:   doc.CreatedAt,
	}
	if doc.Location != nil {
		post.Location = &models.Location{
			Lat:  doc.Location.Lat,
			Lng:  doc.Location.Lng,
			Name: doc.Location.Name,
		}
	}
	return post
}

// SavePost creates or updates a post.
func (m *MongoDB) SavePost(ctx context.Context, post *models.Post) error {
	doc := postToDocument(post)

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": post.ID}
	update := bson.M{"$set": doc}

	if _, err := m.Posts.UpdateOne(ctx, filter, update, opts); err != nil {
		return storeError("save post", err)
	}
	return nil
}

// GetPost retrieves a post by its ID.
func (m *MongoDB) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var doc PostDocument

	err := m.Posts.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrNotFound, "Post not found", err)
	}
	if err != nil {
		return nil, storeError("get post", err)
	}

	return documentToPost(&doc), nil
}

// DeletePost removes a post document. Comments under the post are not
// cascaded here; the application treats them as gone with the post.
func (m *MongoDB) DeletePost(ctx context.Context, id string) error {
	result, err := m.Posts.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storeError("delete post", err)
	}
	if result.DeletedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	return nil
}

// FeedPage retrieves one page of the reverse-chronological feed. When
// authors is non-nil the page is restricted to those author IDs; when
// before is set only posts strictly older than the cursor are returned.
func (m *MongoDB) FeedPage(ctx context.Context, authors []string, before *time.Time, limit int) ([]*models.Post, error) {
	filter := bson.M{}
	if authors != nil {
		filter["authorId"] = bson.M{"$in": authors}
	}
	if before != nil {
		filter["createdAt"] = bson.M{"$lt": *before}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := m.Posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, storeError("feed query", err)
	}
	defer cursor.Close(ctx)

	var posts []*models.Post
	for cursor.Next(ctx) {
		var doc PostDocument
		if err := cursor.Decode(&doc); err != nil {
			log.Printf("Error decoding post document: %v", err)
			continue
		}
		posts = append(posts, documentToPost(&doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, storeError("feed query", err)
	}

	return posts, nil
}

// RecentPosts returns the most recent posts by creation time, used as
// the popularity ranking sample.
func (m *MongoDB) RecentPosts(ctx context.Context, limit int) ([]*models.Post, error) {
	return m.FeedPage(ctx, nil, nil, limit)
}

// LocatedPosts returns recent posts carrying a geotag, for the map view.
func (m *MongoDB) LocatedPosts(ctx context.Context, limit int) ([]*models.Post, error) {
	filter := bson.M{"location": bson.M{"$ne": nil}}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := m.Posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, storeError("map query", err)
	}
	defer cursor.Close(ctx)

	var posts []*models.Post
	for cursor.Next(ctx) {
		var doc PostDocument
		if err := cursor.Decode(&doc); err != nil {
			log.Printf("Error decoding post document: %v", err)
			continue
		}
		posts = append(posts, documentToPost(&doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, storeError("map query", err)
	}

	return posts, nil
}

// UpdatePostLikes flips uid's membership in the post's likes set with a
// single atomic array update; uid never appears twice.
func (m *MongoDB) UpdatePostLikes(ctx context.Context, postID, uid string, like bool) error {
	var update bson.M
	if like {
		update = bson.M{"$addToSet": bson.M{"likes": uid}}
	} else {
		update = bson.M{"$pull": bson.M{"likes": uid}}
	}

	result, err := m.Posts.UpdateOne(ctx, bson.M{"_id": postID}, update)
	if err != nil {
		return storeError("update likes", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	return nil
}

// EnsurePostIndexes creates required indexes for the posts collection.
func (m *MongoDB) EnsurePostIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "authorId", Value: 1},
				{Key: "createdAt", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "createdAt", Value: -1}},
		},
	}

	if _, err := m.Posts.Indexes().CreateMany(ctx, indexes); err != nil {
		return storeError("create post indexes", err)
	}
	return nil
}

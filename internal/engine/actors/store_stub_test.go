package actors

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"leaflog/internal/database"
	"leaflog/internal/models"
)

// trackingStore wraps the in-memory store with call counters, optional
// injected failures, and a gate that holds feed queries open so tests
// can observe in-flight behavior.
type trackingStore struct {
	database.Store

	feedPageCalls int64
	likeCalls     int64
	followCalls   int64
	commentCalls  int64
	watchCalls    int64

	feedGate  chan struct{} // when set, FeedPage blocks until the gate closes
	likeErr   error
	followErr error
}

func newTrackingStore() *trackingStore {
	return &trackingStore{Store: database.NewMemStore()}
}

func (s *trackingStore) FeedPage(ctx context.Context, authors []string, before *time.Time, limit int) ([]*models.Post, error) {
	atomic.AddInt64(&s.feedPageCalls, 1)
	if s.feedGate != nil {
		<-s.feedGate
	}
	return s.Store.FeedPage(ctx, authors, before, limit)
}

func (s *trackingStore) UpdatePostLikes(ctx context.Context, postID, uid string, like bool) error {
	atomic.AddInt64(&s.likeCalls, 1)
	if s.likeErr != nil {
		return s.likeErr
	}
	return s.Store.UpdatePostLikes(ctx, postID, uid, like)
}

func (s *trackingStore) SetFollow(ctx context.Context, viewer, target string, follow bool) error {
	atomic.AddInt64(&s.followCalls, 1)
	if s.followErr != nil {
		return s.followErr
	}
	return s.Store.SetFollow(ctx, viewer, target, follow)
}

func (s *trackingStore) AddComment(ctx context.Context, comment *models.Comment) error {
	atomic.AddInt64(&s.commentCalls, 1)
	return s.Store.AddComment(ctx, comment)
}

func (s *trackingStore) WatchComments(ctx context.Context, postID string) (*database.CommentSubscription, error) {
	atomic.AddInt64(&s.watchCalls, 1)
	return s.Store.WatchComments(ctx, postID)
}

// seedPosts writes n posts with strictly descending timestamps so page
// boundaries are deterministic.
func seedPosts(s database.Store, author string, n int) []*models.Post {
	base := time.Now()
	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		post := &models.Post{
			ID:         fmt.Sprintf("post-%d", i),
			AuthorID:   author,
			AuthorName: "Reader",
			BookTitle:  fmt.Sprintf("Book %d", i),
			BookAuthor: "Author",
			Rating:     4,
			CreatedAt:  base.Add(-time.Duration(i) * time.Minute),
		}
		if err := s.SavePost(context.Background(), post); err != nil {
			panic(err)
		}
		posts = append(posts, post)
	}
	return posts
}

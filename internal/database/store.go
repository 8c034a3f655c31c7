package database

import (
	"context"
	"sync"
	"time"

	"leaflog/internal/models"
)

// Store is the document-store surface the synchronizer depends on. It
// mirrors the hosted-store primitives the application uses: per-document
// CRUD, atomic array membership updates, an atomic two-document follow
// batch, ordered cursor-paginated queries, and realtime comment
// subscriptions.
type Store interface {
	// Profiles
	GetProfile(ctx context.Context, uid string) (*models.UserProfile, error)
	SaveProfile(ctx context.Context, profile *models.UserProfile) error
	// SetFollow mutates target.followers and viewer.following in one
	// atomic batch; other readers never observe a half-updated pair.
	SetFollow(ctx context.Context, viewerID, targetID string, follow bool) error

	// Posts
	SavePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id string) (*models.Post, error)
	DeletePost(ctx context.Context, id string) error
	// FeedPage returns up to limit posts ordered by createdAt descending,
	// strictly older than before when set, restricted to the given
	// authors when authors is non-nil.
	FeedPage(ctx context.Context, authors []string, before *time.Time, limit int) ([]*models.Post, error)
	RecentPosts(ctx context.Context, limit int) ([]*models.Post, error)
	LocatedPosts(ctx context.Context, limit int) ([]*models.Post, error)
	// UpdatePostLikes performs an atomic array-union (like) or
	// array-remove (unlike) of uid on the post's likes set.
	UpdatePostLikes(ctx context.Context, postID, uid string, like bool) error

	// Comments
	AddComment(ctx context.Context, comment *models.Comment) error
	UpdateComment(ctx context.Context, postID, commentID, text string) error
	DeleteComment(ctx context.Context, postID, commentID string) error
	ListComments(ctx context.Context, postID string) ([]*models.Comment, error)
	// WatchComments opens a realtime subscription on the post's comment
	// sub-collection. Every delivery is the full ordered comment list.
	WatchComments(ctx context.Context, postID string) (*CommentSubscription, error)
}

// CommentSubscription is a disposable handle for a live comment stream.
// Snapshots delivers the complete comment list, createdAt ascending, on
// every change; the channel closes after Cancel.
type CommentSubscription struct {
	Snapshots <-chan []*models.Comment

	cancel func()
	once   sync.Once
}

// NewCommentSubscription wraps a snapshot channel and its teardown.
func NewCommentSubscription(snapshots <-chan []*models.Comment, cancel func()) *CommentSubscription {
	return &CommentSubscription{Snapshots: snapshots, cancel: cancel}
}

// Cancel releases the subscription. Safe to call more than once; the
// underlying teardown runs exactly once.
func (s *CommentSubscription) Cancel() {
	s.once.Do(s.cancel)
}

package actors

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"leaflog/internal/database"
	"leaflog/internal/identity"
	"leaflog/internal/models"
	"leaflog/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spawnCommentStream(t *testing.T, store database.Store, postID string) (*actor.ActorSystem, *actor.PID) {
	t.Helper()
	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewCommentStreamActor(store, utils.NewMetricsCollector(), identity.NewSession(), postID, nil)
	})
	return system, system.Root.Spawn(props)
}

func TestExpandIsIdempotent(t *testing.T) {
	store := newTrackingStore()
	system, pid := spawnCommentStream(t, store, "post-1")

	for i := 0; i < 2; i++ {
		future := system.Root.RequestFuture(pid, &ExpandMsg{}, 5*time.Second)
		result, err := future.Result()
		require.NoError(t, err)
		assert.Equal(t, true, result)
	}

	// The second expand reuses the live subscription.
	assert.EqualValues(t, 1, atomic.LoadInt64(&store.watchCalls))
}

// cancelCountingStore hands out a subscription whose release callback
// counts invocations.
type cancelCountingStore struct {
	database.Store
	cancels int64
}

func (s *cancelCountingStore) WatchComments(ctx context.Context, postID string) (*database.CommentSubscription, error) {
	snapshots := make(chan []*models.Comment)
	return database.NewCommentSubscription(snapshots, func() {
		atomic.AddInt64(&s.cancels, 1)
		close(snapshots)
	}), nil
}

func TestCollapseReleasesSubscriptionExactlyOnce(t *testing.T) {
	store := &cancelCountingStore{Store: database.NewMemStore()}
	system, pid := spawnCommentStream(t, store, "post-1")

	future := system.Root.RequestFuture(pid, &ExpandMsg{}, 5*time.Second)
	_, err := future.Result()
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		future = system.Root.RequestFuture(pid, &CollapseMsg{}, 5*time.Second)
		_, err = future.Result()
		require.NoError(t, err)
	}

	assert.EqualValues(t, 1, atomic.LoadInt64(&store.cancels))
}

func TestAddCommentRejectsEmptyTextLocally(t *testing.T) {
	store := newTrackingStore()
	system, pid := spawnCommentStream(t, store, "post-1")

	author := &models.UserProfile{UID: "viewer-1", DisplayName: "Viewer"}
	future := system.Root.RequestFuture(pid, &AddCommentMsg{Text: "   \n\t ", Author: author}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)

	appErr, ok := result.(*utils.AppError)
	require.True(t, ok, "expected a validation error, got %v", result)
	assert.Equal(t, utils.ErrInvalidInput, appErr.Code)

	// Validation happens before any store write.
	assert.EqualValues(t, 0, atomic.LoadInt64(&store.commentCalls))
}

func TestAddCommentPersistsTrimmedText(t *testing.T) {
	store := newTrackingStore()
	system, pid := spawnCommentStream(t, store, "post-1")

	author := &models.UserProfile{UID: "viewer-1", DisplayName: "Viewer", PhotoURL: "https://example.com/p.png"}
	future := system.Root.RequestFuture(pid, &AddCommentMsg{Text: "  loved this chapter  ", Author: author}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)

	comment, ok := result.(*models.Comment)
	require.True(t, ok, "expected the stored comment, got %v", result)
	assert.Equal(t, "loved this chapter", comment.Text)
	assert.Equal(t, "viewer-1", comment.AuthorID)
	assert.Equal(t, "post-1", comment.PostID)
	assert.Nil(t, comment.ParentID)

	listed, err := store.ListComments(context.Background(), "post-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, comment.ID, listed[0].ID)
}

func TestEditCommentIsAuthorOnly(t *testing.T) {
	store := newTrackingStore()
	require.NoError(t, store.AddComment(context.Background(), &models.Comment{
		ID:        "comment-1",
		PostID:    "post-1",
		AuthorID:  "author-1",
		Text:      "original",
		CreatedAt: time.Now(),
	}))
	system, pid := spawnCommentStream(t, store, "post-1")

	future := system.Root.RequestFuture(pid, &EditCommentMsg{
		CommentID: "comment-1",
		Viewer:    "someone-else",
		Text:      "rewritten",
	}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)

	appErr, ok := result.(*utils.AppError)
	require.True(t, ok, "expected an authorization error, got %v", result)
	assert.Equal(t, utils.ErrForbidden, appErr.Code)

	// The author succeeds.
	future = system.Root.RequestFuture(pid, &EditCommentMsg{
		CommentID: "comment-1",
		Viewer:    "author-1",
		Text:      "rewritten",
	}, 5*time.Second)
	result, err = future.Result()
	require.NoError(t, err)
	assert.Equal(t, true, result)

	listed, err := store.ListComments(context.Background(), "post-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "rewritten", listed[0].Text)
}

func TestDeleteCommentRemovesFromStore(t *testing.T) {
	store := newTrackingStore()
	require.NoError(t, store.AddComment(context.Background(), &models.Comment{
		ID:        "comment-1",
		PostID:    "post-1",
		AuthorID:  "author-1",
		Text:      "to be removed",
		CreatedAt: time.Now(),
	}))
	system, pid := spawnCommentStream(t, store, "post-1")

	future := system.Root.RequestFuture(pid, &DeleteCommentMsg{CommentID: "comment-1", Viewer: "author-1"}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	assert.Equal(t, true, result)

	listed, err := store.ListComments(context.Background(), "post-1")
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestExpandedStreamObservesNewComments(t *testing.T) {
	store := newTrackingStore()
	system, pid := spawnCommentStream(t, store, "post-1")

	future := system.Root.RequestFuture(pid, &ExpandMsg{}, 5*time.Second)
	_, err := future.Result()
	require.NoError(t, err)

	// A write through a different path still reaches the stream.
	require.NoError(t, store.Store.AddComment(context.Background(), &models.Comment{
		ID:        "comment-1",
		PostID:    "post-1",
		AuthorID:  "author-1",
		Text:      "hello",
		CreatedAt: time.Now(),
	}))

	assert.Eventually(t, func() bool {
		future := system.Root.RequestFuture(pid, &GetCommentsMsg{}, 5*time.Second)
		result, err := future.Result()
		if err != nil {
			return false
		}
		state := result.(*CommentStreamState)
		return state.Subscribed && len(state.Comments) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

package actors

import (
	"sync/atomic"
	"testing"
	"time"

	"leaflog/internal/models"
	"leaflog/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spawnFeedActor(t *testing.T, store *trackingStore) (*actor.ActorSystem, *actor.PID) {
	t.Helper()
	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewFeedActor(store, utils.NewMetricsCollector())
	})
	return system, system.Root.Spawn(props)
}

func TestFollowingFeedWithNobodyFollowed(t *testing.T) {
	store := newTrackingStore()
	seedPosts(store, "someone-else", 8)
	system, pid := spawnFeedActor(t, store)

	future := system.Root.RequestFuture(pid, &LoadInitialMsg{
		Mode:   models.FeedFollowing,
		Viewer: "viewer-1",
	}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)

	state, ok := result.(*FeedState)
	require.True(t, ok, "expected a feed state")
	assert.Empty(t, state.Posts)
	assert.True(t, state.Exhausted)

	// An empty following set must short-circuit before the store.
	assert.EqualValues(t, 0, atomic.LoadInt64(&store.feedPageCalls))
}

func TestLoadMoreAppendsNextPage(t *testing.T) {
	store := newTrackingStore()
	seedPosts(store, "author-1", 12)
	system, pid := spawnFeedActor(t, store)

	future := system.Root.RequestFuture(pid, &LoadInitialMsg{Mode: models.FeedGlobal}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	state := result.(*FeedState)
	require.Len(t, state.Posts, PageSize)
	assert.False(t, state.Exhausted)

	future = system.Root.RequestFuture(pid, &LoadMoreMsg{}, 5*time.Second)
	result, err = future.Result()
	require.NoError(t, err)
	state = result.(*FeedState)
	assert.Len(t, state.Posts, 2*PageSize)

	// Newest first, no overlap between pages.
	for i := 1; i < len(state.Posts); i++ {
		assert.True(t, state.Posts[i].CreatedAt.Before(state.Posts[i-1].CreatedAt))
	}

	future = system.Root.RequestFuture(pid, &LoadMoreMsg{}, 5*time.Second)
	result, err = future.Result()
	require.NoError(t, err)
	state = result.(*FeedState)
	assert.Len(t, state.Posts, 12)
	assert.True(t, state.Exhausted)
}

func TestLoadMoreWhileLoadingIssuesOneQuery(t *testing.T) {
	store := newTrackingStore()
	seedPosts(store, "author-1", 12)
	system, pid := spawnFeedActor(t, store)

	future := system.Root.RequestFuture(pid, &LoadInitialMsg{Mode: models.FeedGlobal}, 5*time.Second)
	_, err := future.Result()
	require.NoError(t, err)
	require.EqualValues(t, 1, atomic.LoadInt64(&store.feedPageCalls))

	// Hold the next query open and fire LoadMore twice.
	gate := make(chan struct{})
	store.feedGate = gate
	first := system.Root.RequestFuture(pid, &LoadMoreMsg{}, 5*time.Second)
	second := system.Root.RequestFuture(pid, &LoadMoreMsg{}, 5*time.Second)

	// The second request answers immediately with the in-flight state.
	result, err := second.Result()
	require.NoError(t, err)
	state := result.(*FeedState)
	assert.True(t, state.Loading)
	assert.Len(t, state.Posts, PageSize)

	close(gate)
	store.feedGate = nil

	result, err = first.Result()
	require.NoError(t, err)
	state = result.(*FeedState)
	assert.Len(t, state.Posts, 2*PageSize)

	// Initial page plus exactly one more: the duplicate gesture never
	// reached the store.
	assert.EqualValues(t, 2, atomic.LoadInt64(&store.feedPageCalls))
}

func TestLoadInitialSupersededRequesterStillAnswered(t *testing.T) {
	store := newTrackingStore()
	seedPosts(store, "author-1", 8)
	system, pid := spawnFeedActor(t, store)

	// Hold the store open and issue two back-to-back resets.
	gate := make(chan struct{})
	store.feedGate = gate
	first := system.Root.RequestFuture(pid, &LoadInitialMsg{Mode: models.FeedGlobal}, 5*time.Second)
	second := system.Root.RequestFuture(pid, &LoadInitialMsg{Mode: models.FeedGlobal}, 5*time.Second)

	// The superseded requester resolves with the in-flight state rather
	// than timing out once its page is discarded.
	result, err := first.Result()
	require.NoError(t, err)
	state := result.(*FeedState)
	assert.True(t, state.Loading)
	assert.Empty(t, state.Posts)

	close(gate)
	store.feedGate = nil

	result, err = second.Result()
	require.NoError(t, err)
	state = result.(*FeedState)
	assert.Len(t, state.Posts, PageSize)
	assert.EqualValues(t, 2, atomic.LoadInt64(&store.feedPageCalls))
}

func TestToggleLikeTwiceReturnsToOriginal(t *testing.T) {
	store := newTrackingStore()
	seedPosts(store, "author-1", 3)
	system, pid := spawnFeedActor(t, store)

	future := system.Root.RequestFuture(pid, &LoadInitialMsg{Mode: models.FeedGlobal}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	postID := result.(*FeedState).Posts[0].ID

	future = system.Root.RequestFuture(pid, &ToggleLikeMsg{PostID: postID, Viewer: "viewer-1"}, 5*time.Second)
	result, err = future.Result()
	require.NoError(t, err)
	liked, ok := result.(*models.Post)
	require.True(t, ok, "expected the updated post, got %v", result)
	assert.True(t, liked.LikedBy("viewer-1"))

	future = system.Root.RequestFuture(pid, &ToggleLikeMsg{PostID: postID, Viewer: "viewer-1"}, 5*time.Second)
	result, err = future.Result()
	require.NoError(t, err)
	unliked := result.(*models.Post)
	assert.False(t, unliked.LikedBy("viewer-1"))
	assert.Empty(t, unliked.Likes)
}

func TestToggleLikeRollsBackOnStoreFailure(t *testing.T) {
	store := newTrackingStore()
	seedPosts(store, "author-1", 3)
	store.likeErr = utils.NewUnavailableError("likes", nil)
	system, pid := spawnFeedActor(t, store)

	future := system.Root.RequestFuture(pid, &LoadInitialMsg{Mode: models.FeedGlobal}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	postID := result.(*FeedState).Posts[0].ID

	// The optimistic reply reflects the flip even though the store will
	// reject the write.
	future = system.Root.RequestFuture(pid, &ToggleLikeMsg{PostID: postID, Viewer: "viewer-1"}, 5*time.Second)
	result, err = future.Result()
	require.NoError(t, err)
	assert.True(t, result.(*models.Post).LikedBy("viewer-1"))

	// The rollback restores the snapshot captured before the flip.
	assert.Eventually(t, func() bool {
		future := system.Root.RequestFuture(pid, &GetFeedMsg{}, 5*time.Second)
		result, err := future.Result()
		if err != nil {
			return false
		}
		for _, p := range result.(*FeedState).Posts {
			if p.ID == postID {
				return !p.LikedBy("viewer-1")
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLoadInitialCapsFollowingFilter(t *testing.T) {
	store := newTrackingStore()
	seedPosts(store, "author-1", 2)
	system, pid := spawnFeedActor(t, store)

	following := make([]string, MaxFollowingFilter+10)
	for i := range following {
		following[i] = "followed"
	}

	future := system.Root.RequestFuture(pid, &LoadInitialMsg{
		Mode:      models.FeedFollowing,
		Viewer:    "viewer-1",
		Following: following,
	}, 5*time.Second)
	_, err := future.Result()
	require.NoError(t, err)

	// Over-limit following sets still produce exactly one store query.
	assert.EqualValues(t, 1, atomic.LoadInt64(&store.feedPageCalls))
}

package actors

import (
	"context"
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

func spawnProfileActor(t *testing.T, store database.Store) (*actor.ActorSystem, *actor.PID) {
	t.Helper()
	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewProfileActor(store, utils.NewMetricsCollector())
	})
	return system, system.Root.Spawn(props)
}

func saveProfile(t *testing.T, store database.Store, uid, name string) {
	t.Helper()
	require.NoError(t, store.SaveProfile(context.Background(), &models.UserProfile{
		UID:         uid,
		DisplayName: name,
		Followers:   []string{},
		Following:   []string{},
		CreatedAt:   time.Now(),
	}))
}

func TestEnsureProfileCreatesOnFirstSignIn(t *testing.T) {
	store := newTrackingStore()
	system, pid := spawnProfileActor(t, store)

	id := identity.Identity{UID: "user-1", DisplayName: "Reader One", Email: "one@example.com"}
	future := system.Root.RequestFuture(pid, &EnsureProfileMsg{Identity: id}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)

	profile, ok := result.(*models.UserProfile)
	require.True(t, ok, "expected a profile, got %v", result)
	assert.Equal(t, "user-1", profile.UID)
	assert.Equal(t, "Reader One", profile.DisplayName)
	assert.NotNil(t, profile.Followers)
	assert.NotNil(t, profile.Following)

	stored, err := store.GetProfile(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Reader One", stored.DisplayName)
}

func TestToggleFollowRejectsSelf(t *testing.T) {
	store := newTrackingStore()
	saveProfile(t, store, "user-1", "Reader One")
	system, pid := spawnProfileActor(t, store)

	future := system.Root.RequestFuture(pid, &ToggleFollowMsg{Viewer: "user-1", Target: "user-1", Follow: true}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)

	appErr, ok := result.(*utils.AppError)
	require.True(t, ok, "expected a validation error, got %v", result)
	assert.Equal(t, utils.ErrInvalidInput, appErr.Code)
}

func TestToggleFollowMovesBothSides(t *testing.T) {
	store := newTrackingStore()
	saveProfile(t, store, "user-1", "Reader One")
	saveProfile(t, store, "user-2", "Reader Two")
	system, pid := spawnProfileActor(t, store)

	future := system.Root.RequestFuture(pid, &ToggleFollowMsg{Viewer: "user-1", Target: "user-2", Follow: true}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)

	viewer, ok := result.(*models.UserProfile)
	require.True(t, ok, "expected the viewer profile, got %v", result)
	assert.Contains(t, viewer.Following, "user-2")

	assert.Eventually(t, func() bool {
		target, err := store.GetProfile(context.Background(), "user-2")
		if err != nil {
			return false
		}
		return len(target.Followers) == 1 && target.Followers[0] == "user-1"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestToggleFollowRollsBackBothSidesOnFailure(t *testing.T) {
	store := newTrackingStore()
	saveProfile(t, store, "user-1", "Reader One")
	saveProfile(t, store, "user-2", "Reader Two")
	store.followErr = utils.NewUnavailableError("follow batch", nil)
	system, pid := spawnProfileActor(t, store)

	future := system.Root.RequestFuture(pid, &ToggleFollowMsg{Viewer: "user-1", Target: "user-2", Follow: true}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)

	// Optimistic reply shows the follow applied.
	assert.Contains(t, result.(*models.UserProfile).Following, "user-2")

	// Both cached sides return to their snapshots once the batch fails.
	assert.Eventually(t, func() bool {
		vf := system.Root.RequestFuture(pid, &GetProfileMsg{UID: "user-1"}, 5*time.Second)
		vr, err := vf.Result()
		if err != nil {
			return false
		}
		viewer, ok := vr.(*models.UserProfile)
		if !ok || len(viewer.Following) != 0 {
			return false
		}
		tf := system.Root.RequestFuture(pid, &GetProfileMsg{UID: "user-2"}, 5*time.Second)
		tr, err := tf.Result()
		if err != nil {
			return false
		}
		target, ok := tr.(*models.UserProfile)
		return ok && len(target.Followers) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestUnfollowRollbackRestoresTheEdge(t *testing.T) {
	store := newTrackingStore()
	saveProfile(t, store, "user-1", "Reader One")
	saveProfile(t, store, "user-2", "Reader Two")
	system, pid := spawnProfileActor(t, store)

	// Establish the follow first.
	future := system.Root.RequestFuture(pid, &ToggleFollowMsg{Viewer: "user-1", Target: "user-2", Follow: true}, 5*time.Second)
	_, err := future.Result()
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		target, err := store.GetProfile(context.Background(), "user-2")
		return err == nil && len(target.Followers) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Now fail the unfollow batch: both sides must keep the edge.
	store.followErr = utils.NewUnavailableError("follow batch", nil)
	future = system.Root.RequestFuture(pid, &ToggleFollowMsg{Viewer: "user-1", Target: "user-2", Follow: false}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	assert.NotContains(t, result.(*models.UserProfile).Following, "user-2")

	assert.Eventually(t, func() bool {
		vf := system.Root.RequestFuture(pid, &GetProfileMsg{UID: "user-1"}, 5*time.Second)
		vr, err := vf.Result()
		if err != nil {
			return false
		}
		viewer, ok := vr.(*models.UserProfile)
		if !ok || !viewer.IsFollowing("user-2") {
			return false
		}
		tf := system.Root.RequestFuture(pid, &GetProfileMsg{UID: "user-2"}, 5*time.Second)
		tr, err := tf.Result()
		if err != nil {
			return false
		}
		target, ok := tr.(*models.UserProfile)
		return ok && len(target.Followers) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestUpdateProfileKeepsUnsetFields(t *testing.T) {
	store := newTrackingStore()
	saveProfile(t, store, "user-1", "Reader One")
	system, pid := spawnProfileActor(t, store)

	future := system.Root.RequestFuture(pid, &UpdateProfileMsg{UID: "user-1", Bio: "night reader"}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)

	profile, ok := result.(*models.UserProfile)
	require.True(t, ok, "expected a profile, got %v", result)
	assert.Equal(t, "Reader One", profile.DisplayName)
	assert.Equal(t, "night reader", profile.Bio)
}

package actors

import (
	"context"
	"log"
	"time"

	"leaflog/internal/database"
	"leaflog/internal/identity"
	"leaflog/internal/models"
	"leaflog/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

// Message types for profile operations
type (
	// EnsureProfileMsg loads the profile for a signed-in identity,
	// creating it on first sign-in.
	EnsureProfileMsg struct {
		Identity identity.Identity
	}

	// GetProfileMsg retrieves a profile by user ID.
	GetProfileMsg struct {
		UID string
	}

	// UpdateProfileMsg edits the viewer's own profile fields. Historic
	// posts keep the author snapshot taken when they were published.
	UpdateProfileMsg struct {
		UID         string
		DisplayName string
		Bio         string
		PhotoURL    string
	}

	// ToggleFollowMsg mutates the bidirectional follow relationship
	// between viewer and target as one atomic batch.
	ToggleFollowMsg struct {
		Viewer string
		Target string
		Follow bool
	}

	// Internal: the follow batch resolved.
	followResultMsg struct {
		viewerSnapshot *models.UserProfile
		targetSnapshot *models.UserProfile
		err            error
	}
)

// ProfileActor caches user profiles and serializes every profile
// mutation, including the optimistic follow toggle. Follow failures
// roll BOTH cached sides back to their captured snapshots - the same
// contract the like toggle honors.
type ProfileActor struct {
	store   database.Store
	metrics *utils.MetricsCollector

	profiles map[string]*models.UserProfile
	lastErr  *utils.AppError
}

func NewProfileActor(store database.Store, metrics *utils.MetricsCollector) actor.Actor {
	return &ProfileActor{
		store:    store,
		metrics:  metrics,
		profiles: make(map[string]*models.UserProfile),
	}
}

func (a *ProfileActor) Receive(c actor.Context) {
	switch msg := c.Message().(type) {
	case *actor.Started:
		log.Printf("ProfileActor started")
	case *EnsureProfileMsg:
		a.handleEnsureProfile(c, msg)
	case *GetProfileMsg:
		a.handleGetProfile(c, msg)
	case *UpdateProfileMsg:
		a.handleUpdateProfile(c, msg)
	case *ToggleFollowMsg:
		a.handleToggleFollow(c, msg)
	case *followResultMsg:
		a.handleFollowResult(msg)
	}
}

func (a *ProfileActor) handleEnsureProfile(c actor.Context, msg *EnsureProfileMsg) {
	if msg.Identity.UID == "" {
		c.Respond(utils.NewUnauthenticatedError("no identity"))
		return
	}

	profile, err := a.loadProfile(msg.Identity.UID)
	if err == nil {
		c.Respond(profile.Clone())
		return
	}
	if !utils.IsErrorCode(err, utils.ErrNotFound) {
		c.Respond(asAppError(err, "failed to load profile"))
		return
	}

	// First sign-in: create the profile from the provider identity.
	profile = &models.UserProfile{
		UID:         msg.Identity.UID,
		DisplayName: msg.Identity.DisplayName,
		Email:       msg.Identity.Email,
		PhotoURL:    msg.Identity.PhotoURL,
		Followers:   []string{},
		Following:   []string{},
		CreatedAt:   time.Now(),
	}
	if err := a.store.SaveProfile(context.Background(), profile); err != nil {
		a.metrics.AddOperationError("ensure_profile")
		c.Respond(asAppError(err, "failed to create profile"))
		return
	}
	log.Printf("ProfileActor: created profile for %s", profile.UID)
	a.profiles[profile.UID] = profile
	c.Respond(profile.Clone())
}

func (a *ProfileActor) handleGetProfile(c actor.Context, msg *GetProfileMsg) {
	profile, err := a.loadProfile(msg.UID)
	if err != nil {
		c.Respond(asAppError(err, "failed to load profile"))
		return
	}
	c.Respond(profile.Clone())
}

func (a *ProfileActor) handleUpdateProfile(c actor.Context, msg *UpdateProfileMsg) {
	if msg.UID == "" {
		c.Respond(utils.NewUnauthenticatedError("profile edits require a signed-in viewer"))
		return
	}

	profile, err := a.loadProfile(msg.UID)
	if err != nil {
		c.Respond(asAppError(err, "failed to load profile"))
		return
	}

	if msg.DisplayName != "" {
		profile.DisplayName = msg.DisplayName
	}
	profile.Bio = msg.Bio
	if msg.PhotoURL != "" {
		profile.PhotoURL = msg.PhotoURL
	}

	if err := a.store.SaveProfile(context.Background(), profile); err != nil {
		a.metrics.AddOperationError("update_profile")
		c.Respond(asAppError(err, "failed to save profile"))
		return
	}
	c.Respond(profile.Clone())
}

func (a *ProfileActor) handleToggleFollow(c actor.Context, msg *ToggleFollowMsg) {
	if msg.Viewer == "" {
		c.Respond(utils.NewUnauthenticatedError("following requires a signed-in viewer"))
		return
	}
	if msg.Viewer == msg.Target {
		c.Respond(utils.NewAppError(utils.ErrInvalidInput, "Cannot follow yourself", nil))
		return
	}

	viewer, err := a.loadProfile(msg.Viewer)
	if err != nil {
		c.Respond(asAppError(err, "failed to load viewer profile"))
		return
	}
	target, err := a.loadProfile(msg.Target)
	if err != nil {
		c.Respond(asAppError(err, "failed to load target profile"))
		return
	}

	// Capture both sides before the optimistic mutation.
	viewerSnapshot := viewer.Clone()
	targetSnapshot := target.Clone()

	if msg.Follow {
		viewer.Following = addID(viewer.Following, msg.Target)
		target.Followers = addID(target.Followers, msg.Viewer)
	} else {
		viewer.Following = removeID(viewer.Following, msg.Target)
		target.Followers = removeID(target.Followers, msg.Viewer)
	}

	c.Respond(viewer.Clone())

	self := c.Self()
	root := c.ActorSystem().Root
	start := time.Now()
	go func() {
		err := a.store.SetFollow(context.Background(), msg.Viewer, msg.Target, msg.Follow)
		a.metrics.AddOperationLatency("toggle_follow", time.Since(start))
		root.Send(self, &followResultMsg{
			viewerSnapshot: viewerSnapshot,
			targetSnapshot: targetSnapshot,
			err:            err,
		})
	}()
}

func (a *ProfileActor) handleFollowResult(msg *followResultMsg) {
	if msg.err == nil {
		return
	}

	a.metrics.AddOperationError("toggle_follow")
	log.Printf("ProfileActor: follow batch failed, rolling back both sides: %v", msg.err)
	a.profiles[msg.viewerSnapshot.UID] = msg.viewerSnapshot
	a.profiles[msg.targetSnapshot.UID] = msg.targetSnapshot
	a.lastErr = asAppError(msg.err, "follow update failed")
}

func (a *ProfileActor) loadProfile(uid string) (*models.UserProfile, error) {
	if uid == "" {
		return nil, utils.NewAppError(utils.ErrInvalidInput, "User ID required", nil)
	}
	if profile, ok := a.profiles[uid]; ok {
		return profile, nil
	}
	profile, err := a.store.GetProfile(context.Background(), uid)
	if err != nil {
		return nil, err
	}
	a.profiles[uid] = profile
	return profile, nil
}

func addID(ids []string, id string) []string {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}

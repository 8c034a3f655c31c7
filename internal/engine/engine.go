// Package engine owns the actor system that serializes all feed,
// profile, comment, and ranking state mutation.
package engine

import (
	"sync"

	"leaflog/internal/database"
	"leaflog/internal/engine/actors"
	"leaflog/internal/identity"
	"leaflog/internal/models"
	"leaflog/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

// Engine coordinates communication between actors. Profile, post, and
// trending actors are singletons; feed actors are spawned per viewer
// and comment stream actors per post, on demand.
type Engine struct {
	system  *actor.ActorSystem
	store   database.Store
	metrics *utils.MetricsCollector
	session *identity.Session

	profileActor  *actor.PID
	postActor     *actor.PID
	trendingActor *actor.PID

	mu             sync.Mutex
	feeds          map[string]*actor.PID // viewer uid ("" = anonymous) -> feed actor
	commentStreams map[string]*actor.PID // post id -> comment stream actor

	// commentFanout receives every comment snapshot for websocket push.
	commentFanout func(postID string, comments []*models.Comment)
}

func NewEngine(system *actor.ActorSystem, store database.Store, metrics *utils.MetricsCollector, session *identity.Session) *Engine {
	context := system.Root

	profileProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewProfileActor(store, metrics)
	})
	postProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewPostActor(store, metrics)
	})
	trendingProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewTrendingActor(store, metrics)
	})

	return &Engine{
		system:         system,
		store:          store,
		metrics:        metrics,
		session:        session,
		profileActor:   context.Spawn(profileProps),
		postActor:      context.Spawn(postProps),
		trendingActor:  context.Spawn(trendingProps),
		feeds:          make(map[string]*actor.PID),
		commentStreams: make(map[string]*actor.PID),
	}
}

// SetCommentFanout installs the callback that pushes comment snapshots
// to connected websocket clients. Must be set before streams expand.
func (e *Engine) SetCommentFanout(fanout func(postID string, comments []*models.Comment)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.commentFanout = fanout
}

// GetProfileActor returns the PID of the profile actor
func (e *Engine) GetProfileActor() *actor.PID {
	return e.profileActor
}

// GetPostActor returns the PID of the post actor
func (e *Engine) GetPostActor() *actor.PID {
	return e.postActor
}

// GetTrendingActor returns the PID of the trending actor
func (e *Engine) GetTrendingActor() *actor.PID {
	return e.trendingActor
}

// FeedFor returns the feed actor owning the given viewer's pagination
// state, spawning it on first use. The empty viewer shares one
// anonymous global feed.
func (e *Engine) FeedFor(viewer string) *actor.PID {
	e.mu.Lock()
	defer e.mu.Unlock()

	if pid, ok := e.feeds[viewer]; ok {
		return pid
	}
	props := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewFeedActor(e.store, e.metrics)
	})
	pid := e.system.Root.Spawn(props)
	e.feeds[viewer] = pid
	return pid
}

// CommentStreamFor returns the comment stream actor for a post,
// spawning it on first use.
func (e *Engine) CommentStreamFor(postID string) *actor.PID {
	e.mu.Lock()
	defer e.mu.Unlock()

	if pid, ok := e.commentStreams[postID]; ok {
		return pid
	}
	fanout := e.commentFanout
	props := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewCommentStreamActor(e.store, e.metrics, e.session, postID, fanout)
	})
	pid := e.system.Root.Spawn(props)
	e.commentStreams[postID] = pid
	return pid
}

// Store exposes the underlying document store for read-only side
// queries (map view, direct comment listing).
func (e *Engine) Store() database.Store {
	return e.store
}

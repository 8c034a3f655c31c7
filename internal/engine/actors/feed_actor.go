package actors

import (
	"context"
	"log"
	"time"

	"leaflog/internal/database"
	"leaflog/internal/models"
	"leaflog/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

// PageSize is the fixed feed page size.
const PageSize = 5

// MaxFollowingFilter caps how many followed identifiers the FOLLOWING
// feed filter carries, a cardinality limit imposed by the store's $in
// operator. Viewers following more than this see posts from their first
// MaxFollowingFilter followed users only - a known degradation.
const MaxFollowingFilter = 30

// Message types for feed operations
type (
	// LoadInitialMsg resets the paginator and fetches the first page.
	// Following carries the viewer's cached following set so an empty
	// FOLLOWING feed can short-circuit without touching the store.
	LoadInitialMsg struct {
		Mode      models.FeedMode
		Viewer    string
		Following []string
	}

	// LoadMoreMsg fetches the page after the current cursor. A no-op
	// while a load is in flight or after the feed is exhausted.
	LoadMoreMsg struct{}

	// ToggleLikeMsg flips the viewer's membership in a post's likes set
	// with optimistic local feedback.
	ToggleLikeMsg struct {
		PostID string
		Viewer string
	}

	// GetFeedMsg returns the current feed state.
	GetFeedMsg struct{}

	// FeedState is the feed actor's answer to load and get requests.
	FeedState struct {
		Posts     []*models.Post  `json:"posts"`
		Exhausted bool            `json:"exhausted"`
		Loading   bool            `json:"loading"`
		Error     *utils.AppError `json:"-"`
	}

	// Internal: a page fetch finished.
	feedPageMsg struct {
		gen   int
		posts []*models.Post
		reset bool
		err   error
	}

	// Internal: a like confirmation (or failure) came back.
	likeResultMsg struct {
		postID   string
		snapshot []string // likes captured before the optimistic flip
		err      error
	}
)

// FeedActor owns one viewer's paginated feed: cursor state, the
// in-flight guard, and optimistic like toggling with rollback. The
// mailbox serializes every mutation, so re-entrant UI events can never
// interleave with a half-applied update.
type FeedActor struct {
	store   database.Store
	metrics *utils.MetricsCollector

	mode      models.FeedMode
	viewer    string
	authors   []string // fixed author filter for FOLLOWING mode
	posts     []*models.Post
	cursor    *time.Time
	loading   bool
	exhausted bool
	lastErr   *utils.AppError

	gen          int
	pendingReply *actor.PID
}

func NewFeedActor(store database.Store, metrics *utils.MetricsCollector) actor.Actor {
	return &FeedActor{
		store:   store,
		metrics: metrics,
	}
}

func (a *FeedActor) Receive(c actor.Context) {
	switch msg := c.Message().(type) {
	case *actor.Started:
		log.Printf("FeedActor started")
	case *LoadInitialMsg:
		a.handleLoadInitial(c, msg)
	case *LoadMoreMsg:
		a.handleLoadMore(c)
	case *ToggleLikeMsg:
		a.handleToggleLike(c, msg)
	case *GetFeedMsg:
		c.Respond(a.state())
	case *feedPageMsg:
		a.handlePageLoaded(c, msg)
	case *likeResultMsg:
		a.handleLikeResult(msg)
	}
}

func (a *FeedActor) state() *FeedState {
	return &FeedState{
		Posts:     a.posts,
		Exhausted: a.exhausted,
		Loading:   a.loading,
		Error:     a.lastErr,
	}
}

func (a *FeedActor) handleLoadInitial(c actor.Context, msg *LoadInitialMsg) {
	if a.loading && a.pendingReply != nil {
		// This reset supersedes an in-flight fetch. Answer the earlier
		// requester with what is loaded now so its future resolves
		// instead of timing out; the stale page is discarded by gen.
		c.Send(a.pendingReply, a.state())
		a.pendingReply = nil
	}

	a.gen++
	a.mode = msg.Mode
	a.viewer = msg.Viewer
	a.posts = nil
	a.cursor = nil
	a.loading = false
	a.exhausted = false
	a.lastErr = nil

	a.authors = nil
	if msg.Mode == models.FeedFollowing {
		following := msg.Following
		if len(following) == 0 {
			// Nobody followed: empty page, zero store queries.
			a.exhausted = true
			c.Respond(a.state())
			return
		}
		if len(following) > MaxFollowingFilter {
			log.Printf("FeedActor: viewer %s follows %d users, filtering to first %d", msg.Viewer, len(following), MaxFollowingFilter)
			following = following[:MaxFollowingFilter]
		}
		a.authors = append(append([]string{}, following...), msg.Viewer)
	}

	a.fetchPage(c, nil, true)
}

func (a *FeedActor) handleLoadMore(c actor.Context) {
	if a.loading || a.exhausted {
		// Reentrancy guard: at most one page fetch in flight.
		c.Respond(a.state())
		return
	}
	a.fetchPage(c, a.cursor, false)
}

func (a *FeedActor) fetchPage(c actor.Context, before *time.Time, reset bool) {
	a.loading = true
	a.pendingReply = c.Sender()

	gen := a.gen
	authors := a.authors
	self := c.Self()
	root := c.ActorSystem().Root
	start := time.Now()

	go func() {
		posts, err := a.store.FeedPage(context.Background(), authors, before, PageSize)
		a.metrics.AddOperationLatency("feed_page", time.Since(start))
		root.Send(self, &feedPageMsg{gen: gen, posts: posts, reset: reset, err: err})
	}()
}

func (a *FeedActor) handlePageLoaded(c actor.Context, msg *feedPageMsg) {
	if msg.gen != a.gen {
		// A newer LoadInitial superseded this fetch.
		return
	}
	a.loading = false

	reply := a.pendingReply
	a.pendingReply = nil

	if msg.err != nil {
		// Already-loaded pages stay intact; no automatic retry.
		a.lastErr = asAppError(msg.err, "feed query failed")
		a.metrics.AddOperationError("feed_page")
		log.Printf("FeedActor: feed query failed: %v", msg.err)
	} else {
		a.lastErr = nil
		if msg.reset {
			a.posts = msg.posts
		} else {
			a.posts = append(a.posts, msg.posts...)
		}
		if len(msg.posts) > 0 {
			last := msg.posts[len(msg.posts)-1].CreatedAt
			a.cursor = &last
		}
		if len(msg.posts) < PageSize {
			a.exhausted = true
		}
	}

	if reply != nil {
		c.Send(reply, a.state())
	}
}

func (a *FeedActor) handleToggleLike(c actor.Context, msg *ToggleLikeMsg) {
	if msg.Viewer == "" {
		c.Respond(utils.NewUnauthenticatedError("liking requires a signed-in viewer"))
		return
	}

	post := a.findPost(msg.PostID)
	if post == nil {
		c.Respond(utils.NewAppError(utils.ErrNotFound, "Post not in feed", nil))
		return
	}

	// Snapshot the pre-optimistic likes; a failed confirmation restores
	// exactly this, regardless of toggles applied in between.
	snapshot := append([]string(nil), post.Likes...)
	like := !post.LikedBy(msg.Viewer)
	if like {
		post.Likes = append(post.Likes, msg.Viewer)
	} else {
		post.Likes = removeID(post.Likes, msg.Viewer)
	}

	c.Respond(post.Clone())

	self := c.Self()
	root := c.ActorSystem().Root
	start := time.Now()
	go func() {
		err := a.store.UpdatePostLikes(context.Background(), msg.PostID, msg.Viewer, like)
		a.metrics.AddOperationLatency("toggle_like", time.Since(start))
		root.Send(self, &likeResultMsg{postID: msg.PostID, snapshot: snapshot, err: err})
	}()
}

func (a *FeedActor) handleLikeResult(msg *likeResultMsg) {
	if msg.err == nil {
		// Optimistic state is already correct; no re-read required.
		return
	}

	a.metrics.AddOperationError("toggle_like")
	log.Printf("FeedActor: like update failed for post %s, rolling back: %v", msg.postID, msg.err)
	if post := a.findPost(msg.postID); post != nil {
		post.Likes = msg.snapshot
	}
	a.lastErr = asAppError(msg.err, "like update failed")
}

func (a *FeedActor) findPost(id string) *models.Post {
	for _, p := range a.posts {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// asAppError keeps store taxonomy errors and wraps anything else as a
// generic transient failure.
func asAppError(err error, fallback string) *utils.AppError {
	if appErr, ok := err.(*utils.AppError); ok {
		return appErr
	}
	return utils.NewUnavailableError(fallback, err)
}

package actors

import (
	"context"
	"log"
	"strings"
	"time"

	"leaflog/internal/database"
	"leaflog/internal/identity"
	"leaflog/internal/models"
	"leaflog/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// Message types for comment stream operations
type (
	// ExpandMsg opens the live subscription for the post's comments.
	// Expanding an already-expanded stream is a no-op; there is never
	// more than one subscription per stream.
	ExpandMsg struct{}

	// CollapseMsg tears the subscription down.
	CollapseMsg struct{}

	// GetCommentsMsg returns the current comment stream state.
	GetCommentsMsg struct{}

	// AddCommentMsg appends a flat comment authored by the given
	// profile, falling back to the attached session identity.
	AddCommentMsg struct {
		Text   string
		Author *models.UserProfile
	}

	// EditCommentMsg rewrites a comment's text; author-only.
	EditCommentMsg struct {
		CommentID string
		Viewer    string
		Text      string
	}

	// DeleteCommentMsg removes a comment; author-only.
	DeleteCommentMsg struct {
		CommentID string
		Viewer    string
	}

	// CommentStreamState is the stream actor's answer to get requests.
	CommentStreamState struct {
		Comments   []*models.Comment `json:"comments"`
		Subscribed bool              `json:"subscribed"`
		Error      *utils.AppError   `json:"-"`
	}

	// Internal: a snapshot arrived on the subscription.
	commentSnapshotMsg struct {
		comments []*models.Comment
	}
)

// CommentStreamActor mirrors one post's comment sub-collection while
// its panel is expanded. Every push from the store replaces the local
// sequence wholesale; there is no incremental diffing.
type CommentStreamActor struct {
	store   database.Store
	metrics *utils.MetricsCollector
	session *identity.Session
	postID  string

	// fanout, when set, receives every snapshot for delivery to
	// connected websocket clients.
	fanout func(postID string, comments []*models.Comment)

	sub       *database.CommentSubscription
	comments  []*models.Comment
	streamErr *utils.AppError
}

func NewCommentStreamActor(store database.Store, metrics *utils.MetricsCollector, session *identity.Session, postID string, fanout func(string, []*models.Comment)) actor.Actor {
	return &CommentStreamActor{
		store:   store,
		metrics: metrics,
		session: session,
		postID:  postID,
		fanout:  fanout,
	}
}

func (a *CommentStreamActor) Receive(c actor.Context) {
	switch msg := c.Message().(type) {
	case *actor.Stopping:
		// Teardown path shared with collapse: never leak a subscription.
		a.release()
	case *ExpandMsg:
		a.handleExpand(c)
	case *CollapseMsg:
		a.release()
		c.Respond(true)
	case *GetCommentsMsg:
		c.Respond(&CommentStreamState{
			Comments:   a.comments,
			Subscribed: a.sub != nil,
			Error:      a.streamErr,
		})
	case *AddCommentMsg:
		a.handleAddComment(c, msg)
	case *EditCommentMsg:
		a.handleEditComment(c, msg)
	case *DeleteCommentMsg:
		a.handleDeleteComment(c, msg)
	case *commentSnapshotMsg:
		a.comments = msg.comments
		a.streamErr = nil
		if a.fanout != nil {
			a.fanout(a.postID, msg.comments)
		}
	}
}

func (a *CommentStreamActor) handleExpand(c actor.Context) {
	if a.sub != nil {
		// Already expanded; keep the existing subscription.
		c.Respond(true)
		return
	}

	sub, err := a.store.WatchComments(context.Background(), a.postID)
	if err != nil {
		// Localized error state, separate from feed errors.
		a.streamErr = asAppError(err, "comment subscription failed")
		a.metrics.AddOperationError("comment_stream")
		log.Printf("CommentStreamActor: subscription failed for post %s: %v", a.postID, err)
		c.Respond(a.streamErr)
		return
	}
	a.sub = sub

	self := c.Self()
	root := c.ActorSystem().Root
	go func() {
		for snapshot := range sub.Snapshots {
			root.Send(self, &commentSnapshotMsg{comments: snapshot})
		}
	}()

	c.Respond(true)
}

func (a *CommentStreamActor) release() {
	if a.sub != nil {
		a.sub.Cancel()
		a.sub = nil
	}
}

func (a *CommentStreamActor) handleAddComment(c actor.Context, msg *AddCommentMsg) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		// Caught before any remote call.
		c.Respond(utils.NewAppError(utils.ErrInvalidInput, "Comment text is empty", nil))
		return
	}

	author := msg.Author
	if author == nil || author.UID == "" {
		// Fall back from the passed-in profile to the live session.
		current, ok := a.session.Current()
		if !ok {
			c.Respond(utils.NewUnauthenticatedError("commenting requires a signed-in viewer"))
			return
		}
		author = &models.UserProfile{
			UID:         current.UID,
			DisplayName: current.DisplayName,
			PhotoURL:    current.PhotoURL,
		}
	}

	comment := &models.Comment{
		ID:          uuid.New().String(),
		PostID:      a.postID,
		ParentID:    nil, // flat comments only
		AuthorID:    author.UID,
		AuthorName:  author.DisplayName,
		AuthorPhoto: author.PhotoURL,
		Text:        text,
		CreatedAt:   time.Now(),
	}

	start := time.Now()
	if err := a.store.AddComment(context.Background(), comment); err != nil {
		a.metrics.AddOperationError("add_comment")
		c.Respond(asAppError(err, "failed to add comment"))
		return
	}
	a.metrics.AddOperationLatency("add_comment", time.Since(start))
	c.Respond(comment)
}

func (a *CommentStreamActor) handleEditComment(c actor.Context, msg *EditCommentMsg) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		c.Respond(utils.NewAppError(utils.ErrInvalidInput, "Comment text is empty", nil))
		return
	}
	if appErr := a.authorizeAuthor(msg.CommentID, msg.Viewer); appErr != nil {
		c.Respond(appErr)
		return
	}

	if err := a.store.UpdateComment(context.Background(), a.postID, msg.CommentID, text); err != nil {
		a.metrics.AddOperationError("edit_comment")
		c.Respond(asAppError(err, "failed to edit comment"))
		return
	}
	c.Respond(true)
}

func (a *CommentStreamActor) handleDeleteComment(c actor.Context, msg *DeleteCommentMsg) {
	if appErr := a.authorizeAuthor(msg.CommentID, msg.Viewer); appErr != nil {
		c.Respond(appErr)
		return
	}

	if err := a.store.DeleteComment(context.Background(), a.postID, msg.CommentID); err != nil {
		a.metrics.AddOperationError("delete_comment")
		c.Respond(asAppError(err, "failed to delete comment"))
		return
	}
	c.Respond(true)
}

// authorizeAuthor enforces the author-only rule for edits and deletes.
// The store's access rules enforce it again; this check is for fast,
// local feedback.
func (a *CommentStreamActor) authorizeAuthor(commentID, viewer string) *utils.AppError {
	if viewer == "" {
		return utils.NewUnauthenticatedError("comment changes require a signed-in viewer")
	}

	comments := a.comments
	if a.sub == nil {
		// Panel not expanded; read the sub-collection directly.
		listed, err := a.store.ListComments(context.Background(), a.postID)
		if err != nil {
			return asAppError(err, "failed to read comments")
		}
		comments = listed
	}

	for _, comment := range comments {
		if comment.ID == commentID {
			if comment.AuthorID != viewer {
				return utils.NewAppError(utils.ErrForbidden, "Only the comment's author may change it", nil)
			}
			return nil
		}
	}
	return utils.NewAppError(utils.ErrNotFound, "Comment not found", nil)
}

package actors

import (
	"context"
	"log"
	"strings"
	"time"

	"leaflog/internal/database"
	"leaflog/internal/models"
	"leaflog/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// Message types for post operations
type (
	// CreatePostMsg publishes a new reading-log entry. The author's
	// name and photo are copied onto the post at creation time and
	// never synced with later profile edits.
	CreatePostMsg struct {
		Author     *models.UserProfile
		BookTitle  string
		BookAuthor string
		CoverImage string
		Quote      string
		Review     string
		Rating     int
		Location   *models.Location
	}

	// GetPostMsg retrieves a post by ID.
	GetPostMsg struct {
		PostID string
	}

	// DeletePostMsg removes a post; author-only. Comments under the
	// post are not cascaded.
	DeletePostMsg struct {
		PostID string
		Viewer string
	}
)

// PostActor handles post publishing and deletion.
type PostActor struct {
	store   database.Store
	metrics *utils.MetricsCollector
}

func NewPostActor(store database.Store, metrics *utils.MetricsCollector) actor.Actor {
	return &PostActor{store: store, metrics: metrics}
}

func (a *PostActor) Receive(c actor.Context) {
	switch msg := c.Message().(type) {
	case *actor.Started:
		log.Printf("PostActor started")
	case *CreatePostMsg:
		a.handleCreatePost(c, msg)
	case *GetPostMsg:
		a.handleGetPost(c, msg)
	case *DeletePostMsg:
		a.handleDeletePost(c, msg)
	}
}

func (a *PostActor) handleCreatePost(c actor.Context, msg *CreatePostMsg) {
	if msg.Author == nil || msg.Author.UID == "" {
		c.Respond(utils.NewUnauthenticatedError("publishing requires a signed-in viewer"))
		return
	}
	if strings.TrimSpace(msg.BookTitle) == "" || strings.TrimSpace(msg.BookAuthor) == "" {
		c.Respond(utils.NewAppError(utils.ErrInvalidInput, "Book title and author are required", nil))
		return
	}
	if msg.Rating < 1 || msg.Rating > 5 {
		c.Respond(utils.NewAppError(utils.ErrInvalidInput, "Rating must be between 1 and 5", nil))
		return
	}

	start := time.Now()
	post := &models.Post{
		ID:          uuid.New().String(),
		AuthorID:    msg.Author.UID,
		AuthorName:  msg.Author.DisplayName,
		AuthorPhoto: msg.Author.PhotoURL,
		BookTitle:   strings.TrimSpace(msg.BookTitle),
		BookAuthor:  strings.TrimSpace(msg.BookAuthor),
		CoverImage:  msg.CoverImage,
		Quote:       msg.Quote,
		Review:      msg.Review,
		Rating:      msg.Rating,
		Likes:       []string{},
		CreatedAt:   time.Now(),
		Location:    msg.Location,
	}

	if err := a.store.SavePost(context.Background(), post); err != nil {
		a.metrics.AddOperationError("create_post")
		c.Respond(asAppError(err, "failed to publish post"))
		return
	}

	log.Printf("PostActor: %s published post %s (%s)", post.AuthorID, post.ID, post.BookTitle)
	a.metrics.AddOperationLatency("create_post", time.Since(start))
	c.Respond(post)
}

func (a *PostActor) handleGetPost(c actor.Context, msg *GetPostMsg) {
	post, err := a.store.GetPost(context.Background(), msg.PostID)
	if err != nil {
		c.Respond(asAppError(err, "failed to load post"))
		return
	}
	c.Respond(post)
}

func (a *PostActor) handleDeletePost(c actor.Context, msg *DeletePostMsg) {
	if msg.Viewer == "" {
		c.Respond(utils.NewUnauthenticatedError("deleting requires a signed-in viewer"))
		return
	}

	post, err := a.store.GetPost(context.Background(), msg.PostID)
	if err != nil {
		c.Respond(asAppError(err, "failed to load post"))
		return
	}
	if post.AuthorID != msg.Viewer {
		c.Respond(utils.NewAppError(utils.ErrForbidden, "Only the post's author may delete it", nil))
		return
	}

	if err := a.store.DeletePost(context.Background(), msg.PostID); err != nil {
		a.metrics.AddOperationError("delete_post")
		c.Respond(asAppError(err, "failed to delete post"))
		return
	}
	c.Respond(true)
}

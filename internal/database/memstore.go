// internal/database/memstore.go
package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"leaflog/internal/models"
	"leaflog/internal/utils"
)

// MemStore is an in-memory Store used for local development and tests,
// mirroring the Mongo implementation's semantics including the atomic
// follow batch and realtime comment subscriptions.
type MemStore struct {
	mu       sync.Mutex
	profiles map[string]*models.UserProfile
	posts    map[string]*models.Post
	comments map[string][]*models.Comment // postID -> ordered comments

	watcherSeq int
	watchers   map[string]map[int]chan []*models.Comment // postID -> watcher set
}

func NewMemStore() *MemStore {
	return &MemStore{
		profiles: make(map[string]*models.UserProfile),
		posts:    make(map[string]*models.Post),
		comments: make(map[string][]*models.Comment),
		watchers: make(map[string]map[int]chan []*models.Comment),
	}
}

var _ Store = (*MemStore)(nil)

func (s *MemStore) GetProfile(ctx context.Context, uid string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[uid]
	if !ok {
		return nil, utils.NewAppError(utils.ErrNotFound, "Profile not found", nil)
	}
	return p.Clone(), nil
}

func (s *MemStore) SaveProfile(ctx context.Context, profile *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.UID] = profile.Clone()
	return nil
}

func (s *MemStore) SetFollow(ctx context.Context, viewerID, targetID string, follow bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	viewer, ok := s.profiles[viewerID]
	if !ok {
		return utils.NewAppError(utils.ErrNotFound, "Viewer profile not found", nil)
	}
	target, ok := s.profiles[targetID]
	if !ok {
		return utils.NewAppError(utils.ErrNotFound, "Target profile not found", nil)
	}

	if follow {
		target.Followers = addToSet(target.Followers, viewerID)
		viewer.Following = addToSet(viewer.Following, targetID)
	} else {
		target.Followers = removeFromSet(target.Followers, viewerID)
		viewer.Following = removeFromSet(viewer.Following, targetID)
	}
	return nil
}

func (s *MemStore) SavePost(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[post.ID] = post.Clone()
	return nil
}

func (s *MemStore) GetPost(ctx context.Context, id string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	return p.Clone(), nil
}

func (s *MemStore) DeletePost(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	delete(s.posts, id)
	return nil
}

func (s *MemStore) FeedPage(ctx context.Context, authors []string, before *time.Time, limit int) ([]*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var allowed map[string]bool
	if authors != nil {
		allowed = make(map[string]bool, len(authors))
		for _, a := range authors {
			allowed[a] = true
		}
	}

	var posts []*models.Post
	for _, p := range s.posts {
		if allowed != nil && !allowed[p.AuthorID] {
			continue
		}
		if before != nil && !p.CreatedAt.Before(*before) {
			continue
		}
		posts = append(posts, p.Clone())
	}

	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (s *MemStore) RecentPosts(ctx context.Context, limit int) ([]*models.Post, error) {
	return s.FeedPage(ctx, nil, nil, limit)
}

func (s *MemStore) LocatedPosts(ctx context.Context, limit int) ([]*models.Post, error) {
	posts, err := s.FeedPage(ctx, nil, nil, 0)
	if err != nil {
		return nil, err
	}
	located := posts[:0]
	for _, p := range posts {
		if p.Location != nil {
			located = append(located, p)
		}
	}
	if limit > 0 && len(located) > limit {
		located = located[:limit]
	}
	return located, nil
}

func (s *MemStore) UpdatePostLikes(ctx context.Context, postID, uid string, like bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	if like {
		p.Likes = addToSet(p.Likes, uid)
	} else {
		p.Likes = removeFromSet(p.Likes, uid)
	}
	return nil
}

func (s *MemStore) AddComment(ctx context.Context, comment *models.Comment) error {
	s.mu.Lock()
	s.comments[comment.PostID] = append(s.comments[comment.PostID], cloneComment(comment))
	s.mu.Unlock()

	s.notifyWatchers(comment.PostID)
	return nil
}

func (s *MemStore) UpdateComment(ctx context.Context, postID, commentID, text string) error {
	s.mu.Lock()
	found := false
	for _, c := range s.comments[postID] {
		if c.ID == commentID {
			c.Text = text
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return utils.NewAppError(utils.ErrNotFound, "Comment not found", nil)
	}
	s.notifyWatchers(postID)
	return nil
}

func (s *MemStore) DeleteComment(ctx context.Context, postID, commentID string) error {
	s.mu.Lock()
	list := s.comments[postID]
	found := false
	for i, c := range list {
		if c.ID == commentID {
			s.comments[postID] = append(list[:i], list[i+1:]...)
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return utils.NewAppError(utils.ErrNotFound, "Comment not found", nil)
	}
	s.notifyWatchers(postID)
	return nil
}

func (s *MemStore) ListComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotCommentsLocked(postID), nil
}

func (s *MemStore) WatchComments(ctx context.Context, postID string) (*CommentSubscription, error) {
	s.mu.Lock()
	s.watcherSeq++
	id := s.watcherSeq
	ch := make(chan []*models.Comment, 8)
	if s.watchers[postID] == nil {
		s.watchers[postID] = make(map[int]chan []*models.Comment)
	}
	s.watchers[postID][id] = ch
	// Initial snapshot on subscribe.
	ch <- s.snapshotCommentsLocked(postID)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if set, ok := s.watchers[postID]; ok {
			if _, ok := set[id]; ok {
				delete(set, id)
				close(ch)
			}
			if len(set) == 0 {
				delete(s.watchers, postID)
			}
		}
		s.mu.Unlock()
	}
	return NewCommentSubscription(ch, cancel), nil
}

func (s *MemStore) notifyWatchers(postID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.snapshotCommentsLocked(postID)
	for _, ch := range s.watchers[postID] {
		select {
		case ch <- snapshot:
		default:
			// Slow subscriber; it will catch up on the next change.
		}
	}
}

func (s *MemStore) snapshotCommentsLocked(postID string) []*models.Comment {
	list := s.comments[postID]
	out := make([]*models.Comment, len(list))
	for i, c := range list {
		out[i] = cloneComment(c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func cloneComment(c *models.Comment) *models.Comment {
	cp := *c
	if c.ParentID != nil {
		pid := *c.ParentID
		cp.ParentID = &pid
	}
	return &cp
}

func addToSet(set []string, id string) []string {
	for _, v := range set {
		if v == id {
			return set
		}
	}
	return append(set, id)
}

func removeFromSet(set []string, id string) []string {
	for i, v := range set {
		if v == id {
			return append(set[:i], set[i+1:]...)
		}
	}
	return set
}

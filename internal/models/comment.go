package models

import "time"

// Comment lives in a per-post sub-collection. ParentID is reserved for
// threading and is always nil today; comments render flat.
type Comment struct {
	ID          string    `json:"id"`
	PostID      string    `json:"postId"`
	ParentID    *string   `json:"parentId,omitempty"`
	AuthorID    string    `json:"authorId"`
	AuthorName  string    `json:"authorName"`
	AuthorPhoto string    `json:"authorPhoto"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"createdAt"`
}

package models

import "time"

// Location is an optional geotag attached to a post.
type Location struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Name string  `json:"name"`
}

// Post is one reading-log entry. AuthorName and AuthorPhoto are copied
// from the author's profile at publish time and are not rewritten when
// the profile changes later.
type Post struct {
	ID          string    `json:"id"`
	AuthorID    string    `json:"authorId"`
	AuthorName  string    `json:"authorName"`
	AuthorPhoto string    `json:"authorPhoto"`
	BookTitle   string    `json:"bookTitle"`
	BookAuthor  string    `json:"bookAuthor"`
	CoverImage  string    `json:"coverImage"`
	Quote       string    `json:"quote"`
	Review      string    `json:"review"`
	Rating      int       `json:"rating"`
	Likes       []string  `json:"likes"`
	CreatedAt   time.Time `json:"createdAt"`
	Location    *Location `json:"location,omitempty"`
}

// LikedBy reports whether uid is in the post's likes set.
func (p *Post) LikedBy(uid string) bool {
	for _, id := range p.Likes {
		if id == uid {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the post.
func (p *Post) Clone() *Post {
	c := *p
	c.Likes = append([]string(nil), p.Likes...)
	if p.Location != nil {
		loc := *p.Location
		c.Location = &loc
	}
	return &c
}

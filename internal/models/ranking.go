package models

// RankedBook is a derived aggregate, never persisted: total likes across
// the sampled posts that share an exact book title.
type RankedBook struct {
	Title      string `json:"title"`
	Author     string `json:"author"`
	CoverImage string `json:"coverImage"`
	TotalLikes int    `json:"totalLikes"`
}

// FeedMode selects which posts a feed shows.
type FeedMode string

const (
	// FeedGlobal shows every post, newest first.
	FeedGlobal FeedMode = "global"
	// FeedFollowing restricts the feed to authors the viewer follows,
	// plus the viewer's own posts.
	FeedFollowing FeedMode = "following"
)

package models

import "time"

// UserProfile is the stored profile for an authenticated reader.
// Followers and Following hold user identifiers; each identifier appears
// at most once per set.
type UserProfile struct {
	UID         string    `json:"uid"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	PhotoURL    string    `json:"photoURL"`
	Bio         string    `json:"bio"`
	Followers   []string  `json:"followers"`
	Following   []string  `json:"following"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Clone returns a deep copy, used to capture pre-mutation snapshots
// before optimistic updates.
func (p *UserProfile) Clone() *UserProfile {
	c := *p
	c.Followers = append([]string(nil), p.Followers...)
	c.Following = append([]string(nil), p.Following...)
	return &c
}

// IsFollowing reports whether the profile's owner follows uid.
func (p *UserProfile) IsFollowing(uid string) bool {
	for _, id := range p.Following {
		if id == uid {
			return true
		}
	}
	return false
}

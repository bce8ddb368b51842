package models

import (
	"maps"
	"slices"
)

type Comment struct {
	ID string `json:"id"`
	Author
	Text      string            `json:"text"`
	CreatedAt string            `json:"createdAt"`
	Likes     int               `json:"likes"`
	LikedBy   LikeSet           `json:"likedBy,omitempty"`
	Replies   map[string]*Reply `json:"replies,omitempty"`
}

// Reply is a comment one level down. Replies cannot be replied to.
type Reply struct {
	ID string `json:"id"`
	Author
	Text      string  `json:"text"`
	CreatedAt string  `json:"createdAt"`
	Likes     int     `json:"likes"`
	LikedBy   LikeSet `json:"likedBy,omitempty"`
}

// ReplyList returns the replies oldest first.
func (c *Comment) ReplyList() []Reply {
	out := make([]Reply, 0, len(c.Replies))
	for _, id := range slices.Sorted(maps.Keys(c.Replies)) {
		if r := c.Replies[id]; r != nil {
			out = append(out, *r)
		}
	}
	return out
}

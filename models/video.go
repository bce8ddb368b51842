package models

import (
	"maps"
	"slices"
)

type Video struct {
	ID string `json:"id"`
	Author
	VideoURL    string              `json:"videoUrl"`
	Description string              `json:"description"`
	Likes       int                 `json:"likes"`
	LikedBy     LikeSet             `json:"likedBy,omitempty"`
	Comments    map[string]*Comment `json:"comments,omitempty"`
	CreatedAt   string              `json:"createdAt"`
}

// CommentList returns the comments oldest first. Ids sort by creation time,
// so key order is insertion order.
func (v *Video) CommentList() []Comment {
	out := make([]Comment, 0, len(v.Comments))
	for _, id := range slices.Sorted(maps.Keys(v.Comments)) {
		if c := v.Comments[id]; c != nil {
			out = append(out, *c)
		}
	}
	return out
}

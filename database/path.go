package database

import (
	"strings"

	"github.com/pkg/errors"
)

// Top-level collections.
const (
	Users  = "users"
	Videos = "videos"
)

// Path addresses a node in the record tree, e.g. videos/{vid}/likedBy.
type Path struct {
	segs []string
}

func NewPath(segs ...string) Path {
	return Path{segs: append([]string(nil), segs...)}
}

// ParsePath splits a slash separated path and validates it.
func ParsePath(s string) (Path, error) {
	p := NewPath(strings.Split(strings.Trim(s, "/"), "/")...)
	if err := p.Validate(); err != nil {
		return Path{}, err
	}
	return p, nil
}

func UserPath(userID string) Path {
	return NewPath(Users, userID)
}

func VideoPath(videoID string) Path {
	return NewPath(Videos, videoID)
}

func CommentsPath(videoID string) Path {
	return VideoPath(videoID).Child("comments")
}

func CommentPath(videoID, commentID string) Path {
	return CommentsPath(videoID).Child(commentID)
}

func RepliesPath(videoID, commentID string) Path {
	return CommentPath(videoID, commentID).Child("replies")
}

func ReplyPath(videoID, commentID, replyID string) Path {
	return RepliesPath(videoID, commentID).Child(replyID)
}

// Child returns a new path one level below p.
func (p Path) Child(seg string) Path {
	segs := make([]string, len(p.segs), len(p.segs)+1)
	copy(segs, p.segs)
	return Path{segs: append(segs, seg)}
}

func (p Path) Segments() []string {
	return append([]string(nil), p.segs...)
}

func (p Path) Depth() int {
	return len(p.segs)
}

func (p Path) String() string {
	return strings.Join(p.segs, "/")
}

// Validate rejects empty paths and segments that are empty or contain
// . $ # [ ] or /.
func (p Path) Validate() error {
	if len(p.segs) == 0 {
		return errors.Wrap(ErrInvalidPath, "empty path")
	}
	for _, s := range p.segs {
		if s == "" {
			return errors.Wrapf(ErrInvalidPath, "empty segment in %q", p.String())
		}
		if strings.ContainsAny(s, ".$#[]/") {
			return errors.Wrapf(ErrInvalidPath, "segment %q", s)
		}
	}
	return nil
}

// record splits p into collection, record id and the field path inside the
// record. id is empty for collection paths.
func (p Path) record() (collection, id string, field []string) {
	collection = p.segs[0]
	if len(p.segs) > 1 {
		id = p.segs[1]
		field = p.segs[2:]
	}
	return collection, id, field
}

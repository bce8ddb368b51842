package service

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/hamas2/hamak/database"
	"github.com/hamas2/hamak/events"
	"github.com/hamas2/hamak/models"
	"github.com/pkg/errors"
)

type TargetKind string

const (
	TargetVideo   TargetKind = "video"
	TargetComment TargetKind = "comment"
	TargetReply   TargetKind = "reply"
)

// Target identifies a likeable entity.
type Target struct {
	Kind      TargetKind
	VideoID   string
	CommentID string
	ReplyID   string
}

func VideoTarget(videoID string) Target {
	return Target{Kind: TargetVideo, VideoID: videoID}
}

func CommentTarget(videoID, commentID string) Target {
	return Target{Kind: TargetComment, VideoID: videoID, CommentID: commentID}
}

func ReplyTarget(videoID, commentID, replyID string) Target {
	return Target{Kind: TargetReply, VideoID: videoID, CommentID: commentID, ReplyID: replyID}
}

func (t Target) Path() database.Path {
	switch t.Kind {
	case TargetComment:
		return database.CommentPath(t.VideoID, t.CommentID)
	case TargetReply:
		return database.ReplyPath(t.VideoID, t.CommentID, t.ReplyID)
	default:
		return database.VideoPath(t.VideoID)
	}
}

func (t Target) eventType() events.Type {
	switch t.Kind {
	case TargetComment:
		return events.CommentLiked
	case TargetReply:
		return events.ReplyLiked
	default:
		return events.VideoLiked
	}
}

type LikeState struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

// ToggleLike flips userID's membership in the target's likedBy set and
// stores likes = |likedBy| in the same atomic update.
func (s *Service) ToggleLike(ctx context.Context, target Target, userID string) (LikeState, error) {
	if userID == "" {
		return LikeState{}, ErrNotSignedIn
	}

	var state LikeState
	err := s.store.Update(ctx, target.Path(), func(current json.RawMessage) (any, error) {
		if current == nil {
			return nil, ErrNotFound
		}
		var node map[string]json.RawMessage
		if err := json.Unmarshal(current, &node); err != nil {
			return nil, errors.Wrapf(err, "decode %s", target.Kind)
		}

		var likedBy models.LikeSet
		if raw, ok := node["likedBy"]; ok {
			if err := json.Unmarshal(raw, &likedBy); err != nil {
				return nil, errors.Wrap(err, "decode likedBy")
			}
		}
		liked := likedBy.Toggle(userID)
		state = LikeState{Liked: liked, Likes: likedBy.Count()}

		if len(likedBy) == 0 {
			delete(node, "likedBy")
		} else {
			raw, err := json.Marshal(likedBy)
			if err != nil {
				return nil, err
			}
			node["likedBy"] = raw
		}
		node["likes"] = json.RawMessage(strconv.Itoa(state.Likes))
		return node, nil
	})
	if errors.Is(err, ErrNotFound) {
		return LikeState{}, errors.Wrapf(ErrNotFound, "%s %s", target.Kind, target.Path())
	}
	if err != nil {
		return LikeState{}, errors.Wrapf(err, "toggle like on %s", target.Path())
	}

	s.emit(ctx, events.Event{
		Type:    target.eventType(),
		VideoID: target.VideoID,
		UserID:  userID,
		Payload: map[string]any{
			"commentId": target.CommentID,
			"replyId":   target.ReplyID,
			"liked":     state.Liked,
			"likes":     state.Likes,
		},
	})
	return state, nil
}

package service

import (
	"context"
	"strings"

	"github.com/hamas2/hamak/database"
	"github.com/hamas2/hamak/events"
	"github.com/hamas2/hamak/models"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Thread is a comment with its replies in creation order.
type Thread struct {
	models.Comment
	Replies []models.Reply `json:"replies"`
}

// AddComment stores a new comment on videoID and returns the video's
// comments as now stored.
func (s *Service) AddComment(ctx context.Context, videoID, userID, text string) ([]Thread, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	author, err := s.author(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.exists(ctx, database.VideoPath(videoID)); err != nil {
		return nil, err
	}

	comment := models.Comment{
		ID:        s.newID(),
		Author:    author,
		Text:      text,
		CreatedAt: s.timestamp(),
	}
	if err := s.store.Set(ctx, database.CommentPath(videoID, comment.ID), comment); err != nil {
		return nil, errors.Wrap(err, "save comment")
	}

	s.emit(ctx, events.Event{Type: events.CommentAdded, VideoID: videoID, UserID: userID, Payload: comment})
	return s.ListComments(ctx, videoID)
}

// AddReply stores a reply under an existing comment.
func (s *Service) AddReply(ctx context.Context, videoID, commentID, userID, text string) ([]Thread, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	author, err := s.author(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.exists(ctx, database.CommentPath(videoID, commentID)); err != nil {
		return nil, err
	}

	reply := models.Reply{
		ID:        s.newID(),
		Author:    author,
		Text:      text,
		CreatedAt: s.timestamp(),
	}
	if err := s.store.Set(ctx, database.ReplyPath(videoID, commentID, reply.ID), reply); err != nil {
		return nil, errors.Wrap(err, "save reply")
	}

	s.emit(ctx, events.Event{
		Type:    events.ReplyAdded,
		VideoID: videoID,
		UserID:  userID,
		Payload: map[string]any{"commentId": commentID, "reply": reply},
	})
	return s.ListComments(ctx, videoID)
}

// ListComments returns the comments of a video oldest first.
func (s *Service) ListComments(ctx context.Context, videoID string) ([]Thread, error) {
	children, err := s.store.List(ctx, database.CommentsPath(videoID))
	if err != nil {
		return nil, errors.Wrap(err, "list comments")
	}
	if len(children) == 0 {
		if err := s.exists(ctx, database.VideoPath(videoID)); err != nil {
			return nil, err
		}
	}

	threads := make([]Thread, 0, len(children))
	for _, child := range children {
		var c models.Comment
		if err := child.Decode(&c); err != nil {
			logrus.WithError(err).WithField("videoId", videoID).Warn("skipping malformed comment")
			continue
		}
		if c.ID == "" {
			c.ID = child.Key
		}
		threads = append(threads, Thread{Comment: c, Replies: c.ReplyList()})
	}
	return threads, nil
}

package service

import (
	"context"
	"strings"

	"github.com/hamas2/hamak/database"
	"github.com/hamas2/hamak/events"
	"github.com/hamas2/hamak/models"
	"github.com/hamas2/hamak/storage"
	"github.com/pkg/errors"
)

type Publication struct {
	Description string
	File        *storage.File
}

// Publish validates and uploads a clip, then stores the video with a
// snapshot of the author.
func (s *Service) Publish(ctx context.Context, userID string, p Publication) (*models.Video, error) {
	if p.File == nil || p.File.Reader == nil {
		return nil, ErrNoFile
	}
	description := strings.TrimSpace(p.Description)
	if description == "" {
		return nil, ErrEmptyDescription
	}
	f, err := s.limits.Check(*p.File, storage.KindVideo)
	if err != nil {
		return nil, err
	}
	author, err := s.author(ctx, userID)
	if err != nil {
		return nil, err
	}

	videoID := s.newID()
	finish := s.trackProgress(ctx, userID, videoID)
	url, err := s.uploader.Upload(ctx, f, storage.VideosFolder)
	finish(err == nil)
	if err != nil {
		return nil, errors.Wrap(err, "upload video")
	}

	video := &models.Video{
		ID:          videoID,
		Author:      author,
		VideoURL:    url,
		Description: description,
		CreatedAt:   s.timestamp(),
	}
	if err := s.store.Set(ctx, database.VideoPath(video.ID), video); err != nil {
		return nil, errors.Wrap(err, "save video")
	}

	s.emit(ctx, events.Event{Type: events.VideoPublished, VideoID: video.ID, UserID: userID, Payload: video})
	return video, nil
}

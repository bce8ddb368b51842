package service

import (
	"context"

	"github.com/hamas2/hamak/database"
	"github.com/hamas2/hamak/models"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Feed returns every video, most recently created first. Order comes from
// the store's key order, not from createdAt.
func (s *Service) Feed(ctx context.Context) ([]models.Video, error) {
	children, err := s.store.List(ctx, database.NewPath(database.Videos))
	if err != nil {
		return nil, errors.Wrap(err, "list videos")
	}

	videos := make([]models.Video, 0, len(children))
	for i := len(children) - 1; i >= 0; i-- {
		var v models.Video
		if err := children[i].Decode(&v); err != nil {
			logrus.WithError(err).WithField("videoId", children[i].Key).Warn("skipping malformed video")
			continue
		}
		if v.ID == "" {
			v.ID = children[i].Key
		}
		videos = append(videos, v)
	}
	return videos, nil
}

// GetVideo loads one video.
func (s *Service) GetVideo(ctx context.Context, videoID string) (*models.Video, error) {
	var v models.Video
	found, err := s.store.Get(ctx, database.VideoPath(videoID), &v)
	if err != nil {
		return nil, errors.Wrap(err, "load video")
	}
	if !found {
		return nil, errors.Wrap(ErrNotFound, "video "+videoID)
	}
	if v.ID == "" {
		v.ID = videoID
	}
	return &v, nil
}

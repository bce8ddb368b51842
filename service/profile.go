package service

import (
	"context"

	"github.com/hamas2/hamak/database"
	"github.com/hamas2/hamak/models"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// LoadProfile fetches the user and the user's videos concurrently. A
// missing user yields Profile.User == nil with the videos still filled in.
func (s *Service) LoadProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var (
		user   *models.User
		videos []models.Video
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var u models.User
		found, err := s.store.Get(gctx, database.UserPath(userID), &u)
		if err != nil {
			return errors.Wrap(err, "load user")
		}
		if found {
			if u.ID == "" {
				u.ID = userID
			}
			user = &u
		}
		return nil
	})
	g.Go(func() error {
		var err error
		videos, err = s.UserVideos(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	profile := &models.Profile{User: user, Videos: videos, VideoCount: len(videos)}
	for _, v := range videos {
		profile.TotalLikes += v.Likes
	}
	return profile, nil
}

// UserVideos returns the videos uploaded by userID in feed order.
func (s *Service) UserVideos(ctx context.Context, userID string) ([]models.Video, error) {
	feed, err := s.Feed(ctx)
	if err != nil {
		return nil, err
	}
	videos := make([]models.Video, 0)
	for _, v := range feed {
		if v.UserID == userID {
			videos = append(videos, v)
		}
	}
	return videos, nil
}

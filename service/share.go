package service

import (
	"context"
	"net/url"

	"github.com/hamas2/hamak/database"
	"github.com/pkg/errors"
)

// ShareURL returns the public link to a video: {base}?video={id}.
func (s *Service) ShareURL(ctx context.Context, videoID string) (string, error) {
	if err := s.exists(ctx, database.VideoPath(videoID)); err != nil {
		return "", err
	}
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return "", errors.Wrap(err, "parse public base url")
	}
	q := u.Query()
	q.Set("video", videoID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

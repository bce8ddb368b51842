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

type Registration struct {
	Name     string
	Bio      string
	Gender   string
	Location *models.Location
	// Picture is an optional profile picture.
	Picture *storage.File
}

// Register validates r, uploads the picture if any and stores a new user.
func (s *Service) Register(ctx context.Context, r Registration) (*models.User, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if loc := r.Location; loc != nil {
		if loc.Latitude < -90 || loc.Latitude > 90 || loc.Longitude < -180 || loc.Longitude > 180 {
			return nil, ErrInvalidLocation
		}
	}

	var picURL string
	if r.Picture != nil && r.Picture.Reader != nil {
		f, err := s.limits.Check(*r.Picture, storage.KindImage)
		if err != nil {
			return nil, err
		}
		if picURL, err = s.uploader.Upload(ctx, f, storage.ProfilePicsFolder); err != nil {
			return nil, errors.Wrap(err, "upload profile picture")
		}
	}

	user := &models.User{
		ID:         s.newID(),
		Name:       name,
		Bio:        strings.TrimSpace(r.Bio),
		Gender:     strings.TrimSpace(r.Gender),
		ProfilePic: picURL,
		Location:   r.Location,
		CreatedAt:  s.timestamp(),
	}
	if err := s.store.Set(ctx, database.UserPath(user.ID), user); err != nil {
		return nil, errors.Wrap(err, "save user")
	}

	s.emit(ctx, events.Event{Type: events.UserRegistered, UserID: user.ID, Payload: user})
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	found, err := s.store.Get(ctx, database.UserPath(userID), &u)
	if err != nil {
		return nil, errors.Wrap(err, "load user")
	}
	if !found {
		return nil, errors.Wrap(ErrNotFound, "user "+userID)
	}
	if u.ID == "" {
		u.ID = userID
	}
	return &u, nil
}

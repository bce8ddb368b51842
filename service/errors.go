package service

import (
	"errors"

	"github.com/hamas2/hamak/storage"
)

var (
	ErrEmptyText        = errors.New("text must not be empty")
	ErrEmptyName        = errors.New("name is required")
	ErrEmptyDescription = errors.New("description is required")
	ErrNoFile           = errors.New("a video file is required")
	ErrInvalidLocation  = errors.New("location is out of range")
	ErrNotFound         = errors.New("not found")
	ErrNotSignedIn      = errors.New("sign in required")
	ErrUnknownUser      = errors.New("session user does not exist")

	ErrFileTooLarge     = storage.ErrTooLarge
	ErrUnsupportedMedia = storage.ErrUnsupportedType
)

package main

import (
	"os"
	"strings"

	"github.com/hamas2/hamak/service"
	"github.com/pkg/errors"
)

// Same ceilings the server enforces.
const (
	maxVideoBytes = 100 << 20
	maxImageBytes = 10 << 20
)

// These checks run before any request is made.

func requireText(text string, empty error) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", empty
	}
	return text, nil
}

// openLimited opens a regular file no larger than limit.
func openLimited(path string, limit int64) (*os.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "stat file")
	}
	if !info.Mode().IsRegular() {
		return nil, errors.Errorf("%s is not a regular file", path)
	}
	if info.Size() > limit {
		return nil, errors.Wrapf(service.ErrFileTooLarge, "%s is %d MiB, the limit is %d MiB", path, info.Size()>>20, limit>>20)
	}
	return os.Open(path)
}

func validLocation(lat, lng float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return service.ErrInvalidLocation
	}
	return nil
}

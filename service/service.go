package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hamas2/hamak/database"
	"github.com/hamas2/hamak/events"
	"github.com/hamas2/hamak/models"
	"github.com/hamas2/hamak/storage"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// timeLayout is ISO-8601 in UTC with millisecond precision.
const timeLayout = "2006-01-02T15:04:05.000Z"

// Service implements the engagement operations on top of a record store
// and a blob store.
type Service struct {
	store    database.Store
	uploader storage.Uploader
	events   events.Publisher
	limits   storage.Limits
	baseURL  string

	progressInterval time.Duration
	now              func() time.Time
	newID            func() string
}

type Options struct {
	Limits        storage.Limits
	PublicBaseURL string
	Events        events.Publisher
	// ProgressInterval is the tick of the cosmetic upload progress.
	ProgressInterval time.Duration
}

func New(store database.Store, uploader storage.Uploader, opts Options) *Service {
	s := &Service{
		store:            store,
		uploader:         uploader,
		events:           opts.Events,
		limits:           opts.Limits,
		baseURL:          opts.PublicBaseURL,
		progressInterval: opts.ProgressInterval,
		now:              time.Now,
		newID:            newID,
	}
	if s.events == nil {
		s.events = events.Nop{}
	}
	if s.limits == (storage.Limits{}) {
		s.limits = storage.Limits{MaxVideoBytes: 100 << 20, MaxImageBytes: 10 << 20}
	}
	if s.progressInterval <= 0 {
		s.progressInterval = 200 * time.Millisecond
	}
	return s
}

// newID returns a UUIDv7, which sorts by creation time.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(timeLayout)
}

// emit publishes e. Failures are logged and never reach the caller.
func (s *Service) emit(ctx context.Context, e events.Event) {
	e.At = s.now().UTC()
	if err := s.events.Publish(ctx, e); err != nil {
		logrus.WithError(err).WithField("event", e.Type).Warn("failed to publish event")
	}
}

// author loads the snapshot for the acting user.
func (s *Service) author(ctx context.Context, userID string) (models.Author, error) {
	if userID == "" {
		return models.Author{}, ErrNotSignedIn
	}
	var u models.User
	found, err := s.store.Get(ctx, database.UserPath(userID), &u)
	if err != nil {
		return models.Author{}, errors.Wrap(err, "load author")
	}
	if !found {
		return models.Author{}, errors.Wrap(ErrUnknownUser, userID)
	}
	if u.ID == "" {
		u.ID = userID
	}
	return u.Author(), nil
}

func (s *Service) exists(ctx context.Context, p database.Path) error {
	found, err := s.store.Get(ctx, p, nil)
	if err != nil {
		return err
	}
	if !found {
		return errors.Wrap(ErrNotFound, p.String())
	}
	return nil
}

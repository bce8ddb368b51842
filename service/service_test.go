package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hamas2/hamak/database"
	"github.com/hamas2/hamak/events"
	"github.com/hamas2/hamak/models"
	"github.com/hamas2/hamak/storage"
	"github.com/stretchr/testify/require"
)

var mp4Clip = append([]byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom"), make([]byte, 256)...)

// countingStore counts every call that reaches the backend.
type countingStore struct {
	database.Store
	calls atomic.Int64
}

func (c *countingStore) Get(ctx context.Context, p database.Path, out any) (bool, error) {
	c.calls.Add(1)
	return c.Store.Get(ctx, p, out)
}

func (c *countingStore) Set(ctx context.Context, p database.Path, v any) error {
	c.calls.Add(1)
	return c.Store.Set(ctx, p, v)
}

func (c *countingStore) List(ctx context.Context, p database.Path) ([]database.Child, error) {
	c.calls.Add(1)
	return c.Store.List(ctx, p)
}

func (c *countingStore) Update(ctx context.Context, p database.Path, fn database.UpdateFunc) error {
	c.calls.Add(1)
	return c.Store.Update(ctx, p, fn)
}

type fixture struct {
	svc      *Service
	store    *countingStore
	uploader *storage.MemoryUploader
	events   *events.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := &countingStore{Store: database.NewMemoryStore()}
	uploader := storage.NewMemoryUploader("mem://")
	rec := &events.Recorder{}

	svc := New(store, uploader, Options{
		Limits:           storage.Limits{MaxVideoBytes: 4096, MaxImageBytes: 1024},
		PublicBaseURL:    "https://hamak.example/",
		Events:           rec,
		ProgressInterval: time.Millisecond,
	})

	var seq atomic.Int64
	svc.newID = func() string { return fmt.Sprintf("id%04d", seq.Add(1)) }
	svc.now = func() time.Time { return time.Date(2024, 3, 9, 8, 7, 6, 5_000_000, time.UTC) }

	return &fixture{svc: svc, store: store, uploader: uploader, events: rec}
}

func (f *fixture) register(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), Registration{Name: name})
	require.NoError(t, err)
	return u
}

func (f *fixture) seedVideo(t *testing.T, id, userID string, likes int) {
	t.Helper()
	v := models.Video{ID: id, Author: models.Author{UserID: userID}, Likes: likes, Description: id}
	require.NoError(t, f.store.Set(context.Background(), database.VideoPath(id), v))
}

func (f *fixture) video(t *testing.T, id string) map[string]json.RawMessage {
	t.Helper()
	var raw map[string]json.RawMessage
	found, err := f.store.Get(context.Background(), database.VideoPath(id), &raw)
	require.NoError(t, err)
	require.True(t, found)
	return raw
}

func clip() *storage.File {
	return &storage.File{Reader: bytes.NewReader(mp4Clip), Name: "clip.mp4", Size: int64(len(mp4Clip))}
}

// slowUploader blocks until released so progress has time to tick.
type slowUploader struct {
	storage.Uploader
	wait time.Duration
}

func (s slowUploader) Upload(ctx context.Context, f storage.File, folder string) (string, error) {
	time.Sleep(s.wait)
	return s.Uploader.Upload(ctx, f, folder)
}


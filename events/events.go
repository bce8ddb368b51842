package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/multierr"
)

type Type string

const (
	UserRegistered Type = "user_registered"
	VideoPublished Type = "video_published"
	VideoLiked     Type = "video_liked"
	CommentAdded   Type = "comment_added"
	ReplyAdded     Type = "reply_added"
	CommentLiked   Type = "comment_liked"
	ReplyLiked     Type = "reply_liked"
	UploadProgress Type = "upload_progress"
)

// Event describes a confirmed change. VideoID routes it to subscribers of
// that video; Recipient, when set, limits delivery to one user.
type Event struct {
	Type      Type      `json:"type"`
	VideoID   string    `json:"videoId,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	Recipient string    `json:"-"`
	Payload   any       `json:"payload,omitempty"`
	At        time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Multi fans an event out to every publisher and collects their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var err error
	for _, p := range m {
		err = multierr.Append(err, p.Publish(ctx, e))
	}
	return err
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfType returns the recorded events of type t.
func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

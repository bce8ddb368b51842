package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failing struct{ err error }

func (f failing) Publish(context.Context, Event) error { return f.err }

func TestMultiPublishesToAll(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	e := Event{Type: VideoLiked, VideoID: "v1"}

	require.NoError(t, Multi{a, Nop{}, b}.Publish(context.Background(), e))
	assert.Equal(t, []Event{e}, a.Events())
	assert.Equal(t, []Event{e}, b.Events())
}

func TestMultiCollectsErrors(t *testing.T) {
	errA, errB := errors.New("a"), errors.New("b")
	rec := &Recorder{}

	err := Multi{failing{errA}, rec, failing{errB}}.Publish(context.Background(), Event{Type: CommentAdded})
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Len(t, rec.Events(), 1)
}

func TestRecorderOfType(t *testing.T) {
	rec := &Recorder{}
	ctx := context.Background()
	rec.Publish(ctx, Event{Type: VideoLiked})
	rec.Publish(ctx, Event{Type: CommentAdded})
	rec.Publish(ctx, Event{Type: VideoLiked})

	assert.Len(t, rec.OfType(VideoLiked), 2)
	assert.Empty(t, rec.OfType(ReplyAdded))
}

type fakeChannel struct {
	exchange, key string
	msg           amqp.Publishing
	closed        bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestAMQPPublishRoutesByType(t *testing.T) {
	ch := &fakeChannel{}
	p := &AMQPPublisher{exchange: "hamak.events", channel: ch}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	err := p.Publish(context.Background(), Event{Type: ReplyAdded, VideoID: "v1", Recipient: "u9", At: at})
	require.NoError(t, err)

	assert.Equal(t, "hamak.events", ch.exchange)
	assert.Equal(t, "reply_added", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, at, ch.msg.Timestamp)

	var body map[string]any
	require.NoError(t, json.Unmarshal(ch.msg.Body, &body))
	assert.Equal(t, "v1", body["videoId"])
	assert.NotContains(t, body, "Recipient")

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

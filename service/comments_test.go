package service

import (
	"context"
	"testing"

	"github.com/hamas2/hamak/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCommentRejectsBlankTextWithoutWriting(t *testing.T) {
	f := newFixture(t)
	before := f.store.calls.Load()

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := f.svc.AddComment(context.Background(), "v1", "u1", text)
		assert.ErrorIs(t, err, ErrEmptyText)

		_, err = f.svc.AddReply(context.Background(), "v1", "c1", "u1", text)
		assert.ErrorIs(t, err, ErrEmptyText)
	}
	assert.Equal(t, before, f.store.calls.Load())
}

func TestAddCommentStoresTrimmedSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "Ana")
	f.seedVideo(t, "v1", "someone", 0)

	threads, err := f.svc.AddComment(ctx, "v1", u.ID, "  first!  ")
	require.NoError(t, err)
	require.Len(t, threads, 1)

	c := threads[0]
	assert.Equal(t, "first!", c.Text)
	assert.Equal(t, u.ID, c.UserID)
	assert.Equal(t, "Ana", c.UserName)
	assert.Equal(t, 0, c.Likes)
	assert.Empty(t, c.LikedBy)
	assert.Empty(t, c.Replies)
	assert.Equal(t, "2024-03-09T08:07:06.005Z", c.CreatedAt)

	added := f.events.OfType(events.CommentAdded)
	require.Len(t, added, 1)
	assert.Equal(t, "v1", added[0].VideoID)
}

func TestCommentsAndRepliesKeepInsertionOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "Ana")
	f.seedVideo(t, "v1", u.ID, 0)

	for _, text := range []string{"one", "two", "three"} {
		_, err := f.svc.AddComment(ctx, "v1", u.ID, text)
		require.NoError(t, err)
	}
	threads, err := f.svc.ListComments(ctx, "v1")
	require.NoError(t, err)
	require.Len(t, threads, 3)

	first := threads[0].ID
	for _, text := range []string{"a", "b"} {
		threads, err = f.svc.AddReply(ctx, "v1", first, u.ID, text)
		require.NoError(t, err)
	}

	var texts []string
	for _, th := range threads {
		texts = append(texts, th.Text)
	}
	assert.Equal(t, []string{"one", "two", "three"}, texts)
	require.Len(t, threads[0].Replies, 2)
	assert.Equal(t, "a", threads[0].Replies[0].Text)
	assert.Equal(t, "b", threads[0].Replies[1].Text)
	assert.Len(t, f.events.OfType(events.ReplyAdded), 2)
}

func TestAddCommentNeedsExistingParents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "Ana")

	_, err := f.svc.AddComment(ctx, "missing", u.ID, "hi")
	assert.ErrorIs(t, err, ErrNotFound)

	found, err := f.store.Get(ctx, VideoTarget("missing").Path(), nil)
	require.NoError(t, err)
	assert.False(t, found)

	f.seedVideo(t, "v1", u.ID, 0)
	_, err = f.svc.AddReply(ctx, "v1", "missing", u.ID, "hi")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddCommentNeedsKnownUser(t *testing.T) {
	f := newFixture(t)
	f.seedVideo(t, "v1", "x", 0)

	_, err := f.svc.AddComment(context.Background(), "v1", "ghost", "hi")
	assert.ErrorIs(t, err, ErrUnknownUser)

	_, err = f.svc.AddComment(context.Background(), "v1", "", "hi")
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestListCommentsOfMissingVideo(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ListComments(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	f.seedVideo(t, "v1", "x", 0)
	threads, err := f.svc.ListComments(context.Background(), "v1")
	require.NoError(t, err)
	assert.Empty(t, threads)
}

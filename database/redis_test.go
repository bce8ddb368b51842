package database

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisUpdateRetriesAfterConcurrentWrite(t *testing.T) {
	s, _ := newRedisStore(t)
	ctx := context.Background()
	p := VideoPath("v1")
	require.NoError(t, s.Set(ctx, p, record{Name: "clip", Likes: 1}))

	interfered := false
	s.beforeCommit = func(ctx context.Context, key string) {
		if interfered {
			return
		}
		interfered = true
		require.NoError(t, s.client.Set(ctx, key, `{"name":"clip","likes":10}`, 0).Err())
	}

	calls := 0
	err := s.Update(ctx, p, func(current json.RawMessage) (any, error) {
		calls++
		var r record
		require.NoError(t, json.Unmarshal(current, &r))
		r.Likes++
		return r, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	var r record
	_, err = s.Get(ctx, p, &r)
	require.NoError(t, err)
	assert.Equal(t, 11, r.Likes)
}

func TestRedisUpdateGivesUpWithConflict(t *testing.T) {
	s, _ := newRedisStore(t)
	s.maxRetries = 3
	ctx := context.Background()
	p := VideoPath("v1")
	require.NoError(t, s.Set(ctx, p, record{Name: "clip"}))

	s.beforeCommit = func(ctx context.Context, key string) {
		require.NoError(t, s.client.Set(ctx, key, `{"name":"other"}`, 0).Err())
	}

	err := s.Update(ctx, p, func(json.RawMessage) (any, error) {
		return record{Name: "mine"}, nil
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRedisKeyLayout(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, UserPath("u1"), record{Name: "ana"}))

	raw, err := mr.Get("test:users:u1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"ana","likes":0}`, raw)

	members, err := mr.ZMembers("test:users")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, members)
}

func TestRedisListSkipsDanglingIndexEntries(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, VideoPath("v1"), record{Name: "a"}))
	_, err := mr.ZAdd("test:videos", 0, "v0")
	require.NoError(t, err)

	children, err := s.List(ctx, NewPath(Videos))
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "v1", children[0].Key)
}

package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisStore keeps each record as a JSON string under
// {prefix}:{collection}:{id}. The sorted set {prefix}:{collection} holds the
// ids with score 0 so that ZRANGEBYLEX returns them in key order.
type RedisStore struct {
	client     *redis.Client
	prefix     string
	maxRetries int

	// beforeCommit runs between the read and the MULTI/EXEC of an update.
	beforeCommit func(ctx context.Context, key string)
}

func ConnectRedis(ctx context.Context, addr, password string, db int, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "ping redis at %s", addr)
	}
	logrus.WithField("addr", addr).Info("connected to redis")
	return NewRedisStore(client, prefix), nil
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, maxRetries: defaultRetries}
}

func (s *RedisStore) recordKey(collection, id string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, collection, id)
}

func (s *RedisStore) indexKey(collection string) string {
	return fmt.Sprintf("%s:%s", s.prefix, collection)
}

func (s *RedisStore) Get(ctx context.Context, p Path, out any) (bool, error) {
	if err := p.Validate(); err != nil {
		return false, err
	}
	node, err := s.node(ctx, p)
	if err != nil {
		return false, err
	}
	return decodeInto(node, out)
}

func (s *RedisStore) node(ctx context.Context, p Path) (any, error) {
	collection, id, field := p.record()
	if id == "" {
		children, err := s.listCollection(ctx, collection)
		if err != nil {
			return nil, err
		}
		return fromChildren(children)
	}

	data, err := s.client.Get(ctx, s.recordKey(collection, id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "redis get %s", p)
	}
	root, err := decodeTree(data)
	if err != nil {
		return nil, err
	}
	node, _ := lookup(root, field)
	return node, nil
}

func (s *RedisStore) List(ctx context.Context, p Path) ([]Child, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Depth() == 1 {
		return s.listCollection(ctx, p.segs[0])
	}
	node, err := s.node(ctx, p)
	if err != nil {
		return nil, err
	}
	return childrenOf(node)
}

func (s *RedisStore) listCollection(ctx context.Context, collection string) ([]Child, error) {
	ids, err := s.client.ZRangeByLex(ctx, s.indexKey(collection), &redis.ZRangeBy{Min: "-", Max: "+"}).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "redis index %s", collection)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.recordKey(collection, id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "redis mget %s", collection)
	}

	out := make([]Child, 0, len(ids))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			// index entry without a record
			continue
		}
		out = append(out, Child{Key: ids[i], Value: json.RawMessage(str)})
	}
	return out, nil
}

func (s *RedisStore) Set(ctx context.Context, p Path, value any) error {
	return s.modify(ctx, p, func(json.RawMessage) (any, bool, error) {
		return value, true, nil
	})
}

func (s *RedisStore) Update(ctx context.Context, p Path, fn UpdateFunc) error {
	return s.modify(ctx, p, func(current json.RawMessage) (any, bool, error) {
		next, err := fn(current)
		return next, next != nil, err
	})
}

func (s *RedisStore) modify(ctx context.Context, p Path, fn func(json.RawMessage) (any, bool, error)) error {
	if err := validateWrite(p); err != nil {
		return err
	}
	collection, id, field := p.record()
	key := s.recordKey(collection, id)
	index := s.indexKey(collection)

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		var fnErr error
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil && err != redis.Nil {
				return err
			}
			root, err := decodeTree(data)
			if err != nil {
				return err
			}

			node, _ := lookup(root, field)
			current, err := encodeRaw(node)
			if err != nil {
				return err
			}
			next, write, err := fn(current)
			if err != nil {
				fnErr = err
				return err
			}
			if !write {
				return nil
			}
			tree, err := toTree(next)
			if err != nil {
				return err
			}
			root = assign(root, field, tree)

			if s.beforeCommit != nil {
				s.beforeCommit(ctx, key)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if root == nil {
					pipe.Del(ctx, key)
					pipe.ZRem(ctx, index, id)
					return nil
				}
				out, err := json.Marshal(root)
				if err != nil {
					return err
				}
				pipe.Set(ctx, key, out, 0)
				pipe.ZAdd(ctx, index, redis.Z{Score: 0, Member: id})
				return nil
			})
			return err
		}, key)

		switch {
		case fnErr != nil:
			return fnErr
		case err == redis.TxFailedErr:
			logrus.WithFields(logrus.Fields{"path": p.String(), "attempt": attempt + 1}).Debug("redis update conflict, retrying")
			continue
		case err != nil:
			return errors.Wrapf(err, "redis update %s", p)
		}
		return nil
	}
	return errors.Wrap(ErrConflict, p.String())
}

func (s *RedisStore) Close(context.Context) error {
	return s.client.Close()
}

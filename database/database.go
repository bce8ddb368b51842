package database

import (
	"context"
	"encoding/json"

	"github.com/hamas2/hamak/config"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// defaultRetries bounds optimistic-concurrency retries in Update.
const defaultRetries = 10

// Store is a hierarchical, path addressed JSON record store.
type Store interface {
	// Get decodes the value at p into out. A missing value reports false
	// with a nil error.
	Get(ctx context.Context, p Path, out any) (bool, error)
	// Set overwrites the value at p. A nil value removes it. p must name at
	// least a record (collection/id).
	Set(ctx context.Context, p Path, value any) error
	// List returns the children of the object at p in ascending key order.
	List(ctx context.Context, p Path) ([]Child, error)
	// Update atomically replaces the value at p with the result of fn.
	Update(ctx context.Context, p Path, fn UpdateFunc) error
	Close(ctx context.Context) error
}

// UpdateFunc receives the current JSON at the path, nil when absent, and
// returns the replacement. Returning a nil value leaves the node untouched;
// returning an error aborts without writing. fn may run more than once and
// must not call the store.
type UpdateFunc func(current json.RawMessage) (any, error)

// Child is one entry of a listed object.
type Child struct {
	Key   string
	Value json.RawMessage
}

func (c Child) Decode(out any) error {
	return errors.Wrapf(json.Unmarshal(c.Value, out), "decode %s", c.Key)
}

// Open connects the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.Store) (Store, error) {
	logrus.WithField("driver", cfg.Driver).Info("opening record store")

	switch cfg.Driver {
	case "memory":
		return NewMemoryStore(), nil
	case "mongo":
		return ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case "redis":
		return ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
	case "firebase":
		return ConnectFirebase(ctx, cfg.FirebaseDatabaseURL, cfg.FirebaseCredentialsFile)
	default:
		return nil, errors.Wrap(ErrUnknownStore, cfg.Driver)
	}
}

func validateWrite(p Path) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Depth() < 2 {
		return errors.Wrap(ErrShallowWrite, p.String())
	}
	return nil
}

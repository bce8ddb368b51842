package database

import (
	"bytes"
	"context"
	"encoding/json"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// FirebaseStore maps paths directly onto Realtime Database references.
type FirebaseStore struct {
	client *db.Client
}

func ConnectFirebase(ctx context.Context, databaseURL, credentialsFile string) (*FirebaseStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: databaseURL}, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "init firebase app")
	}
	client, err := app.Database(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "init realtime database client")
	}

	logrus.WithField("url", databaseURL).Info("connected to Firebase Realtime Database")
	return &FirebaseStore{client: client}, nil
}

func (s *FirebaseStore) Get(ctx context.Context, p Path, out any) (bool, error) {
	if err := p.Validate(); err != nil {
		return false, err
	}
	var raw json.RawMessage
	if err := s.client.NewRef(p.String()).Get(ctx, &raw); err != nil {
		return false, errors.Wrapf(err, "firebase get %s", p)
	}
	if isNull(raw) {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	return true, errors.Wrapf(json.Unmarshal(raw, out), "decode %s", p)
}

func (s *FirebaseStore) Set(ctx context.Context, p Path, value any) error {
	if err := validateWrite(p); err != nil {
		return err
	}
	return errors.Wrapf(s.client.NewRef(p.String()).Set(ctx, value), "firebase set %s", p)
}

func (s *FirebaseStore) List(ctx context.Context, p Path) ([]Child, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	nodes, err := s.client.NewRef(p.String()).OrderByKey().GetOrdered(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "firebase list %s", p)
	}

	out := make([]Child, 0, len(nodes))
	for _, n := range nodes {
		var raw json.RawMessage
		if err := n.Unmarshal(&raw); err != nil {
			return nil, errors.Wrapf(err, "decode %s/%s", p, n.Key())
		}
		if !isNull(raw) {
			out = append(out, Child{Key: n.Key(), Value: raw})
		}
	}
	return out, nil
}

// Update runs a native transaction. The SDK retries on contention and gives
// up with an error after its own retry budget.
func (s *FirebaseStore) Update(ctx context.Context, p Path, fn UpdateFunc) error {
	if err := validateWrite(p); err != nil {
		return err
	}

	var fnErr error
	err := s.client.NewRef(p.String()).Transaction(ctx, func(tn db.TransactionNode) (interface{}, error) {
		var raw json.RawMessage
		if err := tn.Unmarshal(&raw); err != nil {
			return nil, err
		}
		current := raw
		if isNull(raw) {
			current = nil
		}
		next, err := fn(current)
		if err != nil {
			fnErr = err
			return nil, err
		}
		if next == nil {
			return current, nil
		}
		return next, nil
	})
	if fnErr != nil {
		return fnErr
	}
	return errors.Wrapf(err, "firebase transaction %s", p)
}

func (s *FirebaseStore) Close(context.Context) error {
	return nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// revField is a hidden per-document revision used for compare-and-swap.
const revField = "_rev"

// MongoStore maps the first path segment to a collection, the second to the
// document _id and the rest to a dotted field path inside the document.
type MongoStore struct {
	client     *mongo.Client
	db         *mongo.Database
	maxRetries int
}

func ConnectMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "ping mongo")
	}

	logrus.WithField("database", database).Info("connected to MongoDB")
	return &MongoStore{client: client, db: client.Database(database), maxRetries: defaultRetries}, nil
}

func (s *MongoStore) Get(ctx context.Context, p Path, out any) (bool, error) {
	if err := p.Validate(); err != nil {
		return false, err
	}
	collection, id, field := p.record()
	if id == "" {
		children, err := s.listCollection(ctx, collection)
		if err != nil {
			return false, err
		}
		node, err := fromChildren(children)
		if err != nil {
			return false, err
		}
		return decodeInto(node, out)
	}

	opts := options.FindOne()
	if len(field) > 0 {
		opts.SetProjection(bson.M{strings.Join(field, "."): 1})
	}
	root, _, err := s.findRecord(ctx, collection, id, opts)
	if err != nil {
		return false, err
	}
	node, _ := lookup(root, field)
	return decodeInto(node, out)
}

// findRecord loads one document as a tree along with its revision.
func (s *MongoStore) findRecord(ctx context.Context, collection, id string, opts ...*options.FindOneOptions) (any, any, error) {
	var doc bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}, opts...).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, errors.Wrapf(err, "find %s/%s", collection, id)
	}
	rev := doc[revField]
	root, err := docToTree(doc)
	return root, rev, err
}

func (s *MongoStore) List(ctx context.Context, p Path) ([]Child, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	collection, id, field := p.record()
	if id == "" {
		return s.listCollection(ctx, collection)
	}
	root, _, err := s.findRecord(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	node, _ := lookup(root, field)
	return childrenOf(node)
}

func (s *MongoStore) listCollection(ctx context.Context, collection string) ([]Child, error) {
	cursor, err := s.db.Collection(collection).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", collection)
	}
	defer cursor.Close(ctx)

	var out []Child
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.Wrapf(err, "decode %s", collection)
		}
		key := fmt.Sprint(doc["_id"])
		root, err := docToTree(doc)
		if err != nil {
			return nil, err
		}
		raw, err := encodeRaw(root)
		if err != nil {
			return nil, err
		}
		if raw != nil {
			out = append(out, Child{Key: key, Value: raw})
		}
	}
	return out, errors.Wrapf(cursor.Err(), "list %s", collection)
}

func (s *MongoStore) Set(ctx context.Context, p Path, value any) error {
	if err := validateWrite(p); err != nil {
		return err
	}
	collection, id, field := p.record()
	tree, err := toTree(value)
	if err != nil {
		return err
	}
	coll := s.db.Collection(collection)

	if len(field) == 0 {
		if tree == nil {
			_, err := coll.DeleteOne(ctx, bson.M{"_id": id})
			return errors.Wrapf(err, "delete %s", p)
		}
		doc, err := recordDoc(id, tree)
		if err != nil {
			return err
		}
		_, err = coll.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
		return errors.Wrapf(err, "replace %s", p)
	}

	update, err := fieldUpdate(strings.Join(field, "."), tree)
	if err != nil {
		return err
	}
	_, err = coll.UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true))
	return errors.Wrapf(err, "update %s", p)
}

func (s *MongoStore) Update(ctx context.Context, p Path, fn UpdateFunc) error {
	if err := validateWrite(p); err != nil {
		return err
	}
	collection, id, field := p.record()
	coll := s.db.Collection(collection)

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		root, rev, err := s.findRecord(ctx, collection, id)
		if err != nil {
			return err
		}
		node, _ := lookup(root, field)
		current, err := encodeRaw(node)
		if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil || next == nil {
			return err
		}
		tree, err := toTree(next)
		if err != nil {
			return err
		}

		filter := bson.M{"_id": id, revField: rev}
		if rev == nil {
			filter[revField] = bson.M{"$exists": false}
		}

		var matched int64
		switch {
		case len(field) == 0 && tree == nil:
			res, err := coll.DeleteOne(ctx, filter)
			if err != nil {
				return errors.Wrapf(err, "delete %s", p)
			}
			matched = res.DeletedCount
			if root == nil {
				matched = 1
			}
		case len(field) == 0:
			doc, err := recordDoc(id, tree)
			if err != nil {
				return err
			}
			res, err := coll.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
			if mongo.IsDuplicateKeyError(err) {
				break
			}
			if err != nil {
				return errors.Wrapf(err, "replace %s", p)
			}
			matched = res.MatchedCount + res.UpsertedCount
		default:
			update, err := fieldUpdate(strings.Join(field, "."), tree)
			if err != nil {
				return err
			}
			res, err := coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
			if mongo.IsDuplicateKeyError(err) {
				break
			}
			if err != nil {
				return errors.Wrapf(err, "update %s", p)
			}
			matched = res.MatchedCount + res.UpsertedCount
		}

		if matched > 0 {
			return nil
		}
		logrus.WithFields(logrus.Fields{"path": p.String(), "attempt": attempt + 1}).Debug("mongo update conflict, retrying")
	}
	return errors.Wrap(ErrConflict, p.String())
}

func (s *MongoStore) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.client.Disconnect(ctx); err != nil {
		return errors.Wrap(err, "disconnect mongo")
	}
	logrus.Info("disconnected from MongoDB")
	return nil
}

// docToTree strips the bookkeeping fields and converts a document through
// relaxed extended JSON, which keeps int32/int64 values as plain numbers.
func docToTree(doc bson.M) (any, error) {
	if doc == nil {
		return nil, nil
	}
	delete(doc, "_id")
	delete(doc, revField)
	data, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return nil, errors.Wrap(err, "encode document")
	}
	return decodeTree(data)
}

// toBSON converts a tree value so that integers stay integers in MongoDB.
func toBSON(tree any) (any, error) {
	data, err := json.Marshal(map[string]any{"v": tree})
	if err != nil {
		return nil, errors.Wrap(err, "encode value")
	}
	var doc bson.D
	if err := bson.UnmarshalExtJSON(data, false, &doc); err != nil {
		return nil, errors.Wrap(err, "convert value")
	}
	return doc[0].Value, nil
}

func recordDoc(id string, tree any) (bson.D, error) {
	if _, ok := tree.(map[string]any); !ok {
		return nil, errors.Errorf("record %s must be an object", id)
	}
	v, err := toBSON(tree)
	if err != nil {
		return nil, err
	}
	var fields bson.D
	switch t := v.(type) {
	case bson.D:
		fields = t
	case bson.M:
		for k, val := range t {
			fields = append(fields, bson.E{Key: k, Value: val})
		}
	}
	doc := bson.D{{Key: "_id", Value: id}, {Key: revField, Value: uuid.NewString()}}
	return append(doc, fields...), nil
}

func fieldUpdate(field string, tree any) (bson.M, error) {
	rev := bson.M{revField: uuid.NewString()}
	if tree == nil {
		return bson.M{"$unset": bson.M{field: ""}, "$set": rev}, nil
	}
	v, err := toBSON(tree)
	if err != nil {
		return nil, err
	}
	rev[field] = v
	return bson.M{"$set": rev}, nil
}

// Package mongo stores threads, users and communities as documents in three
// collections. References between them are arrays of string ids.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/itchan-dev/threads/shared/config"
	internal_errors "github.com/itchan-dev/threads/shared/errors"
	"github.com/itchan-dev/threads/shared/logger"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	threadsCollection     = "threads"
	usersCollection       = "users"
	communitiesCollection = "communities"
)

type Storage struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

func New(ctx context.Context, cfg config.Mongo) (*Storage, error) {
	logger.Log.Info("connecting to mongo", "database", cfg.Database)
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	s := &Storage{
		client: client,
		db:     client.Database(cfg.Database),
		now:    func() time.Time { return time.Now().UTC() },
	}
	if err := s.migrate(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	logger.Log.Info("successfully connected to mongo")
	return s, nil
}

func (s *Storage) migrate(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		threadsCollection: {
			{Keys: bson.D{{Key: "parent_id", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		},
		usersCollection: {
			{Keys: bson.D{{Key: "external_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		communitiesCollection: {
			{Keys: bson.D{{Key: "external_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for name, models := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", name, err)
		}
	}
	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Storage) Cleanup() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Storage) threads() *mongo.Collection {
	return s.db.Collection(threadsCollection)
}

func (s *Storage) users() *mongo.Collection {
	return s.db.Collection(usersCollection)
}

func (s *Storage) communities() *mongo.Collection {
	return s.db.Collection(communitiesCollection)
}

// timestamp matches the millisecond precision of bson dates so a value read
// back equals the one written.
func (s *Storage) timestamp(t time.Time) time.Time {
	if t.IsZero() {
		t = s.now()
	}
	return t.UTC().Truncate(time.Millisecond)
}

func notFound(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return internal_errors.NotFound(what + " not found")
	}
	return err
}

func conflict(err error, what string) error {
	if mongo.IsDuplicateKeyError(err) {
		return internal_errors.Conflict(what + " already exists")
	}
	return err
}

// pullMany removes ids from the array field of every document in owners.
func pullMany(ctx context.Context, coll *mongo.Collection, owners []string, field string, ids []string) error {
	if len(owners) == 0 || len(ids) == 0 {
		return nil
	}
	_, err := coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": owners}},
		bson.M{"$pull": bson.M{field: bson.M{"$in": ids}}},
	)
	return err
}

// push appends id to the array field of one document. Matching nothing is not an error.
func push(ctx context.Context, coll *mongo.Collection, owner, field, id string) error {
	_, err := coll.UpdateOne(ctx, bson.M{"_id": owner}, bson.M{"$push": bson.M{field: id}})
	return err
}

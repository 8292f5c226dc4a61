// Package mongo stores each record kind in its own collection and runs
// transactions through client sessions.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-crm-core/internal/models"
	"go-crm-core/internal/store"
	"go-crm-core/pkg/condition"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

func New(client *mongo.Client, db *mongo.Database, logger *zap.Logger) *Store {
	return &Store{client: client, db: db, logger: logger}
}

// Collection names are the plural of the kind.
func collectionName(kind models.Kind) string {
	switch kind {
	case models.KindActivity:
		return "activities"
	default:
		return string(kind) + "s"
	}
}

func (s *Store) coll(kind models.Kind) *mongo.Collection {
	return s.db.Collection(collectionName(kind))
}

// EnsureIndexes creates the parent-pair, ticket number and workflow lookup indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	parentIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "parent_type", Value: 1}, {Key: "parent_id", Value: 1}},
	}
	for _, kind := range []models.Kind{models.KindActivity, models.KindEngagement, models.KindTask, models.KindCommunication} {
		if _, err := s.coll(kind).Indexes().CreateOne(ctx, parentIndex); err != nil {
			return fmt.Errorf("index %s parent: %w", kind, err)
		}
	}

	_, err := s.coll(models.KindTicket).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "ticket_number", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("index ticket_number: %w", err)
	}

	_, err = s.coll(models.KindWorkflow).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "event_type", Value: 1}, {Key: "is_active", Value: 1}, {Key: "priority", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("index workflows: %w", err)
	}

	_, err = s.coll(models.KindTask).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "project_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("index task project: %w", err)
	}
	s.logger.Info("mongo indexes ensured")
	return nil
}

type txKey struct{ s *Store }

// WithTx runs fn inside a multi-document transaction. The driver retries
// fn on transient errors, so fn must not leak state between attempts.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	if tx, ok := ctx.Value(txKey{s}).(*mongoTx); ok {
		return fn(ctx, tx)
	}

	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	tx := &mongoTx{s: s}
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(context.WithValue(sc, txKey{s}, tx), tx)
	})
	return err
}

type mongoTx struct {
	s *Store
}

func (t *mongoTx) Insert(ctx context.Context, rec models.Record) error {
	meta := rec.GetMeta()
	if meta.ID == "" {
		return fmt.Errorf("insert %s: empty id", rec.Kind())
	}
	meta.Version = 1
	if _, err := t.s.coll(rec.Kind()).InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert %s/%s: %w", rec.Kind(), meta.ID, store.ErrDuplicate)
		}
		return fmt.Errorf("insert %s: %w", rec.Kind(), err)
	}
	return nil
}

func (t *mongoTx) Get(ctx context.Context, kind models.Kind, id string) (models.Record, error) {
	rec, err := models.New(kind)
	if err != nil {
		return nil, err
	}
	if err := t.s.coll(kind).FindOne(ctx, bson.M{"_id": id}).Decode(rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s/%s: %w", kind, id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", kind, err)
	}
	return rec, nil
}

func (t *mongoTx) Update(ctx context.Context, rec models.Record) error {
	meta := rec.GetMeta()
	expected := meta.Version
	meta.Version++

	res, err := t.s.coll(rec.Kind()).ReplaceOne(ctx, bson.M{"_id": meta.ID, "version": expected}, rec)
	if err != nil {
		meta.Version = expected
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("update %s/%s: %w", rec.Kind(), meta.ID, store.ErrDuplicate)
		}
		return fmt.Errorf("update %s: %w", rec.Kind(), err)
	}
	if res.MatchedCount == 0 {
		meta.Version = expected
		n, err := t.s.coll(rec.Kind()).CountDocuments(ctx, bson.M{"_id": meta.ID})
		if err != nil {
			return fmt.Errorf("update %s: %w", rec.Kind(), err)
		}
		if n == 0 {
			return fmt.Errorf("%s/%s: %w", rec.Kind(), meta.ID, store.ErrNotFound)
		}
		return fmt.Errorf("%s/%s at version %d: %w", rec.Kind(), meta.ID, expected, store.ErrConflict)
	}
	return nil
}

func (t *mongoTx) SoftDelete(ctx context.Context, kind models.Kind, id string, at time.Time, by string) error {
	res, err := t.s.coll(kind).UpdateOne(ctx,
		bson.M{"_id": id, "deleted_at": nil},
		bson.M{
			"$set": bson.M{"deleted_at": at, "deleted_by": by, "updated_at": at},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s/%s: %w", kind, id, store.ErrNotFound)
	}
	return nil
}

func (t *mongoTx) List(ctx context.Context, kind models.Kind, conds ...models.Condition) ([]models.Record, error) {
	filter, err := condition.ToBSON(conds)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	filter = bson.M{"$and": []bson.M{filter, {"deleted_at": nil}}}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := t.s.coll(kind).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer cursor.Close(ctx)

	var out []models.Record
	for cursor.Next(ctx) {
		rec, err := models.New(kind)
		if err != nil {
			return nil, err
		}
		if err := cursor.Decode(rec); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		out = append(out, rec)
	}
	return out, cursor.Err()
}

func (t *mongoTx) Reassign(ctx context.Context, kind models.Kind, from, to models.Ref, at time.Time) (int64, error) {
	res, err := t.s.coll(kind).UpdateMany(ctx,
		bson.M{"parent_type": from.Kind, "parent_id": from.ID, "deleted_at": nil},
		bson.M{
			"$set": bson.M{"parent_type": to.Kind, "parent_id": to.ID, "updated_at": at},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		return 0, fmt.Errorf("reassign %s: %w", kind, err)
	}
	return res.ModifiedCount, nil
}

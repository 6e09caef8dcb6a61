package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const mongoCollection = "refresh_tokens"

// MongoStore implements Store over a MongoDB collection with a unique index
// on the token field. Delete results carry the affected count, which covers
// the rotation race the same way SQL row counts do.
type MongoStore struct {
	coll *mongo.Collection
}

// mongoSession is the persisted document shape. UUIDs are stored as strings
// to keep documents readable in shell tooling.
type mongoSession struct {
	ID         string    `bson:"_id"`
	UserID     string    `bson:"user_id"`
	Token      string    `bson:"token"`
	DeviceInfo string    `bson:"device_info,omitempty"`
	ExpiresAt  time.Time `bson:"expires_at"`
	CreatedAt  time.Time `bson:"created_at"`
}

// NewMongoStore creates a MongoDB-backed session store and ensures the
// uniqueness and lookup indexes exist.
func NewMongoStore(ctx context.Context, db *mongo.Database) (*MongoStore, error) {
	coll := db.Collection(mongoCollection)

	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}},
	})
	if err != nil {
		return nil, err
	}

	return &MongoStore{coll: coll}, nil
}

func (m *MongoStore) Insert(ctx context.Context, s *Session) error {
	if s == nil || s.Token == "" || s.UserID == uuid.Nil {
		return ErrInvalidSession
	}

	_, err := m.coll.InsertOne(ctx, mongoSession{
		ID:         s.ID.String(),
		UserID:     s.UserID.String(),
		Token:      s.Token,
		DeviceInfo: s.DeviceInfo,
		ExpiresAt:  s.ExpiresAt,
		CreatedAt:  s.CreatedAt,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateToken
		}
		return err
	}
	return nil
}

func (m *MongoStore) FindByToken(ctx context.Context, token string) (*Session, error) {
	var doc mongoSession
	err := m.coll.FindOne(ctx, bson.D{{Key: "token", Value: token}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return doc.toSession()
}

func (m *MongoStore) DeleteByToken(ctx context.Context, token string) (int64, error) {
	res, err := m.coll.DeleteOne(ctx, bson.D{{Key: "token", Value: token}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (m *MongoStore) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res, err := m.coll.DeleteMany(ctx, bson.D{{Key: "user_id", Value: userID.String()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (m *MongoStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := m.coll.DeleteMany(ctx, bson.D{
		{Key: "expires_at", Value: bson.D{{Key: "$lt", Value: now}}},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (m *MongoStore) ListActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]Session, error) {
	cursor, err := m.coll.Find(ctx,
		bson.D{
			{Key: "user_id", Value: userID.String()},
			{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: now}}},
		},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []mongoSession
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]Session, 0, len(docs))
	for i := range docs {
		s, err := docs[i].toSession()
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, nil
}

func (m *MongoStore) CountAll(ctx context.Context) (int64, error) {
	return m.coll.CountDocuments(ctx, bson.D{})
}

func (m *MongoStore) CountActive(ctx context.Context, now time.Time) (int64, error) {
	return m.coll.CountDocuments(ctx, bson.D{
		{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: now}}},
	})
}

func (d *mongoSession) toSession() (*Session, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, ErrInvalidSession
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, ErrInvalidSession
	}
	return &Session{
		ID:         id,
		UserID:     userID,
		Token:      d.Token,
		DeviceInfo: d.DeviceInfo,
		ExpiresAt:  d.ExpiresAt,
		CreatedAt:  d.CreatedAt,
	}, nil
}

var _ Store = (*MongoStore)(nil)

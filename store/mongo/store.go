// Package mongo implements store.Store on the official MongoDB driver.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"ai_creation_broker/creation"
	"ai_creation_broker/store"
)

// Collection name constants.
const (
	colCreations = "creations"
	colUsage     = "user_usage"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri, selects database and creates indexes.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	if database == "" {
		database = "ai_creation_broker"
	}
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	s := &Store{client: client, db: client.Database(database)}
	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// Migrate creates the indexes the list queries rely on.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colCreations: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "publish", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}
	for col, models := range indexes {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

type creationModel struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Prompt    string    `bson:"prompt"`
	Content   string    `bson:"content"`
	Type      string    `bson:"type"`
	Publish   bool      `bson:"publish"`
	CreatedAt time.Time `bson:"created_at"`
}

func toCreationModel(c *creation.Creation) *creationModel {
	return &creationModel{
		ID:        c.ID.String(),
		UserID:    c.UserID,
		Prompt:    c.Prompt,
		Content:   c.Content,
		Type:      string(c.Type),
		Publish:   c.Publish,
		CreatedAt: c.CreatedAt,
	}
}

func fromCreationModel(m *creationModel) (*creation.Creation, error) {
	id, err := creation.ParseID(m.ID)
	if err != nil {
		return nil, err
	}
	return &creation.Creation{
		ID:        id,
		UserID:    m.UserID,
		Prompt:    m.Prompt,
		Content:   m.Content,
		Type:      creation.Type(m.Type),
		Publish:   m.Publish,
		CreatedAt: m.CreatedAt.UTC(),
	}, nil
}

type usageModel struct {
	UserID    string    `bson:"_id"`
	FreeUsage int       `bson:"free_usage"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (s *Store) Insert(ctx context.Context, c *creation.Creation) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if _, err := s.db.Collection(colCreations).InsertOne(ctx, toCreationModel(c)); err != nil {
		return fmt.Errorf("mongo: insert creation: %w", err)
	}
	return nil
}

func (s *Store) ListByUser(ctx context.Context, userID string, opts creation.ListOpts) ([]*creation.Creation, error) {
	return s.find(ctx, bson.M{"user_id": userID}, opts)
}

func (s *Store) ListPublished(ctx context.Context, opts creation.ListOpts) ([]*creation.Creation, error) {
	return s.find(ctx, bson.M{"publish": true}, opts)
}

func (s *Store) find(ctx context.Context, filter bson.M, opts creation.ListOpts) ([]*creation.Creation, error) {
	opts = opts.Normalize()
	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(opts.Limit)).
		SetSkip(int64(opts.Offset))

	cur, err := s.db.Collection(colCreations).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo: list creations: %w", err)
	}
	var models []creationModel
	if err := cur.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("mongo: decode creations: %w", err)
	}

	out := make([]*creation.Creation, 0, len(models))
	for i := range models {
		c, err := fromCreationModel(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) FreeUsage(ctx context.Context, userID string) (int, error) {
	var m usageModel
	err := s.db.Collection(colUsage).FindOne(ctx, bson.M{"_id": userID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("mongo: free usage: %w", err)
	}
	return m.FreeUsage, nil
}

func (s *Store) UpdateFreeUsage(ctx context.Context, userID string, value int) error {
	update := bson.M{"$set": bson.M{"free_usage": value, "updated_at": time.Now().UTC()}}
	_, err := s.db.Collection(colUsage).UpdateOne(ctx, bson.M{"_id": userID}, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo: update free usage: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongo: ping: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Drop removes both collections; used by tests against a scratch database.
func (s *Store) Drop(ctx context.Context) error {
	for _, col := range []string{colCreations, colUsage} {
		if err := s.db.Collection(col).Drop(ctx); err != nil {
			return err
		}
	}
	return nil
}

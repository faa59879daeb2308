package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

const (
	typesCollection   = "widget_types"
	configsCollection = "dashboard_configs"
)

// Store keeps the catalog and saved dashboards in MongoDB. Each saved config is
// one document keyed by user id.
type Store struct {
	client  *mongo.Client
	types   *mongo.Collection
	configs *mongo.Collection
	now     func() time.Time
}

var (
	_ dashboard.CatalogStore = (*Store)(nil)
	_ dashboard.ConfigStore  = (*Store)(nil)
)

type typeDoc struct {
	TypeKey  string                   `bson:"_id"`
	ID       string                   `bson:"id"`
	Position int64                    `bson:"position"`
	Meta     dashboard.WidgetTypeMeta `bson:"meta"`
}

type configDoc struct {
	UserID    string                `bson:"_id"`
	Name      string                `bson:"name"`
	Config    dashboard.SavedConfig `bson:"config"`
	UpdatedAt time.Time             `bson:"updated_at"`
}

// Open connects to uri and uses the named database.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	store := New(client.Database(database))
	store.client = client
	return store, nil
}

// New wraps an existing database handle.
func New(db *mongo.Database) *Store {
	return &Store{
		types:   db.Collection(typesCollection),
		configs: db.Collection(configsCollection),
		now:     time.Now,
	}
}

// Close disconnects the client opened by Open.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// ListTypes returns the catalog in insertion order.
func (s *Store) ListTypes(ctx context.Context) ([]dashboard.WidgetTypeMeta, error) {
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.types.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list widget types: %w", err)
	}
	defer cur.Close(ctx)

	types := []dashboard.WidgetTypeMeta{}
	for cur.Next(ctx) {
		var doc typeDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode widget type: %w", err)
		}
		doc.Meta.ID = doc.ID
		doc.Meta.TypeKey = doc.TypeKey
		types = append(types, doc.Meta)
	}
	return types, cur.Err()
}

func (s *Store) onInsert(meta dashboard.WidgetTypeMeta) bson.M {
	id := meta.ID
	if id == "" {
		id = uuid.NewString()
	}
	return bson.M{"id": id, "position": s.now().UnixNano()}
}

// EnsureType inserts meta unless its type_key already exists.
func (s *Store) EnsureType(ctx context.Context, meta dashboard.WidgetTypeMeta) (bool, error) {
	if meta.TypeKey == "" {
		return false, dashboard.ErrTypeKeyRequired
	}
	insert := s.onInsert(meta)
	insert["meta"] = meta
	res, err := s.types.UpdateOne(ctx,
		bson.M{"_id": meta.TypeKey},
		bson.M{"$setOnInsert": insert},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, fmt.Errorf("ensure widget type %s: %w", meta.TypeKey, err)
	}
	return res.UpsertedCount > 0, nil
}

// UpsertType creates or replaces a catalog entry, keeping id and position.
func (s *Store) UpsertType(ctx context.Context, meta dashboard.WidgetTypeMeta) error {
	if meta.TypeKey == "" {
		return dashboard.ErrTypeKeyRequired
	}
	_, err := s.types.UpdateOne(ctx,
		bson.M{"_id": meta.TypeKey},
		bson.M{
			"$set":         bson.M{"meta": meta},
			"$setOnInsert": s.onInsert(meta),
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert widget type %s: %w", meta.TypeKey, err)
	}
	return nil
}

// DeleteType removes a catalog entry.
func (s *Store) DeleteType(ctx context.Context, typeKey string) error {
	res, err := s.types.DeleteOne(ctx, bson.M{"_id": typeKey})
	if err != nil {
		return fmt.Errorf("delete widget type %s: %w", typeKey, err)
	}
	if res.DeletedCount == 0 {
		return dashboard.ErrWidgetTypeNotFound
	}
	return nil
}

// LoadConfig returns the user's saved dashboard or nil when none exists.
func (s *Store) LoadConfig(ctx context.Context, userID string) (*dashboard.SavedConfig, error) {
	var doc configDoc
	err := s.configs.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config for %s: %w", userID, err)
	}
	cfg := doc.Config
	if cfg.Layout == nil {
		cfg.Layout = []dashboard.LayoutEntry{}
	}
	if cfg.Widgets == nil {
		cfg.Widgets = []dashboard.WidgetInstance{}
	}
	return &cfg, nil
}

// SaveConfig overwrites the user's dashboard; the last write wins.
func (s *Store) SaveConfig(ctx context.Context, userID, name string, cfg dashboard.SavedConfig) error {
	doc := configDoc{UserID: userID, Name: name, Config: cfg, UpdatedAt: s.now().UTC()}
	_, err := s.configs.ReplaceOne(ctx, bson.M{"_id": userID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save config for %s: %w", userID, err)
	}
	return nil
}

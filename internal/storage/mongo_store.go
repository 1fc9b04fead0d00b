package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/annel0/voxel-planets/internal/logging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOptions contains connection settings for the MongoDB document store.
type MongoOptions struct {
	URI        string // e.g. mongodb://localhost:27017
	Database   string // e.g. voxel
	Collection string // e.g. planet_documents
}

// MongoStore keeps each document in its own record keyed by name.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	ctxTimeout time.Duration

	mu     sync.RWMutex
	closed bool
}

type mongoDocument struct {
	Name      string    `bson:"_id"`
	Data      []byte    `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongoStore establishes connection and returns the store.
func NewMongoStore(cfg MongoOptions) (*MongoStore, error) {
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = "voxel"
	}
	if cfg.Collection == "" {
		cfg.Collection = "planet_documents"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	// ping
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	logging.GetStorageLogger().Info("Connected to MongoDB: db=%s collection=%s", cfg.Database, cfg.Collection)
	return &MongoStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		ctxTimeout: 5 * time.Second,
	}, nil
}

func (m *MongoStore) ready(name string) error {
	if m.closed {
		return ErrClosed
	}
	return checkName(name)
}

// Exists reports whether a document with the name is stored.
func (m *MongoStore) Exists(name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.ready(name); err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	n, err := m.collection.CountDocuments(ctx, bson.M{"_id": name}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Read returns the document body.
func (m *MongoStore) Read(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.ready(name); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	var doc mongoDocument
	err := m.collection.FindOne(ctx, bson.M{"_id": name}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.Data, nil
}

// Write replaces the whole document in a single upsert.
func (m *MongoStore) Write(name string, data []byte) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.ready(name); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	doc := mongoDocument{Name: name, Data: data, UpdatedAt: time.Now().UTC()}
	_, err := m.collection.ReplaceOne(ctx, bson.M{"_id": name}, doc, options.Replace().SetUpsert(true))
	return err
}

// Delete removes the document; a missing one is not an error.
func (m *MongoStore) Delete(name string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.ready(name); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	_, err := m.collection.DeleteOne(ctx, bson.M{"_id": name})
	return err
}

// List returns document names in ascending order.
func (m *MongoStore) List() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	opts := options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := m.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var names []string
	for cur.Next(ctx) {
		var doc struct {
			Name string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		names = append(names, doc.Name)
	}
	return names, cur.Err()
}

// Close terminates connection.
func (m *MongoStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

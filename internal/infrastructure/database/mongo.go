package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"bookshelf-backend/pkg/logger"
)

// Collection names
const (
	UsersCollection = "users"
	BooksCollection = "books"
)

// MongoDB giữ client và database handle cho STORE_DRIVER=mongo
type MongoDB struct {
	Client  *mongo.Client
	DB      *mongo.Database
	uri     string
	name    string
	timeout time.Duration
	log     zerolog.Logger
}

func NewMongoDB(uri, name string, timeout time.Duration) *MongoDB {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MongoDB{
		uri:     uri,
		name:    name,
		timeout: timeout,
		log:     logger.Component("mongo"),
	}
}

// Connect mở client, ping primary rồi tạo indexes cần thiết
func (m *MongoDB) Connect(ctx context.Context) error {
	m.log.Info().Str("db", m.name).Msg("connecting to MongoDB")

	connectCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(m.uri))
	if err != nil {
		return fmt.Errorf("mongo connect failed: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("mongo ping failed: %w", err)
	}

	m.Client = client
	m.DB = client.Database(m.name)

	if err := m.ensureIndexes(connectCtx); err != nil {
		return err
	}

	m.log.Info().Msg("connected")
	return nil
}

func (m *MongoDB) ensureIndexes(ctx context.Context) error {
	_, err := m.DB.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "googleId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users index: %w", err)
	}

	_, err = m.DB.Collection(BooksCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "index", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create books index: %w", err)
	}
	return nil
}

func (m *MongoDB) HealthCheck(ctx context.Context) error {
	if m.Client == nil {
		return fmt.Errorf("mongo client is not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := m.Client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo ping failed: %w", err)
	}
	return nil
}

func (m *MongoDB) Close() error {
	if m.Client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := m.Client.Disconnect(ctx)
	m.Client = nil
	return err
}

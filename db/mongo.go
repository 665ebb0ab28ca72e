package db

import (
	"context"
	"log"
	"time"

	"github.com/pkg/errors"
	"github.com/portoviejo/incidentes/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection     = "users"
	incidentsCollection = "incidentes"
	commentsCollection  = "comentarios"
)

// MongoDB is the document-store backend.
type MongoDB struct {
	Client *mongo.Client
	DB     *mongo.Database
}

func GetMongoDB(c *config.Config) *MongoDB {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	m, err := NewMongoDB(ctx, c.MongoURI, c.MongoDatabase)
	if err != nil {
		log.Fatalf("unable to connect to mongo: %v", err)
	}
	return m
}

// NewMongoDB connects, pings and creates the indexes the repositories rely on.
func NewMongoDB(ctx context.Context, uri, database string) (*MongoDB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "mongo connect")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "mongo ping")
	}
	m := &MongoDB{Client: client, DB: client.Database(database)}
	if err := m.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	log.Printf("Connected to mongo database %s", database)
	return m, nil
}

func (m *MongoDB) ensureIndexes(ctx context.Context) error {
	_, err := m.DB.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return errors.Wrap(err, "user indexes")
	}
	_, err = m.DB.Collection(incidentsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "autor", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "tipoIncidente", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "ubicacion", Value: "2dsphere"}}},
	})
	if err != nil {
		return errors.Wrap(err, "incident indexes")
	}
	_, err = m.DB.Collection(commentsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "incidente", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	if err != nil {
		return errors.Wrap(err, "comment indexes")
	}
	return nil
}

func (m *MongoDB) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, nil)
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

package mongo

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	connectTimeout = 10 * time.Second
	healthTimeout  = 5 * time.Second
)

// ConnectDB connects to the deployment behind uri and verifies a primary is
// reachable before any repository is built on it. The relationship and inbox
// workflows run multi-document transactions, which require a replica set, so
// an unreachable primary fails startup rather than the first write.
func ConnectDB(uri string) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(healthTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := pingPrimary(client); err != nil {
		discCtx, discCancel := context.WithTimeout(context.Background(), healthTimeout)
		defer discCancel()
		_ = client.Disconnect(discCtx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	log.Println("Connected to MongoDB")
	return client, nil
}

func pingPrimary(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
	defer cancel()
	return client.Ping(ctx, readpref.Primary())
}

// DisconnectDB drains the client's connection pool during shutdown.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

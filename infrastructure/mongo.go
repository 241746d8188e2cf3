package infrastructure

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mokarrom17/joblagbe-server/domain"
)

// Store holds the process-wide MongoDB client and the typed accessors for
// the three collections. Created once in main and shared by all handlers.
type Store struct {
	client *mongo.Client

	Jobs         *JobStore
	Applications *ApplicationStore
	Blogs        *BlogStore
}

// NewMongoStore connects to MongoDB with the Stable API v1 profile and
// pings the deployment before handing out collection accessors.
func NewMongoStore(ctx context.Context, uri, dbName string) (*Store, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(dbName)
	return &Store{
		client:       client,
		Jobs:         &JobStore{coll: db.Collection("jobs")},
		Applications: &ApplicationStore{coll: db.Collection("applications")},
		Blogs:        &BlogStore{coll: db.Collection("blogs")},
	}, nil
}

// Close releases the underlying client. Called on shutdown.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// objectIDFromHex converts an external string id to the store-native
// ObjectID, mapping parse failures to domain.ErrInvalidID.
func objectIDFromHex(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", domain.ErrInvalidID, id)
	}
	return oid, nil
}

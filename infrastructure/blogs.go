package infrastructure

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mokarrom17/joblagbe-server/domain"
)

// BlogStore wraps the blogs collection.
type BlogStore struct {
	coll *mongo.Collection
}

// newestFirst orders the feed by createdAt descending.
func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
}

// List returns all blog posts, newest first.
func (s *BlogStore) List(ctx context.Context) ([]bson.M, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, newestFirst())
	if err != nil {
		return nil, fmt.Errorf("find blogs: %w", err)
	}

	blogs := []bson.M{}
	if err := cur.All(ctx, &blogs); err != nil {
		return nil, fmt.Errorf("decode blogs: %w", err)
	}
	return blogs, nil
}

// Get returns one blog post by its hex id.
func (s *BlogStore) Get(ctx context.Context, id string) (bson.M, error) {
	oid, err := objectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var blog bson.M
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&blog); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find blog %s: %w", id, err)
	}
	return blog, nil
}

package infrastructure

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mokarrom17/joblagbe-server/domain"
)

// JobStore wraps the jobs collection.
type JobStore struct {
	coll *mongo.Collection
}

// List returns all jobs, or only those owned by hrEmail when it is
// non-empty. Documents are passed through as stored.
func (s *JobStore) List(ctx context.Context, hrEmail string) ([]bson.M, error) {
	filter := bson.M{}
	if hrEmail != "" {
		filter["company.hr_email"] = hrEmail
	}

	cur, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find jobs: %w", err)
	}

	jobs := []bson.M{}
	if err := cur.All(ctx, &jobs); err != nil {
		return nil, fmt.Errorf("decode jobs: %w", err)
	}
	return jobs, nil
}

// ownedJobsPipeline counts applications per job in a single store-side
// pass: lookup by jobId, take the array size, project the summary fields.
func ownedJobsPipeline(email string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"company.hr_email": email}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "applications",
			"localField":   "_id",
			"foreignField": "jobId",
			"as":           "applications",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"application_count": bson.M{"$size": "$applications"},
		}}},
		{{Key: "$project", Value: bson.M{
			"title":             1,
			"jobLevel":          1,
			"jobType":           1,
			"deadline":          1,
			"company":           1,
			"application_count": 1,
		}}},
	}
}

// ListOwned returns the jobs owned by email, each annotated with its
// application count.
func (s *JobStore) ListOwned(ctx context.Context, email string) ([]domain.JobSummary, error) {
	cur, err := s.coll.Aggregate(ctx, ownedJobsPipeline(email))
	if err != nil {
		return nil, fmt.Errorf("aggregate owned jobs: %w", err)
	}

	summaries := []domain.JobSummary{}
	if err := cur.All(ctx, &summaries); err != nil {
		return nil, fmt.Errorf("decode owned jobs: %w", err)
	}
	return summaries, nil
}

// Get returns one job by its hex id.
func (s *JobStore) Get(ctx context.Context, id string) (bson.M, error) {
	oid, err := objectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var job bson.M
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&job); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find job %s: %w", id, err)
	}
	return job, nil
}

// Create inserts the posting verbatim and returns the assigned id.
func (s *JobStore) Create(ctx context.Context, doc bson.M) (primitive.ObjectID, error) {
	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert job: %w", err)
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

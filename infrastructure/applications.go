package infrastructure

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mokarrom17/joblagbe-server/domain"
)

// ApplicationStore wraps the applications collection.
type ApplicationStore struct {
	coll *mongo.Collection
}

// normalizeSubmission prepares an applicant-supplied document for insert,
// in place: the jobId hex string becomes a native ObjectID and status is
// forced to Pending no matter what the client sent.
func normalizeSubmission(doc bson.M) error {
	raw, _ := doc["jobId"].(string)
	oid, err := objectIDFromHex(raw)
	if err != nil {
		return err
	}
	doc["jobId"] = oid
	doc["status"] = domain.StatusPending
	return nil
}

// Submit normalizes and inserts one application, returning the new id.
func (s *ApplicationStore) Submit(ctx context.Context, doc bson.M) (primitive.ObjectID, error) {
	if err := normalizeSubmission(doc); err != nil {
		return primitive.NilObjectID, err
	}

	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert application: %w", err)
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

// ListForJob returns every application referencing the given job id.
func (s *ApplicationStore) ListForJob(ctx context.Context, jobID string) ([]bson.M, error) {
	oid, err := objectIDFromHex(jobID)
	if err != nil {
		return nil, err
	}

	cur, err := s.coll.Find(ctx, bson.M{"jobId": oid})
	if err != nil {
		return nil, fmt.Errorf("find applications for job %s: %w", jobID, err)
	}

	apps := []bson.M{}
	if err := cur.All(ctx, &apps); err != nil {
		return nil, fmt.Errorf("decode applications: %w", err)
	}
	return apps, nil
}

// UpdateStatus sets only the status field of one application and reports
// the store's matched/modified acknowledgment.
func (s *ApplicationStore) UpdateStatus(ctx context.Context, id, status string) (matched, modified int64, err error) {
	oid, err := objectIDFromHex(id)
	if err != nil {
		return 0, 0, err
	}

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return 0, 0, fmt.Errorf("update application %s: %w", id, err)
	}
	return res.MatchedCount, res.ModifiedCount, nil
}

// applicantPipeline joins each of a user's applications with its job in a
// single pass. $arrayElemAt on an empty lookup result yields a missing
// field, so a dangling jobId simply leaves company/title/company_logo
// unset instead of failing the whole query. job_matches records the
// lookup size so dangling references can be told apart from jobs that
// merely lack those fields; it is stripped before the response.
func applicantPipeline(email string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"applicant": email}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "jobs",
			"localField":   "jobId",
			"foreignField": "_id",
			"as":           "job",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"company":      bson.M{"$arrayElemAt": bson.A{"$job.company", 0}},
			"title":        bson.M{"$arrayElemAt": bson.A{"$job.title", 0}},
			"company_logo": bson.M{"$arrayElemAt": bson.A{"$job.company_logo", 0}},
			"job_matches":  bson.M{"$size": "$job"},
		}}},
		{{Key: "$project", Value: bson.M{"job": 0}}},
	}
}

// missingJob pops the job_matches marker from one enriched application and
// reports whether the referenced job no longer exists. The driver decodes
// $size as int32; other numeric types are handled for completeness.
func missingJob(app bson.M) bool {
	v, ok := app["job_matches"]
	delete(app, "job_matches")
	if !ok {
		return false
	}

	switch n := v.(type) {
	case int32:
		return n == 0
	case int64:
		return n == 0
	case int:
		return n == 0
	case float64:
		return n == 0
	}
	return false
}

// ListForApplicant returns the user's applications enriched with the
// referenced job's company, title and logo.
func (s *ApplicationStore) ListForApplicant(ctx context.Context, email string) ([]bson.M, error) {
	cur, err := s.coll.Aggregate(ctx, applicantPipeline(email))
	if err != nil {
		return nil, fmt.Errorf("aggregate applications for %s: %w", email, err)
	}

	apps := []bson.M{}
	if err := cur.All(ctx, &apps); err != nil {
		return nil, fmt.Errorf("decode enriched applications: %w", err)
	}

	for _, app := range apps {
		if missingJob(app) {
			logrus.WithFields(logrus.Fields{
				"application_id": app["_id"],
				"job_id":         app["jobId"],
			}).Warn("application references a missing job")
		}
	}
	return apps, nil
}

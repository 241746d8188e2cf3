package domain

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JobSummary is the fixed projection returned to an HR user listing their
// own jobs: selected job fields plus the number of applications received.
// The company block is carried opaquely, whatever the employer stored
// comes back unchanged.
type JobSummary struct {
	ID               primitive.ObjectID `bson:"_id" json:"_id"`
	Title            string             `bson:"title" json:"title"`
	JobLevel         string             `bson:"jobLevel,omitempty" json:"jobLevel,omitempty"`
	JobType          string             `bson:"jobType,omitempty" json:"jobType,omitempty"`
	Deadline         string             `bson:"deadline,omitempty" json:"deadline,omitempty"`
	Company          bson.M             `bson:"company,omitempty" json:"company,omitempty"`
	ApplicationCount int64              `bson:"application_count" json:"application_count"`
}

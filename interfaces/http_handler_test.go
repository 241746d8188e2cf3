package interfaces

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mokarrom17/joblagbe-server/domain"
	"github.com/mokarrom17/joblagbe-server/infrastructure"
)

type fakeJobs struct {
	jobs    map[string]bson.M
	owned   []domain.JobSummary
	listErr error
}

func (f *fakeJobs) List(_ context.Context, hrEmail string) ([]bson.M, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []bson.M{}
	for _, j := range f.jobs {
		if hrEmail == "" {
			out = append(out, j)
			continue
		}
		if company, ok := j["company"].(bson.M); ok && company["hr_email"] == hrEmail {
			out = append(out, j)
		}
	}
	return out, nil
}

func (f *fakeJobs) ListOwned(_ context.Context, _ string) ([]domain.JobSummary, error) {
	return f.owned, nil
}

func (f *fakeJobs) Get(_ context.Context, id string) (bson.M, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, domain.ErrInvalidID
	}
	job, ok := f.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return job, nil
}

func (f *fakeJobs) Create(_ context.Context, doc bson.M) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	doc["_id"] = id
	if f.jobs == nil {
		f.jobs = map[string]bson.M{}
	}
	f.jobs[id.Hex()] = doc
	return id, nil
}

type fakeApplications struct {
	submitted     bson.M
	submitErr     error
	updatedID     string
	updatedStatus string
	enriched      []bson.M
}

func (f *fakeApplications) ListForJob(_ context.Context, jobID string) ([]bson.M, error) {
	if _, err := primitive.ObjectIDFromHex(jobID); err != nil {
		return nil, domain.ErrInvalidID
	}
	return []bson.M{}, nil
}

func (f *fakeApplications) Submit(_ context.Context, doc bson.M) (primitive.ObjectID, error) {
	if f.submitErr != nil {
		return primitive.NilObjectID, f.submitErr
	}
	f.submitted = doc
	return primitive.NewObjectID(), nil
}

func (f *fakeApplications) UpdateStatus(_ context.Context, id, status string) (int64, int64, error) {
	f.updatedID = id
	f.updatedStatus = status
	return 1, 1, nil
}

func (f *fakeApplications) ListForApplicant(_ context.Context, _ string) ([]bson.M, error) {
	return f.enriched, nil
}

type fakeBlogs struct {
	blogs map[string]bson.M
	order []bson.M
}

func (f *fakeBlogs) List(_ context.Context) ([]bson.M, error) {
	return f.order, nil
}

func (f *fakeBlogs) Get(_ context.Context, id string) (bson.M, error) {
	blog, ok := f.blogs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return blog, nil
}

// fakeVerifier accepts the tokens in its map and rejects everything else.
type fakeVerifier struct {
	tokens map[string]string
}

func (f *fakeVerifier) Verify(_ context.Context, token string) (*infrastructure.AuthClaims, error) {
	email, ok := f.tokens[token]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return &infrastructure.AuthClaims{Email: email}, nil
}

type fakePublisher struct {
	events []infrastructure.ApplicationEvent
}

func (f *fakePublisher) Publish(_ context.Context, ev infrastructure.ApplicationEvent) error {
	f.events = append(f.events, ev)
	return nil
}

func newTestRouter(jobs JobStore, apps ApplicationStore, blogs BlogStore, verifier TokenVerifier, events EventPublisher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHTTPHandler(router, verifier, jobs, apps, blogs, events)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func seedJob(hrEmail string) (string, bson.M) {
	id := primitive.NewObjectID()
	return id.Hex(), bson.M{
		"_id":     id,
		"title":   "Backend Engineer",
		"company": bson.M{"name": "Acme", "hr_email": hrEmail},
	}
}

func TestListJobsFiltersByHREmail(t *testing.T) {
	idA, jobA := seedJob("hr@acme.com")
	idB, jobB := seedJob("hr@other.com")
	jobs := &fakeJobs{jobs: map[string]bson.M{idA: jobA, idB: jobB}}
	router := newTestRouter(jobs, &fakeApplications{}, &fakeBlogs{}, &fakeVerifier{}, nil)

	w := doJSON(t, router, http.MethodGet, "/jobs?email=hr@acme.com", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "hr@acme.com", got[0]["company"].(map[string]any)["hr_email"])

	w = doJSON(t, router, http.MethodGet, "/jobs", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got, 2)
}

func TestGetJobErrors(t *testing.T) {
	router := newTestRouter(&fakeJobs{}, &fakeApplications{}, &fakeBlogs{}, &fakeVerifier{}, nil)

	w := doJSON(t, router, http.MethodGet, "/jobs/"+primitive.NewObjectID().Hex(), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Job not found")

	w = doJSON(t, router, http.MethodGet, "/jobs/not-a-hex-id", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateJobRoundTrip(t *testing.T) {
	jobs := &fakeJobs{}
	router := newTestRouter(jobs, &fakeApplications{}, &fakeBlogs{}, &fakeVerifier{}, nil)

	payload := bson.M{"title": "Go Developer", "company": bson.M{"name": "Acme"}}
	w := doJSON(t, router, http.MethodPost, "/jobs", payload, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var ack struct {
		Acknowledged bool   `json:"acknowledged"`
		InsertedID   string `json:"insertedId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
	assert.True(t, ack.Acknowledged)
	require.NotEmpty(t, ack.InsertedID)

	w = doJSON(t, router, http.MethodGet, "/jobs/"+ack.InsertedID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Go Developer", got["title"])
	assert.Equal(t, ack.InsertedID, got["_id"])
}

func TestSubmitApplicationPublishesEvent(t *testing.T) {
	apps := &fakeApplications{}
	events := &fakePublisher{}
	router := newTestRouter(&fakeJobs{}, apps, &fakeBlogs{}, &fakeVerifier{}, events)

	jobID := primitive.NewObjectID().Hex()
	body := bson.M{"jobId": jobID, "applicant": "a@x.com", "status": "Hired"}
	w := doJSON(t, router, http.MethodPost, "/applications", body, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "insertedId")

	require.Len(t, events.events, 1)
	assert.Equal(t, infrastructure.EventSubmitted, events.events[0].Type)
	assert.Equal(t, "a@x.com", events.events[0].Applicant)
	assert.Equal(t, domain.StatusPending, events.events[0].Status)
}

func TestSubmitApplicationRejectsBadJobID(t *testing.T) {
	apps := &fakeApplications{submitErr: domain.ErrInvalidID}
	router := newTestRouter(&fakeJobs{}, apps, &fakeBlogs{}, &fakeVerifier{}, nil)

	w := doJSON(t, router, http.MethodPost, "/applications", bson.M{"jobId": "nope"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateApplicationStatus(t *testing.T) {
	apps := &fakeApplications{}
	events := &fakePublisher{}
	router := newTestRouter(&fakeJobs{}, apps, &fakeBlogs{}, &fakeVerifier{}, events)

	id := primitive.NewObjectID().Hex()
	w := doJSON(t, router, http.MethodPatch, "/applications/"+id, bson.M{"status": "Hired"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var ack struct {
		MatchedCount  int64 `json:"matchedCount"`
		ModifiedCount int64 `json:"modifiedCount"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
	assert.Equal(t, int64(1), ack.MatchedCount)
	assert.Equal(t, int64(1), ack.ModifiedCount)
	assert.Equal(t, id, apps.updatedID)
	assert.Equal(t, domain.StatusHired, apps.updatedStatus)

	require.Len(t, events.events, 1)
	assert.Equal(t, infrastructure.EventStatusChanged, events.events[0].Type)
}

func TestUpdateApplicationStatusRejectsUnknownValue(t *testing.T) {
	apps := &fakeApplications{}
	router := newTestRouter(&fakeJobs{}, apps, &fakeBlogs{}, &fakeVerifier{}, nil)

	w := doJSON(t, router, http.MethodPatch, "/applications/"+primitive.NewObjectID().Hex(), bson.M{"status": "Ghosted"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, apps.updatedID, "store must not be touched on invalid status")
}

func TestGatedRoutesAccessControl(t *testing.T) {
	verifier := &fakeVerifier{tokens: map[string]string{"good-token": "user@x.com"}}
	jobs := &fakeJobs{owned: []domain.JobSummary{{Title: "Backend Engineer", ApplicationCount: 3}}}
	router := newTestRouter(jobs, &fakeApplications{}, &fakeBlogs{}, verifier, nil)

	for _, path := range []string{"/jobsByEmailAddress", "/applications", "/my-applications"} {
		t.Run(path, func(t *testing.T) {
			// no credential
			w := doJSON(t, router, http.MethodGet, path+"?email=user@x.com", nil, nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			// invalid credential
			h := http.Header{"Authorization": {"Bearer bad-token"}}
			w = doJSON(t, router, http.MethodGet, path+"?email=user@x.com", nil, h)
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			// invalid credential and mismatched email: 401 wins over 403
			w = doJSON(t, router, http.MethodGet, path+"?email=someone@else.com", nil, h)
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			// valid credential, mismatched email
			h = http.Header{"Authorization": {"Bearer good-token"}}
			w = doJSON(t, router, http.MethodGet, path+"?email=someone@else.com", nil, h)
			assert.Equal(t, http.StatusForbidden, w.Code)

			// valid credential, matching email
			w = doJSON(t, router, http.MethodGet, path+"?email=user@x.com", nil, h)
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestListOwnedJobsReturnsCounts(t *testing.T) {
	verifier := &fakeVerifier{tokens: map[string]string{"tok": "hr@acme.com"}}
	jobs := &fakeJobs{owned: []domain.JobSummary{
		{
			ID:               primitive.NewObjectID(),
			Title:            "Backend Engineer",
			Company:          bson.M{"name": "Acme", "hr_email": "hr@acme.com", "location": "Dhaka"},
			ApplicationCount: 3,
		},
		{ID: primitive.NewObjectID(), Title: "Intern", ApplicationCount: 0},
	}}
	router := newTestRouter(jobs, &fakeApplications{}, &fakeBlogs{}, verifier, nil)

	h := http.Header{"Authorization": {"Bearer tok"}}
	w := doJSON(t, router, http.MethodGet, "/jobsByEmailAddress?email=hr@acme.com", nil, h)
	require.Equal(t, http.StatusOK, w.Code)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, float64(3), got[0]["application_count"])
	assert.Equal(t, float64(0), got[1]["application_count"])

	company := got[0]["company"].(map[string]any)
	assert.Equal(t, "Dhaka", company["location"], "opaque company fields must pass through")
}

func TestListMyApplicationsKeepsDanglingItems(t *testing.T) {
	verifier := &fakeVerifier{tokens: map[string]string{"tok": "a@x.com"}}
	apps := &fakeApplications{enriched: []bson.M{
		{"applicant": "a@x.com", "title": "Backend Engineer", "company": bson.M{"name": "Acme"}},
		{"applicant": "a@x.com", "jobId": primitive.NewObjectID()}, // job deleted since
	}}
	router := newTestRouter(&fakeJobs{}, apps, &fakeBlogs{}, verifier, nil)

	h := http.Header{"Authorization": {"Bearer tok"}}
	w := doJSON(t, router, http.MethodGet, "/applications?email=a@x.com", nil, h)
	require.Equal(t, http.StatusOK, w.Code)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 2, "dangling reference must not drop the item")
	assert.Equal(t, "Backend Engineer", got[0]["title"])
	_, hasTitle := got[1]["title"]
	assert.False(t, hasTitle)
}

func TestBlogEndpoints(t *testing.T) {
	id := primitive.NewObjectID()
	blogs := &fakeBlogs{
		blogs: map[string]bson.M{id.Hex(): {"_id": id, "title": "Hiring in 2025"}},
		order: []bson.M{{"title": "newer"}, {"title": "older"}},
	}
	router := newTestRouter(&fakeJobs{}, &fakeApplications{}, blogs, &fakeVerifier{}, nil)

	w := doJSON(t, router, http.MethodGet, "/blogs", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "newer", got[0]["title"])

	w = doJSON(t, router, http.MethodGet, "/blogs/"+id.Hex(), nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/blogs/"+primitive.NewObjectID().Hex(), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Blog not found")
}

func TestRootLiveness(t *testing.T) {
	router := newTestRouter(&fakeJobs{}, &fakeApplications{}, &fakeBlogs{}, &fakeVerifier{}, nil)

	w := doJSON(t, router, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Body.String())
}

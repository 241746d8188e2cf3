package interfaces

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mokarrom17/joblagbe-server/domain"
	"github.com/mokarrom17/joblagbe-server/infrastructure"
)

// JobStore is the jobs collection accessor the handlers depend on.
type JobStore interface {
	List(ctx context.Context, hrEmail string) ([]bson.M, error)
	ListOwned(ctx context.Context, email string) ([]domain.JobSummary, error)
	Get(ctx context.Context, id string) (bson.M, error)
	Create(ctx context.Context, doc bson.M) (primitive.ObjectID, error)
}

// ApplicationStore is the applications collection accessor.
type ApplicationStore interface {
	ListForJob(ctx context.Context, jobID string) ([]bson.M, error)
	Submit(ctx context.Context, doc bson.M) (primitive.ObjectID, error)
	UpdateStatus(ctx context.Context, id, status string) (matched, modified int64, err error)
	ListForApplicant(ctx context.Context, email string) ([]bson.M, error)
}

// BlogStore is the blogs collection accessor.
type BlogStore interface {
	List(ctx context.Context) ([]bson.M, error)
	Get(ctx context.Context, id string) (bson.M, error)
}

// EventPublisher emits application lifecycle events. Publishing is best
// effort; a failure is logged, never surfaced to the client.
type EventPublisher interface {
	Publish(ctx context.Context, ev infrastructure.ApplicationEvent) error
}

type HTTPHandler struct {
	Jobs         JobStore
	Applications ApplicationStore
	Blogs        BlogStore
	Events       EventPublisher // nil when RabbitMQ is not configured
}

// NewHTTPHandler registers the full route surface. The gate and guard run
// in that order on the two principal-scoped endpoints.
func NewHTTPHandler(router *gin.Engine, verifier TokenVerifier, jobs JobStore, apps ApplicationStore, blogs BlogStore, events EventPublisher) {
	h := &HTTPHandler{Jobs: jobs, Applications: apps, Blogs: blogs, Events: events}

	router.GET("/", h.Root)

	router.GET("/jobs", h.ListJobs)
	router.GET("/jobsByEmailAddress", RequireAuth(verifier), RequireEmailMatch(), h.ListOwnedJobs)
	router.GET("/jobs/:id", h.GetJob)
	router.POST("/jobs", h.CreateJob)

	router.GET("/applications/job/:id", h.ListJobApplications)
	router.POST("/applications", h.SubmitApplication)
	router.PATCH("/applications/:id", h.UpdateApplicationStatus)
	router.GET("/applications", RequireAuth(verifier), RequireEmailMatch(), h.ListMyApplications)
	router.GET("/my-applications", RequireAuth(verifier), RequireEmailMatch(), h.ListMyApplications)

	router.GET("/blogs", h.ListBlogs)
	router.GET("/blogs/:id", h.GetBlog)
}

func (h *HTTPHandler) Root(c *gin.Context) {
	c.String(http.StatusOK, "Job lagbe cooking")
}

// fail translates store errors to HTTP: bad ids are the client's fault,
// missing documents are 404 with the given message, everything else is an
// opaque 500.
func (h *HTTPHandler) fail(c *gin.Context, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, domain.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid id"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": notFoundMsg})
	default:
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func (h *HTTPHandler) publish(ev infrastructure.ApplicationEvent) {
	if h.Events == nil {
		return
	}
	if err := h.Events.Publish(context.Background(), ev); err != nil {
		logrus.WithError(err).WithField("event", ev.Type).Warn("event publish failed")
	}
}

// ListJobs returns every job, optionally filtered to one HR email.
func (h *HTTPHandler) ListJobs(c *gin.Context) {
	jobs, err := h.Jobs.List(c.Request.Context(), c.Query("email"))
	if err != nil {
		h.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, jobs)
}

// ListOwnedJobs returns the authenticated HR user's jobs with their
// application counts.
func (h *HTTPHandler) ListOwnedJobs(c *gin.Context) {
	jobs, err := h.Jobs.ListOwned(c.Request.Context(), c.Query("email"))
	if err != nil {
		h.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *HTTPHandler) GetJob(c *gin.Context) {
	job, err := h.Jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Job not found")
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *HTTPHandler) CreateJob(c *gin.Context) {
	var doc bson.M
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body"})
		return
	}

	id, err := h.Jobs.Create(c.Request.Context(), doc)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"acknowledged": true, "insertedId": id})
}

func (h *HTTPHandler) ListJobApplications(c *gin.Context) {
	apps, err := h.Applications.ListForJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, apps)
}

// SubmitApplication inserts an application with status forced to Pending.
// The jobId must be a valid ObjectID hex string.
func (h *HTTPHandler) SubmitApplication(c *gin.Context) {
	var doc bson.M
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body"})
		return
	}

	id, err := h.Applications.Submit(c.Request.Context(), doc)
	if err != nil {
		h.fail(c, err, "")
		return
	}

	ev := infrastructure.ApplicationEvent{
		Type:          infrastructure.EventSubmitted,
		ApplicationID: id.Hex(),
		Status:        domain.StatusPending,
	}
	if jobID, ok := doc["jobId"].(primitive.ObjectID); ok {
		ev.JobID = jobID.Hex()
	}
	if applicant, ok := doc["applicant"].(string); ok {
		ev.Applicant = applicant
	}
	h.publish(ev)

	c.JSON(http.StatusOK, gin.H{"acknowledged": true, "insertedId": id})
}

// UpdateApplicationStatus sets the status of one application. Only the
// recognized statuses are accepted.
func (h *HTTPHandler) UpdateApplicationStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body"})
		return
	}
	if !domain.ValidStatus(body.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid status"})
		return
	}

	matched, modified, err := h.Applications.UpdateStatus(c.Request.Context(), c.Param("id"), body.Status)
	if err != nil {
		h.fail(c, err, "")
		return
	}

	h.publish(infrastructure.ApplicationEvent{
		Type:          infrastructure.EventStatusChanged,
		ApplicationID: c.Param("id"),
		Status:        body.Status,
	})

	c.JSON(http.StatusOK, gin.H{
		"acknowledged":  true,
		"matchedCount":  matched,
		"modifiedCount": modified,
	})
}

// ListMyApplications returns the authenticated user's applications,
// each enriched with its job's company, title and logo. Applications
// whose job has since disappeared come back without those fields.
func (h *HTTPHandler) ListMyApplications(c *gin.Context) {
	apps, err := h.Applications.ListForApplicant(c.Request.Context(), c.Query("email"))
	if err != nil {
		h.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, apps)
}

func (h *HTTPHandler) ListBlogs(c *gin.Context) {
	blogs, err := h.Blogs.List(c.Request.Context())
	if err != nil {
		h.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, blogs)
}

func (h *HTTPHandler) GetBlog(c *gin.Context) {
	blog, err := h.Blogs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Blog not found")
		return
	}
	c.JSON(http.StatusOK, blog)
}

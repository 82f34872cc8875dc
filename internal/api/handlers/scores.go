package handlers

import (
	"encoding/json"
	"errors"
	"time"

	"leetscore/internal/logger"
	"leetscore/internal/models"
	"leetscore/internal/service"
	"leetscore/internal/upstream"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Summarizer scores one user without retry
type Summarizer interface {
	Summarize(username string) (*models.UserSummary, error)
}

// BatchRunner scores many users
type BatchRunner interface {
	RunBatch(usernames []string) (*models.BatchResult, error)
	RunBatchWithProgress(usernames []string, onGroup func(service.GroupProgress)) (*models.BatchResult, error)
}

// StatsFetcher serves the pass-through upstream lookups
type StatsFetcher interface {
	FetchContest(username string) (*upstream.ContestResult, error)
	FetchProblemStats(username string) (json.RawMessage, error)
}

// AuditSink receives a summary of every finished batch
type AuditSink interface {
	Submit(run models.BatchRun) error
}

// StatusReporter reports upstream reachability
type StatusReporter interface {
	Status() string
}

// ScoreHandler handles HTTP requests for user scores
type ScoreHandler struct {
	users     Summarizer
	batches   BatchRunner
	stats     StatsFetcher
	audit     AuditSink
	probe     StatusReporter
	validator *validator.Validate
}

// Deps bundles the collaborators of ScoreHandler. Audit and Probe may be nil.
type Deps struct {
	Users   Summarizer
	Batches BatchRunner
	Stats   StatsFetcher
	Audit   AuditSink
	Probe   StatusReporter
}

// NewScoreHandler creates a new score handler
func NewScoreHandler(d Deps) *ScoreHandler {
	return &ScoreHandler{
		users:     d.Users,
		batches:   d.Batches,
		stats:     d.Stats,
		audit:     d.Audit,
		probe:     d.Probe,
		validator: validator.New(),
	}
}

// GetUserScore handles GET /api/user/:username
func (h *ScoreHandler) GetUserScore(c *fiber.Ctx) error {
	username := c.Params("username")

	summary, err := h.users.Summarize(username)
	if err != nil {
		logger.Error("Error in /user/%s: %v", username, err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error: "Error fetching user data",
		})
	}

	return c.Status(fiber.StatusOK).JSON(summary)
}

// ScoreUsers handles POST /api/users/scores
func (h *ScoreHandler) ScoreUsers(c *fiber.Ctx) error {
	req, err := h.parseBatchRequest(c.Body())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Usernames must be provided as an array",
			Message: err.Error(),
		})
	}

	start := time.Now()
	result, err := h.batches.RunBatch(req.Usernames)
	if err != nil {
		var inputErr *service.InputError
		if errors.As(err, &inputErr) {
			return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
				Error: inputErr.Reason,
			})
		}
		logger.Error("Error in /users/scores: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error: "Error fetching user data",
		})
	}

	h.record("http", result, time.Since(start))
	return c.Status(fiber.StatusOK).JSON(result)
}

// GetProblemStats handles GET /api/problems/:username
func (h *ScoreHandler) GetProblemStats(c *fiber.Ctx) error {
	raw, err := h.stats.FetchProblemStats(c.Params("username"))
	if err != nil {
		logger.Error("Error fetching problem statistics: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error: "Error fetching problem statistics",
		})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusOK).Send(raw)
}

// GetContest handles GET /api/contest/:username
func (h *ScoreHandler) GetContest(c *fiber.Ctx) error {
	res, err := h.stats.FetchContest(c.Params("username"))
	if err != nil {
		logger.Error("Error fetching contest data: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error: "Failed to fetch contest data",
		})
	}

	if len(res.Errors) > 0 {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Status(fiber.StatusBadRequest).Send(res.Body)
	}

	var rating interface{} = "N/A"
	if res.Rating != nil && *res.Rating != 0 {
		rating = *res.Rating
	}
	return c.Status(fiber.StatusOK).JSON(models.ContestResponse{ContestRating: rating})
}

// HealthCheck handles GET /health
func (h *ScoreHandler) HealthCheck(c *fiber.Ctx) error {
	upstreamStatus := "unknown"
	if h.probe != nil {
		upstreamStatus = h.probe.Status()
	}
	return c.Status(fiber.StatusOK).JSON(models.HealthResponse{
		Status:   "healthy",
		Upstream: upstreamStatus,
	})
}

// parseBatchRequest rejects bodies without an array under "usernames". The
// scheduler checks the entries themselves.
func (h *ScoreHandler) parseBatchRequest(body []byte) (*models.BatchRequest, error) {
	var req models.BatchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}
	if err := h.validator.Struct(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (h *ScoreHandler) record(source string, result *models.BatchResult, took time.Duration) {
	scored, notFound, degraded := result.Counts()
	logger.Info("Scored %d users in %v (scored=%d notFound=%d degraded=%d active=%d)",
		result.Total, took.Round(time.Millisecond), scored, notFound, degraded, result.Active)

	if h.audit == nil {
		return
	}
	// a full queue is already logged by the pool
	_ = h.audit.Submit(models.NewBatchRun(source, result, took))
}

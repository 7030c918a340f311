package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/fitgroup-api/internal/dto"
	"github.com/noah-isme/fitgroup-api/internal/models"
	appErrors "github.com/noah-isme/fitgroup-api/pkg/errors"
	"github.com/noah-isme/fitgroup-api/pkg/response"
)

type goalService interface {
	GetCurrentGoal(ctx context.Context, groupID, userID string, ref time.Time) (*models.WeeklyGoal, error)
	RegenerateGoal(ctx context.Context, groupID, userID string, ref time.Time) (*models.WeeklyGoal, error)
	SelectGoal(ctx context.Context, groupID, userID string, metric models.Metric, value float64, ref time.Time) (*models.WeeklyGoal, error)
}

// GoalHandler exposes the current week's goal to group members.
type GoalHandler struct {
	goals    goalService
	validate *validator.Validate
	location *time.Location
	now      func() time.Time
}

// NewGoalHandler constructs the handler. Weeks are resolved in location.
func NewGoalHandler(goals goalService, validate *validator.Validate, location *time.Location) *GoalHandler {
	if validate == nil {
		validate = NewValidator()
	}
	if location == nil {
		location = time.UTC
	}
	return &GoalHandler{goals: goals, validate: validate, location: location, now: time.Now}
}

func (h *GoalHandler) ref() time.Time {
	return h.now().In(h.location)
}

func (h *GoalHandler) respond(c *gin.Context, status int, goal *models.WeeklyGoal) {
	response.JSON(c, status, dto.CurrentGoalResponse{Week: models.WeekOf(goal.WeekStart.In(h.location)), Goal: goal}, nil)
}

// Current godoc
// @Summary Current weekly goal
// @Description Returns this week's goal for the group, predicting it on first access.
// @Tags Goals
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /groups/{id}/goals/current [get]
func (h *GoalHandler) Current(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	goal, err := h.goals.GetCurrentGoal(c.Request.Context(), c.Param("id"), claims.UserID, h.ref())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, http.StatusOK, goal)
}

// Regenerate godoc
// @Summary Regenerate weekly goal
// @Tags Goals
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /groups/{id}/goals/regenerate [post]
func (h *GoalHandler) Regenerate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	goal, err := h.goals.RegenerateGoal(c.Request.Context(), c.Param("id"), claims.UserID, h.ref())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, http.StatusOK, goal)
}

// Select godoc
// @Summary Commit to a weekly goal
// @Tags Goals
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param payload body dto.SelectGoalRequest true "Selected metric and target"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /groups/{id}/goals/current/selection [put]
func (h *GoalHandler) Select(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.SelectGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid selection payload"))
		return
	}
	if err := validatePayload(h.validate, req); err != nil {
		response.Error(c, err)
		return
	}
	metric, _ := models.ParseMetric(req.Metric)
	goal, err := h.goals.SelectGoal(c.Request.Context(), c.Param("id"), claims.UserID, metric, req.Value, h.ref())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, http.StatusOK, goal)
}

package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/fitgroup-api/internal/dto"
	"github.com/noah-isme/fitgroup-api/internal/models"
	appErrors "github.com/noah-isme/fitgroup-api/pkg/errors"
	"github.com/noah-isme/fitgroup-api/pkg/response"
)

type pipelineRunner interface {
	RunStats(ctx context.Context, at time.Time) ([]*models.BatchReport, error)
	RunAchievements(ctx context.Context, at time.Time) (*models.BatchReport, error)
	RunRecords(ctx context.Context, at time.Time) (*models.BatchReport, error)
	LastRuns() []*models.BatchReport
}

// PipelineHandler lets administrators fire the weekly triggers by hand.
type PipelineHandler struct {
	pipeline pipelineRunner
	validate *validator.Validate
	location *time.Location
	now      func() time.Time
}

// NewPipelineHandler constructs handler.
func NewPipelineHandler(pipeline pipelineRunner, validate *validator.Validate, location *time.Location) *PipelineHandler {
	if validate == nil {
		validate = NewValidator()
	}
	if location == nil {
		location = time.UTC
	}
	return &PipelineHandler{pipeline: pipeline, validate: validate, location: location, now: time.Now}
}

// bindOptional accepts an empty body as the zero payload.
func bindOptional(c *gin.Context, dest interface{}) error {
	if err := c.ShouldBindJSON(dest); err != nil && !errors.Is(err, io.EOF) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
	}
	return nil
}

func (h *PipelineHandler) resolveAt(raw string) (time.Time, error) {
	if raw == "" {
		return h.now().In(h.location), nil
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "at must be RFC3339")
	}
	return at.In(h.location), nil
}

// RunStats godoc
// @Summary Run weekly stats aggregation
// @Tags Pipeline
// @Accept json
// @Produce json
// @Param payload body dto.RunStatsRequest false "Target week"
// @Success 200 {object} response.Envelope
// @Router /admin/pipeline/stats [post]
func (h *PipelineHandler) RunStats(c *gin.Context) {
	var req dto.RunStatsRequest
	if err := bindOptional(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	if err := validatePayload(h.validate, req); err != nil {
		response.Error(c, err)
		return
	}
	at := h.now().In(h.location)
	if req.WeekOf != "" {
		week, err := models.ParseWeek(req.WeekOf, h.location)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid weekOf"))
			return
		}
		// RunStats aggregates the week before at.
		at = week.Until()
	}
	reports, err := h.pipeline.RunStats(c.Request.Context(), at)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.PipelineRunResponse{Reports: reports}, nil)
}

// RunAchievements godoc
// @Summary Run achievement check and rewards
// @Tags Pipeline
// @Accept json
// @Produce json
// @Param payload body dto.RunAtRequest false "Trigger time"
// @Success 200 {object} response.Envelope
// @Router /admin/pipeline/achievements [post]
func (h *PipelineHandler) RunAchievements(c *gin.Context) {
	h.runAt(c, h.pipeline.RunAchievements)
}

// RunRecords godoc
// @Summary Queue weekly goal records
// @Tags Pipeline
// @Accept json
// @Produce json
// @Param payload body dto.RunAtRequest false "Trigger time"
// @Success 200 {object} response.Envelope
// @Router /admin/pipeline/records [post]
func (h *PipelineHandler) RunRecords(c *gin.Context) {
	h.runAt(c, h.pipeline.RunRecords)
}

func (h *PipelineHandler) runAt(c *gin.Context, run func(context.Context, time.Time) (*models.BatchReport, error)) {
	var req dto.RunAtRequest
	if err := bindOptional(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	if err := validatePayload(h.validate, req); err != nil {
		response.Error(c, err)
		return
	}
	at, err := h.resolveAt(req.At)
	if err != nil {
		response.Error(c, err)
		return
	}
	report, err := run(c.Request.Context(), at)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.PipelineRunResponse{Reports: []*models.BatchReport{report}}, nil)
}

// Runs godoc
// @Summary Latest pipeline runs
// @Tags Pipeline
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/pipeline/runs [get]
func (h *PipelineHandler) Runs(c *gin.Context) {
	response.JSON(c, http.StatusOK, dto.PipelineRunResponse{Reports: h.pipeline.LastRuns()}, nil)
}

package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/fitgroup-api/internal/dto"
	"github.com/noah-isme/fitgroup-api/internal/models"
	appErrors "github.com/noah-isme/fitgroup-api/pkg/errors"
	"github.com/noah-isme/fitgroup-api/pkg/export"
	"github.com/noah-isme/fitgroup-api/pkg/response"
)

type goalRecordService interface {
	ListRecords(ctx context.Context, groupID, userID string, limit int) ([]models.GoalRecord, error)
	Export(ctx context.Context, groupID string, format export.Format) ([]byte, error)
}

// RecordHandler serves the weekly audit history.
type RecordHandler struct {
	records  goalRecordService
	validate *validator.Validate
}

// NewRecordHandler constructs handler.
func NewRecordHandler(records goalRecordService, validate *validator.Validate) *RecordHandler {
	if validate == nil {
		validate = NewValidator()
	}
	return &RecordHandler{records: records, validate: validate}
}

// List godoc
// @Summary Goal record history
// @Tags Goal Records
// @Produce json
// @Param id path string true "Group ID"
// @Param limit query int false "Maximum weeks (default 52)"
// @Success 200 {object} response.Envelope
// @Router /groups/{id}/goal-records [get]
func (h *RecordHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var query dto.GoalRecordListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	if err := validatePayload(h.validate, query); err != nil {
		response.Error(c, err)
		return
	}
	records, err := h.records.ListRecords(c.Request.Context(), c.Param("id"), claims.UserID, query.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Export godoc
// @Summary Export goal records
// @Tags Goal Records
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Group ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /admin/groups/{id}/goal-records/export [get]
func (h *RecordHandler) Export(c *gin.Context) {
	var query dto.GoalRecordExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	if err := validatePayload(h.validate, query); err != nil {
		response.Error(c, err)
		return
	}
	format, err := export.ParseFormat(query.Format)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unsupported format"))
		return
	}
	groupID := c.Param("id")
	payload, err := h.records.Export(c.Request.Context(), groupID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"goal-records-%s.%s\"", groupID, format))
	c.Data(http.StatusOK, format.ContentType(), payload)
}

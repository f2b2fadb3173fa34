package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/okastudio/platewatch/internal/models"
	"github.com/okastudio/platewatch/internal/services"
	apperrors "github.com/okastudio/platewatch/pkg/errors"
	"github.com/okastudio/platewatch/pkg/response"
)

// ReportHandler exposes the report lifecycle over HTTP.
type ReportHandler struct {
	reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) (*ReportHandler, error) {
	if reports == nil {
		return nil, errors.New("report handler requires report service")
	}
	return &ReportHandler{reports: reports}, nil
}

type createReportRequest struct {
	RecipeID       *string `json:"recipe_id"`
	ReportedUserID *string `json:"reported_user_id"`
	Type           string  `json:"type" validate:"required"`
	Reason         string  `json:"reason" validate:"max=2000"`
}

// Create files a new report on behalf of the authenticated user.
func (h *ReportHandler) Create(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	payload, err := bindAndValidate[createReportRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	dto, err := h.reports.Create(c.Request.Context(), userID, services.CreateReportInput{
		RecipeID:       payload.RecipeID,
		ReportedUserID: payload.ReportedUserID,
		Type:           models.ReportType(payload.Type),
		Reason:         payload.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, dto)
}

// List returns reports with optional filters. Admin only.
func (h *ReportHandler) List(c *gin.Context) {
	filters := services.ReportFilters{
		Page:       parseIntQuery(c, "page", 1),
		Size:       parseIntQuery(c, "size", 20),
		Status:     c.Query("status"),
		Type:       c.Query("type"),
		Action:     c.Query("action"),
		RecipeID:   c.Query("recipe_id"),
		UserID:     c.Query("reported_user_id"),
		ReporterID: c.Query("reporter_id"),
	}
	if from := strings.TrimSpace(c.Query("from")); from != "" {
		ts, err := time.Parse(time.RFC3339, from)
		if err != nil {
			response.Error(c, apperrors.NewBadRequest("from must be an RFC 3339 timestamp"))
			return
		}
		filters.From = &ts
	}
	if to := strings.TrimSpace(c.Query("to")); to != "" {
		ts, err := time.Parse(time.RFC3339, to)
		if err != nil {
			response.Error(c, apperrors.NewBadRequest("to must be an RFC 3339 timestamp"))
			return
		}
		filters.To = &ts
	}

	reports, total, err := h.reports.List(c.Request.Context(), filters)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, reports, paginationMeta(filters.Page, filters.Size, total))
}

// Get returns a single report. Admin only.
func (h *ReportHandler) Get(c *gin.Context) {
	dto, err := h.reports.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, dto)
}

type reviewReportRequest struct {
	Action      string `json:"action" validate:"required"`
	Founded     bool   `json:"founded"`
	Description string `json:"description" validate:"max=2000"`
}

// Review settles a report with an action and intent. Admin only.
func (h *ReportHandler) Review(c *gin.Context) {
	reviewerID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	payload, err := bindAndValidate[reviewReportRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	dto, err := h.reports.Review(c.Request.Context(), reviewerID, c.Param("id"), services.ReviewReportInput{
		Action:      models.ModerationAction(payload.Action),
		Founded:     payload.Founded,
		Description: payload.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, dto)
}

// BatchReview settles every pending report against one target. Admin only.
func (h *ReportHandler) BatchReview(c *gin.Context) {
	reviewerID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	target, err := parseTarget(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	payload, err := bindAndValidate[reviewReportRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	settled, err := h.reports.BatchReviewByTarget(c.Request.Context(), reviewerID, target, services.ReviewReportInput{
		Action:      models.ModerationAction(payload.Action),
		Founded:     payload.Founded,
		Description: payload.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"settled": settled})
}

// Delete removes a report and its related notifications. Admin only.
func (h *ReportHandler) Delete(c *gin.Context) {
	if err := h.reports.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// Statistics returns the global moderation workload summary. Admin only.
func (h *ReportHandler) Statistics(c *gin.Context) {
	stats, err := h.reports.Statistics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// TargetStatistics returns counts and the live severity score for one target.
// Admin only.
func (h *ReportHandler) TargetStatistics(c *gin.Context) {
	target, err := parseTarget(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	stats, err := h.reports.TargetStatistics(c.Request.Context(), target)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// parseTarget reads the :kind/:id route segments into a Target.
func parseTarget(c *gin.Context) (models.Target, error) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return models.Target{}, apperrors.NewBadRequest("target id is required")
	}
	switch strings.ToLower(strings.TrimSpace(c.Param("kind"))) {
	case "recipe", "recipes":
		return models.RecipeTarget(id), nil
	case "user", "users":
		return models.UserTarget(id), nil
	default:
		return models.Target{}, apperrors.NewBadRequest("target kind must be recipe or user")
	}
}

func paginationMeta(page, size int, total int64) *response.Meta {
	if size < 1 {
		size = 20
	}
	pages := int(total) / size
	if int(total)%size != 0 {
		pages++
	}
	return &response.Meta{
		Page:       page,
		PerPage:    size,
		Total:      int(total),
		TotalPages: pages,
	}
}

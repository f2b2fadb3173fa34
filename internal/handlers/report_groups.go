package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/okastudio/platewatch/internal/services"
	"github.com/okastudio/platewatch/pkg/response"
)

// ReportGroupHandler exposes the grouped moderation queue. Admin only.
type ReportGroupHandler struct {
	groups *services.ReportGroupService
}

func NewReportGroupHandler(groups *services.ReportGroupService) (*ReportGroupHandler, error) {
	if groups == nil {
		return nil, errors.New("report group handler requires group service")
	}
	return &ReportGroupHandler{groups: groups}, nil
}

// List returns one page of scored groups, most urgent first.
func (h *ReportGroupHandler) List(c *gin.Context) {
	input := services.ListGroupsInput{
		Page:   parseIntQuery(c, "page", 1),
		Size:   parseIntQuery(c, "size", 20),
		Status: c.Query("status"),
		Type:   c.Query("type"),
		Action: c.Query("action"),
	}

	groups, total, err := h.groups.ListGroups(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, groups, paginationMeta(input.Page, input.Size, total))
}

// Detail returns one group with its member reports.
func (h *ReportGroupHandler) Detail(c *gin.Context) {
	target, err := parseTarget(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	detail, err := h.groups.GetGroupDetail(c.Request.Context(), target)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, detail)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ssug-dev/ssug-api/internal/models"
	"github.com/ssug-dev/ssug-api/internal/service"
	appErrors "github.com/ssug-dev/ssug-api/pkg/errors"
	"github.com/ssug-dev/ssug-api/pkg/response"
)

// CollectiveHandler exposes group activity endpoints.
type CollectiveHandler struct {
	collectives *service.CollectiveService
}

// NewCollectiveHandler constructs CollectiveHandler.
func NewCollectiveHandler(collectives *service.CollectiveService) *CollectiveHandler {
	return &CollectiveHandler{collectives: collectives}
}

// ByPeriod groups a period's collectives by submitting student.
func (h *CollectiveHandler) ByPeriod(c *gin.Context) {
	grouped, err := h.collectives.ByPeriod(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grouped, nil)
}

// AreaCounts returns per-area collective counts for one period.
func (h *CollectiveHandler) AreaCounts(c *gin.Context) {
	counts, err := h.collectives.AreaCounts(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts, nil)
}

// Create registers a group activity.
func (h *CollectiveHandler) Create(c *gin.Context) {
	var req service.CreateCollectiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid collective payload"))
		return
	}
	collective, err := h.collectives.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, collective)
}

// UpdateStatus records a review decision.
func (h *CollectiveHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status       string `json:"status" binding:"required"`
		Observations string `json:"observations"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload"))
		return
	}
	collective, err := h.collectives.UpdateStatus(c.Request.Context(), c.Param("id"), models.ActivityStatus(req.Status), req.Observations)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, collective, nil)
}

// Delete removes a collective.
func (h *CollectiveHandler) Delete(c *gin.Context) {
	if err := h.collectives.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

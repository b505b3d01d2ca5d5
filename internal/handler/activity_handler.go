package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ssug-dev/ssug-api/internal/service"
	appErrors "github.com/ssug-dev/ssug-api/pkg/errors"
	"github.com/ssug-dev/ssug-api/pkg/response"
)

// ActivityHandler exposes activity submission, review and aggregation
// endpoints.
type ActivityHandler struct {
	activities *service.ActivityService
}

// NewActivityHandler constructs ActivityHandler.
func NewActivityHandler(activities *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activities: activities}
}

// ByPeriod groups a period's activities by submitting student.
func (h *ActivityHandler) ByPeriod(c *gin.Context) {
	grouped, err := h.activities.ByPeriod(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grouped, nil)
}

// ByUser returns a student's submission history grouped by period.
func (h *ActivityHandler) ByUser(c *gin.Context) {
	history, err := h.activities.ByUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}

// AreaCounts returns per-area counts for one period.
func (h *ActivityHandler) AreaCounts(c *gin.Context) {
	counts, err := h.activities.AreaCounts(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts, nil)
}

// FinalReport returns the approved-hours aggregation for one period.
func (h *ActivityHandler) FinalReport(c *gin.Context) {
	report, err := h.activities.FinalReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Create registers a student submission.
func (h *ActivityHandler) Create(c *gin.Context) {
	var req service.CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activity payload"))
		return
	}
	activity, err := h.activities.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, activity)
}

// Get returns one activity.
func (h *ActivityHandler) Get(c *gin.Context) {
	activity, err := h.activities.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activity, nil)
}

// Update edits an activity's fields.
func (h *ActivityHandler) Update(c *gin.Context) {
	var req service.UpdateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activity payload"))
		return
	}
	activity, err := h.activities.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activity, nil)
}

// UploadEvidence stores uploaded images and replaces the activity's evidence
// set with the kept links plus the new files. The multipart form carries the
// images under "files" and an optional JSON array under "keep_evidence".
func (h *ActivityHandler) UploadEvidence(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid multipart payload"))
		return
	}
	var keep []string
	if raw := c.PostForm("keep_evidence"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &keep); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid keep_evidence list"))
			return
		}
	}
	files := make([]service.EvidenceFile, 0, len(form.File["files"]))
	for _, header := range form.File["files"] {
		opened, err := header.Open()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read uploaded file"))
			return
		}
		defer opened.Close() //nolint:errcheck
		files = append(files, service.EvidenceFile{Name: header.Filename, Reader: opened})
	}
	activity, err := h.activities.AttachEvidence(c.Request.Context(), c.Param("id"), keep, files)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activity, nil)
}

// UpdateStatus records a review decision.
func (h *ActivityHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateActivityStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload"))
		return
	}
	activity, err := h.activities.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activity, nil)
}

// Delete removes an activity.
func (h *ActivityHandler) Delete(c *gin.Context) {
	if err := h.activities.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

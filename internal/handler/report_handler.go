package handler

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/ssug-dev/ssug-api/internal/models"
	"github.com/ssug-dev/ssug-api/internal/service"
	appErrors "github.com/ssug-dev/ssug-api/pkg/errors"
	"github.com/ssug-dev/ssug-api/pkg/response"
	"github.com/ssug-dev/ssug-api/pkg/storage"
)

// ReportHandler exposes report download endpoints.
type ReportHandler struct {
	reports *service.ReportService
	storage *storage.LocalStorage
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService, store *storage.LocalStorage) *ReportHandler {
	return &ReportHandler{reports: reports, storage: store}
}

// DownloadPeriod streams the stored period report, or schedules generation
// and answers 202 when it is not ready yet.
func (h *ReportHandler) DownloadPeriod(c *gin.Context) {
	periodID := c.Param("periodId")
	path, err := h.reports.GetReportPath(c.Request.Context(), periodID)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrReportNotReady.Code {
			response.Accepted(c, gin.H{"report_status": models.ReportStatusGenerating})
			return
		}
		response.Error(c, err)
		return
	}
	c.FileAttachment(h.storage.Path(path), fmt.Sprintf("reporte-%s.pdf", periodID))
}

// DownloadCareer streams the cohort report for one career and campus.
func (h *ReportHandler) DownloadCareer(c *gin.Context) {
	periodID := c.Param("periodId")
	career := c.Query("career")
	sede := models.Sede(c.Query("sede"))

	buf, err := h.reports.GenerateCareerReport(c.Request.Context(), periodID, career, sede)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=reporte-%s-%s.pdf", career, sede))
	c.Data(200, "application/pdf", buf)
}

// DownloadFinalXLSX streams the approved-hours workbook for one period.
func (h *ReportHandler) DownloadFinalXLSX(c *gin.Context) {
	periodID := c.Param("periodId")
	buf, err := h.reports.FinalReportXLSX(c.Request.Context(), periodID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=reporte-final-%s.xlsx", periodID))
	c.Data(200, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf)
}

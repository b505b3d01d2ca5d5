package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ssug-dev/ssug-api/internal/models"
	"github.com/ssug-dev/ssug-api/internal/service"
	appErrors "github.com/ssug-dev/ssug-api/pkg/errors"
	"github.com/ssug-dev/ssug-api/pkg/response"
)

// QRCodeHandler exposes the check-in code registry.
type QRCodeHandler struct {
	codes *service.QRCodeService
}

// NewQRCodeHandler constructs QRCodeHandler.
func NewQRCodeHandler(codes *service.QRCodeService) *QRCodeHandler {
	return &QRCodeHandler{codes: codes}
}

// List returns QR codes matching query filters.
func (h *QRCodeHandler) List(c *gin.Context) {
	var filter models.QRCodeFilter
	filter.Career = c.Query("career")
	filter.Area = models.ActivityArea(c.Query("area"))
	if active := c.Query("active"); active == "true" {
		v := true
		filter.Active = &v
	} else if active == "false" {
		v := false
		filter.Active = &v
	}

	codes, err := h.codes.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, codes, nil)
}

// Create registers a QR code.
func (h *QRCodeHandler) Create(c *gin.Context) {
	var req service.SaveQRCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid qr code payload"))
		return
	}
	code, err := h.codes.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, code)
}

// Update replaces a QR code.
func (h *QRCodeHandler) Update(c *gin.Context) {
	var req service.SaveQRCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid qr code payload"))
		return
	}
	code, err := h.codes.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, code, nil)
}

// Delete removes a QR code.
func (h *QRCodeHandler) Delete(c *gin.Context) {
	if err := h.codes.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ssug-dev/ssug-api/internal/service"
	appErrors "github.com/ssug-dev/ssug-api/pkg/errors"
	"github.com/ssug-dev/ssug-api/pkg/response"
)

// ContactHandler exposes escalation endpoints.
type ContactHandler struct {
	contacts *service.ContactService
}

// NewContactHandler constructs ContactHandler.
func NewContactHandler(contacts *service.ContactService) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

// ByPeriod lists a period's escalations, active first.
func (h *ContactHandler) ByPeriod(c *gin.Context) {
	contacts, err := h.contacts.ListByPeriod(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contacts, nil)
}

// Create opens an escalation.
func (h *ContactHandler) Create(c *gin.Context) {
	var req service.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid contact payload"))
		return
	}
	contact, err := h.contacts.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, contact)
}

// Update progresses an escalation.
func (h *ContactHandler) Update(c *gin.Context) {
	var req service.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid contact payload"))
		return
	}
	contact, err := h.contacts.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contact, nil)
}

// Delete removes an escalation.
func (h *ContactHandler) Delete(c *gin.Context) {
	if err := h.contacts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

// PriorityHandler handles per-class scheduling preference endpoints.
type PriorityHandler struct {
	service *service.PriorityService
}

// NewPriorityHandler constructs a priority handler.
func NewPriorityHandler(svc *service.PriorityService) *PriorityHandler {
	return &PriorityHandler{service: svc}
}

// List godoc
// @Summary List class scheduling preferences
// @Tags Priorities
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /priorities [get]
func (h *PriorityHandler) List(c *gin.Context) {
	configs, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, configs, nil)
}

// Get godoc
// @Summary Get one class's scheduling preferences
// @Tags Priorities
// @Produce json
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /priorities/{classId} [get]
func (h *PriorityHandler) Get(c *gin.Context) {
	config, err := h.service.GetByClass(c.Request.Context(), c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, config, nil)
}

// Upsert godoc
// @Summary Replace one class's scheduling preferences
// @Tags Priorities
// @Accept json
// @Produce json
// @Param classId path string true "Class ID"
// @Param payload body service.UpsertPriorityRequest true "Priority payload"
// @Success 200 {object} response.Envelope
// @Router /priorities/{classId} [put]
func (h *PriorityHandler) Upsert(c *gin.Context) {
	var req service.UpsertPriorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	config, err := h.service.Upsert(c.Request.Context(), c.Param("classId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, config, nil)
}

// Delete godoc
// @Summary Remove one class's scheduling preferences
// @Tags Priorities
// @Param classId path string true "Class ID"
// @Success 204
// @Router /priorities/{classId} [delete]
func (h *PriorityHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("classId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

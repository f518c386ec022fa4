package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

// SchoolConfigHandler handles the school calendar endpoints.
type SchoolConfigHandler struct {
	service *service.SchoolConfigService
}

// NewSchoolConfigHandler constructs a school config handler.
func NewSchoolConfigHandler(svc *service.SchoolConfigService) *SchoolConfigHandler {
	return &SchoolConfigHandler{service: svc}
}

// Get godoc
// @Summary Get the school calendar
// @Tags SchoolConfig
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /school-config [get]
func (h *SchoolConfigHandler) Get(c *gin.Context) {
	config, err := h.service.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, config, nil)
}

// Update godoc
// @Summary Replace the school calendar
// @Tags SchoolConfig
// @Accept json
// @Produce json
// @Param payload body service.UpdateSchoolConfigRequest true "Calendar payload"
// @Success 200 {object} response.Envelope
// @Router /school-config [put]
func (h *SchoolConfigHandler) Update(c *gin.Context) {
	var req service.UpdateSchoolConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	config, err := h.service.Update(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, config, nil)
}

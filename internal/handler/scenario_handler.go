package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

// ScenarioHandler handles the what-if scenario toggles and the resolved view.
type ScenarioHandler struct {
	service *service.ScenarioService
}

// NewScenarioHandler constructs a scenario handler.
func NewScenarioHandler(svc *service.ScenarioService) *ScenarioHandler {
	return &ScenarioHandler{service: svc}
}

// State godoc
// @Summary Get the active scenario toggles
// @Tags Scenarios
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /scenarios [get]
func (h *ScenarioHandler) State(c *gin.Context) {
	state, err := h.service.State(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// Update godoc
// @Summary Replace the scenario toggles
// @Tags Scenarios
// @Accept json
// @Produce json
// @Param payload body dto.ScenarioStateRequest true "Scenario payload"
// @Success 200 {object} response.Envelope
// @Router /scenarios [put]
func (h *ScenarioHandler) Update(c *gin.Context) {
	var req dto.ScenarioStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	state, err := h.service.Update(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// Clear godoc
// @Summary Switch every scenario toggle off
// @Tags Scenarios
// @Success 204
// @Router /scenarios [delete]
func (h *ScenarioHandler) Clear(c *gin.Context) {
	if err := h.service.Clear(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Resolved godoc
// @Summary Get the timetable with active scenarios applied
// @Tags Scenarios
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/resolved [get]
func (h *ScenarioHandler) Resolved(c *gin.Context) {
	result, err := h.service.Resolved(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

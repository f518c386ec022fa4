package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

// HistoryHandler exposes the activity log.
type HistoryHandler struct {
	service *service.HistoryService
	logger  *zap.Logger
}

// NewHistoryHandler constructs a history handler.
func NewHistoryHandler(svc *service.HistoryService, logger *zap.Logger) *HistoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryHandler{service: svc, logger: logger}
}

// List godoc
// @Summary List activity log entries, newest first
// @Tags History
// @Produce json
// @Param action query string false "Filter by action"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /history [get]
func (h *HistoryHandler) List(c *gin.Context) {
	var filter models.HistoryFilter
	filter.Action = strings.ToUpper(strings.TrimSpace(c.Query("action")))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = limit
	}

	entries, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// Clear godoc
// @Summary Wipe the activity log
// @Tags History
// @Success 204
// @Router /history [delete]
func (h *HistoryHandler) Clear(c *gin.Context) {
	if err := h.service.Clear(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	if claims := claimsFromContext(c); claims != nil {
		h.logger.Info("activity log cleared", zap.String("subject", claims.Subject))
	}
	response.NoContent(c)
}

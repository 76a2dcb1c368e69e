package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tej1010/spongier-backend-sub001/internal/http/response"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/ctxutil"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/logger"
	"github.com/tej1010/spongier-backend-sub001/internal/services"
)

type StatisticsHandler struct {
	log   *logger.Logger
	stats services.StatisticsService
}

func NewStatisticsHandler(log *logger.Logger, stats services.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{log: log.With("handler", "StatisticsHandler"), stats: stats}
}

// target returns the caller and the optional :childUserId. ok is false when a
// response has already been written.
func (h *StatisticsHandler) target(c *gin.Context) (viewer, child uuid.UUID, ok bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, services.CodeUnauthorized, services.ErrUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}
	raw := c.Param("childUserId")
	if raw == "" {
		return rd.UserID, uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_child_id", err)
		return uuid.Nil, uuid.Nil, false
	}
	return rd.UserID, id, true
}

// GET /api/video/watch-statistics[/:childUserId]
func (h *StatisticsHandler) WatchStatistics(c *gin.Context) {
	viewer, child, ok := h.target(c)
	if !ok {
		return
	}
	out, err := h.stats.WatchStatistics(c.Request.Context(), viewer, child)
	if err != nil {
		response.RespondServiceError(c, err, services.CodeLoadStatsFailed)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/video/weekly-progress[/:childUserId]
func (h *StatisticsHandler) WeeklyProgress(c *gin.Context) {
	viewer, child, ok := h.target(c)
	if !ok {
		return
	}
	out, err := h.stats.WeeklyProgress(c.Request.Context(), viewer, child)
	if err != nil {
		response.RespondServiceError(c, err, services.CodeLoadStatsFailed)
		return
	}
	response.RespondOK(c, out)
}

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	progressrepo "github.com/tej1010/spongier-backend-sub001/internal/data/repos/progress"
	types "github.com/tej1010/spongier-backend-sub001/internal/domain"
	httpMW "github.com/tej1010/spongier-backend-sub001/internal/http/middleware"
	"github.com/tej1010/spongier-backend-sub001/internal/http/response"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/ctxutil"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/duration"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/logger"
	"github.com/tej1010/spongier-backend-sub001/internal/services"
)

type WatchHandler struct {
	log      *logger.Logger
	progress services.ProgressService
	stats    services.StatisticsService
}

func NewWatchHandler(log *logger.Logger, progress services.ProgressService, stats services.StatisticsService) *WatchHandler {
	return &WatchHandler{
		log:      log.With("handler", "WatchHandler"),
		progress: progress,
		stats:    stats,
	}
}

type recordWatchRequest struct {
	VideoID         string            `json:"video_id" binding:"required,uuid"`
	WatchedDuration *duration.Seconds `json:"watched_duration" binding:"required"`
	LastPosition    *duration.Seconds `json:"last_position"`
	DeviceType      string            `json:"device_type" binding:"omitempty,max=32,devicetype"`
	DeviceOS        string            `json:"device_os" binding:"omitempty,max=64"`
	Browser         string            `json:"browser" binding:"omitempty,max=64"`
}

type recordWatchResponse struct {
	Record        *types.VideoProgress    `json:"record"`
	WatchedTime   duration.Seconds        `json:"watched_time"`
	TotalTime     duration.Seconds        `json:"total_time"`
	LastPosition  duration.Seconds        `json:"last_position"`
	JustCompleted bool                    `json:"just_completed"`
	Completions   []types.CompletionEvent `json:"completions"`
}

// POST /api/video/watch
func (h *WatchHandler) RecordWatch(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, services.CodeUnauthorized, services.ErrUnauthorized)
		return
	}

	var req recordWatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, duration.ErrInvalidFormat) {
			response.RespondError(c, http.StatusBadRequest, services.CodeInvalidDuration, err)
			return
		}
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	videoID, err := uuid.Parse(req.VideoID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_video_id", err)
		return
	}
	c.Set(httpMW.VideoIDKey, videoID.String())

	in := services.WatchInput{
		UserID:  rd.UserID,
		VideoID: videoID,
		Watched: *req.WatchedDuration,
		Session: types.SessionMeta{
			DeviceType: strings.ToLower(strings.TrimSpace(req.DeviceType)),
			DeviceOS:   strings.TrimSpace(req.DeviceOS),
			Browser:    strings.TrimSpace(req.Browser),
			IPAddress:  c.ClientIP(),
		},
	}
	if req.LastPosition != nil {
		in.LastPosition = *req.LastPosition
	}

	res, err := h.progress.RecordWatch(c.Request.Context(), in)
	if err != nil {
		response.RespondServiceError(c, err, services.CodeRecordWatchFailed)
		return
	}

	completions := res.Events
	if completions == nil {
		completions = []types.CompletionEvent{}
	}
	response.RespondOK(c, recordWatchResponse{
		Record:        res.Record,
		WatchedTime:   duration.Seconds(res.Record.WatchedSeconds),
		TotalTime:     duration.Seconds(res.Record.TotalSeconds),
		LastPosition:  duration.Seconds(res.Record.LastPositionSeconds),
		JustCompleted: res.JustCompleted,
		Completions:   completions,
	})
}

type historyQuery struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
	GradeID   string `form:"grade_id" binding:"omitempty,uuid"`
	SubjectID string `form:"subject_id" binding:"omitempty,uuid"`
	TermID    string `form:"term_id" binding:"omitempty,uuid"`
	Completed *bool  `form:"completed"`
}

// GET /api/video/watch-history
func (h *WatchHandler) WatchHistory(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, services.CodeUnauthorized, services.ErrUnauthorized)
		return
	}
	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_query", err)
		return
	}
	filter := progressrepo.HistoryFilter{
		GradeID:   optionalUUID(q.GradeID),
		SubjectID: optionalUUID(q.SubjectID),
		TermID:    optionalUUID(q.TermID),
		Completed: q.Completed,
	}
	page, err := h.stats.WatchHistory(c.Request.Context(), rd.UserID, services.HistoryQuery{
		PageQuery: services.PageQuery{Page: q.Page, Limit: q.Limit},
		Filter:    filter,
	})
	if err != nil {
		response.RespondServiceError(c, err, services.CodeLoadHistoryFailed)
		return
	}
	response.RespondOK(c, page)
}

type learningQuery struct {
	Sort  string `form:"sort" binding:"omitempty,oneof=recent progress"`
	Page  int    `form:"page" binding:"omitempty,min=1"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// GET /api/video/my-learning
func (h *WatchHandler) MyLearning(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, services.CodeUnauthorized, services.ErrUnauthorized)
		return
	}
	var q learningQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_query", err)
		return
	}
	page, err := h.stats.MyLearning(c.Request.Context(), rd.UserID, services.LearningQuery{
		PageQuery: services.PageQuery{Page: q.Page, Limit: q.Limit},
		Sort:      progressrepo.LearningSort(q.Sort),
	})
	if err != nil {
		response.RespondServiceError(c, err, services.CodeLoadLearningFailed)
		return
	}
	response.RespondOK(c, page)
}

// optionalUUID assumes s was already validated by the binding tags.
func optionalUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

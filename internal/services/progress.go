package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/tej1010/spongier-backend-sub001/internal/data/repos"
	types "github.com/tej1010/spongier-backend-sub001/internal/domain"
	"github.com/tej1010/spongier-backend-sub001/internal/observability"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/apierr"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/ctxutil"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/duration"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/logger"
)

// WatchInput is one watch sample reported by a player.
type WatchInput struct {
	UserID       uuid.UUID
	VideoID      uuid.UUID
	Watched      duration.Seconds
	LastPosition duration.Seconds
	Session      types.SessionMeta
}

type WatchResult struct {
	Record *types.VideoProgress
	// JustCompleted is true only for the sample that moved the record across
	// the completion threshold.
	JustCompleted bool
	Created       bool
	FirstEver     bool
	// Events holds the video completion followed by any term or subject
	// completions it caused.
	Events []types.CompletionEvent
}

type ProgressService interface {
	RecordWatch(ctx context.Context, in WatchInput) (*WatchResult, error)
}

type progressService struct {
	db       *gorm.DB
	log      *logger.Logger
	catalog  VideoCatalog
	progress repos.VideoProgressRepo
	cascade  CascadeEvaluator
	dispatch Dispatcher
	clock    *sampleClock
}

func NewProgressService(
	db *gorm.DB,
	baseLog *logger.Logger,
	catalog VideoCatalog,
	progress repos.VideoProgressRepo,
	cascade CascadeEvaluator,
	dispatch Dispatcher,
) ProgressService {
	return &progressService{
		db:       db,
		log:      baseLog.With("service", "ProgressService"),
		catalog:  catalog,
		progress: progress,
		cascade:  cascade,
		dispatch: dispatch,
		clock:    newSampleClock(time.Now),
	}
}

func (s *progressService) RecordWatch(ctx context.Context, in WatchInput) (*WatchResult, error) {
	ctx, span := observability.Tracer().Start(ctx, "ProgressService.RecordWatch")
	defer span.End()
	span.SetAttributes(attribute.String("video.id", in.VideoID.String()))

	if in.UserID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, CodeUnauthorized, ErrUnauthorized)
	}
	video, err := s.catalog.FindActive(ctx, in.VideoID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog lookup failed")
		return nil, apierr.Internal(CodeRecordWatchFailed, fmt.Errorf("load video: %w", err))
	}
	if video == nil {
		return nil, apierr.NotFound(CodeVideoNotFound, ErrVideoNotFound)
	}

	total := duration.Seconds(video.DurationSeconds)
	if total < 0 {
		total = 0
	}
	watched := in.Watched.Clamp(0, total)
	position := in.LastPosition
	if position < 0 {
		position = 0
	}

	at := s.clock.Stamp()
	row := &types.VideoProgress{
		UserID:              in.UserID,
		VideoID:             video.ID,
		GradeID:             video.GradeID,
		SubjectID:           video.SubjectID,
		TermID:              video.TermID,
		WatchedSeconds:      watched.Int64(),
		TotalSeconds:        total.Int64(),
		LastPositionSeconds: position.Int64(),
		SessionMeta:         in.Session,
		LastWatchedAt:       at,
		CreatedAt:           at,
	}
	merged, err := s.progress.Merge(ctx, nil, row)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "merge failed")
		s.log.With(ctxutil.LogFields(ctx)...).Error("progress merge failed", "user_id", in.UserID, "video_id", in.VideoID, "error", err)
		return nil, apierr.Internal(CodeRecordWatchFailed, fmt.Errorf("merge progress: %w", err))
	}

	rec := merged.Record
	res := &WatchResult{
		Record:        rec,
		JustCompleted: rec.Completed && rec.CompletedAt != nil && rec.CompletedAt.Equal(at),
		Created:       merged.Created,
		FirstEver:     merged.FirstForUser,
	}
	if res.JustCompleted {
		res.Events = append(res.Events, types.CompletionEvent{
			UserID:     rec.UserID,
			VideoID:    rec.VideoID,
			Scope:      types.ScopeVideo,
			ScopeID:    rec.VideoID,
			OccurredAt: at,
		})
		res.Events = append(res.Events, s.cascade.Evaluate(ctx, rec, at)...)
	}
	span.SetAttributes(
		attribute.Bool("progress.just_completed", res.JustCompleted),
		attribute.Bool("progress.created", res.Created),
		attribute.Float64("progress.percentage", rec.Percentage),
	)

	if s.dispatch != nil {
		s.dispatch.Dispatch(res)
	}
	return res, nil
}

package services

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/tej1010/spongier-backend-sub001/internal/data/repos"
	progressrepo "github.com/tej1010/spongier-backend-sub001/internal/data/repos/progress"
	types "github.com/tej1010/spongier-backend-sub001/internal/domain"
	"github.com/tej1010/spongier-backend-sub001/internal/domain/progress"
	"github.com/tej1010/spongier-backend-sub001/internal/observability"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/apierr"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/duration"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/logger"
)

const (
	recentLimit      = 5
	weekDays         = 7
	defaultPageLimit = 20
	maxPageLimit     = 100

	ActionResume  = "resume"
	ActionRewatch = "rewatch"
)

type Overview struct {
	VideosWatched   int64            `json:"videos_watched"`
	VideosCompleted int64            `json:"videos_completed"`
	WatchedSeconds  int64            `json:"watched_seconds"`
	WatchedTime     duration.Seconds `json:"watched_time"`
}

type GroupStat struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Overview
}

type RecentItem struct {
	VideoID       uuid.UUID        `json:"video_id"`
	Percentage    float64          `json:"percentage"`
	Completed     bool             `json:"completed"`
	WatchedTime   duration.Seconds `json:"watched_time"`
	LastPosition  duration.Seconds `json:"last_position"`
	LastWatchedAt time.Time        `json:"last_watched_at"`
}

type WatchStatistics struct {
	UserID    uuid.UUID    `json:"user_id"`
	Overview  Overview     `json:"overview"`
	BySubject []GroupStat  `json:"by_subject"`
	ByGrade   []GroupStat  `json:"by_grade"`
	Recent    []RecentItem `json:"recent"`
}

type DayBucket struct {
	Date              string           `json:"date"`
	Weekday           string           `json:"weekday"`
	VideosWatched     int64            `json:"videos_watched"`
	WatchedSeconds    int64            `json:"watched_seconds"`
	WatchedTime       duration.Seconds `json:"watched_time"`
	CompletedCount    int64            `json:"completed_count"`
	AveragePercentage float64          `json:"average_percentage"`
}

type WeeklyProgress struct {
	UserID   uuid.UUID   `json:"user_id"`
	Timezone string      `json:"timezone"`
	From     string      `json:"from"`
	To       string      `json:"to"`
	Days     []DayBucket `json:"days"`
	Totals   DayBucket   `json:"totals"`
}

type PageQuery struct {
	Page  int
	Limit int
}

// Normalize applies defaults and bounds: page >= 1, 1 <= limit <= 100.
func (q PageQuery) Normalize() PageQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageLimit
	}
	if q.Limit > maxPageLimit {
		q.Limit = maxPageLimit
	}
	return q
}

func (q PageQuery) Offset() int { return (q.Page - 1) * q.Limit }

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

func newPagination(q PageQuery, total int64) Pagination {
	pages := int64(0)
	if total > 0 {
		pages = (total + int64(q.Limit) - 1) / int64(q.Limit)
	}
	return Pagination{Page: q.Page, Limit: q.Limit, Total: total, TotalPages: pages}
}

type HistoryQuery struct {
	PageQuery
	Filter progressrepo.HistoryFilter
}

type HistoryItem struct {
	*types.VideoProgress
	WatchedTime  duration.Seconds `json:"watched_time"`
	TotalTime    duration.Seconds `json:"total_time"`
	LastPosition duration.Seconds `json:"last_position"`
}

type HistoryPage struct {
	Items      []HistoryItem `json:"items"`
	Pagination Pagination    `json:"pagination"`
}

type LearningQuery struct {
	PageQuery
	Sort progressrepo.LearningSort
}

type LearningItem struct {
	VideoID           uuid.UUID        `json:"video_id"`
	Title             string           `json:"title"`
	ThumbnailURL      string           `json:"thumbnail_url,omitempty"`
	GradeID           uuid.UUID        `json:"grade_id"`
	SubjectID         uuid.UUID        `json:"subject_id"`
	TermID            uuid.UUID        `json:"term_id"`
	WatchedTime       duration.Seconds `json:"watched_time"`
	Duration          duration.Seconds `json:"duration"`
	LastPosition      duration.Seconds `json:"last_position"`
	DisplayPercentage float64          `json:"display_percentage"`
	Completed         bool             `json:"completed"`
	Action            string           `json:"action"`
	LastWatchedAt     time.Time        `json:"last_watched_at"`
}

type LearningPage struct {
	Items      []LearningItem `json:"items"`
	Pagination Pagination     `json:"pagination"`
}

type StatisticsService interface {
	// WatchStatistics and WeeklyProgress read targetID's data; a zero target
	// means the viewer. Reading someone else requires a verified parent link.
	WatchStatistics(ctx context.Context, viewerID, targetID uuid.UUID) (*WatchStatistics, error)
	WeeklyProgress(ctx context.Context, viewerID, targetID uuid.UUID) (*WeeklyProgress, error)
	WatchHistory(ctx context.Context, userID uuid.UUID, q HistoryQuery) (*HistoryPage, error)
	MyLearning(ctx context.Context, userID uuid.UUID, q LearningQuery) (*LearningPage, error)
}

type StatisticsConfig struct {
	Location *time.Location
	Now      func() time.Time
}

type statisticsService struct {
	log       *logger.Logger
	progress  repos.VideoProgressRepo
	hierarchy repos.HierarchyRepo
	guardian  GuardianService
	loc       *time.Location
	now       func() time.Time
}

func NewStatisticsService(
	baseLog *logger.Logger,
	cfg StatisticsConfig,
	progress repos.VideoProgressRepo,
	hierarchy repos.HierarchyRepo,
	guardian GuardianService,
) StatisticsService {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &statisticsService{
		log:       baseLog.With("service", "StatisticsService"),
		progress:  progress,
		hierarchy: hierarchy,
		guardian:  guardian,
		loc:       loc,
		now:       now,
	}
}

func (s *statisticsService) resolveTarget(ctx context.Context, viewerID, targetID uuid.UUID) (uuid.UUID, error) {
	if viewerID == uuid.Nil {
		return uuid.Nil, apierr.New(http.StatusUnauthorized, CodeUnauthorized, ErrUnauthorized)
	}
	if targetID == uuid.Nil || targetID == viewerID {
		return viewerID, nil
	}
	ok, err := s.guardian.CanViewChild(ctx, viewerID, targetID)
	if err != nil {
		return uuid.Nil, apierr.Internal(CodeLoadStatsFailed, fmt.Errorf("check parent link: %w", err))
	}
	if !ok {
		return uuid.Nil, apierr.Forbidden(CodeNotParentOfChild, ErrForbidden)
	}
	return targetID, nil
}

func (s *statisticsService) WatchStatistics(ctx context.Context, viewerID, targetID uuid.UUID) (*WatchStatistics, error) {
	ctx, span := observability.Tracer().Start(ctx, "StatisticsService.WatchStatistics")
	defer span.End()

	userID, err := s.resolveTarget(ctx, viewerID, targetID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Bool("statistics.for_child", userID != viewerID))

	var (
		totals    progressrepo.Totals
		bySubject []progressrepo.GroupTotals
		byGrade   []progressrepo.GroupTotals
		recent    []*types.VideoProgress
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = s.progress.Summarize(gctx, nil, userID)
		return err
	})
	g.Go(func() error {
		var err error
		bySubject, err = s.progress.SummarizeBy(gctx, nil, userID, progressrepo.GroupBySubject)
		return err
	})
	g.Go(func() error {
		var err error
		byGrade, err = s.progress.SummarizeBy(gctx, nil, userID, progressrepo.GroupByGrade)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.progress.ListRecent(gctx, nil, userID, recentLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, apierr.Internal(CodeLoadStatsFailed, fmt.Errorf("load watch statistics: %w", err))
	}

	subjectNames, gradeNames := s.displayNames(ctx, bySubject, byGrade)

	out := &WatchStatistics{
		UserID:    userID,
		Overview:  overviewOf(totals),
		BySubject: groupStats(bySubject, subjectNames),
		ByGrade:   groupStats(byGrade, gradeNames),
		Recent:    make([]RecentItem, 0, len(recent)),
	}
	for _, r := range recent {
		out.Recent = append(out.Recent, RecentItem{
			VideoID:       r.VideoID,
			Percentage:    round2(r.Percentage),
			Completed:     r.Completed,
			WatchedTime:   duration.Seconds(r.WatchedSeconds),
			LastPosition:  duration.Seconds(r.LastPositionSeconds),
			LastWatchedAt: r.LastWatchedAt,
		})
	}
	return out, nil
}

// displayNames is best effort: a failed lookup leaves names empty.
func (s *statisticsService) displayNames(ctx context.Context, bySubject, byGrade []progressrepo.GroupTotals) (map[uuid.UUID]string, map[uuid.UUID]string) {
	var subjectNames, gradeNames map[uuid.UUID]string
	if s.hierarchy == nil {
		return subjectNames, gradeNames
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		names, err := s.hierarchy.SubjectNames(gctx, nil, groupIDs(bySubject))
		if err != nil {
			s.log.Warn("subject names lookup failed", "error", err)
			return nil
		}
		subjectNames = names
		return nil
	})
	g.Go(func() error {
		names, err := s.hierarchy.GradeNames(gctx, nil, groupIDs(byGrade))
		if err != nil {
			s.log.Warn("grade names lookup failed", "error", err)
			return nil
		}
		gradeNames = names
		return nil
	})
	_ = g.Wait()
	return subjectNames, gradeNames
}

func (s *statisticsService) WeeklyProgress(ctx context.Context, viewerID, targetID uuid.UUID) (*WeeklyProgress, error) {
	ctx, span := observability.Tracer().Start(ctx, "StatisticsService.WeeklyProgress")
	defer span.End()

	userID, err := s.resolveTarget(ctx, viewerID, targetID)
	if err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	from := today.AddDate(0, 0, -(weekDays - 1))
	to := today.AddDate(0, 0, 1)

	rows, err := s.progress.ListWatchedBetween(ctx, nil, userID, from, to)
	if err != nil {
		span.RecordError(err)
		return nil, apierr.Internal(CodeLoadStatsFailed, fmt.Errorf("load weekly progress: %w", err))
	}

	days := make([]DayBucket, weekDays)
	index := make(map[string]int, weekDays)
	for i := 0; i < weekDays; i++ {
		d := from.AddDate(0, 0, i)
		key := d.Format("2006-01-02")
		days[i] = DayBucket{Date: key, Weekday: d.Weekday().String()}
		index[key] = i
	}
	pctSums := make([]float64, weekDays)
	for _, r := range rows {
		i, ok := index[r.LastWatchedAt.In(s.loc).Format("2006-01-02")]
		if !ok {
			continue
		}
		days[i].VideosWatched++
		days[i].WatchedSeconds += r.WatchedSeconds
		if r.Completed {
			days[i].CompletedCount++
		}
		pctSums[i] += r.Percentage
	}

	totals := DayBucket{Date: from.Format("2006-01-02"), Weekday: "all"}
	var pctTotal float64
	for i := range days {
		days[i].WatchedTime = duration.Seconds(days[i].WatchedSeconds)
		if days[i].VideosWatched > 0 {
			days[i].AveragePercentage = round2(pctSums[i] / float64(days[i].VideosWatched))
		}
		totals.VideosWatched += days[i].VideosWatched
		totals.WatchedSeconds += days[i].WatchedSeconds
		totals.CompletedCount += days[i].CompletedCount
		pctTotal += pctSums[i]
	}
	totals.WatchedTime = duration.Seconds(totals.WatchedSeconds)
	if totals.VideosWatched > 0 {
		totals.AveragePercentage = round2(pctTotal / float64(totals.VideosWatched))
	}

	return &WeeklyProgress{
		UserID:   userID,
		Timezone: s.loc.String(),
		From:     from.Format("2006-01-02"),
		To:       today.Format("2006-01-02"),
		Days:     days,
		Totals:   totals,
	}, nil
}

func (s *statisticsService) WatchHistory(ctx context.Context, userID uuid.UUID, q HistoryQuery) (*HistoryPage, error) {
	if userID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, CodeUnauthorized, ErrUnauthorized)
	}
	page := q.PageQuery.Normalize()
	rows, total, err := s.progress.ListHistory(ctx, nil, userID, q.Filter, page.Limit, page.Offset())
	if err != nil {
		return nil, apierr.Internal(CodeLoadHistoryFailed, fmt.Errorf("load watch history: %w", err))
	}
	items := make([]HistoryItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, HistoryItem{
			VideoProgress: r,
			WatchedTime:   duration.Seconds(r.WatchedSeconds),
			TotalTime:     duration.Seconds(r.TotalSeconds),
			LastPosition:  duration.Seconds(r.LastPositionSeconds),
		})
	}
	return &HistoryPage{Items: items, Pagination: newPagination(page, total)}, nil
}

func (s *statisticsService) MyLearning(ctx context.Context, userID uuid.UUID, q LearningQuery) (*LearningPage, error) {
	if userID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, CodeUnauthorized, ErrUnauthorized)
	}
	page := q.PageQuery.Normalize()
	sort := q.Sort
	if sort != progressrepo.SortProgress {
		sort = progressrepo.SortRecent
	}
	rows, total, err := s.progress.ListLearning(ctx, nil, userID, sort, page.Limit, page.Offset())
	if err != nil {
		return nil, apierr.Internal(CodeLoadLearningFailed, fmt.Errorf("load my learning: %w", err))
	}
	items := make([]LearningItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, learningItem(r))
	}
	return &LearningPage{Items: items, Pagination: newPagination(page, total)}, nil
}

// learningItem measures progress against the video's current duration, which
// may differ from the total captured on the record.
func learningItem(r progressrepo.LearningRow) LearningItem {
	dur := r.VideoDurationSeconds
	if dur < 0 {
		dur = 0
	}
	watched := r.WatchedSeconds
	if watched > dur {
		watched = dur
	}
	action := ActionResume
	if r.Completed {
		action = ActionRewatch
	}
	return LearningItem{
		VideoID:           r.VideoID,
		Title:             r.Title,
		ThumbnailURL:      r.ThumbnailURL,
		GradeID:           r.GradeID,
		SubjectID:         r.SubjectID,
		TermID:            r.TermID,
		WatchedTime:       duration.Seconds(watched),
		Duration:          duration.Seconds(dur),
		LastPosition:      duration.Seconds(r.LastPositionSeconds),
		DisplayPercentage: round2(progress.Percentage(watched, dur)),
		Completed:         r.Completed,
		Action:            action,
		LastWatchedAt:     r.LastWatchedAt,
	}
}

func overviewOf(t progressrepo.Totals) Overview {
	return Overview{
		VideosWatched:   t.VideosWatched,
		VideosCompleted: t.VideosCompleted,
		WatchedSeconds:  t.WatchedSeconds,
		WatchedTime:     duration.Seconds(t.WatchedSeconds),
	}
}

func groupStats(rows []progressrepo.GroupTotals, names map[uuid.UUID]string) []GroupStat {
	out := make([]GroupStat, 0, len(rows))
	for _, r := range rows {
		out = append(out, GroupStat{ID: r.GroupID, Name: names[r.GroupID], Overview: overviewOf(r.Totals)})
	}
	return out
}

func groupIDs(rows []progressrepo.GroupTotals) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.GroupID)
	}
	return ids
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/tej1010/spongier-backend-sub001/internal/domain"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/logger"
)

type HistoryFilter struct {
	GradeID   *uuid.UUID
	SubjectID *uuid.UUID
	TermID    *uuid.UUID
	Completed *bool
}

type Totals struct {
	VideosWatched   int64
	VideosCompleted int64
	WatchedSeconds  int64
}

type GroupTotals struct {
	GroupID uuid.UUID
	Totals
}

type GroupBy string

const (
	GroupBySubject GroupBy = "subject_id"
	GroupByGrade   GroupBy = "grade_id"
)

type LearningSort string

const (
	SortRecent   LearningSort = "recent"
	SortProgress LearningSort = "progress"
)

// LearningRow is a progress row joined with the video's current catalog data.
type LearningRow struct {
	ProgressID           uuid.UUID
	VideoID              uuid.UUID
	GradeID              uuid.UUID
	SubjectID            uuid.UUID
	TermID               uuid.UUID
	WatchedSeconds       int64
	TotalSeconds         int64
	Percentage           float64
	Completed            bool
	LastPositionSeconds  int64
	LastWatchedAt        time.Time
	Title                string
	ThumbnailURL         string
	VideoDurationSeconds int64
}

// MergeResult is the record after a Merge. Created is set when the sample
// inserted the row; FirstForUser when that row is also the user's only live
// record. Both are decided inside the upsert transaction.
type MergeResult struct {
	Record       *types.VideoProgress
	Created      bool
	FirstForUser bool
}

type VideoProgressRepo interface {
	// Merge inserts row or folds it into the live record for (user, video) in
	// one statement. watched_seconds only grows and is capped at the stored
	// total; position, session meta and last_watched_at are overwritten.
	Merge(ctx context.Context, tx *gorm.DB, row *types.VideoProgress) (*MergeResult, error)

	GetByUserAndVideo(ctx context.Context, tx *gorm.DB, userID, videoID uuid.UUID) (*types.VideoProgress, error)
	CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
	CountCompletedByUserTerm(ctx context.Context, tx *gorm.DB, userID, termID uuid.UUID) (int64, error)
	CountCompletedByUserSubject(ctx context.Context, tx *gorm.DB, userID, subjectID uuid.UUID) (int64, error)

	ListHistory(ctx context.Context, tx *gorm.DB, userID uuid.UUID, filter HistoryFilter, limit, offset int) ([]*types.VideoProgress, int64, error)
	ListRecent(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.VideoProgress, error)
	ListWatchedBetween(ctx context.Context, tx *gorm.DB, userID uuid.UUID, from, to time.Time) ([]*types.VideoProgress, error)
	ListLearning(ctx context.Context, tx *gorm.DB, userID uuid.UUID, sort LearningSort, limit, offset int) ([]LearningRow, int64, error)

	Summarize(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (Totals, error)
	SummarizeBy(ctx context.Context, tx *gorm.DB, userID uuid.UUID, by GroupBy) ([]GroupTotals, error)

	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type videoProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVideoProgressRepo(db *gorm.DB, baseLog *logger.Logger) VideoProgressRepo {
	return &videoProgressRepo{db: db, log: baseLog.With("repo", "VideoProgressRepo")}
}

const progressTable = "video_progress"

// mergeSQL holds the dialect specific pieces of the upsert.
type mergeSQL struct {
	greatest string
	least    string
	float    string
}

func dialectSQL(db *gorm.DB) mergeSQL {
	if db.Dialector.Name() == "sqlite" {
		return mergeSQL{greatest: "MAX", least: "MIN", float: "REAL"}
	}
	return mergeSQL{greatest: "GREATEST", least: "LEAST", float: "DOUBLE PRECISION"}
}

func mergeAssignments(d mergeSQL) clause.Set {
	t := progressTable
	merged := fmt.Sprintf("%s(%s(%s.watched_seconds, excluded.watched_seconds), %s.total_seconds)", d.least, d.greatest, t, t)
	pct := fmt.Sprintf(
		"CASE WHEN %[1]s.total_seconds <= 0 THEN 0 ELSE %[2]s(100.0, CAST(%[3]s AS %[4]s) * 100.0 / %[1]s.total_seconds) END",
		t, d.least, merged, d.float,
	)
	completed := fmt.Sprintf("(%s) >= %v", pct, types.CompletionThreshold)
	completedAt := fmt.Sprintf(
		"CASE WHEN %[1]s.completed THEN %[1]s.completed_at WHEN %[2]s THEN excluded.last_watched_at ELSE NULL END",
		t, completed,
	)
	assign := func(col, expr string) clause.Assignment {
		return clause.Assignment{Column: clause.Column{Name: col}, Value: gorm.Expr(expr)}
	}
	return clause.Set{
		assign("watched_seconds", merged),
		assign("percentage", pct),
		assign("completed", completed),
		assign("completed_at", completedAt),
		assign("last_position_seconds", "excluded.last_position_seconds"),
		assign("device_type", "excluded.device_type"),
		assign("device_os", "excluded.device_os"),
		assign("browser", "excluded.browser"),
		assign("ip_address", "excluded.ip_address"),
		assign("last_watched_at", "excluded.last_watched_at"),
		assign("updated_at", "excluded.updated_at"),
	}
}

func (r *videoProgressRepo) Merge(ctx context.Context, tx *gorm.DB, row *types.VideoProgress) (*MergeResult, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.UserID == uuid.Nil || row.VideoID == uuid.Nil {
		return nil, fmt.Errorf("merge: user_id and video_id required")
	}
	if row.TotalSeconds < 0 {
		row.TotalSeconds = 0
	}
	if row.WatchedSeconds < 0 {
		row.WatchedSeconds = 0
	}
	if row.WatchedSeconds > row.TotalSeconds {
		row.WatchedSeconds = row.TotalSeconds
	}
	if row.LastWatchedAt.IsZero() {
		row.LastWatchedAt = time.Now()
	}
	row.LastWatchedAt = row.LastWatchedAt.UTC().Truncate(time.Microsecond)
	row.Recompute()
	if row.Completed && row.CompletedAt == nil {
		at := row.LastWatchedAt
		row.CompletedAt = &at
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = row.LastWatchedAt
	}
	row.UpdatedAt = row.LastWatchedAt

	var out MergeResult
	err := t.WithContext(ctx).Transaction(func(inner *gorm.DB) error {
		if inner.Dialector.Name() == "postgres" {
			// serialises a user's writes so the first-record check below is exact
			if err := inner.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", row.UserID.String()).Error; err != nil {
				return err
			}
		}
		res := inner.Clauses(clause.OnConflict{
			Columns:     []clause.Column{{Name: "user_id"}, {Name: "video_id"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "deleted_at IS NULL"}}},
			DoUpdates:   mergeAssignments(dialectSQL(inner)),
		}).Create(row)
		if res.Error != nil {
			return res.Error
		}
		// The row is locked by this transaction until commit, so the read
		// below sees exactly what the upsert produced.
		var rec types.VideoProgress
		if err := inner.
			Where("user_id = ? AND video_id = ?", row.UserID, row.VideoID).
			Take(&rec).Error; err != nil {
			return err
		}
		out.Record = &rec
		out.Created = rec.CreatedAt.Equal(row.CreatedAt)
		if !out.Created {
			return nil
		}
		var others int64
		if err := inner.Model(&types.VideoProgress{}).
			Where("user_id = ? AND id <> ?", row.UserID, rec.ID).
			Count(&others).Error; err != nil {
			return err
		}
		out.FirstForUser = others == 0
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *videoProgressRepo) GetByUserAndVideo(ctx context.Context, tx *gorm.DB, userID, videoID uuid.UUID) (*types.VideoProgress, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil || videoID == uuid.Nil {
		return nil, nil
	}
	var out types.VideoProgress
	err := t.WithContext(ctx).Where("user_id = ? AND video_id = ?", userID, videoID).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *videoProgressRepo) CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var n int64
	if userID == uuid.Nil {
		return 0, nil
	}
	err := t.WithContext(ctx).Model(&types.VideoProgress{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *videoProgressRepo) CountCompletedByUserTerm(ctx context.Context, tx *gorm.DB, userID, termID uuid.UUID) (int64, error) {
	return r.countCompleted(ctx, tx, userID, "term_id", termID)
}

func (r *videoProgressRepo) CountCompletedByUserSubject(ctx context.Context, tx *gorm.DB, userID, subjectID uuid.UUID) (int64, error) {
	return r.countCompleted(ctx, tx, userID, "subject_id", subjectID)
}

func (r *videoProgressRepo) countCompleted(ctx context.Context, tx *gorm.DB, userID uuid.UUID, column string, id uuid.UUID) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil || id == uuid.Nil {
		return 0, nil
	}
	var n int64
	err := t.WithContext(ctx).
		Model(&types.VideoProgress{}).
		Where("user_id = ? AND "+column+" = ? AND completed = ?", userID, id, true).
		Count(&n).Error
	return n, err
}

func applyHistoryFilter(q *gorm.DB, f HistoryFilter) *gorm.DB {
	if f.GradeID != nil {
		q = q.Where("grade_id = ?", *f.GradeID)
	}
	if f.SubjectID != nil {
		q = q.Where("subject_id = ?", *f.SubjectID)
	}
	if f.TermID != nil {
		q = q.Where("term_id = ?", *f.TermID)
	}
	if f.Completed != nil {
		q = q.Where("completed = ?", *f.Completed)
	}
	return q
}

func (r *videoProgressRepo) ListHistory(ctx context.Context, tx *gorm.DB, userID uuid.UUID, filter HistoryFilter, limit, offset int) ([]*types.VideoProgress, int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	out := []*types.VideoProgress{}
	if userID == uuid.Nil {
		return out, 0, nil
	}
	base := applyHistoryFilter(t.WithContext(ctx).Model(&types.VideoProgress{}).Where("user_id = ?", userID), filter)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return out, 0, nil
	}
	if err := base.Session(&gorm.Session{}).
		Order("last_watched_at DESC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *videoProgressRepo) ListRecent(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.VideoProgress, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	out := []*types.VideoProgress{}
	if userID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 {
		limit = 5
	}
	err := t.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_watched_at DESC, id ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *videoProgressRepo) ListWatchedBetween(ctx context.Context, tx *gorm.DB, userID uuid.UUID, from, to time.Time) ([]*types.VideoProgress, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	out := []*types.VideoProgress{}
	if userID == uuid.Nil {
		return out, nil
	}
	err := t.WithContext(ctx).
		Where("user_id = ? AND last_watched_at >= ? AND last_watched_at < ?", userID, from.UTC(), to.UTC()).
		Order("last_watched_at ASC").
		Find(&out).Error
	return out, err
}

func (r *videoProgressRepo) ListLearning(ctx context.Context, tx *gorm.DB, userID uuid.UUID, sort LearningSort, limit, offset int) ([]LearningRow, int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	out := []LearningRow{}
	if userID == uuid.Nil {
		return out, 0, nil
	}
	base := t.WithContext(ctx).
		Table(progressTable+" AS p").
		Joins("JOIN video AS v ON v.id = p.video_id AND v.deleted_at IS NULL").
		Where("p.user_id = ? AND p.deleted_at IS NULL", userID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return out, 0, nil
	}

	order := "p.last_watched_at DESC, p.id ASC"
	if sort == SortProgress {
		order = displayPercentageSQL(dialectSQL(t)) + " DESC, p.last_watched_at DESC, p.id ASC"
	}
	err := base.Session(&gorm.Session{}).
		Select(learningSelect).
		Order(order).
		Limit(limit).
		Offset(offset).
		Scan(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// displayPercentageSQL is progress against the video's current duration, the
// value my-learning items show.
func displayPercentageSQL(d mergeSQL) string {
	return fmt.Sprintf(
		"CASE WHEN v.duration_seconds <= 0 THEN 0 ELSE CAST(%s(p.watched_seconds, v.duration_seconds) AS %s) * 100.0 / v.duration_seconds END",
		d.least, d.float,
	)
}

const learningSelect = "p.id AS progress_id, p.video_id, p.grade_id, p.subject_id, p.term_id, " +
	"p.watched_seconds, p.total_seconds, p.percentage, p.completed, " +
	"p.last_position_seconds, p.last_watched_at, " +
	"v.title, v.thumbnail_url, v.duration_seconds AS video_duration_seconds"

const totalsSelect = "COUNT(*) AS videos_watched, " +
	"COALESCE(SUM(CASE WHEN completed THEN 1 ELSE 0 END), 0) AS videos_completed, " +
	"COALESCE(SUM(watched_seconds), 0) AS watched_seconds"

func (r *videoProgressRepo) Summarize(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (Totals, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out Totals
	if userID == uuid.Nil {
		return out, nil
	}
	err := t.WithContext(ctx).
		Model(&types.VideoProgress{}).
		Select(totalsSelect).
		Where("user_id = ?", userID).
		Scan(&out).Error
	return out, err
}

func (r *videoProgressRepo) SummarizeBy(ctx context.Context, tx *gorm.DB, userID uuid.UUID, by GroupBy) ([]GroupTotals, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	out := []GroupTotals{}
	if userID == uuid.Nil {
		return out, nil
	}
	if by != GroupBySubject && by != GroupByGrade {
		return nil, fmt.Errorf("unsupported grouping %q", by)
	}
	err := t.WithContext(ctx).
		Model(&types.VideoProgress{}).
		Select(string(by)+" AS group_id, "+totalsSelect).
		Where("user_id = ?", userID).
		Group(string(by)).
		Order("watched_seconds DESC").
		Scan(&out).Error
	return out, err
}

func (r *videoProgressRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(ctx).Where("id IN ?", ids).Delete(&types.VideoProgress{}).Error
}

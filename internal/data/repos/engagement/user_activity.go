package engagement

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/tej1010/spongier-backend-sub001/internal/domain"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/logger"
)

type UserActivityRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.UserActivity) ([]*types.UserActivity, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.UserActivity, error)
	// CountScopes counts distinct non-null values of column (video_id,
	// term_id or subject_id) over the user's activities of one type.
	CountScopes(ctx context.Context, tx *gorm.DB, userID uuid.UUID, activityType, column string) (int64, error)
}

type userActivityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserActivityRepo(db *gorm.DB, baseLog *logger.Logger) UserActivityRepo {
	return &userActivityRepo{db: db, log: baseLog.With("repo", "UserActivityRepo")}
}

func (r *userActivityRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.UserActivity) ([]*types.UserActivity, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.UserActivity{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *userActivityRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.UserActivity, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	out := []*types.UserActivity{}
	if userID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	err := t.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *userActivityRepo) CountScopes(ctx context.Context, tx *gorm.DB, userID uuid.UUID, activityType, column string) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	switch column {
	case "video_id", "term_id", "subject_id":
	default:
		return 0, fmt.Errorf("unsupported scope column %q", column)
	}
	var n int64
	if userID == uuid.Nil {
		return 0, nil
	}
	err := t.WithContext(ctx).
		Model(&types.UserActivity{}).
		Where("user_id = ? AND type = ? AND "+column+" IS NOT NULL", userID, activityType).
		Distinct(column).
		Count(&n).Error
	return n, err
}

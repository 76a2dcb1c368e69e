package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/tej1010/spongier-backend-sub001/internal/domain"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/logger"
)

type VideoRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Video) ([]*types.Video, error)
	// FindActive returns nil, nil when the video is missing, inactive or deleted.
	FindActive(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Video, error)
	CountActiveByTerm(ctx context.Context, tx *gorm.DB, termID uuid.UUID) (int64, error)
	CountActiveBySubject(ctx context.Context, tx *gorm.DB, subjectID uuid.UUID) (int64, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type videoRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVideoRepo(db *gorm.DB, baseLog *logger.Logger) VideoRepo {
	return &videoRepo{db: db, log: baseLog.With("repo", "VideoRepo")}
}

func (r *videoRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Video) ([]*types.Video, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Video{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *videoRepo) FindActive(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Video, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var v types.Video
	err := t.WithContext(ctx).
		Where("id = ? AND status = ?", id, types.VideoStatusActive).
		Take(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *videoRepo) CountActiveByTerm(ctx context.Context, tx *gorm.DB, termID uuid.UUID) (int64, error) {
	return r.countActive(ctx, tx, "term_id", termID)
}

func (r *videoRepo) CountActiveBySubject(ctx context.Context, tx *gorm.DB, subjectID uuid.UUID) (int64, error) {
	return r.countActive(ctx, tx, "subject_id", subjectID)
}

func (r *videoRepo) countActive(ctx context.Context, tx *gorm.DB, column string, id uuid.UUID) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return 0, nil
	}
	var n int64
	err := t.WithContext(ctx).
		Model(&types.Video{}).
		Where(column+" = ? AND status = ?", id, types.VideoStatusActive).
		Count(&n).Error
	return n, err
}

func (r *videoRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return t.WithContext(ctx).Model(&types.Video{}).Where("id = ?", id).Updates(updates).Error
}

func (r *videoRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(ctx).Where("id IN ?", ids).Delete(&types.Video{}).Error
}

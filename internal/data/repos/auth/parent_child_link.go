package auth

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/tej1010/spongier-backend-sub001/internal/domain"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/logger"
)

type ParentChildLinkRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.ParentChildLink) ([]*types.ParentChildLink, error)
	IsVerifiedParent(ctx context.Context, tx *gorm.DB, parentID, childID uuid.UUID) (bool, error)
}

type parentChildLinkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewParentChildLinkRepo(db *gorm.DB, baseLog *logger.Logger) ParentChildLinkRepo {
	return &parentChildLinkRepo{db: db, log: baseLog.With("repo", "ParentChildLinkRepo")}
}

func (r *parentChildLinkRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.ParentChildLink) ([]*types.ParentChildLink, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.ParentChildLink{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *parentChildLinkRepo) IsVerifiedParent(ctx context.Context, tx *gorm.DB, parentID, childID uuid.UUID) (bool, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if parentID == uuid.Nil || childID == uuid.Nil {
		return false, nil
	}
	var n int64
	err := t.WithContext(ctx).
		Model(&types.ParentChildLink{}).
		Where("parent_user_id = ? AND child_user_id = ? AND verified = ?", parentID, childID, true).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

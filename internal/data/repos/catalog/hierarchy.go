package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/tej1010/spongier-backend-sub001/internal/domain"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/logger"
)

// HierarchyRepo resolves grade and subject display names.
type HierarchyRepo interface {
	CreateGrades(ctx context.Context, tx *gorm.DB, rows []*types.Grade) error
	CreateSubjects(ctx context.Context, tx *gorm.DB, rows []*types.Subject) error
	CreateTerms(ctx context.Context, tx *gorm.DB, rows []*types.Term) error
	GradeNames(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]string, error)
	SubjectNames(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

type hierarchyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHierarchyRepo(db *gorm.DB, baseLog *logger.Logger) HierarchyRepo {
	return &hierarchyRepo{db: db, log: baseLog.With("repo", "HierarchyRepo")}
}

func (r *hierarchyRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return r.db
	}
	return tx
}

func (r *hierarchyRepo) CreateGrades(ctx context.Context, tx *gorm.DB, rows []*types.Grade) error {
	if len(rows) == 0 {
		return nil
	}
	return r.tx(tx).WithContext(ctx).Create(&rows).Error
}

func (r *hierarchyRepo) CreateSubjects(ctx context.Context, tx *gorm.DB, rows []*types.Subject) error {
	if len(rows) == 0 {
		return nil
	}
	return r.tx(tx).WithContext(ctx).Create(&rows).Error
}

func (r *hierarchyRepo) CreateTerms(ctx context.Context, tx *gorm.DB, rows []*types.Term) error {
	if len(rows) == 0 {
		return nil
	}
	return r.tx(tx).WithContext(ctx).Create(&rows).Error
}

type idName struct {
	ID   uuid.UUID
	Name string
}

func (r *hierarchyRepo) names(ctx context.Context, tx *gorm.DB, model interface{}, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []idName
	if err := r.tx(tx).WithContext(ctx).Model(model).Select("id, name").Where("id IN ?", ids).Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row.Name
	}
	return out, nil
}

func (r *hierarchyRepo) GradeNames(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	return r.names(ctx, tx, &types.Grade{}, ids)
}

func (r *hierarchyRepo) SubjectNames(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	return r.names(ctx, tx, &types.Subject{}, ids)
}

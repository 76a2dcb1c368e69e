package engagement

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/tej1010/spongier-backend-sub001/internal/domain"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/logger"
)

type UserBadgeRepo interface {
	// Award inserts the badge and reports whether it is new for the user.
	Award(ctx context.Context, tx *gorm.DB, row *types.UserBadge) (bool, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserBadge, error)
}

type userBadgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserBadgeRepo(db *gorm.DB, baseLog *logger.Logger) UserBadgeRepo {
	return &userBadgeRepo{db: db, log: baseLog.With("repo", "UserBadgeRepo")}
}

func (r *userBadgeRepo) Award(ctx context.Context, tx *gorm.DB, row *types.UserBadge) (bool, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.UserID == uuid.Nil || row.BadgeKey == "" {
		return false, nil
	}
	res := t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_key"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *userBadgeRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserBadge, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	out := []*types.UserBadge{}
	if userID == uuid.Nil {
		return out, nil
	}
	err := t.WithContext(ctx).Where("user_id = ?", userID).Order("awarded_at ASC").Find(&out).Error
	return out, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

package repos

import (
	"gorm.io/gorm"

	"github.com/tej1010/spongier-backend-sub001/internal/data/repos/auth"
	"github.com/tej1010/spongier-backend-sub001/internal/data/repos/catalog"
	"github.com/tej1010/spongier-backend-sub001/internal/data/repos/engagement"
	"github.com/tej1010/spongier-backend-sub001/internal/data/repos/progress"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/logger"
)

type VideoRepo = catalog.VideoRepo
type HierarchyRepo = catalog.HierarchyRepo

type VideoProgressRepo = progress.VideoProgressRepo

type UserActivityRepo = engagement.UserActivityRepo
type UserBadgeRepo = engagement.UserBadgeRepo

type ParentChildLinkRepo = auth.ParentChildLinkRepo

func NewVideoRepo(db *gorm.DB, baseLog *logger.Logger) VideoRepo {
	return catalog.NewVideoRepo(db, baseLog)
}
func NewHierarchyRepo(db *gorm.DB, baseLog *logger.Logger) HierarchyRepo {
	return catalog.NewHierarchyRepo(db, baseLog)
}

func NewVideoProgressRepo(db *gorm.DB, baseLog *logger.Logger) VideoProgressRepo {
	return progress.NewVideoProgressRepo(db, baseLog)
}

func NewUserActivityRepo(db *gorm.DB, baseLog *logger.Logger) UserActivityRepo {
	return engagement.NewUserActivityRepo(db, baseLog)
}
func NewUserBadgeRepo(db *gorm.DB, baseLog *logger.Logger) UserBadgeRepo {
	return engagement.NewUserBadgeRepo(db, baseLog)
}

func NewParentChildLinkRepo(db *gorm.DB, baseLog *logger.Logger) ParentChildLinkRepo {
	return auth.NewParentChildLinkRepo(db, baseLog)
}

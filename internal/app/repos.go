package app

import (
	"gorm.io/gorm"

	"github.com/tej1010/spongier-backend-sub001/internal/data/repos"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/logger"
)

type Repos struct {
	Video           repos.VideoRepo
	Hierarchy       repos.HierarchyRepo
	VideoProgress   repos.VideoProgressRepo
	UserActivity    repos.UserActivityRepo
	UserBadge       repos.UserBadgeRepo
	ParentChildLink repos.ParentChildLinkRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Video:           repos.NewVideoRepo(db, log),
		Hierarchy:       repos.NewHierarchyRepo(db, log),
		VideoProgress:   repos.NewVideoProgressRepo(db, log),
		UserActivity:    repos.NewUserActivityRepo(db, log),
		UserBadge:       repos.NewUserBadgeRepo(db, log),
		ParentChildLink: repos.NewParentChildLinkRepo(db, log),
	}
}

package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/tej1010/spongier-backend-sub001/internal/platform/logger"
	"github.com/tej1010/spongier-backend-sub001/internal/realtime/bus"
	"github.com/tej1010/spongier-backend-sub001/internal/services"
)

type Services struct {
	Auth       services.AuthService
	Guardian   services.GuardianService
	Catalog    services.VideoCatalog
	Cascade    services.CascadeEvaluator
	Activities services.ActivityLog
	Notifier   services.Notifier
	Badges     services.BadgeEvaluator
	Dispatcher services.Dispatcher
	Progress   services.ProgressService
	Statistics services.StatisticsService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, notifications bus.Bus) (Services, error) {
	log.Info("Wiring services...")

	rules, err := services.LoadBadgeRules(cfg.BadgeRulesPath)
	if err != nil {
		return Services{}, fmt.Errorf("load badge rules: %w", err)
	}

	authService := services.NewAuthService(log, cfg.JWTSecretKey)
	guardian := services.NewGuardianService(log, r.ParentChildLink)
	catalog := services.NewVideoCatalog(r.Video)
	cascade := services.NewCascadeEvaluator(log, catalog, r.VideoProgress)
	activities := services.NewActivityLog(log, r.UserActivity)
	notifier := services.NewNotifier(log, notifications)
	badges := services.NewBadgeEvaluator(log, rules, r.VideoProgress, r.UserActivity, r.UserBadge)
	dispatcher := services.NewDispatcher(log, cfg.Dispatch, activities, notifier, badges)

	progress := services.NewProgressService(db, log, catalog, r.VideoProgress, cascade, dispatcher)
	statistics := services.NewStatisticsService(log, services.StatisticsConfig{
		Location: cfg.StatsLocation,
	}, r.VideoProgress, r.Hierarchy, guardian)

	return Services{
		Auth:       authService,
		Guardian:   guardian,
		Catalog:    catalog,
		Cascade:    cascade,
		Activities: activities,
		Notifier:   notifier,
		Badges:     badges,
		Dispatcher: dispatcher,
		Progress:   progress,
		Statistics: statistics,
	}, nil
}

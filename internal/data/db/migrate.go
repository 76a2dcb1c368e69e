package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/tej1010/spongier-backend-sub001/internal/domain"
)

// requiredIndexes are the unique indexes that upserts rely on for ON CONFLICT
// targets. AutoMigrate creates them from struct tags; a table that predates
// the tag would silently lose idempotency, so their presence is checked.
var requiredIndexes = []struct {
	model any
	name  string
}{
	{&types.VideoProgress{}, "idx_video_progress_user_video"},
	{&types.UserBadge{}, "idx_user_badge_key"},
	{&types.ParentChildLink{}, "idx_parent_child"},
}

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return CheckIndexes(db)
}

func CheckIndexes(db *gorm.DB) error {
	m := db.Migrator()
	for _, ix := range requiredIndexes {
		if !m.HasIndex(ix.model, ix.name) {
			return fmt.Errorf("missing index %s", ix.name)
		}
	}
	return nil
}

package engagement

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserBadge struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_badge_key" json:"user_id"`
	BadgeKey  string    `gorm:"column:badge_key;not null;uniqueIndex:idx_user_badge_key" json:"badge_key"`
	AwardedAt time.Time `gorm:"column:awarded_at;not null" json:"awarded_at"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (UserBadge) TableName() string { return "user_badge" }

func (b *UserBadge) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

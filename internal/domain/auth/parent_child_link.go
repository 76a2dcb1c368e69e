package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ParentChildLink records that ParentUserID may view ChildUserID's progress
// once Verified is set.
type ParentChildLink struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ParentUserID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_parent_child" json:"parent_user_id"`
	ChildUserID  uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_parent_child;index" json:"child_user_id"`
	Verified     bool           `gorm:"column:verified;not null;default:false" json:"verified"`
	VerifiedAt   *time.Time     `gorm:"column:verified_at" json:"verified_at,omitempty"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ParentChildLink) TableName() string { return "parent_child_link" }

func (l *ParentChildLink) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

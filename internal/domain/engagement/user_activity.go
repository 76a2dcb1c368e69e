package engagement

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActivityVideoWatched     = "video_watched"
	ActivityVideoCompleted   = "video_completed"
	ActivityTermCompleted    = "term_completed"
	ActivitySubjectCompleted = "subject_completed"
	ActivityBadgeAwarded     = "badge_awarded"
)

// UserActivity is one line of the per-user activity feed.
type UserActivity struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Type      string         `gorm:"column:type;not null;index" json:"type"`
	VideoID   *uuid.UUID     `gorm:"type:uuid;index" json:"video_id,omitempty"`
	TermID    *uuid.UUID     `gorm:"type:uuid" json:"term_id,omitempty"`
	SubjectID *uuid.UUID     `gorm:"type:uuid" json:"subject_id,omitempty"`
	Data      datatypes.JSON `gorm:"column:data" json:"data"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (UserActivity) TableName() string { return "user_activity" }

func (a *UserActivity) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	VideoStatusActive   = "active"
	VideoStatusInactive = "inactive"
)

// Video is the catalog entry the watch-progress core reads. Course CRUD owns
// writes to it; this service only looks videos up and counts them.
type Video struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	GradeID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"grade_id"`
	SubjectID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"subject_id"`
	TermID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"term_id"`
	Title           string         `gorm:"column:title;not null" json:"title"`
	Slug            string         `gorm:"column:slug;index" json:"slug,omitempty"`
	ThumbnailURL    string         `gorm:"column:thumbnail_url" json:"thumbnail_url,omitempty"`
	DurationSeconds int64          `gorm:"column:duration_seconds;not null;default:0" json:"duration_seconds"`
	Status          string         `gorm:"column:status;not null;default:'active';index" json:"status"`
	SortOrder       int            `gorm:"column:sort_order;not null;default:0" json:"sort_order"`
	CreatedAt       time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Video) TableName() string { return "video" }

func (v *Video) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.Status == "" {
		v.Status = VideoStatusActive
	}
	return nil
}

func (v *Video) IsActive() bool {
	return v != nil && v.Status == VideoStatusActive && !v.DeletedAt.Valid
}

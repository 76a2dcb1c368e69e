package progress

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CompletionThreshold is the percentage at which a video counts as completed.
const CompletionThreshold = 90.0

// SessionMeta describes the client that sent the most recent sample.
type SessionMeta struct {
	DeviceType string `gorm:"column:device_type" json:"device_type,omitempty"`
	DeviceOS   string `gorm:"column:device_os" json:"device_os,omitempty"`
	Browser    string `gorm:"column:browser" json:"browser,omitempty"`
	IPAddress  string `gorm:"column:ip_address" json:"-"`
}

// VideoProgress is the per (user, video) watch state. GradeID, SubjectID and
// TermID are a snapshot of the video's placement when the row was created and
// are never rewritten.
type VideoProgress struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID              uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_video_progress_user_video,where:deleted_at IS NULL;index:idx_video_progress_user_recent,priority:1" json:"user_id"`
	VideoID             uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_video_progress_user_video,where:deleted_at IS NULL" json:"video_id"`
	GradeID             uuid.UUID      `gorm:"type:uuid;not null;index" json:"grade_id"`
	SubjectID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"subject_id"`
	TermID              uuid.UUID      `gorm:"type:uuid;not null;index" json:"term_id"`
	WatchedSeconds      int64          `gorm:"column:watched_seconds;not null;default:0" json:"watched_seconds"`
	TotalSeconds        int64          `gorm:"column:total_seconds;not null;default:0" json:"total_seconds"`
	Percentage          float64        `gorm:"column:percentage;not null;default:0" json:"percentage"`
	Completed           bool           `gorm:"column:completed;not null;default:false;index" json:"completed"`
	CompletedAt         *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	LastPositionSeconds int64          `gorm:"column:last_position_seconds;not null;default:0" json:"last_position_seconds"`
	SessionMeta         SessionMeta    `gorm:"embedded" json:"session"`
	LastWatchedAt       time.Time      `gorm:"column:last_watched_at;not null;index:idx_video_progress_user_recent,priority:2" json:"last_watched_at"`
	CreatedAt           time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (VideoProgress) TableName() string { return "video_progress" }

func (p *VideoProgress) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Percentage is min(100, watched/total*100), and 0 for a zero-length video.
func Percentage(watched, total int64) float64 {
	if total <= 0 || watched <= 0 {
		return 0
	}
	pct := float64(watched) * 100.0 / float64(total)
	if pct > 100 {
		return 100
	}
	return pct
}

func IsCompleted(pct float64) bool {
	return pct >= CompletionThreshold
}

// Recompute refreshes the derived fields after WatchedSeconds changed.
func (p *VideoProgress) Recompute() {
	p.Percentage = Percentage(p.WatchedSeconds, p.TotalSeconds)
	p.Completed = IsCompleted(p.Percentage)
}

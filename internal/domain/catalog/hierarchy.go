package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Grade, Subject and Term are read here only for display names.

type Grade struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"column:name;not null" json:"name"`
	SortOrder int            `gorm:"column:sort_order;not null;default:0" json:"sort_order"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Grade) TableName() string { return "grade" }

func (g *Grade) BeforeCreate(*gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

type Subject struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	GradeID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"grade_id"`
	Name      string         `gorm:"column:name;not null" json:"name"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Subject) TableName() string { return "subject" }

func (s *Subject) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type Term struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SubjectID uuid.UUID      `gorm:"type:uuid;not null;index" json:"subject_id"`
	Name      string         `gorm:"column:name;not null" json:"name"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Term) TableName() string { return "term" }

func (t *Term) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

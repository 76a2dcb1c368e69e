package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/tej1010/spongier-backend-sub001/internal/data/repos"
	types "github.com/tej1010/spongier-backend-sub001/internal/domain"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/logger"
)

type ActivityEntry struct {
	UserID    uuid.UUID
	Type      string
	VideoID   uuid.UUID
	TermID    uuid.UUID
	SubjectID uuid.UUID
	Data      map[string]any
}

type ActivityLog interface {
	Record(ctx context.Context, entry ActivityEntry) error
}

type activityLog struct {
	log  *logger.Logger
	repo repos.UserActivityRepo
}

func NewActivityLog(baseLog *logger.Logger, repo repos.UserActivityRepo) ActivityLog {
	return &activityLog{log: baseLog.With("service", "ActivityLog"), repo: repo}
}

func (a *activityLog) Record(ctx context.Context, entry ActivityEntry) error {
	if entry.UserID == uuid.Nil || entry.Type == "" {
		return fmt.Errorf("activity: user and type required")
	}
	data := entry.Data
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("activity data: %w", err)
	}
	row := &types.UserActivity{
		UserID:    entry.UserID,
		Type:      entry.Type,
		VideoID:   optionalID(entry.VideoID),
		TermID:    optionalID(entry.TermID),
		SubjectID: optionalID(entry.SubjectID),
		Data:      datatypes.JSON(raw),
	}
	if _, err := a.repo.Create(ctx, nil, []*types.UserActivity{row}); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	a.log.Debug("activity recorded", "user_id", entry.UserID, "type", entry.Type)
	return nil
}

func optionalID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

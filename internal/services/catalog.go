package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/tej1010/spongier-backend-sub001/internal/data/repos"
	types "github.com/tej1010/spongier-backend-sub001/internal/domain"
)

// VideoCatalog is the read side of the course catalog this service needs.
type VideoCatalog interface {
	FindActive(ctx context.Context, videoID uuid.UUID) (*types.Video, error)
	CountActiveByTerm(ctx context.Context, termID uuid.UUID) (int64, error)
	CountActiveBySubject(ctx context.Context, subjectID uuid.UUID) (int64, error)
}

type videoCatalog struct {
	videos repos.VideoRepo
}

func NewVideoCatalog(videos repos.VideoRepo) VideoCatalog {
	return &videoCatalog{videos: videos}
}

func (c *videoCatalog) FindActive(ctx context.Context, videoID uuid.UUID) (*types.Video, error) {
	return c.videos.FindActive(ctx, nil, videoID)
}

func (c *videoCatalog) CountActiveByTerm(ctx context.Context, termID uuid.UUID) (int64, error) {
	return c.videos.CountActiveByTerm(ctx, nil, termID)
}

func (c *videoCatalog) CountActiveBySubject(ctx context.Context, subjectID uuid.UUID) (int64, error) {
	return c.videos.CountActiveBySubject(ctx, nil, subjectID)
}

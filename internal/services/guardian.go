package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/tej1010/spongier-backend-sub001/internal/data/repos"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/logger"
)

// GuardianService answers whether one user may read another user's progress.
type GuardianService interface {
	CanViewChild(ctx context.Context, parentID, childID uuid.UUID) (bool, error)
}

type guardianService struct {
	log   *logger.Logger
	links repos.ParentChildLinkRepo
}

func NewGuardianService(baseLog *logger.Logger, links repos.ParentChildLinkRepo) GuardianService {
	return &guardianService{log: baseLog.With("service", "GuardianService"), links: links}
}

func (g *guardianService) CanViewChild(ctx context.Context, parentID, childID uuid.UUID) (bool, error) {
	if parentID == uuid.Nil || childID == uuid.Nil {
		return false, nil
	}
	if parentID == childID {
		return true, nil
	}
	return g.links.IsVerifiedParent(ctx, nil, parentID, childID)
}

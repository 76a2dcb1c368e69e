package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tej1010/spongier-backend-sub001/internal/data/repos"
	types "github.com/tej1010/spongier-backend-sub001/internal/domain"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/logger"
)

// CascadeEvaluator decides whether a video completion also completes the
// record's term and subject. It never fails: a broken count suppresses the
// event for that scope only.
type CascadeEvaluator interface {
	Evaluate(ctx context.Context, rec *types.VideoProgress, at time.Time) []types.CompletionEvent
}

type cascadeEvaluator struct {
	log      *logger.Logger
	catalog  VideoCatalog
	progress repos.VideoProgressRepo
}

func NewCascadeEvaluator(baseLog *logger.Logger, catalog VideoCatalog, progress repos.VideoProgressRepo) CascadeEvaluator {
	return &cascadeEvaluator{
		log:      baseLog.With("service", "CascadeEvaluator"),
		catalog:  catalog,
		progress: progress,
	}
}

func (c *cascadeEvaluator) Evaluate(ctx context.Context, rec *types.VideoProgress, at time.Time) []types.CompletionEvent {
	if rec == nil || !rec.Completed {
		return nil
	}
	var out []types.CompletionEvent

	termDone := c.scopeComplete(ctx, rec, types.ScopeTerm, rec.TermID,
		c.catalog.CountActiveByTerm,
		func(ctx context.Context, userID, id uuid.UUID) (int64, error) {
			return c.progress.CountCompletedByUserTerm(ctx, nil, userID, id)
		},
	)
	if termDone {
		out = append(out, types.CompletionEvent{
			UserID: rec.UserID, VideoID: rec.VideoID, Scope: types.ScopeTerm, ScopeID: rec.TermID, OccurredAt: at,
		})
	}

	subjectDone := c.scopeComplete(ctx, rec, types.ScopeSubject, rec.SubjectID,
		c.catalog.CountActiveBySubject,
		func(ctx context.Context, userID, id uuid.UUID) (int64, error) {
			return c.progress.CountCompletedByUserSubject(ctx, nil, userID, id)
		},
	)
	if subjectDone {
		out = append(out, types.CompletionEvent{
			UserID: rec.UserID, VideoID: rec.VideoID, Scope: types.ScopeSubject, ScopeID: rec.SubjectID, OccurredAt: at,
		})
	}
	return out
}

func (c *cascadeEvaluator) scopeComplete(
	ctx context.Context,
	rec *types.VideoProgress,
	scope types.Scope,
	scopeID uuid.UUID,
	countActive func(context.Context, uuid.UUID) (int64, error),
	countCompleted func(context.Context, uuid.UUID, uuid.UUID) (int64, error),
) bool {
	if scopeID == uuid.Nil {
		return false
	}
	active, err := countActive(ctx, scopeID)
	if err != nil {
		c.log.Warn("count active videos failed", "scope", scope, "scope_id", scopeID, "error", err)
		return false
	}
	if active == 0 {
		return false
	}
	done, err := countCompleted(ctx, rec.UserID, scopeID)
	if err != nil {
		c.log.Warn("count completed videos failed", "scope", scope, "scope_id", scopeID, "user_id", rec.UserID, "error", err)
		return false
	}
	return done >= active
}

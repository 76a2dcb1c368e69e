package domain

import (
	"github.com/tej1010/spongier-backend-sub001/internal/domain/auth"
	"github.com/tej1010/spongier-backend-sub001/internal/domain/catalog"
	"github.com/tej1010/spongier-backend-sub001/internal/domain/engagement"
	"github.com/tej1010/spongier-backend-sub001/internal/domain/progress"
)

const (
	ActivityVideoWatched     = engagement.ActivityVideoWatched
	ActivityVideoCompleted   = engagement.ActivityVideoCompleted
	ActivityTermCompleted    = engagement.ActivityTermCompleted
	ActivitySubjectCompleted = engagement.ActivitySubjectCompleted
	ActivityBadgeAwarded     = engagement.ActivityBadgeAwarded

	VideoStatusActive   = catalog.VideoStatusActive
	VideoStatusInactive = catalog.VideoStatusInactive

	CompletionThreshold = progress.CompletionThreshold

	ScopeVideo   = progress.ScopeVideo
	ScopeTerm    = progress.ScopeTerm
	ScopeSubject = progress.ScopeSubject
)

type (
	Grade   = catalog.Grade
	Subject = catalog.Subject
	Term    = catalog.Term
	Video   = catalog.Video

	VideoProgress   = progress.VideoProgress
	SessionMeta     = progress.SessionMeta
	CompletionEvent = progress.CompletionEvent
	Scope           = progress.Scope

	UserActivity = engagement.UserActivity
	UserBadge    = engagement.UserBadge

	ParentChildLink = auth.ParentChildLink
)

// Models lists every table owned by this service, in migration order.
func Models() []interface{} {
	return []interface{}{
		&Grade{},
		&Subject{},
		&Term{},
		&Video{},
		&VideoProgress{},
		&UserActivity{},
		&UserBadge{},
		&ParentChildLink{},
	}
}

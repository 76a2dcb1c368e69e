package progress

import (
	"time"

	"github.com/google/uuid"
)

type Scope string

const (
	ScopeVideo   Scope = "video"
	ScopeTerm    Scope = "term"
	ScopeSubject Scope = "subject"
)

// CompletionEvent is produced by the merge (video) and the cascade (term,
// subject). It is never stored as its own row.
type CompletionEvent struct {
	UserID     uuid.UUID `json:"user_id"`
	VideoID    uuid.UUID `json:"video_id"`
	Scope      Scope     `json:"scope"`
	ScopeID    uuid.UUID `json:"scope_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

package realtime

import (
	"time"

	"github.com/google/uuid"
)

type NotificationEvent string

const (
	EventVideoWatched     NotificationEvent = "video_watched"
	EventVideoCompleted   NotificationEvent = "video_completed"
	EventTermCompleted    NotificationEvent = "term_completed"
	EventSubjectCompleted NotificationEvent = "subject_completed"
	EventBadgeAwarded     NotificationEvent = "badge_awarded"
)

// Notification is what gets published for a user. Channel is the user id.
type Notification struct {
	Channel    string            `json:"channel"`
	Event      NotificationEvent `json:"event"`
	Data       map[string]any    `json:"data,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func ForUser(userID uuid.UUID, event NotificationEvent, data map[string]any) Notification {
	return Notification{
		Channel:    userID.String(),
		Event:      event,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}

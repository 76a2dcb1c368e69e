package services

import "errors"

var (
	ErrVideoNotFound = errors.New("video not found")
	ErrForbidden     = errors.New("not allowed to view this user's progress")
	ErrUnauthorized  = errors.New("unauthorized")
)

const (
	CodeInvalidDuration    = "invalid_duration_format"
	CodeVideoNotFound      = "video_not_found"
	CodeNotParentOfChild   = "not_parent_of_child"
	CodeRecordWatchFailed  = "record_watch_failed"
	CodeLoadStatsFailed    = "load_statistics_failed"
	CodeLoadHistoryFailed  = "load_history_failed"
	CodeLoadLearningFailed = "load_my_learning_failed"
	CodeUnauthorized       = "unauthorized"
)

package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	types "github.com/tej1010/spongier-backend-sub001/internal/domain"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/logger"
	"github.com/tej1010/spongier-backend-sub001/internal/realtime"
)

// WatchedActivityMinPercentage is the share of a video after which a watch
// sample is worth an activity entry on its own.
const WatchedActivityMinPercentage = 10.0

// Dispatcher runs the side effects of a watch sample off the request path.
type Dispatcher interface {
	Dispatch(res *WatchResult)
	Start(ctx context.Context)
	Shutdown(ctx context.Context) error
}

type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	TaskTimeout time.Duration
}

type task struct {
	name   string
	userID uuid.UUID
	run    func(ctx context.Context) error
}

var ErrDispatcherClosed = errors.New("dispatcher closed")

type dispatcher struct {
	log        *logger.Logger
	activities ActivityLog
	notifier   Notifier
	badges     BadgeEvaluator

	cfg   DispatcherConfig
	queue chan task

	mu      sync.RWMutex
	started bool
	closed  bool
	wg      sync.WaitGroup
	stop    context.CancelFunc
}

func NewDispatcher(baseLog *logger.Logger, cfg DispatcherConfig, activities ActivityLog, notifier Notifier, badges BadgeEvaluator) Dispatcher {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 256
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 10 * time.Second
	}
	return &dispatcher{
		log:        baseLog.With("component", "SideEffectDispatcher"),
		activities: activities,
		notifier:   notifier,
		badges:     badges,
		cfg:        cfg,
		queue:      make(chan task, cfg.QueueSize),
	}
}

func (d *dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true

	// Workers outlive the caller's ctx until Shutdown so the queue can drain.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	d.stop = cancel

	d.log.Info("Starting side-effect dispatcher", "workers", d.cfg.Workers, "queue_size", d.cfg.QueueSize)
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.runLoop(runCtx, i+1)
	}
}

// Shutdown stops intake, lets workers drain what is queued and waits for them
// until ctx expires.
func (d *dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if !started {
		return nil
	}
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		d.stop()
		return nil
	case <-ctx.Done():
		d.stop()
		pending := len(d.queue)
		d.log.Warn("dispatcher shutdown timed out", "pending", pending)
		return fmt.Errorf("dispatcher drain: %w", ctx.Err())
	}
}

func (d *dispatcher) runLoop(ctx context.Context, workerID int) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-d.queue:
			if !ok {
				d.log.Debug("Dispatcher worker stopped", "worker_id", workerID)
				return
			}
			d.execute(ctx, workerID, t)
		}
	}
}

func (d *dispatcher) execute(parent context.Context, workerID int, t task) {
	ctx, cancel := context.WithTimeout(parent, d.cfg.TaskTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Side-effect task panic",
				"worker_id", workerID,
				"task", t.name,
				"user_id", t.userID,
				"panic", r,
			)
		}
	}()
	if err := t.run(ctx); err != nil {
		d.log.Warn("Side-effect task failed",
			"worker_id", workerID,
			"task", t.name,
			"user_id", t.userID,
			"error", err,
		)
	}
}

func (d *dispatcher) enqueue(t task) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn("dispatcher closed; dropping task", "task", t.name, "user_id", t.userID)
		return false
	}
	select {
	case d.queue <- t:
		return true
	default:
		d.log.Warn("dispatcher queue full; dropping task", "task", t.name, "user_id", t.userID)
		return false
	}
}

func (d *dispatcher) Dispatch(res *WatchResult) {
	if res == nil || res.Record == nil {
		return
	}
	rec := res.Record

	if res.FirstEver || rec.Percentage > WatchedActivityMinPercentage {
		snapshot := *rec
		first := res.FirstEver
		d.enqueue(task{
			name:   "video_watched",
			userID: rec.UserID,
			run: func(ctx context.Context) error {
				return d.videoWatched(ctx, &snapshot, first)
			},
		})
	}

	if res.JustCompleted && len(res.Events) > 0 {
		events := append([]types.CompletionEvent(nil), res.Events...)
		snapshot := *rec
		d.enqueue(task{
			name:   "completion",
			userID: rec.UserID,
			run: func(ctx context.Context) error {
				return d.completion(ctx, &snapshot, events)
			},
		})
	}
}

func (d *dispatcher) videoWatched(ctx context.Context, rec *types.VideoProgress, first bool) error {
	data := map[string]any{
		"percentage":      rec.Percentage,
		"watched_seconds": rec.WatchedSeconds,
		"first_ever":      first,
	}
	var errs []error
	if err := d.activities.Record(ctx, ActivityEntry{
		UserID:    rec.UserID,
		Type:      types.ActivityVideoWatched,
		VideoID:   rec.VideoID,
		TermID:    rec.TermID,
		SubjectID: rec.SubjectID,
		Data:      data,
	}); err != nil {
		errs = append(errs, err)
	}
	if err := d.notify(ctx, rec.UserID, realtime.EventVideoWatched, withVideo(data, rec.VideoID)); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// completion records every completion event in order and then evaluates
// badges, so badge rules see the activities written above.
func (d *dispatcher) completion(ctx context.Context, rec *types.VideoProgress, events []types.CompletionEvent) error {
	var errs []error
	for _, ev := range events {
		entry, kind := completionActivity(rec, ev)
		if err := d.activities.Record(ctx, entry); err != nil {
			errs = append(errs, err)
		}
		if err := d.notify(ctx, ev.UserID, kind, entry.Data); err != nil {
			errs = append(errs, err)
		}
	}

	if d.badges == nil {
		return errors.Join(errs...)
	}
	awarded, err := d.badges.Evaluate(ctx, rec.UserID)
	if err != nil {
		errs = append(errs, err)
	}
	for _, b := range awarded {
		data := map[string]any{"badge_key": b.Key, "badge_name": b.Name}
		if err := d.activities.Record(ctx, ActivityEntry{
			UserID: rec.UserID,
			Type:   types.ActivityBadgeAwarded,
			Data:   data,
		}); err != nil {
			errs = append(errs, err)
		}
		if err := d.notify(ctx, rec.UserID, realtime.EventBadgeAwarded, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func completionActivity(rec *types.VideoProgress, ev types.CompletionEvent) (ActivityEntry, realtime.NotificationEvent) {
	entry := ActivityEntry{
		UserID:  ev.UserID,
		VideoID: ev.VideoID,
		Data: map[string]any{
			"scope":       string(ev.Scope),
			"scope_id":    ev.ScopeID.String(),
			"video_id":    ev.VideoID.String(),
			"occurred_at": ev.OccurredAt,
		},
	}
	switch ev.Scope {
	case types.ScopeTerm:
		entry.Type = types.ActivityTermCompleted
		entry.TermID = ev.ScopeID
		entry.SubjectID = rec.SubjectID
		return entry, realtime.EventTermCompleted
	case types.ScopeSubject:
		entry.Type = types.ActivitySubjectCompleted
		entry.SubjectID = ev.ScopeID
		return entry, realtime.EventSubjectCompleted
	default:
		entry.Type = types.ActivityVideoCompleted
		entry.TermID = rec.TermID
		entry.SubjectID = rec.SubjectID
		return entry, realtime.EventVideoCompleted
	}
}

func (d *dispatcher) notify(ctx context.Context, userID uuid.UUID, event realtime.NotificationEvent, data map[string]any) error {
	if d.notifier == nil {
		return nil
	}
	return d.notifier.Notify(ctx, realtime.ForUser(userID, event, data))
}

func withVideo(data map[string]any, videoID uuid.UUID) map[string]any {
	out := make(map[string]any, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	out["video_id"] = videoID.String()
	return out
}

package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tej1010/spongier-backend-sub001/internal/data/repos"
	"github.com/tej1010/spongier-backend-sub001/internal/data/repos/testutil"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/logger"
	"github.com/tej1010/spongier-backend-sub001/internal/realtime"
)

type harness struct {
	db         *gorm.DB
	log        *logger.Logger
	videos     repos.VideoRepo
	hierarchy  repos.HierarchyRepo
	progress   repos.VideoProgressRepo
	activities repos.UserActivityRepo
	badges     repos.UserBadgeRepo
	links      repos.ParentChildLinkRepo
	catalog    VideoCatalog
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	h := &harness{
		db:         db,
		log:        log,
		videos:     repos.NewVideoRepo(db, log),
		hierarchy:  repos.NewHierarchyRepo(db, log),
		progress:   repos.NewVideoProgressRepo(db, log),
		activities: repos.NewUserActivityRepo(db, log),
		badges:     repos.NewUserBadgeRepo(db, log),
		links:      repos.NewParentChildLinkRepo(db, log),
	}
	h.catalog = NewVideoCatalog(h.videos)
	return h
}

// recordingDispatcher keeps every result handed to it.
type recordingDispatcher struct {
	mu      sync.Mutex
	results []*WatchResult
}

func (d *recordingDispatcher) Dispatch(res *WatchResult) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.results = append(d.results, res)
}
func (d *recordingDispatcher) Start(context.Context)          {}
func (d *recordingDispatcher) Shutdown(context.Context) error { return nil }

type fakeActivityLog struct {
	mu      sync.Mutex
	entries []ActivityEntry
	panicOn string
}

func (f *fakeActivityLog) Record(_ context.Context, e ActivityEntry) error {
	if f.panicOn != "" && e.Type == f.panicOn {
		panic("activity store exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeActivityLog) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Type)
	}
	return out
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []realtime.Notification
}

func (f *fakeNotifier) Notify(_ context.Context, n realtime.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeBadges struct {
	mu     sync.Mutex
	calls  []uuid.UUID
	awards []BadgeRule
}

func (f *fakeBadges) Evaluate(_ context.Context, userID uuid.UUID) ([]BadgeRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, userID)
	out := f.awards
	f.awards = nil
	return out, nil
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

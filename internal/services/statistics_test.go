package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	progressrepo "github.com/tej1010/spongier-backend-sub001/internal/data/repos/progress"
	"github.com/tej1010/spongier-backend-sub001/internal/data/repos/testutil"
	types "github.com/tej1010/spongier-backend-sub001/internal/domain"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/apierr"
)

func newStatisticsService(h *harness, now time.Time) StatisticsService {
	return NewStatisticsService(
		h.log,
		StatisticsConfig{Location: time.UTC, Now: fixedNow(now)},
		h.progress,
		h.hierarchy,
		NewGuardianService(h.log, h.links),
	)
}

func TestWatchStatisticsEmptyUser(t *testing.T) {
	h := newHarness(t)
	svc := newStatisticsService(h, time.Now())
	user := uuid.New()

	out, err := svc.WatchStatistics(context.Background(), user, uuid.Nil)
	if err != nil {
		t.Fatalf("WatchStatistics: %v", err)
	}
	if out.UserID != user || out.Overview.VideosWatched != 0 || out.Overview.WatchedTime.String() != "00:00:00" {
		t.Fatalf("empty overview: %+v", out.Overview)
	}
	if out.BySubject == nil || out.ByGrade == nil || out.Recent == nil {
		t.Fatalf("empty user should get empty slices, not nil")
	}
}

func TestWatchStatisticsAggregates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	hier := testutil.SeedHierarchy(t, ctx, h.db)
	v1 := testutil.SeedVideo(t, ctx, h.db, hier, hier.Term.ID, 600)
	v2 := testutil.SeedVideo(t, ctx, h.db, hier, hier.Term.ID, 3600)
	user := uuid.New()
	now := time.Now().UTC()
	testutil.SeedProgress(t, ctx, h.db, user, v1, 600, now.Add(-time.Hour))
	testutil.SeedProgress(t, ctx, h.db, user, v2, 1800, now)

	out, err := newStatisticsService(h, now).WatchStatistics(ctx, user, user)
	if err != nil {
		t.Fatalf("WatchStatistics: %v", err)
	}
	ov := out.Overview
	if ov.VideosWatched != 2 || ov.VideosCompleted != 1 || ov.WatchedSeconds != 2400 || ov.WatchedTime.String() != "00:40:00" {
		t.Fatalf("overview: %+v", ov)
	}
	if len(out.BySubject) != 1 || out.BySubject[0].Name != "Mathematics" || out.BySubject[0].VideosWatched != 2 {
		t.Fatalf("by subject: %+v", out.BySubject)
	}
	if len(out.ByGrade) != 1 || out.ByGrade[0].Name != "Grade 5" {
		t.Fatalf("by grade: %+v", out.ByGrade)
	}
	if len(out.Recent) != 2 || out.Recent[0].VideoID != v2.ID || out.Recent[0].Percentage != 50 {
		t.Fatalf("recent: %+v", out.Recent)
	}
}

func TestStatisticsChildAccess(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	parent, child, stranger := uuid.New(), uuid.New(), uuid.New()
	if _, err := h.links.Create(ctx, nil, []*types.ParentChildLink{{ParentUserID: parent, ChildUserID: child, Verified: true}}); err != nil {
		t.Fatalf("seed link: %v", err)
	}
	svc := newStatisticsService(h, time.Now())

	if _, err := svc.WatchStatistics(ctx, parent, child); err != nil {
		t.Fatalf("parent should see child statistics: %v", err)
	}
	if out, err := svc.WeeklyProgress(ctx, parent, child); err != nil || out.UserID != child {
		t.Fatalf("parent weekly progress: out=%v err=%v", out, err)
	}

	for _, call := range []func() error{
		func() error { _, err := svc.WatchStatistics(ctx, stranger, child); return err },
		func() error { _, err := svc.WeeklyProgress(ctx, stranger, child); return err },
		func() error { _, err := svc.WatchStatistics(ctx, child, parent); return err },
	} {
		ae, ok := apierr.As(call())
		if !ok || ae.Status != http.StatusForbidden || ae.Code != CodeNotParentOfChild {
			t.Fatalf("expected 403 %s, got %+v", CodeNotParentOfChild, ae)
		}
	}
}

func TestWeeklyProgressBuckets(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	hier := testutil.SeedHierarchy(t, ctx, h.db)
	v1 := testutil.SeedVideo(t, ctx, h.db, hier, hier.Term.ID, 100)
	v2 := testutil.SeedVideo(t, ctx, h.db, hier, hier.Term.ID, 100)
	v3 := testutil.SeedVideo(t, ctx, h.db, hier, hier.Term.ID, 100)
	v4 := testutil.SeedVideo(t, ctx, h.db, hier, hier.Term.ID, 100)

	now := time.Date(2026, 10, 14, 15, 30, 0, 0, time.UTC) // a Wednesday
	user := uuid.New()
	testutil.SeedProgress(t, ctx, h.db, user, v1, 100, now.Add(-time.Hour))
	testutil.SeedProgress(t, ctx, h.db, user, v2, 50, now.Add(-2*time.Hour))
	testutil.SeedProgress(t, ctx, h.db, user, v3, 20, now.AddDate(0, 0, -6))
	testutil.SeedProgress(t, ctx, h.db, user, v4, 100, now.AddDate(0, 0, -7))

	out, err := newStatisticsService(h, now).WeeklyProgress(ctx, user, uuid.Nil)
	if err != nil {
		t.Fatalf("WeeklyProgress: %v", err)
	}
	if len(out.Days) != 7 {
		t.Fatalf("expected 7 buckets, got %d", len(out.Days))
	}
	if out.From != "2026-10-08" || out.To != "2026-10-14" {
		t.Fatalf("window: %s .. %s", out.From, out.To)
	}
	first, last := out.Days[0], out.Days[6]
	if first.Date != "2026-10-08" || first.VideosWatched != 1 || first.WatchedSeconds != 20 {
		t.Fatalf("oldest bucket: %+v", first)
	}
	if last.Date != "2026-10-14" || last.VideosWatched != 2 || last.CompletedCount != 1 || last.AveragePercentage != 75 {
		t.Fatalf("today bucket: %+v", last)
	}
	for _, d := range out.Days[1:6] {
		if d.VideosWatched != 0 || d.WatchedSeconds != 0 || d.AveragePercentage != 0 || d.WatchedTime.String() != "00:00:00" {
			t.Fatalf("expected empty bucket, got %+v", d)
		}
	}
	if out.Totals.VideosWatched != 3 || out.Totals.WatchedSeconds != 170 {
		t.Fatalf("totals: %+v", out.Totals)
	}
}

func TestWeeklyProgressEmptyUser(t *testing.T) {
	h := newHarness(t)
	out, err := newStatisticsService(h, time.Now()).WeeklyProgress(context.Background(), uuid.New(), uuid.Nil)
	if err != nil {
		t.Fatalf("WeeklyProgress: %v", err)
	}
	if len(out.Days) != 7 {
		t.Fatalf("expected 7 zeroed buckets, got %d", len(out.Days))
	}
}

func TestWatchHistoryPaginationAndFilters(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	hier := testutil.SeedHierarchy(t, ctx, h.db)
	user := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		v := testutil.SeedVideo(t, ctx, h.db, hier, hier.Term.ID, 100)
		watched := int64(40)
		if i%2 == 0 {
			watched = 100
		}
		testutil.SeedProgress(t, ctx, h.db, user, v, watched, base.Add(time.Duration(i)*time.Minute))
	}
	svc := newStatisticsService(h, time.Now())

	page, err := svc.WatchHistory(ctx, user, HistoryQuery{PageQuery: PageQuery{Page: 2, Limit: 2}})
	if err != nil {
		t.Fatalf("WatchHistory: %v", err)
	}
	if page.Pagination.Total != 5 || page.Pagination.TotalPages != 3 || len(page.Items) != 2 {
		t.Fatalf("pagination: %+v items=%d", page.Pagination, len(page.Items))
	}
	if !page.Items[0].LastWatchedAt.After(page.Items[1].LastWatchedAt) {
		t.Fatalf("history must be newest first")
	}

	done := true
	filtered, err := svc.WatchHistory(ctx, user, HistoryQuery{
		PageQuery: PageQuery{Limit: 500},
		Filter:    progressrepo.HistoryFilter{Completed: &done, TermID: &hier.Term.ID},
	})
	if err != nil {
		t.Fatalf("WatchHistory filtered: %v", err)
	}
	if filtered.Pagination.Total != 3 || filtered.Pagination.Limit != 100 || filtered.Pagination.Page != 1 {
		t.Fatalf("filtered: %+v", filtered.Pagination)
	}
}

func TestMyLearningActionsAndDisplayPercentage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	hier := testutil.SeedHierarchy(t, ctx, h.db)
	done := testutil.SeedVideo(t, ctx, h.db, hier, hier.Term.ID, 200)
	partial := testutil.SeedVideo(t, ctx, h.db, hier, hier.Term.ID, 200)
	user := uuid.New()
	now := time.Now().UTC()
	testutil.SeedProgress(t, ctx, h.db, user, done, 200, now.Add(-time.Hour))
	testutil.SeedProgress(t, ctx, h.db, user, partial, 150, now)

	// the video was re-cut shorter after the user watched it
	if err := h.videos.UpdateFields(ctx, nil, done.ID, map[string]interface{}{"duration_seconds": 100}); err != nil {
		t.Fatalf("shorten video: %v", err)
	}

	page, err := newStatisticsService(h, now).MyLearning(ctx, user, LearningQuery{Sort: progressrepo.SortRecent})
	if err != nil {
		t.Fatalf("MyLearning: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("items: %d", len(page.Items))
	}
	recent, older := page.Items[0], page.Items[1]
	if recent.VideoID != partial.ID || recent.Action != ActionResume || recent.DisplayPercentage != 75 {
		t.Fatalf("partial item: %+v", recent)
	}
	if older.VideoID != done.ID || older.Action != ActionRewatch || older.DisplayPercentage != 100 || older.WatchedTime.String() != "00:01:40" {
		t.Fatalf("completed item: %+v", older)
	}

	byProgress, err := newStatisticsService(h, now).MyLearning(ctx, user, LearningQuery{Sort: progressrepo.SortProgress})
	if err != nil {
		t.Fatalf("MyLearning by progress: %v", err)
	}
	if byProgress.Items[0].VideoID != done.ID {
		t.Fatalf("progress sort should put the completed video first")
	}
}

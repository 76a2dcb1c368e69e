package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tej1010/spongier-backend-sub001/internal/data/repos/testutil"
	types "github.com/tej1010/spongier-backend-sub001/internal/domain"
)

func sample(userID uuid.UUID, v *types.Video, watched, position int64, at time.Time) *types.VideoProgress {
	return &types.VideoProgress{
		UserID:              userID,
		VideoID:             v.ID,
		GradeID:             v.GradeID,
		SubjectID:           v.SubjectID,
		TermID:              v.TermID,
		WatchedSeconds:      watched,
		TotalSeconds:        v.DurationSeconds,
		LastPositionSeconds: position,
		LastWatchedAt:       at,
	}
}

func mergeRow(ctx context.Context, repo VideoProgressRepo, tx *gorm.DB, row *types.VideoProgress) (*types.VideoProgress, error) {
	res, err := repo.Merge(ctx, tx, row)
	if err != nil {
		return nil, err
	}
	return res.Record, nil
}

func TestVideoProgressRepoMerge(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewVideoProgressRepo(db, testutil.Logger(t))

	h := testutil.SeedHierarchy(t, ctx, tx)
	v := testutil.SeedVideo(t, ctx, tx, h, h.Term.ID, 600)
	user := uuid.New()
	t0 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	first, err := mergeRow(ctx, repo, tx, sample(user, v, 300, 300, t0))
	if err != nil {
		t.Fatalf("Merge first: %v", err)
	}
	if first.WatchedSeconds != 300 || first.Percentage != 50 || first.Completed || first.CompletedAt != nil {
		t.Fatalf("first merge: %+v", first)
	}
	if !first.CreatedAt.Equal(t0) {
		t.Fatalf("created_at = %v, want %v", first.CreatedAt, t0)
	}

	// a smaller sample keeps watched_seconds but moves the position
	t1 := t0.Add(time.Minute)
	second, err := mergeRow(ctx, repo, tx, sample(user, v, 100, 90, t1))
	if err != nil {
		t.Fatalf("Merge second: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("merge created a second row")
	}
	if second.WatchedSeconds != 300 || second.LastPositionSeconds != 90 {
		t.Fatalf("second merge: watched=%d position=%d", second.WatchedSeconds, second.LastPositionSeconds)
	}
	if !second.LastWatchedAt.Equal(t1) {
		t.Fatalf("last_watched_at = %v, want %v", second.LastWatchedAt, t1)
	}
	if !second.CreatedAt.Equal(t0) {
		t.Fatalf("created_at moved to %v", second.CreatedAt)
	}

	t2 := t1.Add(time.Minute)
	third, err := mergeRow(ctx, repo, tx, sample(user, v, 5000, 600, t2))
	if err != nil {
		t.Fatalf("Merge third: %v", err)
	}
	if third.WatchedSeconds != 600 || third.Percentage != 100 || !third.Completed {
		t.Fatalf("third merge: %+v", third)
	}
	if third.CompletedAt == nil || !third.CompletedAt.Equal(t2) {
		t.Fatalf("completed_at = %v, want %v", third.CompletedAt, t2)
	}

	// completion is sticky and its timestamp does not move
	t3 := t2.Add(time.Minute)
	fourth, err := mergeRow(ctx, repo, tx, sample(user, v, 10, 10, t3))
	if err != nil {
		t.Fatalf("Merge fourth: %v", err)
	}
	if !fourth.Completed || fourth.WatchedSeconds != 600 {
		t.Fatalf("fourth merge: %+v", fourth)
	}
	if fourth.CompletedAt == nil || !fourth.CompletedAt.Equal(t2) {
		t.Fatalf("completed_at moved to %v", fourth.CompletedAt)
	}

	if n, err := repo.CountByUser(ctx, tx, user); err != nil || n != 1 {
		t.Fatalf("CountByUser: n=%d err=%v", n, err)
	}
}

func TestVideoProgressRepoMergeCompletesOnFirstSample(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewVideoProgressRepo(db, testutil.Logger(t))

	h := testutil.SeedHierarchy(t, ctx, tx)
	v := testutil.SeedVideo(t, ctx, tx, h, h.Term.ID, 100)
	user := uuid.New()
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	row, err := mergeRow(ctx, repo, tx, sample(user, v, 95, 95, at))
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !row.Completed || row.CompletedAt == nil || !row.CompletedAt.Equal(at) {
		t.Fatalf("expected completion at %v, got %+v", at, row)
	}
}

func TestVideoProgressRepoQueries(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewVideoProgressRepo(db, testutil.Logger(t))

	h := testutil.SeedHierarchy(t, ctx, tx)
	term2 := testutil.SeedTerm(t, ctx, tx, h.Subject.ID, "Term 2")
	v1 := testutil.SeedVideo(t, ctx, tx, h, h.Term.ID, 100)
	v2 := testutil.SeedVideo(t, ctx, tx, h, h.Term.ID, 200)
	v3 := testutil.SeedVideo(t, ctx, tx, h, term2.ID, 300)

	user := uuid.New()
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	p1 := testutil.SeedProgress(t, ctx, tx, user, v1, 100, base)
	testutil.SeedProgress(t, ctx, tx, user, v2, 50, base.Add(time.Hour))
	testutil.SeedProgress(t, ctx, tx, user, v3, 300, base.Add(2*time.Hour))
	testutil.SeedProgress(t, ctx, tx, uuid.New(), v1, 100, base)

	if n, err := repo.CountCompletedByUserTerm(ctx, tx, user, h.Term.ID); err != nil || n != 1 {
		t.Fatalf("CountCompletedByUserTerm: n=%d err=%v", n, err)
	}
	if n, err := repo.CountCompletedByUserSubject(ctx, tx, user, h.Subject.ID); err != nil || n != 2 {
		t.Fatalf("CountCompletedByUserSubject: n=%d err=%v", n, err)
	}

	totals, err := repo.Summarize(ctx, tx, user)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if totals.VideosWatched != 3 || totals.VideosCompleted != 2 || totals.WatchedSeconds != 450 {
		t.Fatalf("Summarize: %+v", totals)
	}

	groups, err := repo.SummarizeBy(ctx, tx, user, GroupBySubject)
	if err != nil || len(groups) != 1 || groups[0].GroupID != h.Subject.ID || groups[0].VideosWatched != 3 {
		t.Fatalf("SummarizeBy: groups=%+v err=%v", groups, err)
	}

	done := true
	rows, total, err := repo.ListHistory(ctx, tx, user, HistoryFilter{Completed: &done}, 1, 0)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if total != 2 || len(rows) != 1 || rows[0].VideoID != v3.ID {
		t.Fatalf("ListHistory: total=%d rows=%d", total, len(rows))
	}

	recent, err := repo.ListRecent(ctx, tx, user, 2)
	if err != nil || len(recent) != 2 || recent[0].VideoID != v3.ID {
		t.Fatalf("ListRecent: len=%d err=%v", len(recent), err)
	}

	between, err := repo.ListWatchedBetween(ctx, tx, user, base, base.Add(90*time.Minute))
	if err != nil || len(between) != 2 {
		t.Fatalf("ListWatchedBetween: len=%d err=%v", len(between), err)
	}

	learning, total, err := repo.ListLearning(ctx, tx, user, SortProgress, 10, 0)
	if err != nil {
		t.Fatalf("ListLearning: %v", err)
	}
	if total != 3 || len(learning) != 3 || learning[2].VideoID != v2.ID {
		t.Fatalf("ListLearning: total=%d rows=%+v", total, learning)
	}
	if learning[2].Title != v2.Title || learning[2].VideoDurationSeconds != 200 {
		t.Fatalf("ListLearning join: %+v", learning[2])
	}

	if err := repo.SoftDeleteByIDs(ctx, tx, []uuid.UUID{p1.ID}); err != nil {
		t.Fatalf("SoftDeleteByIDs: %v", err)
	}
	if got, err := repo.GetByUserAndVideo(ctx, tx, user, v1.ID); err != nil || got != nil {
		t.Fatalf("GetByUserAndVideo after delete: got=%v err=%v", got, err)
	}
	// a fresh sample after soft delete starts a new live row
	row, err := mergeRow(ctx, repo, tx, sample(user, v1, 10, 10, base.Add(3*time.Hour)))
	if err != nil {
		t.Fatalf("Merge after delete: %v", err)
	}
	if row.ID == p1.ID || row.WatchedSeconds != 10 {
		t.Fatalf("Merge after delete: %+v", row)
	}
}

func TestVideoProgressRepoMergeConcurrentSingleEdge(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewVideoProgressRepo(db, testutil.Logger(t))

	h := testutil.SeedHierarchy(t, ctx, db)
	v := testutil.SeedVideo(t, ctx, db, h, h.Term.ID, 600)
	user := uuid.New()
	t0 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	const writers = 20
	results := make([]*MergeResult, writers)
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			at := t0.Add(time.Duration(i) * time.Millisecond)
			results[i], errs[i] = repo.Merge(ctx, nil, sample(user, v, int64(500+5*i), int64(500+5*i), at))
		}(i)
	}
	wg.Wait()

	edges, created := 0, 0
	for i, res := range results {
		if errs[i] != nil {
			t.Fatalf("writer %d: %v", i, errs[i])
		}
		at := t0.Add(time.Duration(i) * time.Millisecond)
		if res.Record.CompletedAt != nil && res.Record.CompletedAt.Equal(at) {
			edges++
		}
		if res.Created {
			created++
		}
	}
	if edges != 1 {
		t.Fatalf("completion edges = %d, want 1", edges)
	}
	if created != 1 {
		t.Fatalf("created = %d, want 1", created)
	}

	final, err := repo.GetByUserAndVideo(ctx, nil, user, v.ID)
	if err != nil || final == nil {
		t.Fatalf("GetByUserAndVideo: row=%v err=%v", final, err)
	}
	if final.WatchedSeconds != 595 || !final.Completed {
		t.Fatalf("final row: watched=%d completed=%v", final.WatchedSeconds, final.Completed)
	}
	if n, err := repo.CountByUser(ctx, nil, user); err != nil || n != 1 {
		t.Fatalf("CountByUser: n=%d err=%v", n, err)
	}
}

func TestVideoProgressRepoMergeFirstForUser(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewVideoProgressRepo(db, testutil.Logger(t))

	h := testutil.SeedHierarchy(t, ctx, tx)
	v1 := testutil.SeedVideo(t, ctx, tx, h, h.Term.ID, 600)
	v2 := testutil.SeedVideo(t, ctx, tx, h, h.Term.ID, 600)
	user := uuid.New()
	t0 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	a, err := repo.Merge(ctx, tx, sample(user, v1, 10, 10, t0))
	if err != nil {
		t.Fatalf("Merge v1: %v", err)
	}
	if !a.Created || !a.FirstForUser {
		t.Fatalf("v1: created=%v first=%v", a.Created, a.FirstForUser)
	}
	b, err := repo.Merge(ctx, tx, sample(user, v2, 10, 10, t0.Add(time.Second)))
	if err != nil {
		t.Fatalf("Merge v2: %v", err)
	}
	if !b.Created || b.FirstForUser {
		t.Fatalf("v2: created=%v first=%v", b.Created, b.FirstForUser)
	}
	c, err := repo.Merge(ctx, tx, sample(user, v1, 20, 20, t0.Add(2*time.Second)))
	if err != nil {
		t.Fatalf("Merge v1 again: %v", err)
	}
	if c.Created || c.FirstForUser {
		t.Fatalf("v1 update: created=%v first=%v", c.Created, c.FirstForUser)
	}

	// soft-deleted history does not count
	if err := repo.SoftDeleteByIDs(ctx, tx, []uuid.UUID{a.Record.ID, b.Record.ID}); err != nil {
		t.Fatalf("SoftDeleteByIDs: %v", err)
	}
	d, err := repo.Merge(ctx, tx, sample(user, v2, 5, 5, t0.Add(3*time.Second)))
	if err != nil {
		t.Fatalf("Merge after delete: %v", err)
	}
	if !d.Created || !d.FirstForUser {
		t.Fatalf("after delete: created=%v first=%v", d.Created, d.FirstForUser)
	}
}

func TestVideoProgressRepoMergeConcurrentFirstForUser(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewVideoProgressRepo(db, testutil.Logger(t))

	h := testutil.SeedHierarchy(t, ctx, db)
	const videos = 8
	vs := make([]*types.Video, videos)
	for i := range vs {
		vs[i] = testutil.SeedVideo(t, ctx, db, h, h.Term.ID, 600)
	}
	user := uuid.New()
	t0 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	firsts := make([]bool, videos)
	errs := make([]error, videos)
	var wg sync.WaitGroup
	for i := range vs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := repo.Merge(ctx, nil, sample(user, vs[i], 10, 10, t0.Add(time.Duration(i)*time.Millisecond)))
			if err != nil {
				errs[i] = err
				return
			}
			firsts[i] = res.FirstForUser
		}(i)
	}
	wg.Wait()

	n := 0
	for i := range vs {
		if errs[i] != nil {
			t.Fatalf("writer %d: %v", i, errs[i])
		}
		if firsts[i] {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("first-for-user reported %d times, want 1", n)
	}
}

func TestVideoProgressRepoLearningOrdersByCurrentDuration(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewVideoProgressRepo(db, testutil.Logger(t))

	h := testutil.SeedHierarchy(t, ctx, tx)
	shortened := testutil.SeedVideo(t, ctx, tx, h, h.Term.ID, 100)
	steady := testutil.SeedVideo(t, ctx, tx, h, h.Term.ID, 100)
	user := uuid.New()
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	testutil.SeedProgress(t, ctx, tx, user, shortened, 60, base)
	testutil.SeedProgress(t, ctx, tx, user, steady, 80, base)

	// stored percentages stay 60 and 80; against the new duration the first is 100
	if err := tx.Model(&types.Video{}).Where("id = ?", shortened.ID).Update("duration_seconds", 50).Error; err != nil {
		t.Fatalf("edit duration: %v", err)
	}

	rows, total, err := repo.ListLearning(ctx, tx, user, SortProgress, 10, 0)
	if err != nil {
		t.Fatalf("ListLearning: %v", err)
	}
	if total != 2 || len(rows) != 2 {
		t.Fatalf("ListLearning: total=%d rows=%d", total, len(rows))
	}
	if rows[0].VideoID != shortened.ID || rows[1].VideoID != steady.ID {
		t.Fatalf("order: got %s, %s", rows[0].VideoID, rows[1].VideoID)
	}
}

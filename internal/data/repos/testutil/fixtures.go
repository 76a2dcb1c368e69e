package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/tej1010/spongier-backend-sub001/internal/domain"
)

// Hierarchy is a seeded grade > subject > term chain.
type Hierarchy struct {
	Grade   *types.Grade
	Subject *types.Subject
	Term    *types.Term
}

func SeedHierarchy(tb testing.TB, ctx context.Context, tx *gorm.DB) *Hierarchy {
	tb.Helper()
	g := &types.Grade{ID: uuid.New(), Name: "Grade 5"}
	if err := tx.WithContext(ctx).Create(g).Error; err != nil {
		tb.Fatalf("seed grade: %v", err)
	}
	s := &types.Subject{ID: uuid.New(), GradeID: g.ID, Name: "Mathematics"}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed subject: %v", err)
	}
	tm := SeedTerm(tb, ctx, tx, s.ID, "Term 1")
	return &Hierarchy{Grade: g, Subject: s, Term: tm}
}

func SeedTerm(tb testing.TB, ctx context.Context, tx *gorm.DB, subjectID uuid.UUID, name string) *types.Term {
	tb.Helper()
	tm := &types.Term{ID: uuid.New(), SubjectID: subjectID, Name: name}
	if err := tx.WithContext(ctx).Create(tm).Error; err != nil {
		tb.Fatalf("seed term: %v", err)
	}
	return tm
}

func SeedVideo(tb testing.TB, ctx context.Context, tx *gorm.DB, h *Hierarchy, termID uuid.UUID, durationSeconds int64) *types.Video {
	tb.Helper()
	id := uuid.New()
	v := &types.Video{
		ID:              id,
		GradeID:         h.Grade.ID,
		SubjectID:       h.Subject.ID,
		TermID:          termID,
		Title:           "video " + id.String()[:8],
		Slug:            "video-" + id.String(),
		DurationSeconds: durationSeconds,
		Status:          types.VideoStatusActive,
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed video: %v", err)
	}
	return v
}

func SeedProgress(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, v *types.Video, watched int64, at time.Time) *types.VideoProgress {
	tb.Helper()
	at = at.UTC().Truncate(time.Microsecond)
	p := &types.VideoProgress{
		ID:             uuid.New(),
		UserID:         userID,
		VideoID:        v.ID,
		GradeID:        v.GradeID,
		SubjectID:      v.SubjectID,
		TermID:         v.TermID,
		WatchedSeconds: watched,
		TotalSeconds:   v.DurationSeconds,
		LastWatchedAt:  at,
		CreatedAt:      at,
		UpdatedAt:      at,
	}
	p.Recompute()
	if p.Completed {
		p.CompletedAt = &at
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed progress: %v", err)
	}
	return p
}

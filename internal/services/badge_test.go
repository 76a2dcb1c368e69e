package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tej1010/spongier-backend-sub001/internal/data/repos/testutil"
)

func TestParseBadgeRules(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"valid", "badges:\n  - key: a\n    metric: videos_completed\n    threshold: 1\n", ""},
		{"missing key", "badges:\n  - metric: videos_completed\n    threshold: 1\n", "key required"},
		{"duplicate", "badges:\n  - key: a\n    metric: videos_completed\n    threshold: 1\n  - key: a\n    metric: watched_seconds\n    threshold: 5\n", "duplicate"},
		{"bad metric", "badges:\n  - key: a\n    metric: quizzes_passed\n    threshold: 1\n", "unknown metric"},
		{"bad threshold", "badges:\n  - key: a\n    metric: videos_completed\n    threshold: 0\n", "threshold"},
		{"not yaml", "badges: [", "decode"},
	}
	for _, tc := range cases {
		_, err := ParseBadgeRules([]byte(tc.yaml))
		if tc.wantErr == "" {
			if err != nil {
				t.Fatalf("%s: unexpected error %v", tc.name, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
			t.Fatalf("%s: want error containing %q, got %v", tc.name, tc.wantErr, err)
		}
	}
}

func TestDefaultBadgeRulesLoad(t *testing.T) {
	rules, err := LoadBadgeRules("")
	if err != nil {
		t.Fatalf("LoadBadgeRules: %v", err)
	}
	if len(rules) == 0 || rules[0].Key != "first_video" {
		t.Fatalf("unexpected default rules: %+v", rules)
	}
}

func TestBadgeEvaluatorAwardsOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	hier := testutil.SeedHierarchy(t, ctx, h.db)
	v := testutil.SeedVideo(t, ctx, h.db, hier, hier.Term.ID, 100)
	user := uuid.New()

	rules := []BadgeRule{
		{Key: "first_video", Metric: MetricVideosCompleted, Threshold: 1},
		{Key: "two_videos", Metric: MetricVideosCompleted, Threshold: 2},
		{Key: "first_term", Metric: MetricTermsCompleted, Threshold: 1},
	}
	eval := NewBadgeEvaluator(h.log, rules, h.progress, h.activities, h.badges)

	if got, err := eval.Evaluate(ctx, user); err != nil || len(got) != 0 {
		t.Fatalf("no progress yet: got=%v err=%v", got, err)
	}

	testutil.SeedProgress(t, ctx, h.db, user, v, 100, time.Now())
	got, err := eval.Evaluate(ctx, user)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(got) != 1 || got[0].Key != "first_video" {
		t.Fatalf("awarded: %+v", got)
	}

	acts := NewActivityLog(h.log, h.activities)
	for i := 0; i < 2; i++ {
		if err := acts.Record(ctx, ActivityEntry{UserID: user, Type: "term_completed", TermID: hier.Term.ID}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	got, err = eval.Evaluate(ctx, user)
	if err != nil {
		t.Fatalf("Evaluate again: %v", err)
	}
	if len(got) != 1 || got[0].Key != "first_term" {
		t.Fatalf("second evaluation should only add first_term, got %+v", got)
	}

	owned, err := h.badges.ListByUser(ctx, nil, user)
	if err != nil || len(owned) != 2 {
		t.Fatalf("owned badges: len=%d err=%v", len(owned), err)
	}
}

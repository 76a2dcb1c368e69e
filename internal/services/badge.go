package services

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/tej1010/spongier-backend-sub001/internal/data/repos"
	types "github.com/tej1010/spongier-backend-sub001/internal/domain"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/logger"
)

//go:embed badges/default.yaml
var defaultBadgeRules []byte

type BadgeMetric string

const (
	MetricVideosCompleted   BadgeMetric = "videos_completed"
	MetricTermsCompleted    BadgeMetric = "terms_completed"
	MetricSubjectsCompleted BadgeMetric = "subjects_completed"
	MetricWatchedSeconds    BadgeMetric = "watched_seconds"
)

type BadgeRule struct {
	Key         string      `yaml:"key" json:"key"`
	Name        string      `yaml:"name" json:"name"`
	Description string      `yaml:"description" json:"description"`
	Metric      BadgeMetric `yaml:"metric" json:"metric"`
	Threshold   int64       `yaml:"threshold" json:"threshold"`
}

type badgeFile struct {
	Badges []BadgeRule `yaml:"badges"`
}

// ParseBadgeRules decodes and validates a YAML rule set.
func ParseBadgeRules(raw []byte) ([]BadgeRule, error) {
	var f badgeFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode badge rules: %w", err)
	}
	seen := map[string]bool{}
	for i, r := range f.Badges {
		key := strings.TrimSpace(r.Key)
		if key == "" {
			return nil, fmt.Errorf("badge rule %d: key required", i)
		}
		if seen[key] {
			return nil, fmt.Errorf("badge rule %q: duplicate key", key)
		}
		seen[key] = true
		switch r.Metric {
		case MetricVideosCompleted, MetricTermsCompleted, MetricSubjectsCompleted, MetricWatchedSeconds:
		default:
			return nil, fmt.Errorf("badge rule %q: unknown metric %q", key, r.Metric)
		}
		if r.Threshold <= 0 {
			return nil, fmt.Errorf("badge rule %q: threshold must be positive", key)
		}
		f.Badges[i].Key = key
	}
	return f.Badges, nil
}

// LoadBadgeRules reads rules from path, or the built-in set when path is empty.
func LoadBadgeRules(path string) ([]BadgeRule, error) {
	if strings.TrimSpace(path) == "" {
		return ParseBadgeRules(defaultBadgeRules)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read badge rules: %w", err)
	}
	return ParseBadgeRules(raw)
}

// BadgeEvaluator awards every rule the user now satisfies and returns the
// badges that were new.
type BadgeEvaluator interface {
	Evaluate(ctx context.Context, userID uuid.UUID) ([]BadgeRule, error)
}

type badgeEvaluator struct {
	log        *logger.Logger
	rules      []BadgeRule
	progress   repos.VideoProgressRepo
	activities repos.UserActivityRepo
	badges     repos.UserBadgeRepo
}

func NewBadgeEvaluator(
	baseLog *logger.Logger,
	rules []BadgeRule,
	progress repos.VideoProgressRepo,
	activities repos.UserActivityRepo,
	badges repos.UserBadgeRepo,
) BadgeEvaluator {
	return &badgeEvaluator{
		log:        baseLog.With("service", "BadgeEvaluator"),
		rules:      rules,
		progress:   progress,
		activities: activities,
		badges:     badges,
	}
}

func (b *badgeEvaluator) Evaluate(ctx context.Context, userID uuid.UUID) ([]BadgeRule, error) {
	if userID == uuid.Nil || len(b.rules) == 0 {
		return nil, nil
	}
	metrics, err := b.metrics(ctx, userID)
	if err != nil {
		return nil, err
	}

	var awarded []BadgeRule
	now := time.Now().UTC()
	for _, r := range b.rules {
		if metrics[r.Metric] < r.Threshold {
			continue
		}
		created, err := b.badges.Award(ctx, nil, &types.UserBadge{UserID: userID, BadgeKey: r.Key, AwardedAt: now})
		if err != nil {
			return awarded, fmt.Errorf("award %s: %w", r.Key, err)
		}
		if created {
			b.log.Info("badge awarded", "user_id", userID, "badge", r.Key)
			awarded = append(awarded, r)
		}
	}
	return awarded, nil
}

func (b *badgeEvaluator) metrics(ctx context.Context, userID uuid.UUID) (map[BadgeMetric]int64, error) {
	need := map[BadgeMetric]bool{}
	for _, r := range b.rules {
		need[r.Metric] = true
	}
	out := map[BadgeMetric]int64{}

	if need[MetricVideosCompleted] || need[MetricWatchedSeconds] {
		totals, err := b.progress.Summarize(ctx, nil, userID)
		if err != nil {
			return nil, fmt.Errorf("summarize progress: %w", err)
		}
		out[MetricVideosCompleted] = totals.VideosCompleted
		out[MetricWatchedSeconds] = totals.WatchedSeconds
	}
	if need[MetricTermsCompleted] {
		n, err := b.activities.CountScopes(ctx, nil, userID, types.ActivityTermCompleted, "term_id")
		if err != nil {
			return nil, fmt.Errorf("count term completions: %w", err)
		}
		out[MetricTermsCompleted] = n
	}
	if need[MetricSubjectsCompleted] {
		n, err := b.activities.CountScopes(ctx, nil, userID, types.ActivitySubjectCompleted, "subject_id")
		if err != nil {
			return nil, fmt.Errorf("count subject completions: %w", err)
		}
		out[MetricSubjectsCompleted] = n
	}
	return out, nil
}

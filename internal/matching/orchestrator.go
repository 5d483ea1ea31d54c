package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"jobRadar/internal/catalog"
	"jobRadar/internal/database"
	"jobRadar/internal/metrics"
)

// CatalogSource 抽象外部职位目录的只读查询。
type CatalogSource interface {
	ActivePostings(ctx context.Context) ([]catalog.Posting, error)
}

// Orchestrator 驱动评分器遍历 (档案, 职位) 组合，并经由 Guard 入库。
//
// Two trigger modes share the downstream path: streaming (one new posting
// against every profile) and on-demand (one user's profile against the
// current catalog). Triggers run independently and may overlap; the guard is
// the only synchronization point.
type Orchestrator struct {
	db          *gorm.DB
	catalog     CatalogSource
	guard       *Guard
	logger      *slog.Logger
	concurrency int
}

// NewOrchestrator 构造匹配调度器。
func NewOrchestrator(db *gorm.DB, source CatalogSource, guard *Guard, logger *slog.Logger, concurrency int) *Orchestrator {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Orchestrator{
		db:          db,
		catalog:     source,
		guard:       guard,
		logger:      logger,
		concurrency: concurrency,
	}
}

type scorePair struct {
	profile database.SearchProfile
	posting catalog.Posting
}

// MatchPosting 是流式模式入口：一条新发布职位对所有搜索档案评分。
// Postings that are unpublished or already expired are skipped outright.
func (o *Orchestrator) MatchPosting(ctx context.Context, posting catalog.Posting) ([]database.MatchedJobPost, error) {
	if !posting.IsActive(time.Now()) {
		o.logger.Info("posting not active, skipping match run",
			slog.String("posting_id", posting.ID),
			slog.String("status", posting.Status),
		)
		return nil, nil
	}

	var profiles []database.SearchProfile
	if err := o.db.WithContext(ctx).Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("load search profiles: %w", err)
	}

	pairs := make([]scorePair, 0, len(profiles))
	for _, profile := range profiles {
		pairs = append(pairs, scorePair{profile: profile, posting: posting})
	}

	return o.fanOut(ctx, "streaming", pairs), nil
}

// RefreshMatches 是按需模式入口：一个用户请求刷新，对目录中所有有效职位评分。
// Only postings newer than the profile's creation time are considered, so a
// re-run against an unchanged catalog creates nothing. A catalog fetch
// failure aborts the invocation with an error; zero new matches with a nil
// error genuinely means nothing changed.
func (o *Orchestrator) RefreshMatches(ctx context.Context, userID uint) ([]database.MatchedJobPost, error) {
	var profile database.SearchProfile
	err := o.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load search profile: %w", err)
	}

	postings, err := o.catalog.ActivePostings(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch active postings: %w", err)
	}

	now := time.Now()
	pairs := make([]scorePair, 0, len(postings))
	for _, posting := range postings {
		if !posting.IsActive(now) {
			continue
		}
		if posting.PostedDate.Before(profile.CreatedAt) {
			continue
		}

		exists, err := o.guard.Exists(ctx, userID, posting.ID)
		if err != nil {
			o.logger.Error("check existing match failed",
				slog.Uint64("user_id", uint64(userID)),
				slog.String("posting_id", posting.ID),
				slog.Any("error", err),
			)
			continue
		}
		if exists {
			continue
		}

		pairs = append(pairs, scorePair{profile: profile, posting: posting})
	}

	return o.fanOut(ctx, "on_demand", pairs), nil
}

// fanOut 并发评分并入库。单对失败只记录日志，不中断整批。
func (o *Orchestrator) fanOut(ctx context.Context, mode string, pairs []scorePair) []database.MatchedJobPost {
	var (
		mu      sync.Mutex
		created []database.MatchedJobPost
	)

	g := new(errgroup.Group)
	g.SetLimit(o.concurrency)

	for _, pair := range pairs {
		g.Go(func() error {
			start := time.Now()
			breakdown := Score(pair.profile, pair.posting)
			metrics.ScoreDuration.Observe(time.Since(start).Seconds())
			match, err := o.guard.TryPersist(ctx, pair.profile.UserID, pair.posting, breakdown)
			if err != nil {
				o.logger.Error("persist match failed",
					slog.Uint64("user_id", uint64(pair.profile.UserID)),
					slog.String("posting_id", pair.posting.ID),
					slog.Any("error", err),
				)
				return nil
			}
			if match != nil {
				metrics.MatchesCreatedTotal.WithLabelValues(mode).Inc()
				mu.Lock()
				created = append(created, *match)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(created, func(i, j int) bool {
		return created[i].Score > created[j].Score
	})

	return created
}

package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"jobRadar/internal/catalog"
	"jobRadar/internal/tasks"
)

// seenPostingTTL 控制“已入队”标记的保留时长，需长于职位的最长生命周期。
const seenPostingTTL = 45 * 24 * time.Hour

type postingSource interface {
	ActivePostings(ctx context.Context) ([]catalog.Posting, error)
}

type seenStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type taskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Poller 周期性拉取目录，把首次见到的在招职位入队为流式匹配任务。
type Poller struct {
	cron     *cron.Cron
	source   postingSource
	seen     seenStore
	enqueuer taskEnqueuer
	logger   *slog.Logger
	spec     string
}

// NewPoller 构造目录轮询器。spec 为 robfig/cron 表达式，如 "@every 10m"。
func NewPoller(client *catalog.Client, rdb *redis.Client, asynqClient *asynq.Client, logger *slog.Logger, spec string) *Poller {
	return &Poller{
		cron:     cron.New(),
		source:   client,
		seen:     rdb,
		enqueuer: asynqClient,
		logger:   logger,
		spec:     spec,
	}
}

// Start registers the sweep on the cron schedule and runs one sweep
// immediately so a fresh deployment does not wait for the first tick.
func (p *Poller) Start(ctx context.Context) error {
	if _, err := p.cron.AddFunc(p.spec, func() { p.runSweep(ctx) }); err != nil {
		return fmt.Errorf("register poller cron: %w", err)
	}

	p.cron.Start()
	p.logger.Info("catalog poller started", slog.String("spec", p.spec))

	go p.runSweep(ctx)
	return nil
}

// Stop 优雅停止轮询。
func (p *Poller) Stop() {
	p.cron.Stop()
	p.logger.Info("catalog poller stopped")
}

func (p *Poller) runSweep(ctx context.Context) {
	correlationID := uuid.NewString()
	log := p.logger.With(slog.String("correlation_id", correlationID))

	postings, err := p.source.ActivePostings(ctx)
	if err != nil {
		log.Error("fetch active postings failed", slog.Any("error", err))
		return
	}

	enqueued := 0
	now := time.Now()
	for _, posting := range postings {
		if !posting.IsActive(now) {
			continue
		}

		key := "seen:posting:" + posting.ID
		fresh, err := p.seen.SetNX(ctx, key, 1, seenPostingTTL).Result()
		if err != nil {
			log.Error("mark posting seen failed", slog.String("posting_id", posting.ID), slog.Any("error", err))
			continue
		}
		if !fresh {
			continue
		}

		task, err := tasks.NewPostingPublishedTask(posting, correlationID)
		if err != nil {
			log.Error("build posting task failed", slog.String("posting_id", posting.ID), slog.Any("error", err))
			continue
		}
		if _, err := p.enqueuer.Enqueue(task, asynq.MaxRetry(3)); err != nil {
			// Drop the seen marker so the next sweep retries the enqueue.
			_ = p.seen.Del(ctx, key).Err()
			log.Error("enqueue posting task failed", slog.String("posting_id", posting.ID), slog.Any("error", err))
			continue
		}
		enqueued++
	}

	log.Info("catalog sweep complete",
		slog.Int("postings", len(postings)),
		slog.Int("enqueued", enqueued),
	)
}

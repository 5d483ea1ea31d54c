package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"jobRadar/internal/database"
	"jobRadar/internal/matching"
	"jobRadar/internal/notify"
	"jobRadar/internal/tasks"
)

// MatchTaskHandler 消费新职位发布任务，执行流式匹配并触发通知。
type MatchTaskHandler struct {
	orchestrator *matching.Orchestrator
	gate         *notify.Gate
	logger       *slog.Logger
}

// NewMatchTaskHandler 创建任务处理器。
func NewMatchTaskHandler(orchestrator *matching.Orchestrator, gate *notify.Gate, logger *slog.Logger) *MatchTaskHandler {
	return &MatchTaskHandler{
		orchestrator: orchestrator,
		gate:         gate,
		logger:       logger,
	}
}

// ProcessTask 实现 asynq.Handler。
// Matching is idempotent (the guard suppresses duplicates), so a retried task
// only ever fills in matches a previous attempt missed.
func (h *MatchTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.PostingPublishedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("posting_id", payload.Posting.ID),
	)
	log.Info("starting streaming match run")

	created, err := h.orchestrator.MatchPosting(ctx, payload.Posting)
	if err != nil {
		log.Error("streaming match run failed", slog.Any("error", err))
		return err
	}

	// Notification failures must not fail the task: the matches are already
	// persisted and a retry would not recreate them.
	for userID, userMatches := range groupByUser(created) {
		if err := h.gate.NotifyUser(ctx, userID, userMatches); err != nil {
			log.Error("notify user failed",
				slog.Uint64("user_id", uint64(userID)),
				slog.Any("error", err),
			)
		}
	}

	log.Info("streaming match run complete", slog.Int("matches_created", len(created)))
	return nil
}

func groupByUser(matches []database.MatchedJobPost) map[uint][]database.MatchedJobPost {
	grouped := make(map[uint][]database.MatchedJobPost, len(matches))
	for _, match := range matches {
		grouped[match.UserID] = append(grouped[match.UserID], match)
	}
	return grouped
}

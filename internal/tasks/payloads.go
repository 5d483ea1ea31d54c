package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"jobRadar/internal/catalog"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypePostingPublished = "posting:published"
)

// PostingPublishedPayload 携带新发布职位的完整快照。
// The snapshot travels with the task so the worker never needs to re-fetch
// the posting from the catalog to score it.
type PostingPublishedPayload struct {
	Posting       catalog.Posting `json:"posting"`
	CorrelationID string          `json:"correlation_id"`
}

// NewPostingPublishedTask 构造一个新职位发布的匹配任务。
func NewPostingPublishedTask(posting catalog.Posting, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(PostingPublishedPayload{
		Posting:       posting,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePostingPublished, payload), nil
}

package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// TypeJobMatch 是职位匹配通知的类型标识，前端据此路由到详情视图。
const TypeJobMatch = "job_match"

// Payload 是推送到投递通道的统一消息结构。
// Metadata carries the persisted breakdown verbatim; the client detail view
// renders it directly and nothing downstream recomputes scores.
type Payload struct {
	UserID   uint     `json:"user_id"`
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Type     string   `json:"type"`
	Metadata Metadata `json:"metadata"`
}

// Metadata 携带匹配记录的反规范化字段与五个子分。
type Metadata struct {
	MatchID         uint     `json:"match_id"`
	JobPostingID    string   `json:"job_posting_id"`
	JobTitle        string   `json:"job_title"`
	Location        string   `json:"location"`
	SalaryMin       *float64 `json:"salary_min,omitempty"`
	SalaryMax       *float64 `json:"salary_max,omitempty"`
	SalaryCurrency  string   `json:"salary_currency,omitempty"`
	RequiredSkills  []string `json:"required_skills"`
	MatchedSkills   []string `json:"matched_skills"`
	Score           float64  `json:"score"`
	SkillsScore     float64  `json:"skills_score"`
	SalaryScore     float64  `json:"salary_score"`
	LocationScore   float64  `json:"location_score"`
	EmploymentScore float64  `json:"employment_score"`
	TitleScore      float64  `json:"title_score"`
}

// Publisher 抽象外部投递通道，只要求成功/失败语义。
type Publisher interface {
	Publish(ctx context.Context, userID uint, payload Payload) error
}

// RedisPublisher 通过 Redis Pub/Sub 将通知转发给 WebSocket 网关。
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher 构造基于 Redis 的投递通道。
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish 将通知序列化后发布到用户专属频道。
func (p *RedisPublisher) Publish(ctx context.Context, userID uint, payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := fmt.Sprintf("user_notify:%d", userID)
	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish notification to %q: %w", channel, err)
	}
	return nil
}

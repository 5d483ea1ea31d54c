package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"jobRadar/internal/database"
	"jobRadar/internal/metrics"
)

// Gate 根据订阅档位决定哪些已入库匹配值得推送。
//
// Gating is silent: a missing, free-tier or inactive subscription simply
// produces no notifications. Delivery failure for one match never blocks the
// rest of the batch and never rolls back the match itself.
type Gate struct {
	db        *gorm.DB
	publisher Publisher
	logger    *slog.Logger
}

// NewGate 构造通知闸门。
func NewGate(db *gorm.DB, publisher Publisher, logger *slog.Logger) *Gate {
	return &Gate{
		db:        db,
		publisher: publisher,
		logger:    logger,
	}
}

// NotifyUser 为一批新建匹配发送通知，并将成功投递的记录标记为已通知。
func (g *Gate) NotifyUser(ctx context.Context, userID uint, matches []database.MatchedJobPost) error {
	if len(matches) == 0 {
		return nil
	}

	var sub database.Subscription
	err := g.db.WithContext(ctx).Where("user_id = ?", userID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load subscription: %w", err)
	}
	if !sub.IsPremiumActive() {
		return nil
	}

	log := g.logger.With(slog.Uint64("user_id", uint64(userID)))

	for i := range matches {
		match := &matches[i]
		if match.Notified {
			continue
		}

		payload := buildPayload(userID, *match)
		if err := g.publisher.Publish(ctx, userID, payload); err != nil {
			metrics.NotificationsFailedTotal.Inc()
			log.Error("dispatch match notification failed",
				slog.Uint64("match_id", uint64(match.ID)),
				slog.Any("error", err),
			)
			continue
		}
		metrics.NotificationsSentTotal.Inc()

		if err := g.db.WithContext(ctx).
			Model(&database.MatchedJobPost{}).
			Where("id = ?", match.ID).
			Update("notified", true).Error; err != nil {
			log.Error("mark match notified failed",
				slog.Uint64("match_id", uint64(match.ID)),
				slog.Any("error", err),
			)
			continue
		}
		match.Notified = true
	}

	return nil
}

func buildPayload(userID uint, match database.MatchedJobPost) Payload {
	return Payload{
		UserID: userID,
		Title:  "New job match",
		Body:   fmt.Sprintf("%s scored %.1f against your search profile", match.Title, match.Score),
		Type:   TypeJobMatch,
		Metadata: Metadata{
			MatchID:         match.ID,
			JobPostingID:    match.JobPostingID,
			JobTitle:        match.Title,
			Location:        match.Location,
			SalaryMin:       match.SalaryMin,
			SalaryMax:       match.SalaryMax,
			SalaryCurrency:  match.SalaryCurrency,
			RequiredSkills:  match.RequiredSkills,
			MatchedSkills:   match.MatchedSkills,
			Score:           match.Score,
			SkillsScore:     match.SkillsScore,
			SalaryScore:     match.SalaryScore,
			LocationScore:   match.LocationScore,
			EmploymentScore: match.EmploymentScore,
			TitleScore:      match.TitleScore,
		},
	}
}

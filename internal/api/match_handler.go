package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"jobRadar/internal/api/middleware"
	"jobRadar/internal/database"
	"jobRadar/internal/errcode"
	"jobRadar/internal/matching"
	"jobRadar/internal/notify"
)

// MatchHandler 负责处理与职位匹配相关的 API 请求。
type MatchHandler struct {
	db              *gorm.DB
	orchestrator    *matching.Orchestrator
	gate            *notify.Gate
	redisClient     *redis.Client
	refreshDailyCap int
}

// NewMatchHandler 构造 MatchHandler。
func NewMatchHandler(db *gorm.DB, orchestrator *matching.Orchestrator, gate *notify.Gate, redisClient *redis.Client, refreshDailyCap int) *MatchHandler {
	return &MatchHandler{
		db:              db,
		orchestrator:    orchestrator,
		gate:            gate,
		redisClient:     redisClient,
		refreshDailyCap: refreshDailyCap,
	}
}

var errInvalidMatchID = errors.New("invalid match id")

type matchResponse struct {
	ID              uint      `json:"id"`
	JobPostingID    string    `json:"job_posting_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Location        string    `json:"location"`
	EmploymentTypes []string  `json:"employment_types"`
	RequiredSkills  []string  `json:"required_skills"`
	SalaryMin       *float64  `json:"salary_min,omitempty"`
	SalaryMax       *float64  `json:"salary_max,omitempty"`
	SalaryCurrency  string    `json:"salary_currency,omitempty"`
	Score           float64   `json:"score"`
	SkillsScore     float64   `json:"skills_score"`
	SalaryScore     float64   `json:"salary_score"`
	LocationScore   float64   `json:"location_score"`
	EmploymentScore float64   `json:"employment_score"`
	TitleScore      float64   `json:"title_score"`
	MatchedSkills   []string  `json:"matched_skills"`
	Viewed          bool      `json:"viewed"`
	Notified        bool      `json:"notified"`
	CreatedAt       time.Time `json:"created_at"`
}

// RefreshMatches 触发一次按需匹配，仅返回本次新建的匹配。
func (h *MatchHandler) RefreshMatches(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	log := middleware.LoggerFromContext(c)

	if h.refreshDailyCap > 0 {
		key := "rate:refresh:" + strconv.FormatUint(uint64(userID), 10) + ":" + time.Now().UTC().Format("20060102")
		count, err := incrWithTTL(ctx, h.redisClient, key, 24*time.Hour)
		if err != nil {
			// Redis 故障时放行而不是拒绝刷新。
			log.Warn("refresh rate counter unavailable", slog.Any("error", err))
		} else if count > int64(h.refreshDailyCap) {
			ErrorWithCode(c, http.StatusTooManyRequests, errcode.RefreshRateLimited, "daily refresh limit reached")
			return
		}
	}

	created, err := h.orchestrator.RefreshMatches(ctx, userID)
	if err != nil {
		log.Error("on-demand matching failed", slog.Any("error", err))
		ErrorWithCode(c, http.StatusBadGateway, errcode.CatalogUnavailable, "job catalog unavailable, try again later")
		return
	}

	if err := h.gate.NotifyUser(ctx, userID, created); err != nil {
		log.Error("notify user failed", slog.Any("error", err))
	}

	items := make([]matchResponse, 0, len(created))
	for _, match := range created {
		items = append(items, newMatchResponse(match))
	}

	c.JSON(http.StatusOK, items)
}

// ListMatches 列出用户的全部匹配历史。
func (h *MatchHandler) ListMatches(c *gin.Context) {
	h.listMatches(c, false)
}

// ListUnviewedMatches 仅列出尚未查看的匹配。
func (h *MatchHandler) ListUnviewedMatches(c *gin.Context) {
	h.listMatches(c, true)
}

func (h *MatchHandler) listMatches(c *gin.Context, unviewedOnly bool) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	query := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if unviewedOnly {
		query = query.Where("viewed = ?", false)
	}

	var matches []database.MatchedJobPost
	if err := query.Find(&matches).Error; err != nil {
		Internal(c, "failed to list matches")
		return
	}

	items := make([]matchResponse, 0, len(matches))
	for _, match := range matches {
		items = append(items, newMatchResponse(match))
	}

	c.JSON(http.StatusOK, items)
}

// MarkViewed 将一条匹配标记为已查看。
func (h *MatchHandler) MarkViewed(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	match, err := h.getMatchForUser(c, userID)
	if err != nil {
		switch {
		case errors.Is(err, errInvalidMatchID):
			BadRequest(c, "invalid match id")
		case errors.Is(err, gorm.ErrRecordNotFound):
			NotFound(c, "match not found")
		default:
			Internal(c, "failed to query match")
		}
		return
	}

	if err := h.db.WithContext(c.Request.Context()).
		Model(match).
		Update("viewed", true).Error; err != nil {
		Internal(c, "failed to mark match viewed")
		return
	}

	c.Status(http.StatusNoContent)
}

// DeleteMatches 删除用户的全部匹配记录（显式用户操作）。
func (h *MatchHandler) DeleteMatches(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	if err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Delete(&database.MatchedJobPost{}).Error; err != nil {
		Internal(c, "failed to delete matches")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *MatchHandler) getMatchForUser(c *gin.Context, userID uint) (*database.MatchedJobPost, error) {
	matchID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return nil, errInvalidMatchID
	}

	var match database.MatchedJobPost
	if err := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND user_id = ?", uint(matchID), userID).
		First(&match).Error; err != nil {
		return nil, err
	}

	return &match, nil
}

func newMatchResponse(match database.MatchedJobPost) matchResponse {
	return matchResponse{
		ID:              match.ID,
		JobPostingID:    match.JobPostingID,
		Title:           match.Title,
		Description:     match.Description,
		Location:        match.Location,
		EmploymentTypes: match.EmploymentTypes,
		RequiredSkills:  match.RequiredSkills,
		SalaryMin:       match.SalaryMin,
		SalaryMax:       match.SalaryMax,
		SalaryCurrency:  match.SalaryCurrency,
		Score:           match.Score,
		SkillsScore:     match.SkillsScore,
		SalaryScore:     match.SalaryScore,
		LocationScore:   match.LocationScore,
		EmploymentScore: match.EmploymentScore,
		TitleScore:      match.TitleScore,
		MatchedSkills:   match.MatchedSkills,
		Viewed:          match.Viewed,
		Notified:        match.Notified,
		CreatedAt:       match.CreatedAt,
	}
}

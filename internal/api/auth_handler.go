package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"jobRadar/internal/api/middleware"
	"jobRadar/internal/auth"
	"jobRadar/internal/database"
)

const refreshTokenCookieName = "refresh_token"
const refreshTokenBlacklistKeyPrefix = "auth:refresh:blacklist:"
const loginRateLimitPerHour = 10

// AuthHandler 处理注册、登录、刷新与退出。
type AuthHandler struct {
	db          *gorm.DB
	authService *auth.AuthService
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewAuthHandler 构造认证处理器。
func NewAuthHandler(db *gorm.DB, authService *auth.AuthService, redisClient *redis.Client, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		db:          db,
		authService: authService,
		redisClient: redisClient,
		logger:      logger,
	}
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Register 创建新用户账号。
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	log := middleware.LoggerFromContext(c).With(slog.String("username", req.Username))

	var existing database.User
	if err := h.db.WithContext(ctx).Where("username = ?", req.Username).First(&existing).Error; err == nil {
		Conflict(c, "username already taken")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Error("register lookup failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Error("hash password failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	user := database.User{
		Username:     req.Username,
		PasswordHash: hashed,
	}
	if err := h.db.WithContext(ctx).Create(&user).Error; err != nil {
		log.Error("create user failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	log.Info("user registered", slog.Uint64("user_id", uint64(user.ID)))
	c.Status(http.StatusCreated)
}

// Login 校验口令并返回 Token。
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	log := middleware.LoggerFromContext(c).With(slog.String("username", req.Username))

	// 速率限制：每 IP+用户名 每小时 10 次。
	rateKey := "rate:login:" + c.ClientIP() + ":" + strings.ToLower(req.Username) + ":" + time.Now().UTC().Format("2006010215")
	if count, err := incrWithTTL(ctx, h.redisClient, rateKey, time.Hour); err == nil && count > loginRateLimitPerHour {
		TooMany(c, "rate limit exceeded")
		return
	}

	var user database.User
	err := h.db.WithContext(ctx).Where("username = ?", req.Username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !auth.CheckPasswordHash(req.Password, user.PasswordHash)) {
		Unauthorized(c)
		return
	}
	if err != nil {
		log.Error("login lookup failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	pair, err := h.authService.GenerateTokenPair(user.ID)
	if err != nil {
		log.Error("generate token pair failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	h.setRefreshCookie(c, pair.RefreshToken)
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: pair.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.authService.AccessTokenTTL().Seconds()),
	})
}

// Refresh 用刷新令牌换取新的令牌对。
func (h *AuthHandler) Refresh(c *gin.Context) {
	raw, err := c.Cookie(refreshTokenCookieName)
	if err != nil || strings.TrimSpace(raw) == "" {
		Unauthorized(c)
		return
	}

	claims, err := h.authService.ValidateToken(raw)
	if err != nil || claims.TokenType != "refresh" || claims.ID == "" {
		Unauthorized(c)
		return
	}

	ctx := c.Request.Context()
	blacklisted, err := h.redisClient.Exists(ctx, refreshTokenBlacklistKeyPrefix+claims.ID).Result()
	if err == nil && blacklisted > 0 {
		Unauthorized(c)
		return
	}

	pair, err := h.authService.GenerateTokenPair(claims.UserID)
	if err != nil {
		Internal(c, "internal error")
		return
	}

	// 旧刷新令牌一次性作废。
	h.blacklistRefreshToken(c, claims.ID, claims.ExpiresAt.Time)

	h.setRefreshCookie(c, pair.RefreshToken)
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: pair.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.authService.AccessTokenTTL().Seconds()),
	})
}

// Logout 作废刷新令牌并清除 Cookie。
func (h *AuthHandler) Logout(c *gin.Context) {
	if raw, err := c.Cookie(refreshTokenCookieName); err == nil && strings.TrimSpace(raw) != "" {
		if claims, err := h.authService.ValidateToken(raw); err == nil && claims.TokenType == "refresh" && claims.ID != "" {
			h.blacklistRefreshToken(c, claims.ID, claims.ExpiresAt.Time)
		}
	}

	c.SetCookie(refreshTokenCookieName, "", -1, "/v1/auth", "", false, true)
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	maxAge := int(h.authService.RefreshTokenTTL().Seconds())
	c.SetCookie(refreshTokenCookieName, token, maxAge, "/v1/auth", "", false, true)
}

func (h *AuthHandler) blacklistRefreshToken(c *gin.Context, jti string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	if err := h.redisClient.Set(c.Request.Context(), refreshTokenBlacklistKeyPrefix+jti, 1, ttl).Err(); err != nil {
		middleware.LoggerFromContext(c).Warn("blacklist refresh token failed", slog.Any("error", err))
	}
}

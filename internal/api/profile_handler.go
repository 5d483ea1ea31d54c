package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"jobRadar/internal/database"
)

// ProfileHandler 负责处理搜索档案的读写。
type ProfileHandler struct {
	db *gorm.DB
}

// NewProfileHandler 构造 ProfileHandler。
func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{db: db}
}

var allowedEmploymentTypes = map[string]struct{}{
	database.EmploymentFullTime:   {},
	database.EmploymentPartTime:   {},
	database.EmploymentContract:   {},
	database.EmploymentInternship: {},
	database.EmploymentTemporary:  {},
}

type profileRequest struct {
	DesiredSkills   []string `json:"desired_skills"`
	EmploymentTypes []string `json:"employment_types"`
	DesiredTitles   []string `json:"desired_titles"`
	Country         string   `json:"country"`
	MinSalary       *float64 `json:"min_salary"`
	MaxSalary       *float64 `json:"max_salary"`
}

type profileResponse struct {
	ID              uint      `json:"id"`
	DesiredSkills   []string  `json:"desired_skills"`
	EmploymentTypes []string  `json:"employment_types"`
	DesiredTitles   []string  `json:"desired_titles"`
	Country         string    `json:"country"`
	MinSalary       *float64  `json:"min_salary,omitempty"`
	MaxSalary       *float64  `json:"max_salary,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (r profileRequest) validate() string {
	if r.MinSalary != nil && *r.MinSalary < 0 {
		return "min salary must not be negative"
	}
	if r.MaxSalary != nil && *r.MaxSalary < 0 {
		return "max salary must not be negative"
	}
	if r.MinSalary != nil && r.MaxSalary != nil && *r.MinSalary > *r.MaxSalary {
		return "min salary must not exceed max salary"
	}
	for _, et := range r.EmploymentTypes {
		if _, ok := allowedEmploymentTypes[strings.ToUpper(strings.TrimSpace(et))]; !ok {
			return "unknown employment type: " + et
		}
	}
	return ""
}

// GetProfile 返回当前用户的搜索档案。
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var profile database.SearchProfile
	err := h.db.WithContext(c.Request.Context()).Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		NotFound(c, "search profile not found")
		return
	}
	if err != nil {
		Internal(c, "failed to query search profile")
		return
	}

	c.JSON(http.StatusOK, newProfileResponse(profile))
}

// PutProfile 创建或整体替换当前用户的搜索档案。
// CreatedAt is never touched on update: it anchors the on-demand matching
// cutoff and must stay immutable.
func (h *ProfileHandler) PutProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		BadRequest(c, msg)
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	types := make([]string, 0, len(req.EmploymentTypes))
	for _, et := range req.EmploymentTypes {
		types = append(types, strings.ToUpper(strings.TrimSpace(et)))
	}

	var profile database.SearchProfile
	err := h.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		profile = database.SearchProfile{
			UserID:          userID,
			DesiredSkills:   datatypes.NewJSONSlice(req.DesiredSkills),
			EmploymentTypes: datatypes.NewJSONSlice(types),
			DesiredTitles:   datatypes.NewJSONSlice(req.DesiredTitles),
			Country:         strings.TrimSpace(req.Country),
			MinSalary:       req.MinSalary,
			MaxSalary:       req.MaxSalary,
		}
		if err := h.db.WithContext(ctx).Create(&profile).Error; err != nil {
			Internal(c, "failed to create search profile")
			return
		}
		c.JSON(http.StatusCreated, newProfileResponse(profile))
		return
	case err != nil:
		Internal(c, "failed to query search profile")
		return
	}

	updates := map[string]any{
		"desired_skills":   datatypes.NewJSONSlice(req.DesiredSkills),
		"employment_types": datatypes.NewJSONSlice(types),
		"desired_titles":   datatypes.NewJSONSlice(req.DesiredTitles),
		"country":          strings.TrimSpace(req.Country),
		"min_salary":       req.MinSalary,
		"max_salary":       req.MaxSalary,
	}
	if err := h.db.WithContext(ctx).Model(&profile).Updates(updates).Error; err != nil {
		Internal(c, "failed to update search profile")
		return
	}
	if err := h.db.WithContext(ctx).First(&profile, profile.ID).Error; err != nil {
		Internal(c, "failed to reload search profile")
		return
	}

	c.JSON(http.StatusOK, newProfileResponse(profile))
}

func newProfileResponse(profile database.SearchProfile) profileResponse {
	return profileResponse{
		ID:              profile.ID,
		DesiredSkills:   profile.DesiredSkills,
		EmploymentTypes: profile.EmploymentTypes,
		DesiredTitles:   profile.DesiredTitles,
		Country:         profile.Country,
		MinSalary:       profile.MinSalary,
		MaxSalary:       profile.MaxSalary,
		CreatedAt:       profile.CreatedAt,
		UpdatedAt:       profile.UpdatedAt,
	}
}

func userIDFromContext(c *gin.Context) (uint, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case uint64:
		return uint(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	default:
		return 0, false
	}
}

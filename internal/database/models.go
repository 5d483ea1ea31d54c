package database

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 雇佣类型枚举，与外部职位目录使用的标签保持一致。
const (
	EmploymentFullTime   = "FULL_TIME"
	EmploymentPartTime   = "PART_TIME"
	EmploymentContract   = "CONTRACT"
	EmploymentInternship = "INTERNSHIP"
	EmploymentTemporary  = "TEMPORARY"
)

// Subscription plan tiers and statuses. The billing service owns these rows;
// the matching engine only ever reads them.
const (
	PlanFree    = "free"
	PlanPremium = "premium"

	SubscriptionActive   = "active"
	SubscriptionInactive = "inactive"
)

// User 表示系统中的账号信息。
type User struct {
	gorm.Model
	Username      string         `gorm:"uniqueIndex;size:64"`
	PasswordHash  string         `gorm:"size:255"`
	SearchProfile *SearchProfile `gorm:"constraint:OnDelete:CASCADE"`
}

// SearchProfile 表示用户保存的求职偏好，每个用户至多一份。
// CreatedAt is immutable once set; on-demand matching uses it as the cutoff
// below which postings are never surfaced.
type SearchProfile struct {
	gorm.Model
	UserID          uint                        `gorm:"uniqueIndex"`
	DesiredSkills   datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	EmploymentTypes datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	DesiredTitles   datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Country         string                      `gorm:"size:128"`
	MinSalary       *float64
	MaxSalary       *float64
}

// MatchedJobPost 表示一次成功匹配的持久化结果。
//
// Posting fields are denormalized on purpose: the catalog is an external
// system and its postings may mutate or disappear, so the match row has to
// stay self-describing for history and notification display.
type MatchedJobPost struct {
	gorm.Model
	UserID       uint   `gorm:"uniqueIndex:idx_user_posting;index"`
	JobPostingID string `gorm:"uniqueIndex:idx_user_posting;size:64"`

	Title           string                      `gorm:"size:255"`
	Description     string                      `gorm:"type:text"`
	Location        string                      `gorm:"size:255"`
	EmploymentTypes datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	RequiredSkills  datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	SalaryMin       *float64
	SalaryMax       *float64
	SalaryCurrency  string `gorm:"size:8"`

	Score           float64
	SkillsScore     float64
	SalaryScore     float64
	LocationScore   float64
	EmploymentScore float64
	TitleScore      float64
	MatchedSkills   datatypes.JSONSlice[string] `gorm:"type:jsonb"`

	Viewed   bool `gorm:"default:false"`
	Notified bool `gorm:"default:false;index"`
}

// Subscription 表示用户的订阅档位，由计费服务维护。
type Subscription struct {
	gorm.Model
	UserID   uint   `gorm:"uniqueIndex"`
	PlanType string `gorm:"size:32"`
	Status   string `gorm:"size:32"`
}

// IsPremiumActive reports whether the subscription unlocks push notifications.
func (s Subscription) IsPremiumActive() bool {
	return s.PlanType == PlanPremium && s.Status == SubscriptionActive
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MatchesCreatedTotal 统计成功入库的匹配数量，按触发模式区分。
	MatchesCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobradar",
			Subsystem: "matching",
			Name:      "matches_created_total",
			Help:      "成功入库的匹配总数。",
		},
		[]string{"mode"},
	)

	// DuplicatesSuppressedTotal 统计被判定为重复而静默丢弃的入库尝试。
	DuplicatesSuppressedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "jobradar",
			Subsystem: "matching",
			Name:      "duplicates_suppressed_total",
			Help:      "因 (user, posting) 已存在而被丢弃的入库尝试总数。",
		},
	)

	// ScoreDuration 观察单次评分耗时。
	ScoreDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "jobradar",
			Subsystem: "matching",
			Name:      "score_duration_seconds",
			Help:      "单个 (档案, 职位) 组合的评分耗时分布（秒）。",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// NotificationsSentTotal 统计推送成功的匹配通知数量。
	NotificationsSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "jobradar",
			Subsystem: "notify",
			Name:      "notifications_sent_total",
			Help:      "推送成功的匹配通知总数。",
		},
	)

	// NotificationsFailedTotal 统计推送失败（已记录日志并跳过）的数量。
	NotificationsFailedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "jobradar",
			Subsystem: "notify",
			Name:      "notifications_failed_total",
			Help:      "推送失败的匹配通知总数。",
		},
	)
)

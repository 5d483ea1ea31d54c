package errcode

// 错误码约定：
// - 0：无错误
// - 4xxx：业务可恢复/告警类错误（例如目录暂不可用，可稍后重试）
// - 5xxx：系统错误（需要中断流程）
const (
	OK                 = 0
	CatalogUnavailable = 4001
	RefreshRateLimited = 4002
	SystemError        = 5000
)

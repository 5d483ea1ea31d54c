package matching

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"jobRadar/internal/catalog"
	"jobRadar/internal/database"
	"jobRadar/internal/metrics"
)

// MinMatchScore 是匹配结果入库所需的最低综合分。
const MinMatchScore = 30.0

const guardShards = 64

// Guard 决定一次评分结果是否值得保存，并保证同一 (user, posting) 至多落一条记录。
//
// Concurrent callers inside one process are serialized by a sharded mutex
// keyed on the pair; across processes the (user_id, job_posting_id) unique
// index is the backstop, and a duplicate-key failure is a no-op, not an error.
type Guard struct {
	db    *gorm.DB
	locks [guardShards]sync.Mutex
}

// NewGuard 构造持久化守卫。
func NewGuard(db *gorm.DB) *Guard {
	return &Guard{db: db}
}

// TryPersist 尝试保存一条匹配。低于门槛或已存在时返回 (nil, nil)。
func (g *Guard) TryPersist(ctx context.Context, userID uint, posting catalog.Posting, bd ScoreBreakdown) (*database.MatchedJobPost, error) {
	if bd.Composite < MinMatchScore {
		return nil, nil
	}

	lock := &g.locks[shardFor(userID, posting.ID)]
	lock.Lock()
	defer lock.Unlock()

	exists, err := g.Exists(ctx, userID, posting.ID)
	if err != nil {
		return nil, fmt.Errorf("check existing match: %w", err)
	}
	if exists {
		metrics.DuplicatesSuppressedTotal.Inc()
		return nil, nil
	}

	match := buildMatch(userID, posting, bd)
	if err := g.db.WithContext(ctx).Create(match).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent trigger in another process won the insert.
			metrics.DuplicatesSuppressedTotal.Inc()
			return nil, nil
		}
		return nil, fmt.Errorf("persist match: %w", err)
	}

	return match, nil
}

// Exists 查询 (user, posting) 是否已有匹配记录。
func (g *Guard) Exists(ctx context.Context, userID uint, postingID string) (bool, error) {
	var count int64
	err := g.db.WithContext(ctx).
		Model(&database.MatchedJobPost{}).
		Where("user_id = ? AND job_posting_id = ?", userID, postingID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func shardFor(userID uint, postingID string) uint32 {
	h := fnv.New32a()
	fmt.Fprintf(h, "%d:%s", userID, postingID)
	return h.Sum32() % guardShards
}

func buildMatch(userID uint, posting catalog.Posting, bd ScoreBreakdown) *database.MatchedJobPost {
	match := &database.MatchedJobPost{
		UserID:          userID,
		JobPostingID:    posting.ID,
		Title:           posting.Title,
		Description:     posting.Description,
		Location:        posting.Location,
		EmploymentTypes: datatypes.NewJSONSlice(posting.EmploymentTypes),
		RequiredSkills:  datatypes.NewJSONSlice(posting.Skills),
		Score:           bd.Composite,
		SkillsScore:     bd.Skills,
		SalaryScore:     bd.Salary,
		LocationScore:   bd.Location,
		EmploymentScore: bd.Employment,
		TitleScore:      bd.Title,
		MatchedSkills:   datatypes.NewJSONSlice(bd.MatchedSkills),
	}

	if posting.Salary != nil {
		if posting.Salary.Min != nil {
			v := *posting.Salary.Min
			match.SalaryMin = &v
		}
		if posting.Salary.Max != nil {
			v := *posting.Salary.Max
			match.SalaryMax = &v
		}
		match.SalaryCurrency = posting.Salary.Currency
	}

	return match
}

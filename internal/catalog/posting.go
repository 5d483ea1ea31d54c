package catalog

import "time"

// PostingStatusPublished 是目录服务对外公开职位的状态值。
const PostingStatusPublished = "published"

// Salary describes a posting's advertised range. Any of the fields may be
// absent in the feed; scoring treats missing bounds with default credit.
type Salary struct {
	Min      *float64 `json:"min"`
	Max      *float64 `json:"max"`
	Currency string   `json:"currency"`
}

// Posting 表示外部职位目录中的一条职位快照，对本引擎只读。
type Posting struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Location        string    `json:"location"`
	EmploymentTypes []string  `json:"employmentTypes"`
	Skills          []string  `json:"skills"`
	Salary          *Salary   `json:"salary,omitempty"`
	Status          string    `json:"status"`
	PostedDate      time.Time `json:"postedDate"`
	ExpiryDate      time.Time `json:"expiryDate"`
}

// IsActive reports whether the posting is published and not yet expired.
// A zero expiry date means the posting never expires.
func (p Posting) IsActive(now time.Time) bool {
	if p.Status != PostingStatusPublished {
		return false
	}
	if !p.ExpiryDate.IsZero() && p.ExpiryDate.Before(now) {
		return false
	}
	return true
}

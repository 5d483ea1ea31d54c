package matching

import (
	"math"
	"strings"

	"jobRadar/internal/catalog"
	"jobRadar/internal/database"
)

// 五个评分因子的权重，合计为 1。
const (
	weightSkills     = 0.30
	weightSalary     = 0.25
	weightLocation   = 0.20
	weightEmployment = 0.15
	weightTitle      = 0.10
)

// Credits on the 0–100 scale. creditUnknown applies when the posting does not
// state the fact, so the factor is unknowable rather than a mismatch.
const (
	creditNone    = 0.0
	creditFar     = 30.0
	creditUnknown = 50.0
	creditNear    = 75.0
	creditFull    = 100.0
)

// nearMissRatio 是薪资“接近但未重叠”判定允许的相对缺口。
const nearMissRatio = 0.2

// ScoreBreakdown 承载五个子分与加权后的综合分。
// Clients render the breakdown directly, so it is persisted and carried in
// notification payloads verbatim, never recomputed downstream.
type ScoreBreakdown struct {
	Skills        float64
	Salary        float64
	Location      float64
	Employment    float64
	Title         float64
	Composite     float64
	MatchedSkills []string
}

// Score 计算一份搜索档案与一条职位之间的匹配度。
// Pure and deterministic: no I/O, no side effects, and absent or malformed
// fields resolve to default credits instead of errors.
func Score(profile database.SearchProfile, posting catalog.Posting) ScoreBreakdown {
	skills, matched := skillsCredit(profile.DesiredSkills, posting.Skills)

	bd := ScoreBreakdown{
		Skills:        round1(skills),
		Salary:        round1(salaryCredit(profile.MinSalary, profile.MaxSalary, posting.Salary)),
		Location:      round1(locationCredit(profile.Country, posting.Location)),
		Employment:    round1(employmentCredit(profile.EmploymentTypes, posting.EmploymentTypes)),
		Title:         round1(titleCredit(profile.DesiredTitles, posting.Title)),
		MatchedSkills: matched,
	}

	bd.Composite = round1(bd.Skills*weightSkills +
		bd.Salary*weightSalary +
		bd.Location*weightLocation +
		bd.Employment*weightEmployment +
		bd.Title*weightTitle)

	return bd
}

// skillsCredit 按职位要求技能的覆盖比例打分。
// The denominator is the posting's requirement count: a profile knowing a
// superset of the required skills still earns full credit.
func skillsCredit(desired, required []string) (float64, []string) {
	requiredList := normalizeList(required)
	if len(requiredList) == 0 {
		return creditUnknown, nil
	}

	desiredSet := normalizeSet(desired)
	if len(desiredSet) == 0 {
		return creditNone, nil
	}

	var matched []string
	for _, skill := range requiredList {
		if _, ok := desiredSet[skill]; ok {
			matched = append(matched, skill)
		}
	}

	return creditFull * float64(len(matched)) / float64(len(requiredList)), matched
}

func salaryCredit(profileMin, profileMax *float64, salary *catalog.Salary) float64 {
	if salary == nil || (salary.Min == nil && salary.Max == nil) {
		return creditUnknown
	}
	if profileMin == nil && profileMax == nil {
		return creditUnknown
	}

	postingMin, postingMax := salary.Min, salary.Max

	switch {
	case profileMin != nil && profileMax == nil:
		if postingMax != nil {
			if *postingMax >= *profileMin {
				return creditFull
			}
			if *profileMin-*postingMax <= nearMissRatio*(*profileMin) {
				return creditNear
			}
			return creditFar
		}
		// Posting advertises only a minimum.
		if *postingMin >= *profileMin {
			return creditFull
		}
		return creditFar

	case profileMax != nil && profileMin == nil:
		if postingMin != nil {
			if *postingMin <= *profileMax {
				return creditFull
			}
			if *postingMin-*profileMax <= nearMissRatio*(*profileMax) {
				return creditNear
			}
			return creditFar
		}
		// Posting advertises only a maximum.
		if *postingMax <= *profileMax {
			return creditFull
		}
		return creditFar

	default: // profile has both bounds
		if postingMin != nil && postingMax != nil {
			if *postingMax >= *profileMin && *postingMin <= *profileMax {
				return creditFull
			}
			width := *profileMax - *profileMin
			var gap float64
			if *postingMin > *profileMax {
				gap = *postingMin - *profileMax
			} else {
				gap = *profileMin - *postingMax
			}
			if gap <= nearMissRatio*width {
				return creditNear
			}
			return creditFar
		}

		// Posting advertises a single bound; full credit when it falls
		// inside the profile's range.
		bound := postingMin
		if bound == nil {
			bound = postingMax
		}
		if *bound >= *profileMin && *bound <= *profileMax {
			return creditFull
		}
		return creditFar
	}
}

func locationCredit(country, location string) float64 {
	location = strings.ToLower(strings.TrimSpace(location))
	if location == "" {
		return creditUnknown
	}

	country = strings.ToLower(strings.TrimSpace(country))
	if country == "" {
		return creditNone
	}

	if strings.Contains(location, country) {
		return creditFull
	}
	if code, ok := countryCodes[country]; ok && containsToken(location, code) {
		return creditFull
	}

	// Location text is unstructured, so a non-match is only a "maybe".
	return creditUnknown
}

func employmentCredit(desired, offered []string) float64 {
	offeredSet := normalizeSet(offered)
	if len(offeredSet) == 0 {
		return creditUnknown
	}

	desiredSet := normalizeSet(desired)
	if len(desiredSet) == 0 {
		return creditNone
	}

	for key := range desiredSet {
		if _, ok := offeredSet[key]; ok {
			return creditFull
		}
	}
	return creditNone
}

func titleCredit(desiredTitles []string, postingTitle string) float64 {
	postingTitle = strings.ToLower(strings.TrimSpace(postingTitle))
	if postingTitle == "" {
		return creditUnknown
	}

	for _, title := range desiredTitles {
		title = strings.ToLower(strings.TrimSpace(title))
		if title == "" {
			continue
		}
		if strings.Contains(postingTitle, title) {
			return creditFull
		}
	}
	return creditNone
}

// normalizeList trims, lowercases and dedupes, keeping first-seen order.
func normalizeList(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func normalizeSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}

func containsToken(text, token string) bool {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	for _, f := range fields {
		if f == token {
			return true
		}
	}
	return false
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// countryCodes 覆盖常见国家的简写，用于在非结构化地点文本里匹配代号。
var countryCodes = map[string]string{
	"vietnam":        "vn",
	"united states":  "us",
	"united kingdom": "uk",
	"germany":        "de",
	"france":         "fr",
	"spain":          "es",
	"italy":          "it",
	"netherlands":    "nl",
	"poland":         "pl",
	"portugal":       "pt",
	"singapore":      "sg",
	"japan":          "jp",
	"south korea":    "kr",
	"china":          "cn",
	"india":          "in",
	"australia":      "au",
	"canada":         "ca",
	"brazil":         "br",
	"thailand":       "th",
	"indonesia":      "id",
	"philippines":    "ph",
	"malaysia":       "my",
}

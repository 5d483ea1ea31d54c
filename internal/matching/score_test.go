package matching

import (
	"testing"

	"gorm.io/datatypes"

	"jobRadar/internal/catalog"
	"jobRadar/internal/database"
)

func f64(v float64) *float64 { return &v }

func TestScoreWeightedComposite(t *testing.T) {
	profile := database.SearchProfile{
		UserID:          1,
		DesiredSkills:   datatypes.NewJSONSlice([]string{"React", "Go"}),
		EmploymentTypes: datatypes.NewJSONSlice([]string{database.EmploymentFullTime}),
		DesiredTitles:   datatypes.NewJSONSlice([]string{"Backend Engineer"}),
		Country:         "Vietnam",
		MinSalary:       f64(3000),
		MaxSalary:       f64(5000),
	}
	posting := catalog.Posting{
		ID:              "p-1",
		Title:           "Senior Backend Engineer",
		Location:        "Ho Chi Minh City, Vietnam",
		EmploymentTypes: []string{database.EmploymentFullTime},
		Skills:          []string{"React", "Go", "SQL"},
		Salary:          &catalog.Salary{Min: f64(4000), Max: f64(6000), Currency: "USD"},
		Status:          catalog.PostingStatusPublished,
	}

	bd := Score(profile, posting)

	if bd.Skills != 66.7 {
		t.Errorf("skills = %v, want 66.7", bd.Skills)
	}
	if bd.Salary != 100 || bd.Location != 100 || bd.Employment != 100 || bd.Title != 100 {
		t.Errorf("sub-scores = %v/%v/%v/%v, want all 100", bd.Salary, bd.Location, bd.Employment, bd.Title)
	}
	if bd.Composite != 90.0 {
		t.Errorf("composite = %v, want 90.0", bd.Composite)
	}
	if len(bd.MatchedSkills) != 2 {
		t.Errorf("matched skills = %v, want 2 entries", bd.MatchedSkills)
	}
}

func TestSkillsCredit(t *testing.T) {
	tests := []struct {
		name    string
		desired []string
		posting []string
		want    float64
	}{
		{"no requirements listed", []string{"go"}, nil, 50},
		{"no desired skills", nil, []string{"go"}, 0},
		{"full coverage", []string{"Go", "SQL"}, []string{"go", "sql"}, 100},
		{"half coverage", []string{"go"}, []string{"go", "rust"}, 50},
		{"superset still full", []string{"go", "sql", "redis"}, []string{"go"}, 100},
		{"duplicate requirements counted once", []string{"go"}, []string{"Go", " go "}, 100},
		{"no overlap", []string{"python"}, []string{"go", "rust"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := skillsCredit(tt.desired, tt.posting)
			if got != tt.want {
				t.Errorf("skillsCredit(%v, %v) = %v, want %v", tt.desired, tt.posting, got, tt.want)
			}
		})
	}
}

func TestSalaryCredit(t *testing.T) {
	tests := []struct {
		name       string
		profileMin *float64
		profileMax *float64
		salary     *catalog.Salary
		want       float64
	}{
		{"both sides silent", nil, nil, nil, 50},
		{"posting silent", f64(3000), f64(5000), nil, 50},
		{"profile silent", nil, nil, &catalog.Salary{Min: f64(3000), Max: f64(5000)}, 50},
		{"ranges overlap", f64(3000), f64(5000), &catalog.Salary{Min: f64(4000), Max: f64(6000)}, 100},
		{"gap at near-miss boundary", f64(80000), f64(100000), &catalog.Salary{Min: f64(104000), Max: f64(120000)}, 75},
		{"gap just beyond boundary", f64(80000), f64(100000), &catalog.Salary{Min: f64(104001), Max: f64(120000)}, 30},
		{"posting far below", f64(80000), f64(100000), &catalog.Salary{Min: f64(30000), Max: f64(40000)}, 30},
		{"profile min only, posting max covers", f64(5000), nil, &catalog.Salary{Min: f64(4000), Max: f64(5500)}, 100},
		{"profile min only, near miss", f64(5000), nil, &catalog.Salary{Min: f64(3000), Max: f64(4500)}, 75},
		{"profile min only, far", f64(5000), nil, &catalog.Salary{Min: f64(1000), Max: f64(2000)}, 30},
		{"profile max only, posting min under", nil, f64(4000), &catalog.Salary{Min: f64(3500), Max: f64(6000)}, 100},
		{"posting single bound inside range", f64(3000), f64(5000), &catalog.Salary{Min: f64(4000)}, 100},
		{"posting single bound outside range", f64(3000), f64(5000), &catalog.Salary{Min: f64(9000)}, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := salaryCredit(tt.profileMin, tt.profileMax, tt.salary)
			if got != tt.want {
				t.Errorf("salaryCredit = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLocationCredit(t *testing.T) {
	tests := []struct {
		name     string
		country  string
		location string
		want     float64
	}{
		{"posting has no location", "Vietnam", "", 50},
		{"profile has no country", "", "Berlin, Germany", 0},
		{"country name appears", "Vietnam", "Ho Chi Minh City, Vietnam", 100},
		{"country code token", "vietnam", "Hanoi, VN", 100},
		{"code must be a whole token", "india", "Berlin", 50},
		{"different country is only a maybe", "Germany", "Paris, France", 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := locationCredit(tt.country, tt.location)
			if got != tt.want {
				t.Errorf("locationCredit(%q, %q) = %v, want %v", tt.country, tt.location, got, tt.want)
			}
		})
	}
}

func TestEmploymentCredit(t *testing.T) {
	tests := []struct {
		name    string
		desired []string
		offered []string
		want    float64
	}{
		{"posting silent", []string{database.EmploymentFullTime}, nil, 50},
		{"profile silent", nil, []string{database.EmploymentFullTime}, 0},
		{"intersection", []string{database.EmploymentContract, database.EmploymentFullTime}, []string{database.EmploymentFullTime}, 100},
		{"disjoint", []string{database.EmploymentPartTime}, []string{database.EmploymentFullTime}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := employmentCredit(tt.desired, tt.offered)
			if got != tt.want {
				t.Errorf("employmentCredit = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTitleCredit(t *testing.T) {
	tests := []struct {
		name    string
		desired []string
		title   string
		want    float64
	}{
		{"posting has no title", []string{"engineer"}, "", 50},
		{"substring match", []string{"Backend Engineer"}, "Senior Backend Engineer", 100},
		{"case insensitive", []string{"backend engineer"}, "BACKEND ENGINEER", 100},
		{"no desired titles", nil, "Backend Engineer", 0},
		{"no match", []string{"Data Scientist"}, "Backend Engineer", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := titleCredit(tt.desired, tt.title)
			if got != tt.want {
				t.Errorf("titleCredit(%v, %q) = %v, want %v", tt.desired, tt.title, got, tt.want)
			}
		})
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	profile := database.SearchProfile{
		UserID:        7,
		DesiredSkills: datatypes.NewJSONSlice([]string{"go", "sql"}),
		Country:       "Germany",
	}
	posting := catalog.Posting{
		ID:     "p-7",
		Title:  "Platform Engineer",
		Skills: []string{"go", "kubernetes"},
	}

	first := Score(profile, posting)
	for i := 0; i < 5; i++ {
		if got := Score(profile, posting); got.Composite != first.Composite {
			t.Fatalf("composite changed between runs: %v vs %v", got.Composite, first.Composite)
		}
	}
}

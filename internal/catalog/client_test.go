package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jobRadar/internal/config"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.CatalogConfig{BaseURL: baseURL, Timeout: time.Second})
}

func TestActivePostingsDecodesFeed(t *testing.T) {
	var gotPath, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{
				"id": "p-1",
				"title": "Backend Engineer",
				"description": "Build APIs",
				"location": "Hanoi, Vietnam",
				"employmentTypes": ["FULL_TIME"],
				"skills": ["go", "sql"],
				"salary": {"min": 3000, "max": 5000, "currency": "USD"},
				"status": "published",
				"postedDate": "2026-08-01T00:00:00Z",
				"expiryDate": "2026-12-01T00:00:00Z"
			},
			{
				"id": "p-2",
				"title": "Intern",
				"status": "published",
				"postedDate": "2026-08-15T00:00:00Z"
			}
		]`))
	}))
	defer server.Close()

	postings, err := newTestClient(server.URL).ActivePostings(context.Background())
	if err != nil {
		t.Fatalf("ActivePostings: %v", err)
	}

	if gotPath != "/v1/postings/active" {
		t.Errorf("request path = %q, want /v1/postings/active", gotPath)
	}
	if gotAccept != "application/json" {
		t.Errorf("accept header = %q, want application/json", gotAccept)
	}
	if len(postings) != 2 {
		t.Fatalf("postings = %d, want 2", len(postings))
	}

	first := postings[0]
	if first.ID != "p-1" || first.Title != "Backend Engineer" {
		t.Errorf("first posting = %q/%q, want p-1/Backend Engineer", first.ID, first.Title)
	}
	if first.Salary == nil || first.Salary.Min == nil || *first.Salary.Min != 3000 {
		t.Errorf("first posting salary = %+v, want min 3000", first.Salary)
	}
	if first.PostedDate.IsZero() {
		t.Error("first posting postedDate should be parsed")
	}

	second := postings[1]
	if second.Salary != nil {
		t.Errorf("second posting salary = %+v, want nil", second.Salary)
	}
	if !second.ExpiryDate.IsZero() {
		t.Errorf("second posting expiryDate = %v, want zero", second.ExpiryDate)
	}
}

func TestActivePostingsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "catalog down", http.StatusBadGateway)
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).ActivePostings(context.Background()); err == nil {
		t.Fatal("expected non-2xx status to surface as an error")
	}
}

func TestActivePostingsMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"not": "an array"`))
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).ActivePostings(context.Background()); err == nil {
		t.Fatal("expected malformed body to surface as an error")
	}
}

func TestActivePostingsUnreachable(t *testing.T) {
	if _, err := newTestClient("http://127.0.0.1:1").ActivePostings(context.Background()); err == nil {
		t.Fatal("expected connection failure to surface as an error")
	}
}

func TestPostingIsActive(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		posting Posting
		want    bool
	}{
		{"published without expiry", Posting{Status: PostingStatusPublished}, true},
		{"published before expiry", Posting{Status: PostingStatusPublished, ExpiryDate: now.Add(time.Hour)}, true},
		{"published past expiry", Posting{Status: PostingStatusPublished, ExpiryDate: now.Add(-time.Hour)}, false},
		{"draft", Posting{Status: "draft"}, false},
		{"archived", Posting{Status: "archived", ExpiryDate: now.Add(time.Hour)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.posting.IsActive(now); got != tt.want {
				t.Errorf("IsActive = %v, want %v", got, tt.want)
			}
		})
	}
}

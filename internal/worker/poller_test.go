package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"jobRadar/internal/catalog"
	"jobRadar/internal/tasks"
)

type fakeSource struct {
	postings []catalog.Posting
	err      error
}

func (f *fakeSource) ActivePostings(context.Context) ([]catalog.Posting, error) {
	return f.postings, f.err
}

type fakeSeenStore struct {
	keys    map[string]bool
	deleted []string
}

func newFakeSeenStore() *fakeSeenStore {
	return &fakeSeenStore{keys: map[string]bool{}}
}

func (s *fakeSeenStore) SetNX(_ context.Context, key string, _ interface{}, _ time.Duration) *redis.BoolCmd {
	fresh := !s.keys[key]
	s.keys[key] = true
	return redis.NewBoolResult(fresh, nil)
}

func (s *fakeSeenStore) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(s.keys, key)
		s.deleted = append(s.deleted, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

type fakeEnqueuer struct {
	enqueued []*asynq.Task
	err      error
}

func (e *fakeEnqueuer) Enqueue(task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.enqueued = append(e.enqueued, task)
	return &asynq.TaskInfo{}, nil
}

func newSweepPoller(source postingSource, seen seenStore, enqueuer taskEnqueuer) *Poller {
	return &Poller{
		source:   source,
		seen:     seen,
		enqueuer: enqueuer,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		spec:     "@every 10m",
	}
}

func sweepPosting(id string) catalog.Posting {
	return catalog.Posting{
		ID:         id,
		Title:      "Backend Engineer",
		Skills:     []string{"go"},
		Status:     catalog.PostingStatusPublished,
		PostedDate: time.Now(),
	}
}

func TestPollerSweepEnqueuesFreshActivePostings(t *testing.T) {
	draft := sweepPosting("p-draft")
	draft.Status = "draft"
	expired := sweepPosting("p-expired")
	expired.ExpiryDate = time.Now().Add(-time.Hour)

	source := &fakeSource{postings: []catalog.Posting{sweepPosting("p-1"), draft, expired, sweepPosting("p-2")}}
	seen := newFakeSeenStore()
	enqueuer := &fakeEnqueuer{}

	newSweepPoller(source, seen, enqueuer).runSweep(context.Background())

	if len(enqueuer.enqueued) != 2 {
		t.Fatalf("enqueued = %d tasks, want 2", len(enqueuer.enqueued))
	}

	task := enqueuer.enqueued[0]
	if task.Type() != tasks.TypePostingPublished {
		t.Errorf("task type = %q, want %q", task.Type(), tasks.TypePostingPublished)
	}
	var payload tasks.PostingPublishedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Posting.ID != "p-1" {
		t.Errorf("payload posting = %q, want p-1", payload.Posting.ID)
	}
	if payload.CorrelationID == "" {
		t.Error("payload should carry a correlation id")
	}
	if !seen.keys["seen:posting:p-1"] || !seen.keys["seen:posting:p-2"] {
		t.Errorf("seen keys = %v, want markers for p-1 and p-2", seen.keys)
	}
	if seen.keys["seen:posting:p-draft"] || seen.keys["seen:posting:p-expired"] {
		t.Errorf("inactive postings must not be marked seen: %v", seen.keys)
	}
}

func TestPollerSweepSkipsSeenPostings(t *testing.T) {
	source := &fakeSource{postings: []catalog.Posting{sweepPosting("p-1")}}
	seen := newFakeSeenStore()
	enqueuer := &fakeEnqueuer{}
	poller := newSweepPoller(source, seen, enqueuer)

	poller.runSweep(context.Background())
	poller.runSweep(context.Background())

	if len(enqueuer.enqueued) != 1 {
		t.Errorf("enqueued = %d tasks across two sweeps, want 1", len(enqueuer.enqueued))
	}
}

func TestPollerSweepRetriesAfterEnqueueFailure(t *testing.T) {
	source := &fakeSource{postings: []catalog.Posting{sweepPosting("p-1")}}
	seen := newFakeSeenStore()
	enqueuer := &fakeEnqueuer{err: errors.New("queue unavailable")}
	poller := newSweepPoller(source, seen, enqueuer)

	poller.runSweep(context.Background())
	if len(seen.deleted) != 1 || seen.deleted[0] != "seen:posting:p-1" {
		t.Fatalf("deleted = %v, want the seen marker dropped on enqueue failure", seen.deleted)
	}

	// Next sweep finds the queue healthy again and retries the posting.
	enqueuer.err = nil
	poller.runSweep(context.Background())
	if len(enqueuer.enqueued) != 1 {
		t.Errorf("enqueued = %d tasks after recovery, want 1", len(enqueuer.enqueued))
	}
}

func TestPollerSweepAbortsOnCatalogError(t *testing.T) {
	source := &fakeSource{err: errors.New("connection refused")}
	seen := newFakeSeenStore()
	enqueuer := &fakeEnqueuer{}

	newSweepPoller(source, seen, enqueuer).runSweep(context.Background())

	if len(enqueuer.enqueued) != 0 {
		t.Errorf("enqueued = %d tasks, want 0", len(enqueuer.enqueued))
	}
	if len(seen.keys) != 0 {
		t.Errorf("seen keys = %v, want none", seen.keys)
	}
}

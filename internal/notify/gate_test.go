package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"jobRadar/internal/database"
)

type fakePublisher struct {
	published []Payload
	failIDs   map[uint]bool
}

func (p *fakePublisher) Publish(_ context.Context, _ uint, payload Payload) error {
	if p.failIDs[payload.Metadata.MatchID] {
		return errors.New("channel unavailable")
	}
	p.published = append(p.published, payload)
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&database.MatchedJobPost{}, &database.Subscription{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestGate(db *gorm.DB, publisher Publisher) *Gate {
	return NewGate(db, publisher, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func createSubscription(t *testing.T, db *gorm.DB, userID uint, plan, status string) {
	t.Helper()
	sub := database.Subscription{UserID: userID, PlanType: plan, Status: status}
	if err := db.Create(&sub).Error; err != nil {
		t.Fatalf("create subscription: %v", err)
	}
}

func createMatch(t *testing.T, db *gorm.DB, userID uint, postingID string, score float64) database.MatchedJobPost {
	t.Helper()
	match := database.MatchedJobPost{
		UserID:        userID,
		JobPostingID:  postingID,
		Title:         "Backend Engineer",
		Score:         score,
		MatchedSkills: datatypes.NewJSONSlice([]string{"go"}),
	}
	if err := db.Create(&match).Error; err != nil {
		t.Fatalf("create match: %v", err)
	}
	return match
}

func TestGateSkipsUserWithoutSubscription(t *testing.T) {
	db := newTestDB(t)
	publisher := &fakePublisher{}
	gate := newTestGate(db, publisher)

	match := createMatch(t, db, 1, "p-1", 80)

	if err := gate.NotifyUser(context.Background(), 1, []database.MatchedJobPost{match}); err != nil {
		t.Fatalf("NotifyUser: %v", err)
	}
	if len(publisher.published) != 0 {
		t.Errorf("published = %d notifications, want 0", len(publisher.published))
	}
}

func TestGateSkipsNonPremiumPlans(t *testing.T) {
	tests := []struct {
		name   string
		plan   string
		status string
	}{
		{"free active", database.PlanFree, database.SubscriptionActive},
		{"premium inactive", database.PlanPremium, database.SubscriptionInactive},
		{"free inactive", database.PlanFree, database.SubscriptionInactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			publisher := &fakePublisher{}
			gate := newTestGate(db, publisher)

			createSubscription(t, db, 1, tt.plan, tt.status)
			match := createMatch(t, db, 1, "p-1", 80)

			if err := gate.NotifyUser(context.Background(), 1, []database.MatchedJobPost{match}); err != nil {
				t.Fatalf("NotifyUser: %v", err)
			}
			if len(publisher.published) != 0 {
				t.Errorf("published = %d notifications, want 0", len(publisher.published))
			}

			var stored database.MatchedJobPost
			if err := db.First(&stored, match.ID).Error; err != nil {
				t.Fatalf("reload match: %v", err)
			}
			if stored.Notified {
				t.Error("gated match must not be marked notified")
			}
		})
	}
}

func TestGateNotifiesPremiumUser(t *testing.T) {
	db := newTestDB(t)
	publisher := &fakePublisher{}
	gate := newTestGate(db, publisher)

	createSubscription(t, db, 1, database.PlanPremium, database.SubscriptionActive)
	match := createMatch(t, db, 1, "p-1", 90)

	matches := []database.MatchedJobPost{match}
	if err := gate.NotifyUser(context.Background(), 1, matches); err != nil {
		t.Fatalf("NotifyUser: %v", err)
	}

	if len(publisher.published) != 1 {
		t.Fatalf("published = %d notifications, want 1", len(publisher.published))
	}
	payload := publisher.published[0]
	if payload.Type != TypeJobMatch {
		t.Errorf("payload type = %q, want %q", payload.Type, TypeJobMatch)
	}
	if payload.Metadata.MatchID != match.ID || payload.Metadata.Score != 90 {
		t.Errorf("payload metadata = %+v, want match %d score 90", payload.Metadata, match.ID)
	}

	var stored database.MatchedJobPost
	if err := db.First(&stored, match.ID).Error; err != nil {
		t.Fatalf("reload match: %v", err)
	}
	if !stored.Notified {
		t.Error("delivered match should be marked notified")
	}
	if !matches[0].Notified {
		t.Error("in-memory match should reflect the notified flag")
	}
}

func TestGateSkipsAlreadyNotified(t *testing.T) {
	db := newTestDB(t)
	publisher := &fakePublisher{}
	gate := newTestGate(db, publisher)

	createSubscription(t, db, 1, database.PlanPremium, database.SubscriptionActive)
	match := createMatch(t, db, 1, "p-1", 70)
	match.Notified = true

	if err := gate.NotifyUser(context.Background(), 1, []database.MatchedJobPost{match}); err != nil {
		t.Fatalf("NotifyUser: %v", err)
	}
	if len(publisher.published) != 0 {
		t.Errorf("published = %d notifications, want 0 for already-notified match", len(publisher.published))
	}
}

func TestGateContinuesPastDeliveryFailure(t *testing.T) {
	db := newTestDB(t)
	gate := newTestGate(db, nil)

	createSubscription(t, db, 1, database.PlanPremium, database.SubscriptionActive)
	first := createMatch(t, db, 1, "p-1", 70)
	second := createMatch(t, db, 1, "p-2", 80)

	publisher := &fakePublisher{failIDs: map[uint]bool{first.ID: true}}
	gate.publisher = publisher

	if err := gate.NotifyUser(context.Background(), 1, []database.MatchedJobPost{first, second}); err != nil {
		t.Fatalf("NotifyUser: %v", err)
	}

	if len(publisher.published) != 1 {
		t.Fatalf("published = %d notifications, want 1", len(publisher.published))
	}
	if publisher.published[0].Metadata.MatchID != second.ID {
		t.Errorf("delivered match = %d, want %d", publisher.published[0].Metadata.MatchID, second.ID)
	}

	var storedFirst, storedSecond database.MatchedJobPost
	if err := db.First(&storedFirst, first.ID).Error; err != nil {
		t.Fatalf("reload first match: %v", err)
	}
	if err := db.First(&storedSecond, second.ID).Error; err != nil {
		t.Fatalf("reload second match: %v", err)
	}
	if storedFirst.Notified {
		t.Error("failed delivery must not mark the match notified")
	}
	if !storedSecond.Notified {
		t.Error("successful delivery should mark the match notified")
	}
}

func TestGateIgnoresEmptyBatch(t *testing.T) {
	db := newTestDB(t)
	publisher := &fakePublisher{}
	gate := newTestGate(db, publisher)

	if err := gate.NotifyUser(context.Background(), 1, nil); err != nil {
		t.Fatalf("NotifyUser: %v", err)
	}
	if len(publisher.published) != 0 {
		t.Errorf("published = %d notifications, want 0", len(publisher.published))
	}
}

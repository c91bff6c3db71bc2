package audit

import (
	"testing"
	"time"

	"github.com/dalemusser/stratasite/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_LogAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	events := []Event{
		{Category: CategoryAuth, EventType: EventLoginSuccess, UserID: &userID, IP: "10.0.0.1", Success: true},
		{Category: CategoryContent, EventType: EventContentCreated, ActorID: userID.Hex(), Kind: "faqs", EntityID: "f1", Success: true},
		{Category: CategoryContent, EventType: EventContentUpdated, ActorID: "api-key", Kind: "faqs", EntityID: "f1", Success: true},
		{Category: CategoryContent, EventType: EventContentDeleted, ActorID: userID.Hex(), Kind: "stats", EntityID: "s1", Success: true},
	}
	base := time.Now().UTC().Add(-time.Hour)
	for i, e := range events {
		e.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter QueryFilter
		want   int
	}{
		{"all", QueryFilter{}, 4},
		{"by user", QueryFilter{UserID: &userID}, 1},
		{"by actor", QueryFilter{ActorID: "api-key"}, 1},
		{"by category", QueryFilter{Category: CategoryContent}, 3},
		{"by kind", QueryFilter{Kind: "faqs"}, 2},
		{"by type", QueryFilter{EventType: EventContentDeleted}, 1},
		{"limit", QueryFilter{Limit: 2}, 2},
		{"offset", QueryFilter{Offset: 3}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("Query() returned %d events, want %d", len(got), tt.want)
			}
			n, err := store.Count(ctx, QueryFilter{
				UserID: tt.filter.UserID, ActorID: tt.filter.ActorID, Category: tt.filter.Category,
				EventType: tt.filter.EventType, Kind: tt.filter.Kind,
			})
			if err != nil {
				t.Fatalf("Count() error = %v", err)
			}
			if tt.filter.Limit == 0 && tt.filter.Offset == 0 && n != int64(tt.want) {
				t.Errorf("Count() = %d, want %d", n, tt.want)
			}
		})
	}
}

func TestStore_History(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first := time.Now().UTC().Add(-time.Minute)
	for i, typ := range []string{EventContentCreated, EventContentUpdated} {
		if err := store.Log(ctx, Event{
			Category: CategoryContent, EventType: typ, Kind: "team_members", EntityID: "m1",
			CreatedAt: first.Add(time.Duration(i) * time.Second), Success: true,
		}); err != nil {
			t.Fatalf("Log() error = %v", err)
		}
	}

	got, err := store.History(ctx, "team_members", "m1", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(got) != 2 || got[0].EventType != EventContentUpdated {
		t.Errorf("History() = %+v, want newest first", got)
	}
}

func TestStore_QueryTimeRange(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	old := now.Add(-48 * time.Hour)
	_ = store.Log(ctx, Event{Category: CategoryAuth, EventType: EventLogout, CreatedAt: old})
	_ = store.Log(ctx, Event{Category: CategoryAuth, EventType: EventLogout, CreatedAt: now})

	since := now.Add(-time.Hour)
	got, err := store.Query(ctx, QueryFilter{StartTime: &since})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Query(since) returned %d, want 1", len(got))
	}
}

package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pitchbase/rate-engine/internal/model"
)

func seedEvent(t *testing.T, s *MemoryStore, id, itemID, status string, createdAt time.Time) {
	t.Helper()
	err := s.CreateEvent(context.Background(), &model.Event{
		ID:          id,
		ItemID:      itemID,
		Name:        id,
		Status:      status,
		StartDate:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC),
		PricingType: model.PricingBase,
		CreatedAt:   createdAt,
	})
	if err != nil {
		t.Fatalf("failed to seed event: %v", err)
	}
}

func TestMemoryStore_ListEventsNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	seedEvent(t, s, "ev-a", "pitch-1", model.EventAvailable, base)
	seedEvent(t, s, "ev-b", "pitch-1", model.EventAvailable, base.Add(48*time.Hour))
	seedEvent(t, s, "ev-c", "pitch-1", model.EventAvailable, base.Add(24*time.Hour))

	events, err := s.ListEvents(context.Background(), "pitch-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"ev-b", "ev-c", "ev-a"}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(events))
	}
	for i, id := range want {
		if events[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, events[i].ID)
		}
	}
}

func TestMemoryStore_ListEventsFiltersStatusAndItem(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now().UTC()
	seedEvent(t, s, "ev-on", "pitch-1", model.EventAvailable, now)
	seedEvent(t, s, "ev-off", "pitch-1", model.EventDisabled, now)
	seedEvent(t, s, "ev-other", "pitch-2", model.EventAvailable, now)

	events, err := s.ListEvents(context.Background(), "pitch-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || events[0].ID != "ev-on" {
		t.Errorf("expected only ev-on, got %+v", events)
	}
}

func TestMemoryStore_UpdateEventStatus(t *testing.T) {
	s := NewMemoryStore()
	seedEvent(t, s, "ev-a", "pitch-1", model.EventAvailable, time.Now().UTC())

	if err := s.UpdateEventStatus(context.Background(), "pitch-1", "ev-a", model.EventDisabled); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events, _ := s.ListEvents(context.Background(), "pitch-1")
	if len(events) != 0 {
		t.Errorf("disabled event should not list, got %+v", events)
	}

	if err := s.UpdateEventStatus(context.Background(), "pitch-2", "ev-a", model.EventDisabled); err == nil {
		t.Error("expected an error for a mismatched item")
	}
}

func TestMemoryStore_ListTiersByItem(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for _, tier := range []model.PriceTier{
		{ID: "t1", ItemID: "pitch-1", ParameterID: "adult", Amount: decimal.NewFromInt(100)},
		{ID: "t2", ItemID: "pitch-2", ParameterID: "adult", Amount: decimal.NewFromInt(90)},
	} {
		tier := tier
		if err := s.CreateTier(ctx, &tier); err != nil {
			t.Fatalf("failed to seed tier: %v", err)
		}
	}

	tiers, err := s.ListTiers(ctx, "pitch-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tiers) != 1 || tiers[0].ID != "t1" {
		t.Errorf("expected only pitch-1 tiers, got %+v", tiers)
	}
}

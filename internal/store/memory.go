package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pitchbase/rate-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu     sync.RWMutex
	tiers  []model.PriceTier
	events map[string]*model.Event
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events: make(map[string]*model.Event),
	}
}

func (s *MemoryStore) CreateTier(_ context.Context, tier *model.PriceTier) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.tiers {
		if existing.ID == tier.ID {
			return fmt.Errorf("tier %s already exists", tier.ID)
		}
	}
	s.tiers = append(s.tiers, *tier)
	return nil
}

func (s *MemoryStore) ListTiers(_ context.Context, itemID string) ([]model.PriceTier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.PriceTier
	for _, t := range s.tiers {
		if t.ItemID == itemID {
			result = append(result, t)
		}
	}
	return result, nil
}

func (s *MemoryStore) CreateEvent(_ context.Context, event *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[event.ID]; ok {
		return fmt.Errorf("event %s already exists", event.ID)
	}

	// Store a copy to avoid external mutation.
	copy := *event
	s.events[event.ID] = &copy
	return nil
}

func (s *MemoryStore) ListEvents(_ context.Context, itemID string) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Event
	for _, e := range s.events {
		if e.ItemID == itemID && e.Status == model.EventAvailable {
			result = append(result, *e)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *MemoryStore) UpdateEventStatus(_ context.Context, itemID, eventID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[eventID]
	if !ok || e.ItemID != itemID {
		return fmt.Errorf("event %s not found for item %s", eventID, itemID)
	}
	e.Status = status
	return nil
}

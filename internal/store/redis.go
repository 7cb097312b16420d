package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pitchbase/rate-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Writes go to the primary store and invalidate the cache; reads
// check Redis first then fall back to the primary. Quotes read the whole
// tier/event set per item, so caching is keyed per item.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Writes (write to primary, invalidate cache) ---

func (s *CachedStore) CreateTier(ctx context.Context, tier *model.PriceTier) error {
	if err := s.primary.CreateTier(ctx, tier); err != nil {
		return err
	}
	s.rdb.Del(ctx, tiersKey(tier.ItemID))
	return nil
}

func (s *CachedStore) CreateEvent(ctx context.Context, event *model.Event) error {
	if err := s.primary.CreateEvent(ctx, event); err != nil {
		return err
	}
	s.rdb.Del(ctx, eventsKey(event.ItemID))
	return nil
}

func (s *CachedStore) UpdateEventStatus(ctx context.Context, itemID, eventID, status string) error {
	if err := s.primary.UpdateEventStatus(ctx, itemID, eventID, status); err != nil {
		return err
	}
	s.rdb.Del(ctx, eventsKey(itemID))
	return nil
}

// --- Reads (check cache first) ---

func (s *CachedStore) ListTiers(ctx context.Context, itemID string) ([]model.PriceTier, error) {
	data, err := s.rdb.Get(ctx, tiersKey(itemID)).Bytes()
	if err == nil {
		var tiers []model.PriceTier
		if json.Unmarshal(data, &tiers) == nil {
			return tiers, nil
		}
	}

	// Cache miss: read from primary.
	tiers, err := s.primary.ListTiers(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(tiers); err == nil {
		s.rdb.Set(ctx, tiersKey(itemID), data, s.ttl)
	}
	return tiers, nil
}

func (s *CachedStore) ListEvents(ctx context.Context, itemID string) ([]model.Event, error) {
	data, err := s.rdb.Get(ctx, eventsKey(itemID)).Bytes()
	if err == nil {
		var events []model.Event
		if json.Unmarshal(data, &events) == nil {
			return events, nil
		}
	}

	// Cache miss.
	events, err := s.primary.ListEvents(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(events); err == nil {
		s.rdb.Set(ctx, eventsKey(itemID), data, s.ttl)
	}
	return events, nil
}

// --- Cache keys ---

func tiersKey(itemID string) string  { return fmt.Sprintf("tiers:%s", itemID) }
func eventsKey(itemID string) string { return fmt.Sprintf("events:%s", itemID) }

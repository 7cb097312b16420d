// Package store defines the persistence interface for price tiers and
// pricing events. Implementations include PostgreSQL (source of truth),
// Redis (read-through cache), and in-memory (for testing).
package store

import (
	"context"

	"github.com/pitchbase/rate-engine/internal/model"
)

// Store is the persistence interface. PostgreSQL is the source of truth;
// Redis provides a read-through cache layer.
type Store interface {
	// --- Price tiers ---

	// CreateTier persists a new price tier (base or event-scoped).
	CreateTier(ctx context.Context, tier *model.PriceTier) error

	// ListTiers returns every tier row for an item: base tiers plus all
	// event tiers. An unknown item returns an empty list, not an error.
	ListTiers(ctx context.Context, itemID string) ([]model.PriceTier, error)

	// --- Pricing events ---

	// CreateEvent persists a new pricing event.
	CreateEvent(ctx context.Context, event *model.Event) error

	// ListEvents returns the item's available-status events, newest
	// first by creation time. That ordering is the tie-break when
	// several events cover the same night.
	ListEvents(ctx context.Context, itemID string) ([]model.Event, error)

	// UpdateEventStatus flips an event between available and disabled.
	// The item scope lets cache layers invalidate precisely.
	UpdateEventStatus(ctx context.Context, itemID, eventID, status string) error
}

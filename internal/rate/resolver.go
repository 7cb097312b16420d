// Package rate provides night-by-night stay pricing: it layers time-bounded
// pricing events over an item's base rate table and resolves a
// quantity-tiered price for every parameter on every night of a stay.
//
// All monetary values use shopspring/decimal — never float64 for money.
package rate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pitchbase/rate-engine/internal/formula"
	"github.com/pitchbase/rate-engine/internal/inventory"
	"github.com/pitchbase/rate-engine/internal/metrics"
	"github.com/pitchbase/rate-engine/internal/model"
	"github.com/pitchbase/rate-engine/internal/store"
)

var (
	// ErrInvalidRange is returned when checkOut is not after checkIn.
	ErrInvalidRange = errors.New("rate: check-out must be after check-in")

	// ErrStayTooLong is returned when a stay exceeds MaxStayNights.
	ErrStayTooLong = errors.New("rate: stay exceeds maximum length")
)

// MaxStayNights bounds the per-night loop. Anything longer than a year is
// a malformed request, not a stay.
const MaxStayNights = 366

// Resolver computes stay pricing from the tier/event store and the
// inventory collaborator. It holds no state between calls; concurrent use
// is safe.
type Resolver struct {
	store     store.Store
	inventory inventory.Lookup
}

// NewResolver creates a resolver over the given collaborators.
func NewResolver(st store.Store, inv inventory.Lookup) *Resolver {
	return &Resolver{store: st, inventory: inv}
}

// tierIndex partitions an item's tier rows into the base table and one
// table per event.
type tierIndex struct {
	base    map[string][]model.PriceTier            // parameterID → tiers
	byEvent map[string]map[string][]model.PriceTier // eventID → parameterID → tiers
}

func indexTiers(tiers []model.PriceTier) tierIndex {
	idx := tierIndex{
		base:    make(map[string][]model.PriceTier),
		byEvent: make(map[string]map[string][]model.PriceTier),
	}
	for _, t := range tiers {
		if t.EventID == "" {
			idx.base[t.ParameterID] = append(idx.base[t.ParameterID], t)
			continue
		}
		byParam, ok := idx.byEvent[t.EventID]
		if !ok {
			byParam = make(map[string][]model.PriceTier)
			idx.byEvent[t.EventID] = byParam
		}
		byParam[t.ParameterID] = append(byParam[t.ParameterID], t)
	}
	return idx
}

// lookupTier resolves a quantity against a tier list: a ranged tier whose
// [GroupMin, GroupMax] contains the quantity wins; otherwise the flat tier
// applies. The boolean distinguishes "no tier" from a genuine zero price —
// only the top of ResolvePricing collapses "no tier" to 0.
func lookupTier(tiers []model.PriceTier, quantity int) (decimal.Decimal, bool) {
	for _, t := range tiers {
		if t.GroupMin != nil && t.GroupMax != nil &&
			quantity >= *t.GroupMin && quantity <= *t.GroupMax {
			return t.Amount, true
		}
	}
	for _, t := range tiers {
		if t.IsFlat() {
			return t.Amount, true
		}
	}
	return decimal.Zero, false
}

// ResolvePricing computes per-parameter totals and a per-night breakdown
// for a stay. CheckOut is exclusive; the only hard failures are an empty or
// inverted range and an absurdly long stay. Missing tiers, malformed event
// configs, and absent rows all degrade to zero or base prices, tagged with
// ResolutionNotes so the data problem stays visible.
func (r *Resolver) ResolvePricing(ctx context.Context, req model.StayRequest) (*model.PricingResult, error) {
	checkIn := dateOnly(req.CheckIn)
	checkOut := dateOnly(req.CheckOut)

	nights := daysBetween(checkIn, checkOut)
	if nights <= 0 {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidRange,
			checkIn.Format(model.DateFormat), checkOut.Format(model.DateFormat))
	}
	if nights > MaxStayNights {
		return nil, fmt.Errorf("%w: %d nights", ErrStayTooLong, nights)
	}

	tiers, err := r.store.ListTiers(ctx, req.ItemID)
	if err != nil {
		return nil, fmt.Errorf("load tiers for %s: %w", req.ItemID, err)
	}
	events, err := r.store.ListEvents(ctx, req.ItemID)
	if err != nil {
		return nil, fmt.Errorf("load events for %s: %w", req.ItemID, err)
	}
	stock, err := r.inventory.RemainingStock(ctx, req.ItemID)
	if err != nil {
		return nil, fmt.Errorf("load stock for %s: %w", req.ItemID, err)
	}

	// Newest-first: the tie-break when several events cover the same
	// night. The store contract already orders this way; re-sorting keeps
	// the invariant independent of the backing implementation.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})

	// Unlimited inventory supplies no stock figure, so yield thresholds
	// never fire for it — no sentinel value that a large catalog could
	// collide with.
	var remaining *int
	if !stock.Unlimited {
		n := stock.Remaining
		remaining = &n
	}

	idx := indexTiers(tiers)

	result := &model.PricingResult{
		ParameterPricing: make(map[string]decimal.Decimal, len(req.ParameterQuantities)),
		NightlyPricing:   make([]model.NightlyPricing, 0, nights),
	}
	for param := range req.ParameterQuantities {
		result.ParameterPricing[param] = decimal.Zero
	}

	for i := 0; i < nights; i++ {
		night := checkIn.AddDate(0, 0, i)
		key := night.Format(model.DateFormat)

		// First matching event wins for every parameter this night; no
		// stacking of overlapping events.
		var selected *model.Event
		for j := range events {
			if events[j].AppliesTo(night) {
				selected = &events[j]
				break
			}
		}
		if selected != nil {
			metrics.EventsApplied.WithLabelValues(string(selected.PricingType)).Inc()
		}

		np := model.NightlyPricing{
			Date:       key,
			Parameters: make(map[string]decimal.Decimal, len(req.ParameterQuantities)),
		}
		if selected != nil {
			np.AppliedEvents = make(map[string]string, len(req.ParameterQuantities))
		}

		for param, qty := range req.ParameterQuantities {
			price := r.resolveNight(result, idx, selected, remaining, key, param, qty)
			np.Parameters[param] = price
			result.ParameterPricing[param] = result.ParameterPricing[param].Add(price)
			if selected != nil {
				np.AppliedEvents[param] = selected.ID
			}
		}

		result.NightlyPricing = append(result.NightlyPricing, np)
	}

	return result, nil
}

// resolveNight prices one parameter on one night. The base price is always
// derived first, even when a new_price event will override it: it is the
// guaranteed fallback for every malformed-config branch.
func (r *Resolver) resolveNight(result *model.PricingResult, idx tierIndex, selected *model.Event, remaining *int, date, param string, qty int) decimal.Decimal {
	// Requested-but-zero parameters stay in the output and owe nothing.
	if qty <= 0 {
		return decimal.Zero
	}

	base, baseFound := lookupTier(idx.base[param], qty)

	eventID := ""
	opts := formula.Options{RemainingStock: remaining}
	if selected != nil {
		eventID = selected.ID
		if selected.PricingType == model.PricingNew {
			// The event's own tier table is the custom price. A hit is
			// final; a miss falls through to base-price resolution with
			// a missing-custom-price note from the formula.
			if custom, ok := lookupTier(idx.byEvent[selected.ID][param], qty); ok {
				return custom.Round(0)
			}
		}
	}

	if !baseFound {
		// Fail open to free: a missing tier renders as 0 rather than
		// blocking the whole pricing table. Almost always a data-entry
		// gap, hence the note.
		result.Notes = append(result.Notes, model.ResolutionNote{
			Date: date, ParameterID: param, EventID: eventID, Reason: "no_tier_found",
		})
		return decimal.Zero
	}

	price, reason := formula.Resolve(base, formula.ConfigFromEvent(selected), opts)
	if reason != formula.ReasonNone {
		result.Notes = append(result.Notes, model.ResolutionNote{
			Date: date, ParameterID: param, EventID: eventID, Reason: string(reason),
		})
	}
	return price
}

// dateOnly truncates a timestamp to its calendar date in UTC.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween counts whole days from a to b (both date-only, UTC).
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}

// Package model defines the core domain types shared across the rate engine.
// All monetary values use shopspring/decimal — never float64 for money.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the canonical calendar-date layout used throughout the
// engine. Nights and event bounds are calendar dates, never timestamps.
const DateFormat = "2006-01-02"

// PricingType selects which formula variant resolves an event's price.
type PricingType string

const (
	PricingBase    PricingType = "base_price"
	PricingNew     PricingType = "new_price"
	PricingDynamic PricingType = "dynamic"
	PricingYield   PricingType = "yield"
)

// DynamicMode selects how a dynamic event's value is applied to the base.
type DynamicMode string

const (
	DynamicPercent DynamicMode = "percent"
	DynamicFixed   DynamicMode = "fixed"
)

// Event statuses. Only available events participate in resolution.
const (
	EventAvailable = "available"
	EventDisabled  = "disabled"
)

// PriceTier is a priced row scoped to one parameter and optionally one event.
// EventID is empty for base-rate tiers. When GroupMin and GroupMax are both
// set, the tier applies only when the requested quantity falls in
// [GroupMin, GroupMax]; when both are nil it is the parameter's flat tier.
type PriceTier struct {
	ID          string          `json:"id" db:"id"`
	ItemID      string          `json:"item_id" db:"item_id"`
	ParameterID string          `json:"parameter_id" db:"parameter_id"`
	EventID     string          `json:"event_id,omitempty" db:"event_id"`
	GroupMin    *int            `json:"group_min,omitempty" db:"group_min"`
	GroupMax    *int            `json:"group_max,omitempty" db:"group_max"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
}

// IsFlat reports whether the tier has no quantity restriction.
func (t *PriceTier) IsFlat() bool {
	return t.GroupMin == nil && t.GroupMax == nil
}

// YieldThreshold adjusts the base rate once remaining stock drops to or
// below Stock. RateAdjustment is a percentage (20 → +20%).
type YieldThreshold struct {
	Stock          int             `json:"stock"`
	RateAdjustment decimal.Decimal `json:"rate_adjustment"`
}

// Event is a named, time-bounded pricing override. StartDate and EndDate
// are inclusive calendar bounds. DaysOfWeek, when non-empty, restricts the
// event to nights whose weekday (0=Sunday) is in the set.
type Event struct {
	ID              string           `json:"id" db:"id"`
	ItemID          string           `json:"item_id" db:"item_id"`
	Name            string           `json:"name" db:"name"`
	Status          string           `json:"status" db:"status"`
	StartDate       time.Time        `json:"start_date" db:"start_date"`
	EndDate         time.Time        `json:"end_date" db:"end_date"`
	DaysOfWeek      []int            `json:"days_of_week,omitempty" db:"days_of_week"`
	PricingType     PricingType      `json:"pricing_type" db:"pricing_type"`
	DynamicValue    *decimal.Decimal `json:"dynamic_value,omitempty" db:"dynamic_value"`
	DynamicMode     DynamicMode      `json:"dynamic_mode,omitempty" db:"dynamic_mode"`
	YieldThresholds []YieldThreshold `json:"yield_thresholds,omitempty" db:"yield_thresholds"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
}

// AppliesTo reports whether the event covers the given night. The date
// comparison is calendar-day inclusive on both ends; time-of-day on the
// stored bounds is ignored. A window with EndDate before StartDate simply
// never matches.
func (e *Event) AppliesTo(night time.Time) bool {
	key := night.Format(DateFormat)
	if key < e.StartDate.Format(DateFormat) || key > e.EndDate.Format(DateFormat) {
		return false
	}
	if len(e.DaysOfWeek) == 0 {
		return true
	}
	wd := int(night.Weekday())
	for _, d := range e.DaysOfWeek {
		if d == wd {
			return true
		}
	}
	return false
}

// StayRequest is the resolver's input. CheckOut is exclusive: the stay
// covers the nights CheckIn ≤ d < CheckOut.
type StayRequest struct {
	ItemID              string         `json:"item_id"`
	CheckIn             time.Time      `json:"check_in"`
	CheckOut            time.Time      `json:"check_out"`
	ParameterQuantities map[string]int `json:"parameter_quantities"`
}

// NightlyPricing is the resolved per-parameter price for a single night.
// AppliedEvents records which event, if any, was selected per parameter so
// the admin calendar can surface it.
type NightlyPricing struct {
	Date          string                     `json:"date"`
	Parameters    map[string]decimal.Decimal `json:"parameters"`
	AppliedEvents map[string]string          `json:"applied_events,omitempty"`
}

// ResolutionNote tags a quote with a non-fatal diagnostic: a missing tier,
// a zero base price, a malformed event config. Notes never change prices.
type ResolutionNote struct {
	Date        string `json:"date"`
	ParameterID string `json:"parameter_id"`
	EventID     string `json:"event_id,omitempty"`
	Reason      string `json:"reason"`
}

// PricingResult is the full output of one stay resolution.
type PricingResult struct {
	ParameterPricing map[string]decimal.Decimal `json:"parameter_pricing"`
	NightlyPricing   []NightlyPricing           `json:"nightly_pricing"`
	Notes            []ResolutionNote           `json:"notes,omitempty"`
}

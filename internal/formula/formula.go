// Package formula implements the event pricing formulas for the rate
// engine: base, custom ("new price"), dynamic surcharge, and yield-based
// stock pricing.
//
// Every function here is pure: no dates, no parameters, no quantities, no
// I/O. The resolver hands in a base price, one event's pricing config, and
// call-specific options; it gets back a single resolved price plus a
// diagnostic reason when a fallback was taken.
//
// All monetary values use shopspring/decimal — never float64 for money.
// The domain currency has no subunit, so every result is rounded to the
// nearest whole unit.
package formula

import (
	"github.com/shopspring/decimal"

	"github.com/pitchbase/rate-engine/internal/model"
)

// Reason tags a resolution that had to fall back. Empty means the formula
// resolved cleanly. Reasons are diagnostics only; they never abort pricing.
type Reason string

const (
	// ReasonNone is the clean-resolution reason.
	ReasonNone Reason = ""

	// ReasonNonPositiveBase: the base price was zero or negative, so the
	// result collapses to zero. Usually a data-entry problem in the base
	// tiers rather than an intended price.
	ReasonNonPositiveBase Reason = "non_positive_base"

	// ReasonMissingCustomPrice: a new_price event had no usable tier for
	// this parameter; the base price was used instead.
	ReasonMissingCustomPrice Reason = "missing_custom_price"

	// ReasonMissingDynamicConfig: a dynamic event lacked its value or mode.
	ReasonMissingDynamicConfig Reason = "missing_dynamic_config"

	// ReasonMissingYieldConfig: a yield event had no thresholds at all.
	ReasonMissingYieldConfig Reason = "missing_yield_config"

	// ReasonUnknownPricingType: an unrecognized pricing type fell back to
	// the base price.
	ReasonUnknownPricingType Reason = "unknown_pricing_type"
)

// Config is one event's pricing configuration, detached from its dates and
// status. A zero Config (PricingType base_price) means "no event".
type Config struct {
	PricingType     model.PricingType
	DynamicValue    *decimal.Decimal
	DynamicMode     model.DynamicMode
	YieldThresholds []model.YieldThreshold
}

// BaseConfig is the config used when no event matched a night.
func BaseConfig() Config {
	return Config{PricingType: model.PricingBase}
}

// ConfigFromEvent extracts the pricing config from an event. Nil events
// yield the base config.
func ConfigFromEvent(e *model.Event) Config {
	if e == nil {
		return BaseConfig()
	}
	return Config{
		PricingType:     e.PricingType,
		DynamicValue:    e.DynamicValue,
		DynamicMode:     e.DynamicMode,
		YieldThresholds: e.YieldThresholds,
	}
}

// Options carries call-specific inputs. CustomPrice is the already
// tier-resolved price for a new_price event; RemainingStock is the current
// stock figure for yield events. Nil means "not supplied" — in particular,
// unlimited inventory supplies no stock figure, so yield thresholds can
// never fire for it.
type Options struct {
	CustomPrice    *decimal.Decimal
	RemainingStock *int
}

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Resolve computes the price for one pricing-config variant.
//
// A non-positive base short-circuits to zero for every variant: zero or
// negative base is treated as "no valid base", not an error. Every other
// missing-config condition falls back to the base price so a pricing table
// can always render.
func Resolve(base decimal.Decimal, cfg Config, opts Options) (decimal.Decimal, Reason) {
	if base.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ReasonNonPositiveBase
	}

	switch cfg.PricingType {
	case model.PricingBase, "":
		return base, ReasonNone

	case model.PricingNew:
		if opts.CustomPrice == nil {
			return base, ReasonMissingCustomPrice
		}
		return (*opts.CustomPrice).Round(0), ReasonNone

	case model.PricingDynamic:
		if cfg.DynamicValue == nil {
			return base, ReasonMissingDynamicConfig
		}
		switch cfg.DynamicMode {
		case model.DynamicPercent:
			return base.Mul(one.Add(cfg.DynamicValue.Div(hundred))).Round(0), ReasonNone
		case model.DynamicFixed:
			return base.Add(*cfg.DynamicValue).Round(0), ReasonNone
		default:
			return base, ReasonMissingDynamicConfig
		}

	case model.PricingYield:
		if len(cfg.YieldThresholds) == 0 {
			return base, ReasonMissingYieldConfig
		}
		if opts.RemainingStock == nil {
			// Unlimited inventory: yield never fires, and that is the
			// expected state rather than a config problem.
			return base, ReasonNone
		}
		th, ok := crossedThreshold(cfg.YieldThresholds, *opts.RemainingStock)
		if !ok {
			return base, ReasonNone
		}
		return base.Mul(one.Add(th.RateAdjustment.Div(hundred))).Round(0), ReasonNone

	default:
		return base, ReasonUnknownPricingType
	}
}

// crossedThreshold picks the threshold with the largest stock value among
// those with stock ≤ remaining — the first tier the stock level has dropped
// into, not the tightest one. With thresholds {10,5,0} and 8 remaining, the
// 5-stock tier applies.
func crossedThreshold(thresholds []model.YieldThreshold, remaining int) (model.YieldThreshold, bool) {
	var best model.YieldThreshold
	found := false
	for _, th := range thresholds {
		if th.Stock > remaining {
			continue
		}
		if !found || th.Stock > best.Stock {
			best = th
			found = true
		}
	}
	return best, found
}

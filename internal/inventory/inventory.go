// Package inventory provides the remaining-stock lookup the rate engine
// uses for yield pricing. The booking system owns stock counts; this
// package only reads them.
package inventory

import "context"

// Stock is the current availability of an item. Unlimited items carry no
// count at all — yield thresholds can never fire for them, regardless of
// how large a threshold catalog is configured.
type Stock struct {
	Remaining int  `json:"remaining"`
	Unlimited bool `json:"unlimited"`
}

// Lookup reads current remaining stock for an item.
type Lookup interface {
	RemainingStock(ctx context.Context, itemID string) (Stock, error)
}

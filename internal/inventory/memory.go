package inventory

import (
	"context"
	"sync"
)

// MemoryLookup implements Lookup with an in-memory map. Items without an
// entry are unlimited. Used for testing and development.
type MemoryLookup struct {
	mu    sync.RWMutex
	stock map[string]int
}

// NewMemoryLookup creates an empty in-memory lookup (everything unlimited).
func NewMemoryLookup() *MemoryLookup {
	return &MemoryLookup{stock: make(map[string]int)}
}

// SetStock pins an item's remaining stock.
func (l *MemoryLookup) SetStock(itemID string, remaining int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stock[itemID] = remaining
}

// ClearStock returns an item to unlimited availability.
func (l *MemoryLookup) ClearStock(itemID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.stock, itemID)
}

func (l *MemoryLookup) RemainingStock(_ context.Context, itemID string) (Stock, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n, ok := l.stock[itemID]
	if !ok {
		return Stock{Unlimited: true}, nil
	}
	return Stock{Remaining: n}, nil
}

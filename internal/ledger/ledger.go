// Package ledger implements the in-memory stock table shared by all
// concurrent order orchestrations.
//
// The ledger is the system's single mutual-exclusion domain for stock: every
// reserve, restock, and rollback executes as one atomic critical section over
// the whole table, so a multi-item reservation can never interleave with
// another mutation halfway through. Stock never goes negative, and every
// reservation is resolved exactly once: either kept (the order fulfilled) or
// returned via Rollback (the order timed out).
package ledger

import (
	"sync"

	"github.com/dreamware/grocerfleet/internal/fleet"
)

// Stats counts ledger mutations, for diagnostics and tests.
type Stats struct {
	Reserves  int // Reserve calls that granted at least one item
	Restocks  int // Restock calls
	Rollbacks int // Rollback calls
}

// Ledger is a thread-safe stock table keyed by item name.
// Quantities are always non-negative; callers validate that requested
// quantities are positive before reaching the ledger.
type Ledger struct {
	mu    sync.Mutex     // Single lock over the whole table
	stock map[string]int // item name -> quantity available
	stats Stats
}

// New creates a ledger seeded with the given catalog. The initial map is
// copied so the caller cannot mutate ledger state afterwards.
func New(initial map[string]int) *Ledger {
	stock := make(map[string]int, len(initial))
	for name, qty := range initial {
		if qty < 0 {
			qty = 0
		}
		stock[name] = qty
	}
	return &Ledger{stock: stock}
}

// Reserve grants min(requested, available) for every item in the request and
// decrements stock by the granted amounts, all within one critical section.
// Items with a zero grant are omitted from the result, and aisles whose every
// item granted zero are omitted entirely. The second return value is false
// only when nothing at all could be granted.
//
// An item name unknown to the ledger is treated as zero stock. Duplicate item
// names within one request draw down the same row sequentially.
func (l *Ledger) Reserve(itemsByAisle map[string][]fleet.Item) (map[string][]fleet.Item, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	granted := make(map[string][]fleet.Item)
	any := false
	for aisle, items := range itemsByAisle {
		for _, item := range items {
			available := l.stock[item.Name]
			grant := item.Quantity
			if grant > available {
				grant = available
			}
			if grant <= 0 {
				continue
			}
			l.stock[item.Name] = available - grant
			granted[aisle] = append(granted[aisle], fleet.Item{Name: item.Name, Quantity: grant})
			any = true
		}
	}
	if any {
		l.stats.Reserves++
	}
	return granted, any
}

// Restock atomically adds every requested quantity to stock, creating rows
// for items the ledger has not seen this session.
func (l *Ledger) Restock(itemsByAisle map[string][]fleet.Item) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, items := range itemsByAisle {
		for _, item := range items {
			l.stock[item.Name] += item.Quantity
		}
	}
	l.stats.Restocks++
}

// Rollback returns previously granted quantities to stock. It compensates a
// FETCH reservation whose order timed out; restocks are never compensated.
func (l *Ledger) Rollback(granted map[string][]fleet.Item) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, items := range granted {
		for _, item := range items {
			l.stock[item.Name] += item.Quantity
		}
	}
	l.stats.Rollbacks++
}

// Peek returns the current quantity for an item. Unknown items read as zero.
// Read-only; intended for diagnostics and tests.
func (l *Ledger) Peek(item string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stock[item]
}

// Snapshot returns a copy of the whole stock table.
func (l *Ledger) Snapshot() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]int, len(l.stock))
	for name, qty := range l.stock {
		out[name] = qty
	}
	return out
}

// Stats returns mutation counters.
func (l *Ledger) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

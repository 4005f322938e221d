// Package rendezvous implements the per-order quorum wait primitive that lets
// one coordinator goroutine block until a fixed number of distinct workers
// have reported for an order, or a deadline passes.
//
// The tracker is shared across all in-flight orders but partitioned by order
// id: each order gets its own acknowledgement bucket and wakeup channel, so
// reports for different orders never contend beyond the bucket-map lock.
// Consumption is one-shot: Await removes the order's bucket on return,
// success or timeout. Reports that arrive for an unknown or already-consumed
// order id are accepted silently into a fresh bucket rather than dropped;
// such orphaned buckets are only ever reclaimed by a later Await for that id.
package rendezvous

import (
	"sync"
	"time"

	"github.com/dreamware/grocerfleet/internal/fleet"
)

// bucket holds the acknowledgements recorded so far for one order.
// wake carries at most one pending signal; Record never blocks on it.
type bucket struct {
	acks map[string]fleet.Acknowledgement // robot id -> latest ack
	wake chan struct{}
}

func newBucket() *bucket {
	return &bucket{
		acks: make(map[string]fleet.Acknowledgement),
		wake: make(chan struct{}, 1),
	}
}

// Tracker collects worker acknowledgements per order and wakes the order's
// waiter as reports arrive. All methods are safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	orders map[string]*bucket
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{orders: make(map[string]*bucket)}
}

// Begin registers an empty acknowledgement set for the order. It must be
// called before the order is dispatched so that no report can race ahead of
// the bucket's existence, and before the first Await for the order.
func (t *Tracker) Begin(orderID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.orders[orderID]; !exists {
		t.orders[orderID] = newBucket()
	}
}

// Record stores the acknowledgement for (orderID, robotID), overwriting any
// earlier report from the same robot, and wakes the order's waiter if one is
// blocked. Reports for unknown order ids create an orphan bucket so late
// arrivals are never an error.
func (t *Tracker) Record(orderID, robotID string, ack fleet.Acknowledgement) {
	t.mu.Lock()
	b, exists := t.orders[orderID]
	if !exists {
		b = newBucket()
		t.orders[orderID] = b
	}
	b.acks[robotID] = ack
	t.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Await blocks until at least quorum distinct robots have reported for the
// order, or until timeout elapses, whichever comes first. It returns every
// acknowledgement recorded so far and whether quorum was reached. The order's
// bucket is removed on return regardless of outcome; callers must await each
// order id at most once.
func (t *Tracker) Await(orderID string, quorum int, timeout time.Duration) ([]fleet.Acknowledgement, bool) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		t.mu.Lock()
		b, exists := t.orders[orderID]
		if !exists {
			b = newBucket()
			t.orders[orderID] = b
		}
		if len(b.acks) >= quorum {
			acks := collect(b)
			delete(t.orders, orderID)
			t.mu.Unlock()
			return acks, true
		}
		wake := b.wake
		t.mu.Unlock()

		select {
		case <-wake:
			// Re-check the count under the lock.
		case <-deadline.C:
			t.mu.Lock()
			acks := collect(t.orders[orderID])
			delete(t.orders, orderID)
			t.mu.Unlock()
			return acks, false
		}
	}
}

// Len returns the number of tracked (including orphaned) order buckets.
// Diagnostics and tests only.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.orders)
}

func collect(b *bucket) []fleet.Acknowledgement {
	if b == nil {
		return nil
	}
	acks := make([]fleet.Acknowledgement, 0, len(b.acks))
	for _, ack := range b.acks {
		acks = append(acks, ack)
	}
	return acks
}

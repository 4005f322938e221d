// Package telemetry implements the fire-and-forget order event stream: the
// coordinator-side publisher and the aggregation used by the analytics
// subscriber. Publishing is best-effort and must never affect an order's
// outcome.
package telemetry

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"
)

// Topic is the broadcast topic order events are published on.
const Topic = "analytics"

// Order type labels carried on events.
const (
	TypeGrocery = "grocery"
	TypeRestock = "restock"
)

// Event describes one resolved order request.
type Event struct {
	Timestamp      time.Time `json:"timestamp"`
	OrderID        string    `json:"order_id"`
	OrderType      string    `json:"order_type"`
	Status         string    `json:"status"`
	LatencySeconds float64   `json:"latency_seconds"`
}

// Broadcaster is the slice of the hub the publisher needs.
type Broadcaster interface {
	Publish(topic string, payload []byte)
}

// Publisher emits order events onto the broadcast channel. A nil Publisher is
// valid and emits nothing, so telemetry stays optional for callers.
type Publisher struct {
	bc Broadcaster
}

// NewPublisher wraps a broadcaster.
func NewPublisher(bc Broadcaster) *Publisher {
	return &Publisher{bc: bc}
}

// Emit publishes the event. Failures are swallowed: the event stream is
// best-effort by contract.
func (p *Publisher) Emit(ev Event) {
	if p == nil || p.bc == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	p.bc.Publish(Topic, payload)
}

// Stats accumulates counters over observed events.
type Stats struct {
	TotalRequests   int
	GroceryOrders   int
	RestockOrders   int
	OKCount         int
	BadRequestCount int
	TotalLatency    float64
}

// MeanLatency returns the average latency in seconds, or zero with no data.
func (s Stats) MeanLatency() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return s.TotalLatency / float64(s.TotalRequests)
}

// Aggregator folds events into running stats. Safe for concurrent use.
type Aggregator struct {
	mu    sync.Mutex
	stats Stats
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Observe folds one event into the counters.
func (a *Aggregator) Observe(ev Event) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stats.TotalRequests++
	a.stats.TotalLatency += ev.LatencySeconds
	switch ev.OrderType {
	case TypeGrocery:
		a.stats.GroceryOrders++
	case TypeRestock:
		a.stats.RestockOrders++
	}
	if ev.Status == "OK" {
		a.stats.OKCount++
	} else {
		a.stats.BadRequestCount++
	}
}

// Stats returns a copy of the current counters.
func (a *Aggregator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// CSVHeader is the column layout for persisted events.
func CSVHeader() []string {
	return []string{"timestamp", "order_id", "order_type", "status", "latency_seconds"}
}

// CSVRow renders the event as one CSV record.
func (ev Event) CSVRow() []string {
	return []string{
		ev.Timestamp.Format(time.RFC3339),
		ev.OrderID,
		ev.OrderType,
		ev.Status,
		strconv.FormatFloat(ev.LatencySeconds, 'f', 6, 64),
	}
}

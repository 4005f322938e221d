// Package worker implements the aisle robot: it consumes broadcast dispatch
// messages, performs simulated fetch/restock work for its own aisle, and
// reports back to the coordinator.
//
// Each incoming dispatch is processed in its own goroutine; workers apply no
// queueing or backpressure. A worker acknowledges every dispatch it sees, including
// ones with no items for its aisle: the coordinator waits for the whole
// fleet, so a silent worker would time out every order.
package worker

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/dreamware/grocerfleet/internal/fleet"
)

// Default simulated work durations, one per distinct item plus one delivery
// trip per non-empty order.
const (
	DefaultPerItem = 500 * time.Millisecond
	DefaultDeliver = 1 * time.Second
)

// Config describes one aisle worker.
type Config struct {
	Aisle     string        // required, one of fleet.Aisles
	RobotID   string        // defaults to "robot_<aisle>"
	ReportURL string        // coordinator report endpoint, required
	PerItem   time.Duration // simulated work per distinct item
	Deliver   time.Duration // simulated delivery-to-cart time
}

// Worker processes dispatches for a single aisle.
type Worker struct {
	cfg Config
	wg  sync.WaitGroup
}

// New validates the config and builds a worker.
func New(cfg Config) (*Worker, error) {
	if !fleet.ValidAisle(cfg.Aisle) {
		return nil, fmt.Errorf("worker: unknown aisle %q (valid: %s)",
			cfg.Aisle, strings.Join(fleet.Aisles, ", "))
	}
	if cfg.ReportURL == "" {
		return nil, fmt.Errorf("worker: report URL required")
	}
	if cfg.RobotID == "" {
		cfg.RobotID = "robot_" + cfg.Aisle
	}
	if cfg.PerItem <= 0 {
		cfg.PerItem = DefaultPerItem
	}
	if cfg.Deliver <= 0 {
		cfg.Deliver = DefaultDeliver
	}
	return &Worker{cfg: cfg}, nil
}

// RobotID returns the worker's fleet identity.
func (w *Worker) RobotID() string { return w.cfg.RobotID }

// Handle consumes one broadcast frame. It matches hub.Handler and returns
// immediately; the work and the report happen in a fresh goroutine.
func (w *Worker) Handle(_ string, payload []byte) {
	msg, err := fleet.DecodeDispatch(payload)
	if err != nil {
		log.Printf("[%s] dropping undecodable dispatch: %v", w.cfg.RobotID, err)
		return
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.process(msg)
	}()
}

// Wait blocks until every in-flight dispatch has been processed. Tests and
// shutdown only.
func (w *Worker) Wait() { w.wg.Wait() }

func (w *Worker) process(msg fleet.DispatchMessage) {
	items := msg.ItemsFor(w.cfg.Aisle)

	ack := fleet.Acknowledgement{
		OrderID:   msg.OrderID,
		RequestID: msg.RequestID,
		RobotID:   w.cfg.RobotID,
		Aisle:     w.cfg.Aisle,
		Status:    fleet.StatusOK,
	}

	if len(items) > 0 {
		workTime := time.Duration(len(items)) * w.cfg.PerItem
		log.Printf("[%s] %s order %s: %d item(s), working %s",
			w.cfg.RobotID, msg.Action, msg.OrderID, len(items), workTime)
		time.Sleep(workTime)
		time.Sleep(w.cfg.Deliver)

		for _, item := range items {
			ack.ItemsHandled = append(ack.ItemsHandled, fleet.HandledItem{
				Name:              item.Name,
				QuantityRequested: item.Quantity,
				QuantityFulfilled: item.Quantity,
			})
		}
		ack.Message = fmt.Sprintf("%s complete for %s", msg.Action, w.cfg.Aisle)
	} else {
		log.Printf("[%s] %s order %s: no items for aisle %q, acknowledging no-op",
			w.cfg.RobotID, msg.Action, msg.OrderID, w.cfg.Aisle)
		ack.Message = fmt.Sprintf("no items for %s, no-op", w.cfg.Aisle)
	}

	w.report(ack)
}

func (w *Worker) report(ack fleet.Acknowledgement) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var reply fleet.ReportAck
	if err := fleet.PostJSON(ctx, w.cfg.ReportURL, ack, &reply); err != nil {
		log.Printf("[%s] report for order %s failed: %v", w.cfg.RobotID, ack.OrderID, err)
		return
	}
	log.Printf("[%s] coordinator ack: %s", w.cfg.RobotID, reply.Message)
}

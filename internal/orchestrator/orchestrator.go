package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/dreamware/grocerfleet/internal/fleet"
	"github.com/dreamware/grocerfleet/internal/ledger"
	"github.com/dreamware/grocerfleet/internal/rendezvous"
	"github.com/dreamware/grocerfleet/internal/telemetry"
)

// TopicOrders is the broadcast topic dispatch messages are published on.
const TopicOrders = "orders"

// Broadcaster is the slice of the hub the orchestrator needs: a non-blocking,
// best-effort publish.
type Broadcaster interface {
	Publish(topic string, payload []byte)
}

// Pricer computes the total for one order's fulfilled items.
type Pricer interface {
	Price(ctx context.Context, orderID string, items []fleet.HandledItem) (float64, error)
}

// Config carries the orchestration constants.
type Config struct {
	// FleetSize is both the number of configured aisle workers and the
	// quorum size an order must reach. The two are the same number by
	// design; a worker with no items for an order still acknowledges it.
	FleetSize int

	// QuorumTimeout bounds how long one order waits for its quorum.
	QuorumTimeout time.Duration
}

// Orchestrator drives the order state machine. Collaborators are injected so
// tests can assemble fresh instances; the orchestrator owns no global state.
type Orchestrator struct {
	ledger    *ledger.Ledger
	tracker   *rendezvous.Tracker
	broadcast Broadcaster
	pricer    Pricer
	events    *telemetry.Publisher
	cfg       Config
}

// New assembles an orchestrator. A zero FleetSize defaults to the five fixed
// aisles; a zero QuorumTimeout defaults to ten seconds.
func New(ld *ledger.Ledger, tr *rendezvous.Tracker, bc Broadcaster, pr Pricer, cfg Config) *Orchestrator {
	if cfg.FleetSize <= 0 {
		cfg.FleetSize = len(fleet.Aisles)
	}
	if cfg.QuorumTimeout <= 0 {
		cfg.QuorumTimeout = 10 * time.Second
	}
	return &Orchestrator{
		ledger:    ld,
		tracker:   tr,
		broadcast: bc,
		pricer:    pr,
		cfg:       cfg,
	}
}

// SetEvents attaches the fire-and-forget telemetry publisher. Optional; a nil
// publisher emits nothing.
func (o *Orchestrator) SetEvents(p *telemetry.Publisher) {
	o.events = p
}

// ProcessGroceryOrder runs the FETCH flow: reserve stock, broadcast the
// dispatch, wait for the fleet, price the fulfilled items. The returned error
// is nil exactly when the response status is OK; handlers map it to an HTTP
// status with HTTPStatus.
func (o *Orchestrator) ProcessGroceryOrder(ctx context.Context, req fleet.OrderRequest) (fleet.OrderResponse, error) {
	start := time.Now()
	resp, err := o.processGrocery(ctx, req)
	o.emit(telemetry.TypeGrocery, resp, start)
	return resp, err
}

// ProcessRestockOrder runs the RESTOCK flow: apply the stock increase, then
// broadcast and wait. The ledger mutation happens before dispatch and is
// never compensated, even when the quorum later times out.
func (o *Orchestrator) ProcessRestockOrder(ctx context.Context, req fleet.OrderRequest) (fleet.OrderResponse, error) {
	start := time.Now()
	resp, err := o.processRestock(ctx, req)
	o.emit(telemetry.TypeRestock, resp, start)
	return resp, err
}

// ReportResult ingests one worker acknowledgement. Reports for unknown or
// already-resolved orders are accepted silently so late workers never error.
func (o *Orchestrator) ReportResult(ack fleet.Acknowledgement) fleet.ReportAck {
	o.tracker.Record(ack.OrderID, ack.RobotID, ack)
	return fleet.ReportAck{
		Status:  fleet.StatusOK,
		Message: fmt.Sprintf("received result from %s", ack.RobotID),
	}
}

func (o *Orchestrator) processGrocery(ctx context.Context, req fleet.OrderRequest) (fleet.OrderResponse, error) {
	if err := validate(req); err != nil {
		return badRequest("", err), err
	}

	granted, any := o.ledger.Reserve(req.Items)
	if !any {
		// Nothing reservable: no order id, no dispatch, nothing to track.
		return badRequest("", ErrNoStock), ErrNoStock
	}

	orderID := uuid.NewString()
	acks, complete := o.dispatchAndAwait(orderID, req.RequesterID, fleet.ActionFetch, granted)
	if !complete {
		o.ledger.Rollback(granted)
		log.Printf("order %s: quorum timeout after %s, reservation rolled back",
			orderID, o.cfg.QuorumTimeout)
		return badRequest(orderID, ErrQuorumTimeout), ErrQuorumTimeout
	}

	fulfilled := aggregateFulfilled(req.Items, acks)
	total, err := o.pricer.Price(ctx, orderID, handledItems(acks))
	if err != nil {
		// Fulfillment already happened; the reservation stands. The failure
		// surfaces as a generic upstream fault.
		err = fmt.Errorf("%w: %v", ErrPricing, err)
		log.Printf("order %s: %v", orderID, err)
		return badRequest(orderID, ErrPricing), err
	}

	return fleet.OrderResponse{
		Status:         fleet.StatusOK,
		Message:        "order processed successfully",
		OrderID:        orderID,
		ItemsFulfilled: fulfilled,
		TotalPrice:     total,
	}, nil
}

func (o *Orchestrator) processRestock(ctx context.Context, req fleet.OrderRequest) (fleet.OrderResponse, error) {
	if err := validate(req); err != nil {
		return badRequest("", err), err
	}

	// Restock mutates the ledger up front with the raw requested quantities.
	o.ledger.Restock(req.Items)

	orderID := uuid.NewString()
	acks, complete := o.dispatchAndAwait(orderID, req.RequesterID, fleet.ActionRestock, req.Items)
	if !complete {
		// Intentionally no compensation: the shelves keep the new stock even
		// though the fleet never confirmed shelving it.
		log.Printf("order %s: restock quorum timeout, stock increase kept", orderID)
		return badRequest(orderID, ErrQuorumTimeout), ErrQuorumTimeout
	}

	return fleet.OrderResponse{
		Status:         fleet.StatusOK,
		Message:        "restock processed successfully",
		OrderID:        orderID,
		ItemsFulfilled: aggregateFulfilled(req.Items, acks),
		TotalPrice:     0,
	}, nil
}

// dispatchAndAwait registers the order, broadcasts its dispatch, and blocks
// until quorum or deadline. Begin happens before Publish so no report can
// outrun the tracker bucket.
func (o *Orchestrator) dispatchAndAwait(orderID, requestID string, action fleet.Action, itemsByAisle map[string][]fleet.Item) ([]fleet.Acknowledgement, bool) {
	o.tracker.Begin(orderID)

	msg := fleet.BuildDispatch(orderID, requestID, action, itemsByAisle)
	payload, err := fleet.EncodeDispatch(msg)
	if err != nil {
		// Marshal of these fixed types cannot fail on valid input; treat it
		// as an empty dispatch and let the quorum wait resolve the order.
		log.Printf("order %s: encode dispatch: %v", orderID, err)
	} else {
		o.broadcast.Publish(TopicOrders, payload)
	}

	return o.tracker.Await(orderID, o.cfg.FleetSize, o.cfg.QuorumTimeout)
}

func (o *Orchestrator) emit(orderType string, resp fleet.OrderResponse, start time.Time) {
	o.events.Emit(telemetry.Event{
		Timestamp:      time.Now(),
		OrderID:        resp.OrderID,
		OrderType:      orderType,
		Status:         resp.Status,
		LatencySeconds: time.Since(start).Seconds(),
	})
}

// validate rejects orders before any mutation: there must be at least one
// item, every aisle must be real, and every quantity positive.
func validate(req fleet.OrderRequest) error {
	total := 0
	for aisle, items := range req.Items {
		if !fleet.ValidAisle(aisle) {
			return fmt.Errorf("%w: unknown aisle %q", ErrInvalidItem, aisle)
		}
		for _, item := range items {
			if item.Name == "" {
				return fmt.Errorf("%w: empty item name in aisle %s", ErrInvalidItem, aisle)
			}
			if item.Quantity <= 0 {
				return fmt.Errorf("%w: non-positive quantity %d for %q", ErrInvalidItem, item.Quantity, item.Name)
			}
			total++
		}
	}
	if total == 0 {
		return ErrEmptyOrder
	}
	return nil
}

// aggregateFulfilled joins the originally requested quantities with the
// quantities the fleet reported handling, in the deterministic aisle-then-
// request order. Items the fleet never saw (zero grant) report zero
// fulfilled.
func aggregateFulfilled(requested map[string][]fleet.Item, acks []fleet.Acknowledgement) []fleet.FulfilledItem {
	handled := make(map[string]int)
	for _, ack := range acks {
		for _, item := range ack.ItemsHandled {
			handled[item.Name] += item.QuantityFulfilled
		}
	}

	var out []fleet.FulfilledItem
	index := make(map[string]int)
	for _, aisle := range fleet.Aisles {
		for _, item := range requested[aisle] {
			if i, dup := index[item.Name]; dup {
				// Duplicate request lines collapse into one entry.
				out[i].QuantityRequested += item.Quantity
				continue
			}
			index[item.Name] = len(out)
			out = append(out, fleet.FulfilledItem{
				Name:              item.Name,
				QuantityRequested: item.Quantity,
				QuantityFulfilled: handled[item.Name],
			})
		}
	}
	return out
}

// handledItems flattens every acknowledged item for the pricing call.
func handledItems(acks []fleet.Acknowledgement) []fleet.HandledItem {
	var items []fleet.HandledItem
	for _, ack := range acks {
		items = append(items, ack.ItemsHandled...)
	}
	return items
}

func badRequest(orderID string, err error) fleet.OrderResponse {
	return fleet.OrderResponse{
		Status:  fleet.StatusBadRequest,
		Message: err.Error(),
		OrderID: orderID,
	}
}

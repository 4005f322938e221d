package fleet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/exp/slices"
)

// The closed set of aisle names. One worker is responsible for each aisle,
// and the quorum size equals the number of configured workers.
const (
	AisleBread   = "bread"
	AisleDairy   = "dairy"
	AisleMeat    = "meat"
	AisleProduce = "produce"
	AisleParty   = "party"
)

// Aisles lists every valid aisle in broadcast order. The order is part of the
// wire contract: dispatch messages group items by aisle in this sequence.
var Aisles = []string{AisleBread, AisleDairy, AisleMeat, AisleProduce, AisleParty}

// ValidAisle reports whether name is a member of the closed aisle set.
func ValidAisle(name string) bool {
	return slices.Contains(Aisles, name)
}

// Action identifies what the workers should do with a dispatched order.
type Action string

const (
	// ActionFetch asks workers to pick reserved items for a grocery order.
	ActionFetch Action = "FETCH"
	// ActionRestock asks workers to shelve incoming supplier stock.
	ActionRestock Action = "RESTOCK"
)

// Response statuses carried on the order and report surfaces.
const (
	StatusOK         = "OK"
	StatusBadRequest = "BAD_REQUEST"
)

// Item is a single catalog entry with a quantity, used both in inbound order
// requests and in the broadcast dispatch payload.
type Item struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// AisleGroup is one aisle's slice of a dispatched order. Aisles with no items
// for the order are omitted from the dispatch entirely.
type AisleGroup struct {
	Aisle string `json:"aisle"`
	Items []Item `json:"items"`
}

// DispatchMessage is the single broadcast sent to all workers for one order.
// For FETCH orders the quantities are the granted (reserved) amounts; for
// RESTOCK orders they are the raw requested amounts.
type DispatchMessage struct {
	OrderID     string       `json:"order_id"`
	RequestID   string       `json:"request_id"`
	Action      Action       `json:"action_type"`
	AisleGroups []AisleGroup `json:"aisle_groups"`
}

// HandledItem reports one item a worker processed. Workers never short an
// order, so fulfilled always equals requested in practice.
type HandledItem struct {
	Name              string `json:"name"`
	QuantityRequested int    `json:"quantity_requested"`
	QuantityFulfilled int    `json:"quantity_fulfilled"`
}

// Acknowledgement is a worker's point-to-point report for one order. Every
// worker sends exactly one, even when its aisle had no items (a no-op ack),
// because the coordinator waits for the full fleet.
type Acknowledgement struct {
	OrderID      string        `json:"order_id"`
	RequestID    string        `json:"request_id"`
	RobotID      string        `json:"robot_id"`
	Aisle        string        `json:"aisle"`
	Status       string        `json:"status"`
	Message      string        `json:"message"`
	ItemsHandled []HandledItem `json:"items_handled"`
}

// ReportAck is the coordinator's reply to a worker report.
type ReportAck struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// OrderRequest is an inbound grocery or restock order, keyed by aisle name.
type OrderRequest struct {
	RequesterID string            `json:"requester_id"`
	Items       map[string][]Item `json:"items"`
}

// FulfilledItem pairs the originally requested quantity with the quantity the
// fleet actually handled. Partial fulfillment is a normal outcome, not an
// error.
type FulfilledItem struct {
	Name              string `json:"name"`
	QuantityRequested int    `json:"quantity_requested"`
	QuantityFulfilled int    `json:"quantity_fulfilled"`
}

// OrderResponse is the terminal result of one orchestration call.
type OrderResponse struct {
	Status         string          `json:"status"`
	Message        string          `json:"message"`
	OrderID        string          `json:"order_id,omitempty"`
	ItemsFulfilled []FulfilledItem `json:"items_fulfilled,omitempty"`
	TotalPrice     float64         `json:"total_price"`
}

var httpClient = &http.Client{Timeout: 5 * time.Second}

// PostJSON posts body as JSON to url and, when out is non-nil, decodes the
// response body into it.
func PostJSON(ctx context.Context, url string, body any, out any) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %s: %d", url, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GetJSON fetches url and decodes the JSON response into out.
func GetJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %s: %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Package pricing implements the downstream pricing collaborator: a fixed
// catalog price table, the HTTP handler that serves it, and the client the
// coordinator uses to call it. Pricing is pure and stateless; the same
// items always produce the same total.
package pricing

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/dreamware/grocerfleet/internal/fleet"
)

// Unit prices for the fixed catalog. Money math is done in decimal so
// repeated additions cannot accumulate float error; the wire total stays
// float64 per the external schema.
var unitPrices = map[string]decimal.Decimal{
	"white_bread":  decimal.NewFromFloat(3.99),
	"wheat_bread":  decimal.NewFromFloat(5.99),
	"bagels":       decimal.NewFromFloat(4.99),
	"waffles":      decimal.NewFromFloat(4.99),
	"croissants":   decimal.NewFromFloat(3.00),
	"baguette":     decimal.NewFromFloat(3.00),
	"milk":         decimal.NewFromFloat(3.00),
	"cheese":       decimal.NewFromFloat(4.99),
	"yogurt":       decimal.NewFromFloat(3.99),
	"butter":       decimal.NewFromFloat(2.00),
	"cream":        decimal.NewFromFloat(2.99),
	"eggs":         decimal.NewFromFloat(3.99),
	"chicken":      decimal.NewFromFloat(10.00),
	"beef":         decimal.NewFromFloat(11.99),
	"pork":         decimal.NewFromFloat(6.99),
	"turkey":       decimal.NewFromFloat(8.00),
	"fish":         decimal.NewFromFloat(10.99),
	"lamb":         decimal.NewFromFloat(11.99),
	"tomatoes":     decimal.NewFromFloat(2.99),
	"onions":       decimal.NewFromFloat(1.49),
	"apples":       decimal.NewFromFloat(1.99),
	"oranges":      decimal.NewFromFloat(2.49),
	"bananas":      decimal.NewFromFloat(0.99),
	"lettuce":      decimal.NewFromFloat(1.99),
	"carrots":      decimal.NewFromFloat(1.49),
	"potatoes":     decimal.NewFromFloat(2.99),
	"soda":         decimal.NewFromFloat(1.99),
	"paper_plates": decimal.NewFromFloat(3.99),
	"napkins":      decimal.NewFromFloat(2.49),
	"cups":         decimal.NewFromFloat(2.99),
	"balloons":     decimal.NewFromFloat(4.99),
	"streamers":    decimal.NewFromFloat(3.49),
}

// Request is the pricing call payload: the order id for traceability and the
// fulfilled items to price.
type Request struct {
	OrderID string              `json:"order_id"`
	Items   []fleet.HandledItem `json:"items"`
}

// Response carries the computed total.
type Response struct {
	Status     string  `json:"status"`
	TotalPrice float64 `json:"total_price"`
}

// Table prices fulfilled items against the fixed catalog.
type Table struct {
	prices map[string]decimal.Decimal
}

// NewTable returns the catalog price table.
func NewTable() *Table {
	return &Table{prices: unitPrices}
}

// Total sums unit price times fulfilled quantity over items. An unknown item
// name is a caller contract violation (the catalog is closed) and returns an
// error.
func (t *Table) Total(items []fleet.HandledItem) (float64, error) {
	total := decimal.Zero
	for _, item := range items {
		price, ok := t.prices[item.Name]
		if !ok {
			return 0, fmt.Errorf("no price for item %q", item.Name)
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(item.QuantityFulfilled))))
	}
	return total.InexactFloat64(), nil
}

// Known reports whether the table carries a price for item.
func (t *Table) Known(item string) bool {
	_, ok := t.prices[item]
	return ok
}

// Handler serves POST /price requests against the table.
func (t *Table) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}

		total, err := t.Total(req.Items)
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			log.Printf("pricing: order %s: %v", req.OrderID, err)
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(Response{Status: fleet.StatusBadRequest})
			return
		}
		_ = json.NewEncoder(w).Encode(Response{Status: fleet.StatusOK, TotalPrice: total})
	}
}

package pricing

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dreamware/grocerfleet/internal/fleet"
)

func TestTotal(t *testing.T) {
	table := NewTable()

	t.Run("sums unit price times fulfilled quantity", func(t *testing.T) {
		total, err := table.Total([]fleet.HandledItem{
			{Name: "milk", QuantityRequested: 2, QuantityFulfilled: 2},
			{Name: "bananas", QuantityRequested: 3, QuantityFulfilled: 3},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// 2*3.00 + 3*0.99
		if math.Abs(total-8.97) > 1e-9 {
			t.Errorf("expected 8.97, got %v", total)
		}
	})

	t.Run("prices fulfilled quantity not requested", func(t *testing.T) {
		total, err := table.Total([]fleet.HandledItem{
			{Name: "milk", QuantityRequested: 150, QuantityFulfilled: 100},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(total-300.0) > 1e-9 {
			t.Errorf("expected 300.00, got %v", total)
		}
	})

	t.Run("empty items cost nothing", func(t *testing.T) {
		total, err := table.Total(nil)
		if err != nil || total != 0 {
			t.Errorf("expected 0 total, got %v (err %v)", total, err)
		}
	})

	t.Run("unknown item is an error", func(t *testing.T) {
		if _, err := table.Total([]fleet.HandledItem{{Name: "pinata", QuantityFulfilled: 1}}); err == nil {
			t.Error("expected error for unknown item")
		}
	})

	t.Run("repeated additions stay exact", func(t *testing.T) {
		items := make([]fleet.HandledItem, 100)
		for i := range items {
			items[i] = fleet.HandledItem{Name: "bananas", QuantityFulfilled: 1}
		}
		total, err := table.Total(items)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if total != 99.0 {
			t.Errorf("expected exactly 99.00, got %v", total)
		}
	})
}

func TestHandlerAndClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/price" {
			http.NotFound(w, r)
			return
		}
		NewTable().Handler()(w, r)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)

	t.Run("round trip", func(t *testing.T) {
		total, err := client.Price(context.Background(), "o1", []fleet.HandledItem{
			{Name: "cups", QuantityRequested: 5, QuantityFulfilled: 5},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(total-14.95) > 1e-9 {
			t.Errorf("expected 14.95, got %v", total)
		}
	})

	t.Run("unknown item surfaces as error", func(t *testing.T) {
		if _, err := client.Price(context.Background(), "o2", []fleet.HandledItem{
			{Name: "pinata", QuantityFulfilled: 1},
		}); err == nil {
			t.Error("expected error from pricing service")
		}
	})
}

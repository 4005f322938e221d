package ledger

import (
	"sync"
	"testing"

	"github.com/dreamware/grocerfleet/internal/fleet"
)

// TestReserve tests reservation semantics
func TestReserve(t *testing.T) {
	t.Run("grants full amount when stock suffices", func(t *testing.T) {
		l := New(map[string]int{"milk": 10})

		granted, any := l.Reserve(map[string][]fleet.Item{
			fleet.AisleDairy: {{Name: "milk", Quantity: 4}},
		})

		if !any {
			t.Fatal("expected a grant")
		}
		if got := granted[fleet.AisleDairy][0].Quantity; got != 4 {
			t.Errorf("expected grant of 4, got %d", got)
		}
		if l.Peek("milk") != 6 {
			t.Errorf("expected 6 remaining, got %d", l.Peek("milk"))
		}
	})

	t.Run("grants partial amount when stock is short", func(t *testing.T) {
		l := New(map[string]int{"milk": 100})

		granted, any := l.Reserve(map[string][]fleet.Item{
			fleet.AisleDairy: {{Name: "milk", Quantity: 150}},
		})

		if !any {
			t.Fatal("expected a grant")
		}
		if got := granted[fleet.AisleDairy][0].Quantity; got != 100 {
			t.Errorf("expected grant of 100, got %d", got)
		}
		if l.Peek("milk") != 0 {
			t.Errorf("expected stock drained to 0, got %d", l.Peek("milk"))
		}
	})

	t.Run("omits zero grants and empty aisles", func(t *testing.T) {
		l := New(map[string]int{"milk": 5, "eggs": 0})

		granted, any := l.Reserve(map[string][]fleet.Item{
			fleet.AisleDairy: {{Name: "milk", Quantity: 2}, {Name: "eggs", Quantity: 12}},
			fleet.AisleMeat:  {{Name: "chicken", Quantity: 1}},
		})

		if !any {
			t.Fatal("expected a grant")
		}
		if len(granted[fleet.AisleDairy]) != 1 {
			t.Errorf("expected only milk granted in dairy, got %+v", granted[fleet.AisleDairy])
		}
		if _, exists := granted[fleet.AisleMeat]; exists {
			t.Errorf("expected meat aisle omitted, got %+v", granted[fleet.AisleMeat])
		}
	})

	t.Run("any is false only when nothing granted", func(t *testing.T) {
		l := New(map[string]int{"eggs": 0})

		granted, any := l.Reserve(map[string][]fleet.Item{
			fleet.AisleDairy: {{Name: "eggs", Quantity: 12}},
		})

		if any {
			t.Error("expected any=false for fully unavailable order")
		}
		if len(granted) != 0 {
			t.Errorf("expected empty grant map, got %+v", granted)
		}
	})

	t.Run("unknown item reads as zero stock", func(t *testing.T) {
		l := New(nil)

		_, any := l.Reserve(map[string][]fleet.Item{
			fleet.AisleParty: {{Name: "pinata", Quantity: 1}},
		})

		if any {
			t.Error("unknown item should grant nothing")
		}
	})

	t.Run("duplicate names draw down the same row", func(t *testing.T) {
		l := New(map[string]int{"soda": 10})

		granted, _ := l.Reserve(map[string][]fleet.Item{
			fleet.AisleParty: {{Name: "soda", Quantity: 8}, {Name: "soda", Quantity: 8}},
		})

		total := 0
		for _, item := range granted[fleet.AisleParty] {
			total += item.Quantity
		}
		if total != 10 {
			t.Errorf("expected total grant of 10 across duplicates, got %d", total)
		}
		if l.Peek("soda") != 0 {
			t.Errorf("expected 0 remaining, got %d", l.Peek("soda"))
		}
	})
}

// TestRestock tests stock increments
func TestRestock(t *testing.T) {
	t.Run("adds to existing rows", func(t *testing.T) {
		l := New(map[string]int{"cups": 5})

		l.Restock(map[string][]fleet.Item{
			fleet.AisleParty: {{Name: "cups", Quantity: 20}},
		})

		if l.Peek("cups") != 25 {
			t.Errorf("expected 25, got %d", l.Peek("cups"))
		}
	})

	t.Run("creates unknown rows", func(t *testing.T) {
		l := New(nil)

		l.Restock(map[string][]fleet.Item{
			fleet.AisleParty: {{Name: "confetti", Quantity: 7}},
		})

		if l.Peek("confetti") != 7 {
			t.Errorf("expected 7, got %d", l.Peek("confetti"))
		}
	})
}

// TestRollback tests that compensation restores exactly the granted amounts
func TestRollback(t *testing.T) {
	l := New(map[string]int{"bananas": 50})

	granted, any := l.Reserve(map[string][]fleet.Item{
		fleet.AisleProduce: {{Name: "bananas", Quantity: 80}},
	})
	if !any {
		t.Fatal("expected a grant")
	}
	if l.Peek("bananas") != 0 {
		t.Fatalf("expected stock drained, got %d", l.Peek("bananas"))
	}

	// Rolling back the grant must restore the original stock, not the
	// requested amount.
	l.Rollback(granted)
	if l.Peek("bananas") != 50 {
		t.Errorf("expected 50 after rollback, got %d", l.Peek("bananas"))
	}
}

// TestConcurrentReservations tests that concurrent mutations never lose
// updates or drive stock negative
func TestConcurrentReservations(t *testing.T) {
	const initial = 1000
	l := New(map[string]int{"milk": initial})

	var wg sync.WaitGroup
	var mu sync.Mutex
	totalGranted := 0

	// 50 goroutines each try to reserve 30 units; total demand exceeds stock.
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			granted, any := l.Reserve(map[string][]fleet.Item{
				fleet.AisleDairy: {{Name: "milk", Quantity: 30}},
			})
			if !any {
				return
			}
			mu.Lock()
			totalGranted += granted[fleet.AisleDairy][0].Quantity
			mu.Unlock()
		}()
	}
	wg.Wait()

	remaining := l.Peek("milk")
	if remaining < 0 {
		t.Fatalf("stock went negative: %d", remaining)
	}
	if totalGranted+remaining != initial {
		t.Errorf("conservation violated: granted %d + remaining %d != %d",
			totalGranted, remaining, initial)
	}
}

// TestConcurrentMixedOps tests conservation under reserve/restock/rollback mix
func TestConcurrentMixedOps(t *testing.T) {
	l := New(map[string]int{"apples": 500})

	var wg sync.WaitGroup
	var mu sync.Mutex
	netGranted := 0
	restocked := 0

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			granted, any := l.Reserve(map[string][]fleet.Item{
				fleet.AisleProduce: {{Name: "apples", Quantity: 40}},
			})
			if !any {
				return
			}
			// Half the reservations time out and compensate.
			if granted[fleet.AisleProduce][0].Quantity%2 == 1 {
				l.Rollback(granted)
				return
			}
			mu.Lock()
			netGranted += granted[fleet.AisleProduce][0].Quantity
			mu.Unlock()
		}()
		go func() {
			defer wg.Done()
			l.Restock(map[string][]fleet.Item{
				fleet.AisleProduce: {{Name: "apples", Quantity: 10}},
			})
			mu.Lock()
			restocked += 10
			mu.Unlock()
		}()
	}
	wg.Wait()

	want := 500 + restocked - netGranted
	if got := l.Peek("apples"); got != want {
		t.Errorf("conservation violated: got %d, want %d", got, want)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	l := New(map[string]int{"milk": 3})

	snap := l.Snapshot()
	snap["milk"] = 999

	if l.Peek("milk") != 3 {
		t.Error("snapshot mutation leaked into ledger")
	}
}

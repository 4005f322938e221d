// Package main implements the analytics collector: it subscribes to the
// coordinator's telemetry feed, appends each order event to a CSV log, and
// keeps running aggregates that it prints on shutdown.
//
// Configuration:
//   - COORDINATOR_ADDR: Coordinator base URL (required, e.g. "http://127.0.0.1:8080")
//   - ANALYTICS_CSV_PATH: Output CSV file (default: "orders.csv")
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dreamware/grocerfleet/internal/hub"
	"github.com/dreamware/grocerfleet/internal/telemetry"
)

func main() {
	coordinator := mustGetenv("COORDINATOR_ADDR")
	csvPath := getenv("ANALYTICS_CSV_PATH", "orders.csv")

	f, err := os.OpenFile(csvPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Fatalf("open %s: %v", csvPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		log.Fatalf("stat %s: %v", csvPath, err)
	}

	var mu sync.Mutex
	out := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := out.Write(telemetry.CSVHeader()); err != nil {
			log.Fatalf("write header: %v", err)
		}
		out.Flush()
	}

	agg := telemetry.NewAggregator()

	handle := func(_ string, payload []byte) {
		var ev telemetry.Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			log.Printf("discarding malformed event: %v", err)
			return
		}
		agg.Observe(ev)
		mu.Lock()
		defer mu.Unlock()
		if err := out.Write(ev.CSVRow()); err != nil {
			log.Printf("write row: %v", err)
			return
		}
		out.Flush()
		log.Printf("recorded %s order %s (%s, %.3fs)",
			ev.OrderType, ev.OrderID, ev.Status, ev.LatencySeconds)
	}

	sub, err := hub.NewSubscriber(coordinator, []string{telemetry.Topic}, handle)
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("analytics collector connected to %s, logging to %s", coordinator, csvPath)
		return sub.Run(ctx)
	})
	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Fatalf("analytics: %v", err)
	}

	stats := agg.Stats()
	log.Printf("analytics stopped: %d requests (%d grocery, %d restock; %d ok, %d rejected), mean latency %.3fs",
		stats.TotalRequests, stats.GroceryOrders, stats.RestockOrders,
		stats.OKCount, stats.BadRequestCount, stats.MeanLatency())
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustGetenv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("%s must be set", k)
	}
	return v
}

// Package main implements the grocerfleet coordinator, which owns the
// inventory ledger, collects worker acknowledgements, and orchestrates
// grocery/restock orders across the aisle worker fleet.
//
// Configuration:
//   - COORDINATOR_LISTEN: Listen address (default: ":8080")
//   - FLEET_SIZE: Number of aisle workers = quorum size (default: 5)
//   - QUORUM_TIMEOUT: Per-order wait deadline (default: "10s")
//   - PRICING_ADDR: Pricing service base URL (default: "http://127.0.0.1:8082")
//   - CATALOG_PATH: Optional YAML file with initial_stock (default: built-in catalog)
//
// Example usage:
//
//	# Start coordinator
//	FLEET_SIZE=5 QUORUM_TIMEOUT=10s ./coordinator
//
//	# Place an order (gateway surface)
//	curl -X POST localhost:8080/order/grocery \
//	  -d '{"requester_id":"customer_001","items":{"dairy":[{"name":"milk","quantity":2}]}}'
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dreamware/grocerfleet/internal/catalog"
	"github.com/dreamware/grocerfleet/internal/hub"
	"github.com/dreamware/grocerfleet/internal/ledger"
	"github.com/dreamware/grocerfleet/internal/orchestrator"
	"github.com/dreamware/grocerfleet/internal/pricing"
	"github.com/dreamware/grocerfleet/internal/rendezvous"
	"github.com/dreamware/grocerfleet/internal/telemetry"
)

func main() {
	listen := getenv("COORDINATOR_LISTEN", ":8080")
	fleetSize := getenvInt("FLEET_SIZE", 5)
	quorumTimeout := getenvDuration("QUORUM_TIMEOUT", 10*time.Second)
	pricingAddr := getenv("PRICING_ADDR", "http://127.0.0.1:8082")

	stock := catalog.Default()
	if path := os.Getenv("CATALOG_PATH"); path != "" {
		loaded, err := catalog.Load(path)
		if err != nil {
			log.Fatalf("load catalog: %v", err)
		}
		stock = loaded
		log.Printf("catalog loaded from %s (%d items)", path, len(stock))
	}

	broadcast := hub.New()
	ld := ledger.New(stock)
	orc := orchestrator.New(
		ld,
		rendezvous.NewTracker(),
		broadcast,
		pricing.NewClient(pricingAddr),
		orchestrator.Config{FleetSize: fleetSize, QuorumTimeout: quorumTimeout},
	)
	orc.SetEvents(telemetry.NewPublisher(broadcast))

	srv := orchestrator.NewServer(orc, ld, broadcast)

	httpSrv := &http.Server{
		Addr:              listen,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("coordinator listening on %s (fleet=%d, quorum timeout=%s)",
			listen, fleetSize, quorumTimeout)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
	broadcast.Close()
	log.Println("coordinator stopped")
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("%s: invalid integer %q", k, v)
	}
	return n
}

func getenvDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("%s: invalid duration %q", k, v)
	}
	return d
}

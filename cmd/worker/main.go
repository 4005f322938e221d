// Package main implements an aisle worker: a robot that subscribes to the
// coordinator's order feed, simulates picking the items that belong to its
// aisle, and reports the result back over HTTP.
//
// Configuration:
//   - WORKER_AISLE: Aisle this robot serves (required; one of bread, dairy, meat, produce, party)
//   - COORDINATOR_ADDR: Coordinator base URL (required, e.g. "http://127.0.0.1:8080")
//   - ROBOT_ID: Identity reported in acknowledgements (default: "robot_<aisle>")
//   - WORKER_LISTEN: Health endpoint listen address (default: ":0" disables)
//   - WORK_PER_ITEM: Simulated pick time per item (default: "500ms")
//   - WORK_DELIVER: Simulated delivery time per dispatch (default: "1s")
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dreamware/grocerfleet/internal/hub"
	"github.com/dreamware/grocerfleet/internal/orchestrator"
	"github.com/dreamware/grocerfleet/internal/worker"
)

func main() {
	aisle := mustGetenv("WORKER_AISLE")
	coordinator := mustGetenv("COORDINATOR_ADDR")
	listen := os.Getenv("WORKER_LISTEN")

	w, err := worker.New(worker.Config{
		Aisle:     aisle,
		RobotID:   os.Getenv("ROBOT_ID"),
		ReportURL: coordinator + "/fleet/report",
		PerItem:   getenvDuration("WORK_PER_ITEM", worker.DefaultPerItem),
		Deliver:   getenvDuration("WORK_DELIVER", worker.DefaultDeliver),
	})
	if err != nil {
		log.Fatalf("worker: %v", err)
	}

	sub, err := hub.NewSubscriber(coordinator, []string{orchestrator.TopicOrders}, w.Handle)
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("%s serving aisle %q, coordinator %s", w.RobotID(), aisle, coordinator)
		return sub.Run(ctx)
	})
	if listen != "" {
		srv := &http.Server{
			Addr:              listen,
			Handler:           healthMux(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutCancel()
			return srv.Shutdown(shutCtx)
		})
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Fatalf("worker: %v", err)
	}
	w.Wait()
	log.Printf("%s stopped", w.RobotID())
}

func healthMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("OK"))
	})
	return mux
}

func mustGetenv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("%s must be set", k)
	}
	return v
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

package orchestrator

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/dreamware/grocerfleet/internal/fleet"
	"github.com/dreamware/grocerfleet/internal/ledger"
)

// Server exposes the orchestrator's RPC surface over HTTP/JSON:
//
//	POST /order/grocery  - gateway-facing grocery order
//	POST /order/restock  - gateway-facing restock order
//	POST /fleet/report   - worker acknowledgement (point-to-point)
//	GET  /subscribe      - broadcast channel subscription (WebSocket)
//	GET  /stock/{item}   - read-only ledger peek (diagnostics)
//	GET  /health         - liveness
type Server struct {
	orc       *Orchestrator
	ledger    *ledger.Ledger
	subscribe http.Handler
}

// NewServer wires handlers around an orchestrator. subscribe is the broadcast
// hub's upgrade handler.
func NewServer(orc *Orchestrator, ld *ledger.Ledger, subscribe http.Handler) *Server {
	return &Server{orc: orc, ledger: ld, subscribe: subscribe}
}

// Routes returns the coordinator's request mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/order/grocery", s.handleGrocery)
	mux.HandleFunc("/order/restock", s.handleRestock)
	mux.HandleFunc("/fleet/report", s.handleReport)
	mux.Handle("/subscribe", s.subscribe)
	mux.HandleFunc("/stock/", s.handleStock)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

type processFunc func(ctx context.Context, req fleet.OrderRequest) (fleet.OrderResponse, error)

func (s *Server) handleGrocery(w http.ResponseWriter, r *http.Request) {
	s.handleOrder(w, r, s.orc.ProcessGroceryOrder)
}

func (s *Server) handleRestock(w http.ResponseWriter, r *http.Request) {
	s.handleOrder(w, r, s.orc.ProcessRestockOrder)
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request, process processFunc) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req fleet.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	resp, err := process(r.Context(), req)
	if err != nil {
		log.Printf("order from %q rejected: %v", req.RequesterID, err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(err))
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var ack fleet.Acknowledgement
	if err := json.NewDecoder(r.Body).Decode(&ack); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if ack.OrderID == "" || ack.RobotID == "" {
		http.Error(w, "missing order_id/robot_id", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.orc.ReportResult(ack))
}

func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	item := r.URL.Path[len("/stock/"):]
	if item == "" {
		http.Error(w, "item required", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Item     string `json:"item"`
		Quantity int    `json:"quantity"`
	}{Item: item, Quantity: s.ledger.Peek(item)})
}

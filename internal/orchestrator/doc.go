// Package orchestrator implements the order lifecycle that ties the inventory
// ledger, the rendezvous tracker, the broadcast hub, and the downstream
// pricing call into the two fleet flows.
//
// # Order lifecycle
//
//	grocery (FETCH):
//	  validate -> reserve -> dispatch -> await quorum -> price -> OK
//	                                  \-> timeout -> rollback -> BAD_REQUEST
//
//	restock (RESTOCK):
//	  validate -> restock -> dispatch -> await quorum -> OK
//	                                  \-> timeout -> BAD_REQUEST (stock kept)
//
// Each inbound order runs on its own goroutine (the HTTP handler's) and
// blocks only inside Await, which is always deadline-bounded. The quorum size
// is the configured fleet size, not the number of aisles carrying items:
// every worker acknowledges every dispatch, no-op or not, so the two numbers
// must agree with the set of running workers.
//
// # Compensation asymmetry
//
// A timed-out FETCH rolls its reservation back; a timed-out RESTOCK keeps the
// stock increase, and a pricing failure after quorum does not compensate
// either. Both asymmetries are deliberate and load-bearing for callers.
package orchestrator

// Package fleet defines the wire schema shared by the grocerfleet coordinator
// and the aisle workers, plus small HTTP helpers used on both sides.
//
// # Overview
//
// The fleet package is the contract between independently deployed processes:
// the coordinator broadcasts one DispatchMessage per accepted order to every
// worker, and each worker answers with exactly one Acknowledgement over the
// point-to-point report endpoint. Both message types, the order
// request/response pair exchanged with the upstream gateway, and the closed
// set of aisle names live here so that no process needs to import another
// process's internals.
//
// # Topology
//
//	              ┌──────────────┐
//	              │ Coordinator  │
//	              │              │
//	              │ - Ledger     │
//	              │ - Tracker    │
//	              │ - Broadcasts │
//	              └──────┬───────┘
//	          dispatch   │   ▲ acknowledgements
//	      ┌──────────────┼───┼──────────────┐
//	      │              │   │              │
//	┌─────▼─────┐  ┌─────▼───┴─┐      ┌─────▼─────┐
//	│  bread    │  │  dairy    │ ...  │  party    │
//	│  worker   │  │  worker   │      │  worker   │
//	└───────────┘  └───────────┘      └───────────┘
//
// # Wire stability
//
// The dispatch envelope and the acknowledgement are fixed external schemas:
// workers and the coordinator may be built and deployed independently, so
// field names and the aisle set must not change without coordinating both
// sides. Encoding is JSON; the codec in this package is the only place that
// builds or parses the broadcast payload.
package fleet

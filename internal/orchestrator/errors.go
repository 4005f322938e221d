package orchestrator

import (
	"errors"
	"net/http"
)

// Terminal order failures. None are retried internally; each maps to a
// BAD_REQUEST response except pricing, which is an upstream service fault.
var (
	ErrEmptyOrder    = errors.New("order contains no items")
	ErrInvalidItem   = errors.New("invalid order item")
	ErrNoStock       = errors.New("no items available")
	ErrQuorumTimeout = errors.New("timed out waiting for workers")
	ErrPricing       = errors.New("pricing failed")
)

// Kind maps an orchestration error to a stable label for logs and telemetry.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyOrder):
		return "empty_order"
	case errors.Is(err, ErrInvalidItem):
		return "invalid_item"
	case errors.Is(err, ErrNoStock):
		return "no_stock"
	case errors.Is(err, ErrQuorumTimeout):
		return "quorum_timeout"
	case errors.Is(err, ErrPricing):
		return "pricing"
	default:
		return "internal"
	}
}

// HTTPStatus maps an orchestration error to the HTTP status for the RPC
// surface.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, ErrEmptyOrder),
		errors.Is(err, ErrInvalidItem),
		errors.Is(err, ErrNoStock),
		errors.Is(err, ErrQuorumTimeout):
		return http.StatusBadRequest

	case errors.Is(err, ErrPricing):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

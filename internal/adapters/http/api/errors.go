package api

import (
	"errors"
	"net/http"

	service "github.com/okian/sentivision/internal/app"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrRateLimited = errors.New("rate limited")
)

// StatusFor maps a service error onto an HTTP status and a stable error code.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrAggregationUnavailable):
		return http.StatusServiceUnavailable, "aggregation_unavailable"
	case errors.Is(err, service.ErrExportFailed):
		return http.StatusInternalServerError, "export_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/sentivision/internal/domain/model"
	"github.com/okian/sentivision/internal/domain/scoring"
)

// Tiers reads the repeated tier query parameter. No valid selection means
// all tiers.
func Tiers(r *http.Request) scoring.TierSet {
	return scoring.ParseTiers(r.URL.Query()["tier"])
}

// Label reads the label query parameter. Unknown values mean any label.
func Label(r *http.Request) model.Label {
	return model.ParseLabel(r.URL.Query().Get("label"))
}

// PageParam reads a page number. Missing or malformed values mean page one.
func PageParam(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// PathID parses the {id} path value.
func PathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid id %q", ErrBadRequest, raw)
	}
	return id, nil
}

// OptionalID parses an optional positive integer query parameter.
func OptionalID(r *http.Request, key string) (*int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return nil, fmt.Errorf("%w: invalid %s %q", ErrBadRequest, key, raw)
	}
	return &id, nil
}

package service

import (
	"errors"
	"fmt"

	"github.com/okian/sentivision/internal/adapters/clientsfile"
	"github.com/okian/sentivision/internal/adapters/repository"
	"github.com/okian/sentivision/internal/domain/model"
)

// Sentinel kinds for service errors. Handlers map them onto status codes.
var (
	ErrAggregationUnavailable = errors.New("sentiment aggregation unavailable")
	ErrNotFound               = errors.New("not found")
	ErrConflict               = errors.New("conflict")
	ErrInvalidInput           = errors.New("invalid input")
	ErrExportFailed           = errors.New("clients file export failed")
)

var validationErrors = []error{ //nolint:gochecknoglobals // static list
	model.ErrNameRequired,
	model.ErrURLRequired,
	model.ErrInvalidType,
	model.ErrInvalidTier,
	model.ErrInvalidScope,
	model.ErrInvalidTagType,
	model.ErrInvalidColor,
	model.ErrKeywordsMissing,
	model.ErrClientRequired,
	clientsfile.ErrInvalid,
}

// classify wraps a store error with the matching service sentinel.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%s: %w: %w", op, ErrConflict, err)
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return fmt.Errorf("%s: %w: %w", op, ErrInvalidInput, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// unavailable marks a failed read of the aggregation snapshot.
func unavailable(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return classify(op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrAggregationUnavailable, err)
}

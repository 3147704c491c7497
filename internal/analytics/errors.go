package analytics

import (
	"errors"
	"net/http"

	"github.com/noah-isme/backend-sellerstats/internal/common"
	"github.com/noah-isme/backend-sellerstats/internal/repo"
	"github.com/noah-isme/backend-sellerstats/internal/sellerstats"
)

// toAppError maps service errors onto API error codes.
func toAppError(err error) *common.AppError {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var lookup *sellerstats.LookupError
	switch {
	case errors.Is(err, sellerstats.ErrInvalidInput):
		return common.NewAppError("INVALID_INPUT", err.Error(), http.StatusBadRequest, err)
	case errors.As(err, &lookup):
		return common.NewAppError("LOOKUP_FAILED", err.Error(), http.StatusUnprocessableEntity, err).
			WithDetails(map[string]any{"kind": lookup.Kind, "key": lookup.Key, "record": lookup.Record})
	case errors.Is(err, repo.ErrNotFound):
		return common.NewAppError("NOT_FOUND", "run not found", http.StatusNotFound, err)
	default:
		return common.NewAppError("ANALYTICS_ERROR", "analytics request failed", http.StatusInternalServerError, err)
	}
}

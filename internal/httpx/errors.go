package httpx

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"librarydesk/internal/platform/apperr"
)

// WriteError maps err to a status code and error envelope. Only validation,
// not-found and conflict messages reach the client; everything else is logged
// and answered with a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		JSONError(w, r, http.StatusRequestEntityTooLarge, CodeTooLarge, "Request body too large", nil)
		return
	}

	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		JSONError(w, r, http.StatusBadRequest, CodeValidation, apperr.Message(err), nil)
	case apperr.KindNotFound:
		JSONError(w, r, http.StatusNotFound, CodeNotFound, apperr.Message(err), nil)
	case apperr.KindConflict:
		JSONError(w, r, http.StatusConflict, CodeConflict, apperr.Message(err), nil)
	case apperr.KindIntegrity:
		LoggerFrom(r).Error("integrity error", zap.Bool("integrity", true), zap.Error(err))
		JSONError(w, r, http.StatusInternalServerError, CodeIntegrity, "Stored data is inconsistent, an operator has been notified", nil)
	default:
		LoggerFrom(r).Error("request failed", zap.Error(err))
		JSONError(w, r, http.StatusInternalServerError, CodeInternal, "Internal server error", nil)
	}
}

// PathID parses the {name} path value as a positive int64.
func PathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("%s must be a positive integer, got %q", name, raw)
	}
	return id, nil
}

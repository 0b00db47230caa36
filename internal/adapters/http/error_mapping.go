package httpadapter

import (
	"errors"
	"net/http"

	"github.com/kirillkom/document-classifier/internal/core/domain"
)

type errorResponse struct {
	Error     string `json:"error"`
	ErrorKind string `json:"error_kind"`
}

// mapErrorToHTTPStatus reports every pipeline failure, inference faults
// included, as 400. Only transport-level limits get their own status.
func mapErrorToHTTPStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func newErrorResponse(err error) errorResponse {
	return errorResponse{
		Error:     domain.ClientMessage(err),
		ErrorKind: string(domain.KindOf(err)),
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), newErrorResponse(err))
}

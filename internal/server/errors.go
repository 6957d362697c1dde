package server

import (
	"errors"
	"net/http"

	"vidfetch/internal/services"
)

const unexpectedErrorMessage = "An unexpected error occurred"

var statusByMarker = []struct {
	marker error
	status int
}{
	{services.ErrValidation, http.StatusBadRequest},
	{services.ErrPathEscape, http.StatusBadRequest},
	{services.ErrAccessDenied, http.StatusForbidden},
	{services.ErrNotFound, http.StatusNotFound},
	{services.ErrNoCaptions, http.StatusNotFound},
	{services.ErrConflict, http.StatusConflict},
	{services.ErrTimeout, http.StatusGatewayTimeout},
	{services.ErrUnsupported, http.StatusInternalServerError},
	{services.ErrUnavailable, http.StatusInternalServerError},
	{services.ErrExternalTool, http.StatusInternalServerError},
	{services.ErrParse, http.StatusInternalServerError},
	{services.ErrNoOutput, http.StatusInternalServerError},
	{services.ErrConfiguration, http.StatusInternalServerError},
}

// classify returns the HTTP status and client message for err. known is
// false for errors that carry no marker; those are reported generically.
func classify(err error) (status int, message string, known bool) {
	status = http.StatusInternalServerError
	for _, entry := range statusByMarker {
		if errors.Is(err, entry.marker) {
			status = entry.status
			known = true
			break
		}
	}
	if msg, ok := services.PublicMessage(err); ok && known {
		return status, msg, true
	}
	if !known || status == http.StatusInternalServerError {
		return status, unexpectedErrorMessage, known
	}
	return status, http.StatusText(status), true
}

package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"propdesk/pkg/apperror"
	"propdesk/pkg/logger"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Back  string `json:"back,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Sugar.Errorf("Failed to encode response: %v", err)
	}
}

// Error writes err as a JSON error body. Internal errors hide their cause.
func Error(w http.ResponseWriter, err error) {
	body := ErrorBody{Kind: string(apperror.KindInternal), Error: "Internal server error"}
	status := http.StatusInternalServerError

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		body.Kind = string(appErr.Kind)
		body.Back = appErr.Back
		switch appErr.Kind {
		case apperror.KindNotFound:
			status = http.StatusNotFound
			body.Error = appErr.Message
		case apperror.KindValidation:
			status = http.StatusBadRequest
			body.Error = appErr.Message
		case apperror.KindForbidden:
			status = http.StatusForbidden
			body.Error = appErr.Message
		case apperror.KindUpstream:
			status = http.StatusBadGateway
			body.Error = appErr.Message
		}
	}

	JSON(w, status, body)
}

// MethodNotAllowed reports whether the request method differs from method and,
// if so, writes the 405 response.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return false
	}
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	return true
}

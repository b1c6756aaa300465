package httpx

import (
	"encoding/json"
	"net/http"
)

const (
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeInternal           = "INTERNAL_SERVER_ERROR"
	CodeRateLimited        = "RATE_LIMIT_EXCEEDED"
	CodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// ErrorResponse has the shape of a GraphQL response without data, so
// clients handle transport failures the same way as resolver errors.
type ErrorResponse struct {
	Errors []ErrorBody `json:"errors"`
}

type ErrorBody struct {
	Message    string         `json:"message"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func JSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func JSONError(w http.ResponseWriter, r *http.Request, statusCode int, code string, message string) {
	ext := map[string]any{"code": code}
	if requestID := RequestIDFrom(r); requestID != "" {
		ext["request_id"] = requestID
	}
	JSON(w, statusCode, ErrorResponse{
		Errors: []ErrorBody{{Message: message, Extensions: ext}},
	})
}

// Package httpapi holds the shared HTTP response vocabulary of the
// control-plane API: RFC 7807 problem details and the JSON render helpers.
package httpapi

import (
	"encoding/json"
	"net/http"
)

// Problem type URIs, one per error class the API exposes.
const (
	ProblemTypeValidation = "https://nimbusdesk.com/problems/validation-error"
	ProblemTypeNotFound   = "https://nimbusdesk.com/problems/not-found"
	ProblemTypeConflict   = "https://nimbusdesk.com/problems/conflict"
	ProblemTypeForbidden  = "https://nimbusdesk.com/problems/forbidden"
	ProblemTypeInternal   = "https://nimbusdesk.com/problems/internal-error"
)

// ProblemDetails is the application/problem+json error body.
type ProblemDetails struct {
	Type   *string `json:"type,omitempty"`
	Title  string  `json:"title"`
	Status int     `json:"status"`
	Detail *string `json:"detail,omitempty"`
	Reason *string `json:"reason,omitempty"`
}

// NewProblem builds a ProblemDetails with optional detail and reason code.
func NewProblem(title string, status int, problemType, detail, reason string) ProblemDetails {
	problem := ProblemDetails{Title: title, Status: status}
	if problemType != "" {
		problem.Type = &problemType
	}
	if detail != "" {
		problem.Detail = &detail
	}
	if reason != "" {
		problem.Reason = &reason
	}
	return problem
}

// WriteProblem renders the problem with the application/problem+json type.
func WriteProblem(w http.ResponseWriter, problem ProblemDetails) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(problem.Status)
	_ = json.NewEncoder(w).Encode(problem)
}

// WriteJSON renders v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

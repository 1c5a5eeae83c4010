package main

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"
)

// APIResponse sets the standard headers and writes a JSON body.
type APIResponse struct {
	w          http.ResponseWriter
	provider   string
	retryAfter time.Duration
}

// Respond creates a response helper for w
func Respond(w http.ResponseWriter) *APIResponse {
	return &APIResponse{w: w}
}

// SetProvider sets the X-Provider header value
func (a *APIResponse) SetProvider(provider string) *APIResponse {
	a.provider = provider
	return a
}

// SetRetryAfter sets the Retry-After header, rounded up to whole seconds
// with a minimum of one.
func (a *APIResponse) SetRetryAfter(d time.Duration) *APIResponse {
	a.retryAfter = d
	return a
}

func (a *APIResponse) writeHeaders() {
	a.w.Header().Set("Content-Type", "application/json")
	if a.provider != "" {
		a.w.Header().Set("X-Provider", a.provider)
	}
	if a.retryAfter > 0 {
		secs := int(math.Ceil(a.retryAfter.Seconds()))
		if secs < 1 {
			secs = 1
		}
		a.w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
}

// JSON writes headers and encodes data as JSON (200 OK)
func (a *APIResponse) JSON(data interface{}) error {
	a.writeHeaders()
	return json.NewEncoder(a.w).Encode(data)
}

// Error writes headers and status and encodes {"error": message}
func (a *APIResponse) Error(statusCode int, message string) error {
	a.writeHeaders()
	a.w.WriteHeader(statusCode)
	return json.NewEncoder(a.w).Encode(errorResponse{Error: message})
}

// JSONStatus writes headers and status and encodes data as JSON
func (a *APIResponse) JSONStatus(statusCode int, data interface{}) error {
	a.writeHeaders()
	a.w.WriteHeader(statusCode)
	return json.NewEncoder(a.w).Encode(data)
}

package main

import (
	"strings"
)

const (
	defaultLanguage = "javascript"

	msgCodeRequired   = "Code is required"
	msgInvalidBody    = "Invalid request body"
	msgAnalyzeFailed  = "Failed to analyze submission"
	msgProviderAbsent = "No analysis provider configured"
)

// analyzeRequest is the body of POST /api/analyze. Fields are decoded loosely
// so that a non-string value is treated like a missing one.
type analyzeRequest struct {
	Code     interface{} `json:"code"`
	Language interface{} `json:"language"`
}

// normalized returns the trimmed code and language, with the language
// defaulted when absent.
func (r analyzeRequest) normalized() (code, language string) {
	code = strings.TrimSpace(asString(r.Code))
	language = strings.TrimSpace(asString(r.Language))
	if language == "" {
		language = defaultLanguage
	}
	return code, language
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

// errorResponse is the body of every error reply
type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status         string  `json:"status"`
	Provider       string  `json:"provider"`
	Model          string  `json:"model,omitempty"`
	CircuitBreaker string  `json:"circuit_breaker"`
	RetryInSeconds float64 `json:"circuit_breaker_retry_in_seconds,omitempty"`
	Uptime         string  `json:"uptime"`
}

package main

import (
	"github.com/gorilla/mux"
)

// setupRoutes configures all HTTP routes for the API
func setupRoutes(router *mux.Router, s *server) {
	router.HandleFunc("/api/analyze", s.analyze).Methods("POST")

	// Health and stats endpoints
	router.HandleFunc("/health", s.health).Methods("GET")
	router.HandleFunc("/stats", s.getStats).Methods("GET")

	// Circuit breaker endpoints
	router.HandleFunc("/circuit-breaker", s.circuitBreakerStatus).Methods("GET")
	router.HandleFunc("/circuit-breaker/reset", s.resetCircuitBreaker).Methods("POST")

	router.HandleFunc("/", helpHandler)
}

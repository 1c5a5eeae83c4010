package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"complexity-analyzer-go/analysis"
	"complexity-analyzer-go/circuitbreaker"
	"complexity-analyzer-go/logcolors"
	"complexity-analyzer-go/middleware"
	"complexity-analyzer-go/services/providers"
	"complexity-analyzer-go/stats"

	log "github.com/sirupsen/logrus"
)

// modelNamer is implemented by providers that report their model.
type modelNamer interface {
	Model() string
}

// server carries the dependencies shared by the handlers. It is built once
// in main.
type server struct {
	provider       providers.Provider
	breaker        *circuitbreaker.CircuitBreaker
	stats          *stats.Stats
	maxBodyBytes   int64
	requestTimeout time.Duration
}

func (s *server) analyze(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.RequestIDFromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.stats.AnalyzeBadRequest.Add(1)
		log.Warnf("%s [%s] Rejected body: %v", logcolors.LogRequest, requestID, err)
		Respond(w).Error(http.StatusBadRequest, msgInvalidBody)
		return
	}

	code, language := req.normalized()
	if code == "" {
		s.stats.AnalyzeBadRequest.Add(1)
		Respond(w).Error(http.StatusBadRequest, msgCodeRequired)
		return
	}

	if s.provider == nil {
		s.stats.AnalyzeFailed.Add(1)
		log.Errorf("%s [%s] %s", logcolors.LogAnalyze, requestID, msgProviderAbsent)
		Respond(w).Error(http.StatusInternalServerError, msgAnalyzeFailed)
		return
	}

	// The language is accepted for forward compatibility; the prompt does not use it yet.
	prompt := analysis.BuildPrompt(code)
	log.Infof("%s [%s] Analyzing %d chars of %s", logcolors.LogAnalyze, requestID, len(code), language)
	log.Debugf("%s [%s] Prompt is %d chars", logcolors.LogPrompt, requestID, len(prompt))

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	var completion *providers.Completion
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		start := time.Now()
		c, err := s.provider.Complete(ctx, providers.CompletionRequest{Prompt: prompt, JSONMode: true})
		promptTokens, completionTokens := 0, 0
		if c != nil {
			promptTokens, completionTokens = c.PromptTokens, c.CompletionTokens
		}
		s.stats.RecordProviderCall(time.Since(start), promptTokens, completionTokens, err)
		completion = c
		return err
	})

	resp := Respond(w).SetProvider(s.provider.Name())

	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		s.stats.AnalyzeRejected.Add(1)
		retryIn := s.breaker.RetryAfter()
		log.Warnf("%s [%s] Circuit open, retry in %v", logcolors.LogAnalyze, requestID, retryIn)
		resp.SetRetryAfter(retryIn).Error(http.StatusServiceUnavailable, msgAnalyzeFailed)
		return
	}
	if err != nil {
		s.stats.AnalyzeFailed.Add(1)
		log.Errorf("%s [%s] Provider call failed: %v", logcolors.LogAnalyze, requestID, err)
		resp.Error(http.StatusInternalServerError, msgAnalyzeFailed)
		return
	}

	result, err := analysis.Validate(completion.Content)
	if err != nil {
		s.stats.ValidationFailures.Add(1)
		s.stats.AnalyzeFailed.Add(1)
		log.Errorf("%s [%s] %v", logcolors.LogValidation, requestID, err)
		resp.Error(http.StatusInternalServerError, msgAnalyzeFailed)
		return
	}

	s.stats.AnalyzeSucceeded.Add(1)
	log.Infof("%s [%s] time %s, space %s", logcolors.LogAnalyze, requestID, result.Time, result.Space)
	resp.JSON(result)
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:         "ok",
		CircuitBreaker: s.breaker.State().String(),
		Uptime:         s.stats.Uptime().Round(time.Second).String(),
	}
	if s.provider == nil {
		health.Status = "unhealthy"
	} else {
		health.Provider = s.provider.Name()
		if m, ok := s.provider.(modelNamer); ok {
			health.Model = m.Model()
		}
	}
	if s.breaker.State() != circuitbreaker.StateClosed {
		health.Status = "degraded"
		health.RetryInSeconds = s.breaker.RetryAfter().Seconds()
	}

	if health.Status == "unhealthy" {
		Respond(w).JSONStatus(http.StatusServiceUnavailable, health)
		return
	}
	Respond(w).JSON(health)
}

func (s *server) getStats(w http.ResponseWriter, r *http.Request) {
	snapshot := s.stats.Snapshot()
	snapshot["circuit_breaker"] = s.breaker.Snapshot()
	Respond(w).JSON(snapshot)
}

func (s *server) circuitBreakerStatus(w http.ResponseWriter, r *http.Request) {
	Respond(w).JSON(s.breaker.Snapshot())
}

func (s *server) resetCircuitBreaker(w http.ResponseWriter, r *http.Request) {
	s.breaker.Reset()
	Respond(w).JSON(map[string]interface{}{
		"message": "Circuit breaker reset to CLOSED state",
		"status":  s.breaker.Snapshot(),
	})
}

func helpHandler(w http.ResponseWriter, r *http.Request) {
	Respond(w).JSON(map[string]interface{}{
		"help": "POST /api/analyze with a JSON body {\"code\": \"...\", \"language\": \"python3\"} to get the time and space complexity of a solution.",
		"endpoints": map[string]string{
			"POST /api/analyze":           "Analyze a submission",
			"GET /health":                 "Service health",
			"GET /stats":                  "Request and provider counters",
			"GET /circuit-breaker":        "Provider circuit breaker status",
			"POST /circuit-breaker/reset": "Close the provider circuit breaker",
		},
	})
}

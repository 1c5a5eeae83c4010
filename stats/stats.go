// Package stats keeps the backend's request and provider counters.
package stats

import (
	"math"
	"sync/atomic"
	"time"
)

// Stats holds server statistics as atomic counters
type Stats struct {
	StartTime time.Time

	// Requests by route
	TotalRequests   atomic.Int64
	AnalyzeRequests atomic.Int64
	HealthRequests  atomic.Int64
	StatsRequests   atomic.Int64
	OtherRequests   atomic.Int64

	// Analyze outcomes
	AnalyzeSucceeded  atomic.Int64
	AnalyzeBadRequest atomic.Int64
	AnalyzeFailed     atomic.Int64
	AnalyzeRejected   atomic.Int64 // circuit open

	// Provider traffic
	ProviderCalls      atomic.Int64
	ProviderFailures   atomic.Int64
	ValidationFailures atomic.Int64
	CircuitOpened      atomic.Int64
	PromptTokens       atomic.Int64
	CompletionTokens   atomic.Int64

	// Response status classes
	Status2xx atomic.Int64
	Status4xx atomic.Int64
	Status5xx atomic.Int64

	// Response times in microseconds
	totalResponseTime   atomic.Int64
	responseCount       atomic.Int64
	minResponseTime     atomic.Int64
	maxResponseTime     atomic.Int64
	providerLatency     atomic.Int64
	providerLatencyHits atomic.Int64
}

var global = New()

// New returns zeroed stats starting now.
func New() *Stats {
	s := &Stats{StartTime: time.Now()}
	s.minResponseTime.Store(math.MaxInt64)
	return s
}

// Get returns the process-wide stats instance
func Get() *Stats {
	return global
}

// persisted lists the counters that survive restarts, by storage name.
func (s *Stats) persisted() map[string]*atomic.Int64 {
	return map[string]*atomic.Int64{
		"total_requests":        &s.TotalRequests,
		"analyze_requests":      &s.AnalyzeRequests,
		"health_requests":       &s.HealthRequests,
		"stats_requests":        &s.StatsRequests,
		"other_requests":        &s.OtherRequests,
		"analyze_succeeded":     &s.AnalyzeSucceeded,
		"analyze_bad_request":   &s.AnalyzeBadRequest,
		"analyze_failed":        &s.AnalyzeFailed,
		"analyze_rejected":      &s.AnalyzeRejected,
		"provider_calls":        &s.ProviderCalls,
		"provider_failures":     &s.ProviderFailures,
		"validation_failures":   &s.ValidationFailures,
		"circuit_opened":        &s.CircuitOpened,
		"prompt_tokens":         &s.PromptTokens,
		"completion_tokens":     &s.CompletionTokens,
		"status_2xx":            &s.Status2xx,
		"status_4xx":            &s.Status4xx,
		"status_5xx":            &s.Status5xx,
		"total_response_time":   &s.totalResponseTime,
		"response_count":        &s.responseCount,
		"max_response_time":     &s.maxResponseTime,
		"provider_latency":      &s.providerLatency,
		"provider_latency_hits": &s.providerLatencyHits,
	}
}

// RecordRequest counts a request by route path
func (s *Stats) RecordRequest(path string) {
	s.TotalRequests.Add(1)
	switch path {
	case "/api/analyze":
		s.AnalyzeRequests.Add(1)
	case "/health":
		s.HealthRequests.Add(1)
	case "/stats":
		s.StatsRequests.Add(1)
	default:
		s.OtherRequests.Add(1)
	}
}

// RecordStatusCode records a response status code
func (s *Stats) RecordStatusCode(code int) {
	switch {
	case code >= 200 && code < 300:
		s.Status2xx.Add(1)
	case code >= 400 && code < 500:
		s.Status4xx.Add(1)
	case code >= 500:
		s.Status5xx.Add(1)
	}
}

// RecordResponseTime records the time spent serving a request
func (s *Stats) RecordResponseTime(duration time.Duration) {
	us := duration.Microseconds()

	s.totalResponseTime.Add(us)
	s.responseCount.Add(1)

	for {
		current := s.minResponseTime.Load()
		if us >= current || s.minResponseTime.CompareAndSwap(current, us) {
			break
		}
	}
	for {
		current := s.maxResponseTime.Load()
		if us <= current || s.maxResponseTime.CompareAndSwap(current, us) {
			break
		}
	}
}

// RecordProviderCall records one provider round trip
func (s *Stats) RecordProviderCall(latency time.Duration, promptTokens, completionTokens int, err error) {
	s.ProviderCalls.Add(1)
	s.providerLatency.Add(latency.Microseconds())
	s.providerLatencyHits.Add(1)
	if err != nil {
		s.ProviderFailures.Add(1)
		return
	}
	s.PromptTokens.Add(int64(promptTokens))
	s.CompletionTokens.Add(int64(completionTokens))
}

// Uptime returns time since the first recorded start
func (s *Stats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// AvgResponseTime returns the mean response time
func (s *Stats) AvgResponseTime() time.Duration {
	return average(s.totalResponseTime.Load(), s.responseCount.Load())
}

// MinResponseTime returns the fastest response time
func (s *Stats) MinResponseTime() time.Duration {
	min := s.minResponseTime.Load()
	if min == math.MaxInt64 {
		return 0
	}
	return time.Duration(min) * time.Microsecond
}

// MaxResponseTime returns the slowest response time
func (s *Stats) MaxResponseTime() time.Duration {
	return time.Duration(s.maxResponseTime.Load()) * time.Microsecond
}

// AvgProviderLatency returns the mean provider round trip
func (s *Stats) AvgProviderLatency() time.Duration {
	return average(s.providerLatency.Load(), s.providerLatencyHits.Load())
}

// ProviderFailureRate returns failed provider calls as a percentage
func (s *Stats) ProviderFailureRate() float64 {
	calls := s.ProviderCalls.Load()
	if calls == 0 {
		return 0
	}
	return float64(s.ProviderFailures.Load()) / float64(calls) * 100
}

func average(totalMicros, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(totalMicros/count) * time.Microsecond
}

// Snapshot returns a point-in-time view for the /stats endpoint
func (s *Stats) Snapshot() map[string]interface{} {
	uptime := s.Uptime()

	return map[string]interface{}{
		"server": map[string]interface{}{
			"start_time":     s.StartTime.Format(time.RFC3339),
			"uptime":         uptime.String(),
			"uptime_seconds": int64(uptime.Seconds()),
		},
		"requests": map[string]interface{}{
			"total":   s.TotalRequests.Load(),
			"analyze": s.AnalyzeRequests.Load(),
			"health":  s.HealthRequests.Load(),
			"stats":   s.StatsRequests.Load(),
			"other":   s.OtherRequests.Load(),
		},
		"analyze": map[string]interface{}{
			"succeeded":   s.AnalyzeSucceeded.Load(),
			"bad_request": s.AnalyzeBadRequest.Load(),
			"failed":      s.AnalyzeFailed.Load(),
			"rejected":    s.AnalyzeRejected.Load(),
		},
		"provider": map[string]interface{}{
			"calls":               s.ProviderCalls.Load(),
			"failures":            s.ProviderFailures.Load(),
			"failure_rate":        s.ProviderFailureRate(),
			"validation_failures": s.ValidationFailures.Load(),
			"circuit_opened":      s.CircuitOpened.Load(),
			"prompt_tokens":       s.PromptTokens.Load(),
			"completion_tokens":   s.CompletionTokens.Load(),
			"avg_latency":         s.AvgProviderLatency().String(),
		},
		"responses": map[string]interface{}{
			"2xx": s.Status2xx.Load(),
			"4xx": s.Status4xx.Load(),
			"5xx": s.Status5xx.Load(),
		},
		"response_times": map[string]interface{}{
			"avg": s.AvgResponseTime().String(),
			"min": s.MinResponseTime().String(),
			"max": s.MaxResponseTime().String(),
		},
	}
}

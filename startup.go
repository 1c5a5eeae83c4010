package main

import (
	"fmt"
	"strings"
	"time"

	"complexity-analyzer-go/circuitbreaker"
	"complexity-analyzer-go/config"
	"complexity-analyzer-go/logcolors"
	"complexity-analyzer-go/services/providers"
	"complexity-analyzer-go/services/providers/openai"
	"complexity-analyzer-go/stats"

	log "github.com/sirupsen/logrus"
)

// newRegistry registers every provider the server knows how to build.
func newRegistry(cfg config.Config) *providers.Registry {
	c := cfg.Configuration
	return providers.NewRegistry(
		openai.NewProvider(openai.Config{
			APIKey:      c.OpenAIAPIKey,
			Model:       c.OpenAIModel,
			BaseURL:     c.OpenAIBaseURL,
			Temperature: c.OpenAITemperature,
			Timeout:     time.Duration(c.ProviderTimeoutSec) * time.Second,
		}),
	)
}

// selectProvider picks the configured provider out of the registry.
func selectProvider(registry *providers.Registry, name string) (providers.Provider, error) {
	if name == "" {
		name = openai.ProviderName
	}
	p, err := registry.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w (available: %s)", err, strings.Join(registry.List(), ", "))
	}
	log.Infof("%s Using provider %s", logcolors.LogServer, p.Name())
	return p, nil
}

// newProviderBreaker wraps provider calls and counts every trip in st.
func newProviderBreaker(cfg config.Config, name string, st *stats.Stats) *circuitbreaker.CircuitBreaker {
	return circuitbreaker.New(circuitbreaker.Config{
		Name:      name,
		Threshold: cfg.Configuration.CircuitBreakerThreshold,
		Cooldown:  time.Duration(cfg.Configuration.CircuitBreakerCooldownSecs) * time.Second,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			if to == circuitbreaker.StateOpen {
				st.CircuitOpened.Add(1)
			}
		},
	})
}

// parseOrigins splits a comma separated origin list, dropping blanks.
func parseOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func startStatsStore(cfg config.Config, st *stats.Stats) *stats.Store {
	store, err := stats.NewStore(cfg.Configuration.StatsDBPath, st)
	if err != nil {
		log.Warnf("%s Stats persistence disabled: %v", logcolors.LogStats, err)
		return nil
	}
	if err := store.Load(); err != nil {
		log.Warnf("%s Failed to load saved stats: %v", logcolors.LogStats, err)
	}
	store.StartAutoSave(time.Duration(cfg.Configuration.StatsSaveIntervalSec) * time.Second)
	return store
}

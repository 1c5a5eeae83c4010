package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

var conf = mustLoad()

type Config struct {
	Configuration struct {
		Port                 string `envconfig:"PORT" default:"3000"`
		AllowedOrigins       string `envconfig:"ALLOWED_ORIGINS" default:"*"` // Comma separated
		MaxRequestBodyBytes  int64  `envconfig:"MAX_REQUEST_BODY_BYTES" default:"262144"`
		RequestTimeoutSecs   int    `envconfig:"REQUEST_TIMEOUT_SECS" default:"60"`
		ShutdownTimeoutSecs  int    `envconfig:"SHUTDOWN_TIMEOUT_SECS" default:"10"`
		StatsDBPath          string `envconfig:"STATS_DB_PATH" default:"./data/stats.db"`
		StatsSaveIntervalSec int    `envconfig:"STATS_SAVE_INTERVAL_SECS" default:"300"`

		// Model provider
		ProviderName       string  `envconfig:"PROVIDER" default:"openai"`
		OpenAIAPIKey       string  `envconfig:"OPENAI_API_KEY" default:""`
		OpenAIModel        string  `envconfig:"OPENAI_MODEL" default:"gpt-4.1-mini"`
		OpenAIBaseURL      string  `envconfig:"OPENAI_BASE_URL" default:""`
		OpenAITemperature  float32 `envconfig:"OPENAI_TEMPERATURE" default:"0"`
		ProviderTimeoutSec int     `envconfig:"PROVIDER_TIMEOUT_SECS" default:"45"`

		CircuitBreakerThreshold    int `envconfig:"CIRCUIT_BREAKER_THRESHOLD" default:"5"`      // Consecutive failures before circuit opens
		CircuitBreakerCooldownSecs int `envconfig:"CIRCUIT_BREAKER_COOLDOWN_SECS" default:"60"` // Seconds to wait before retrying
	}

	Client struct {
		AnalyzeEndpoint   string `envconfig:"NEXT_PUBLIC_ANALYZE_ENDPOINT" default:"http://localhost:3000/api/analyze"`
		RequestTimeoutSec int    `envconfig:"CLIENT_REQUEST_TIMEOUT_SECS" default:"60"`
		CacheDBPath       string `envconfig:"CLIENT_CACHE_DB_PATH" default:"./data/analysis_cache.db"`
		CacheBackupPath   string `envconfig:"CLIENT_CACHE_BACKUP_PATH" default:"./data/backups"`
		ProblemURLPattern string `envconfig:"PROBLEM_URL_PATTERN" default:"^https://leetcode\\.com/problems/"`
		AppRootID         string `envconfig:"APP_ROOT_ID" default:"__next"`
		RootWaitAttempts  int    `envconfig:"ROOT_WAIT_ATTEMPTS" default:"20"`
		RootWaitDelayMs   int    `envconfig:"ROOT_WAIT_DELAY_MS" default:"250"`
		FallbackLanguage  string `envconfig:"FALLBACK_LANGUAGE" default:"javascript"`
	}

	FeatureFlags struct {
		CacheCompression bool `envconfig:"FF_CACHE_COMPRESSION" default:"true"`
	}
}

// RootWaitDelay is RootWaitDelayMs as a duration.
func (c Config) RootWaitDelay() time.Duration {
	return time.Duration(c.Client.RootWaitDelayMs) * time.Millisecond
}

// load loads the configuration from the environment.
func load() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Warnf("Error loading env config: %v", err)
	}

	cfg := Config{}
	err = envconfig.Process("", &cfg)
	return cfg, err
}

func mustLoad() Config {
	c, err := load()
	if err != nil {
		log.WithError(err).Warnf("Unable to load configuration")
	}

	return c
}

func Get() Config {
	return conf
}

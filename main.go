package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"complexity-analyzer-go/config"
	"complexity-analyzer-go/logcolors"
	"complexity-analyzer-go/middleware"
	"complexity-analyzer-go/stats"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
)

var conf = config.Get()

func init() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel) // Set to DebugLevel for state transitions and prompt sizes

	err := godotenv.Load()
	if err != nil {
		log.Warn("Error loading .env file, using environment variables")
	}
}

// newServer wires the analysis handlers to the configured provider.
func newServer(cfg config.Config, st *stats.Stats) *server {
	s := &server{
		stats:          st,
		maxBodyBytes:   cfg.Configuration.MaxRequestBodyBytes,
		requestTimeout: time.Duration(cfg.Configuration.RequestTimeoutSecs) * time.Second,
	}
	if s.maxBodyBytes <= 0 {
		s.maxBodyBytes = 256 << 10
	}
	if s.requestTimeout <= 0 {
		s.requestTimeout = time.Minute
	}

	breakerName := cfg.Configuration.ProviderName
	p, err := selectProvider(newRegistry(cfg), cfg.Configuration.ProviderName)
	if err != nil {
		log.Errorf("%s %v", logcolors.LogServer, err)
	} else {
		s.provider = p
		breakerName = p.Name()
	}
	s.breaker = newProviderBreaker(cfg, breakerName, st)
	return s
}

// newHandler builds the router and wraps it in logging and CORS.
func newHandler(s *server, allowedOrigins string) http.Handler {
	router := mux.NewRouter()
	setupRoutes(router, s)

	c := cors.New(cors.Options{
		AllowedOrigins: parseOrigins(allowedOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{"X-Provider", "Retry-After", middleware.RequestIDHeader},
	})

	return c.Handler(middleware.LoggingMiddleware(router))
}

func main() {
	st := stats.Get()
	store := startStatsStore(conf, st)

	srv := newServer(conf, st)
	httpServer := &http.Server{
		Addr:    ":" + conf.Configuration.Port,
		Handler: newHandler(srv, conf.Configuration.AllowedOrigins),
	}

	go func() {
		log.Infof("%s Listening on port %s", logcolors.LogServer, conf.Configuration.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("%s Server failed: %v", logcolors.LogServer, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Infof("%s Received %v, shutting down", logcolors.LogServer, sig)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(conf.Configuration.ShutdownTimeoutSecs)*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Errorf("%s Graceful shutdown failed: %v", logcolors.LogServer, err)
	}

	if store != nil {
		if err := store.Close(); err != nil {
			log.Errorf("%s Failed to close stats store: %v", logcolors.LogStats, err)
		}
	}
	log.Infof("%s Stopped", logcolors.LogServer)
}

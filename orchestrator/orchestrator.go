// Package orchestrator runs one analysis per trigger click: read the code,
// look it up in the cache, otherwise ask the backend, validate, store and
// render.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"complexity-analyzer-go/analysis"
	"complexity-analyzer-go/cache"
	"complexity-analyzer-go/client"
	"complexity-analyzer-go/extractor"
	"complexity-analyzer-go/fingerprint"
	"complexity-analyzer-go/logcolors"
	"complexity-analyzer-go/surface"

	log "github.com/sirupsen/logrus"
)

// Messages shown on the panel.
const (
	ProgressMessage       = "Analyzing with OpenAI..."
	ExtractionFailMessage = "Could not read your code from the editor."
	GenericFailMessage    = "Unable to analyze submission. Please try again."
)

var (
	// ErrBusy is returned when a run is already in flight.
	ErrBusy = errors.New("analysis already in progress")
	// ErrExtractionEmpty is returned when the editor yields no code.
	ErrExtractionEmpty = errors.New("no code found in the editor")
)

// Source reads the submission from the page.
type Source interface {
	Extract() extractor.Source
}

// Store is the result cache.
type Store interface {
	Get(ctx context.Context, key cache.Key) (analysis.Result, bool)
	Put(ctx context.Context, key cache.Key, result analysis.Result)
}

// Analyzer sends a submission to the backend and returns the raw body.
type Analyzer interface {
	Analyze(ctx context.Context, req client.Request) (string, error)
}

// Presenter renders run progress on the page.
type Presenter interface {
	ShowProgress(message string)
	ShowResult(result analysis.Result)
	ShowError(message string)
	SetTriggerState(state surface.TriggerState)
}

// Outcome describes a successful run.
type Outcome struct {
	Key    cache.Key
	Result analysis.Result
	Cached bool
}

// Orchestrator owns the in-flight guard; at most one run executes at a time.
type Orchestrator struct {
	source    Source
	store     Store
	analyzer  Analyzer
	presenter Presenter

	running atomic.Bool
	state   atomic.Int32
}

// New wires an Orchestrator.
func New(source Source, store Store, analyzer Analyzer, presenter Presenter) *Orchestrator {
	return &Orchestrator{
		source:    source,
		store:     store,
		analyzer:  analyzer,
		presenter: presenter,
	}
}

// State returns the step the current run is on, or Idle.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// Running reports whether a run is in flight.
func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

// Trigger runs an analysis in the background and is meant as the click
// handler of the trigger button. Errors are already shown on the panel.
// done, when not nil, receives the outcome of every run that was not
// rejected with ErrBusy.
func (o *Orchestrator) Trigger(ctx context.Context, done func(Outcome, error)) {
	go func() {
		outcome, err := o.Run(ctx)
		if errors.Is(err, ErrBusy) {
			return
		}
		if err != nil {
			log.Debugf("%s Run ended with error: %v", logcolors.LogOrchestrator, err)
		}
		if done != nil {
			done(outcome, err)
		}
	}()
}

// Run performs one analysis. A second call while one is in flight returns
// ErrBusy and leaves the page untouched.
func (o *Orchestrator) Run(ctx context.Context) (Outcome, error) {
	if !o.running.CompareAndSwap(false, true) {
		log.Debugf("%s Run ignored, another one is in flight", logcolors.LogOrchestrator)
		return Outcome{}, ErrBusy
	}
	o.presenter.SetTriggerState(surface.TriggerLoading)
	defer func() {
		o.presenter.SetTriggerState(surface.TriggerIdle)
		o.transition(Idle)
		o.running.Store(false)
	}()

	o.transition(Extracting)
	src := o.source.Extract()
	if strings.TrimSpace(src.Code) == "" {
		return o.fail(ExtractionFailMessage, ErrExtractionEmpty)
	}

	o.transition(Hashing)
	key := cache.Key{Language: src.Language, Fingerprint: fingerprint.Of(src.Code)}

	o.transition(CacheLookup)
	if cached, ok := o.store.Get(ctx, key); ok {
		o.transition(CacheHit)
		log.Infof("%s Cache hit for %s", logcolors.LogOrchestrator, key)
		o.presenter.ShowResult(cached)
		o.transition(Rendered)
		return Outcome{Key: key, Result: cached, Cached: true}, nil
	}

	o.transition(RemoteCall)
	o.presenter.ShowProgress(ProgressMessage)
	raw, err := o.analyzer.Analyze(ctx, client.Request{Code: src.Code, Language: src.Language})
	if err != nil {
		var te *client.TransportError
		if errors.As(err, &te) {
			log.Errorf("%s Backend returned %d: %s", logcolors.LogOrchestrator, te.StatusCode, te.Body)
		} else {
			log.Errorf("%s Backend request failed: %v", logcolors.LogOrchestrator, err)
		}
		return o.fail(GenericFailMessage, err)
	}

	o.transition(Validating)
	result, err := analysis.Validate(raw)
	if err != nil {
		log.Errorf("%s Rejected backend response: %v", logcolors.LogOrchestrator, err)
		return o.fail(GenericFailMessage, err)
	}

	o.transition(CacheWrite)
	o.store.Put(ctx, key, result)

	o.presenter.ShowResult(result)
	o.transition(Rendered)
	log.Infof("%s Analysis rendered for %s", logcolors.LogOrchestrator, key)
	return Outcome{Key: key, Result: result}, nil
}

func (o *Orchestrator) fail(message string, err error) (Outcome, error) {
	o.transition(Error)
	o.presenter.ShowError(message)
	return Outcome{}, fmt.Errorf("analysis failed: %w", err)
}

func (o *Orchestrator) transition(next State) {
	prev := State(o.state.Swap(int32(next)))
	log.Debugf("%s %s -> %s", logcolors.LogOrchestrator, prev, next)
}

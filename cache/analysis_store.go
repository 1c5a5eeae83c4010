package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"complexity-analyzer-go/analysis"
	"complexity-analyzer-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// KeyPrefix namespaces analysis entries inside the local store.
const KeyPrefix = "leetcode-ai-analyzer"

// Key identifies a cached analysis by reported language and source
// fingerprint. It carries no time or random component.
type Key struct {
	Language    string
	Fingerprint string
}

// String renders the storage key, e.g. leetcode-ai-analyzer:python3:<hex>.
// The language is always lowercase in the rendered key.
func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s", KeyPrefix, strings.ToLower(k.Language), k.Fingerprint)
}

// Backend is the string key/value store behind an AnalysisStore.
// *PersistentCache satisfies it.
type Backend interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// AnalysisStore persists analysis results by Key. Storage failures never
// reach the caller: reads degrade to a miss and writes to a no-op, and both
// are logged.
type AnalysisStore struct {
	backend Backend
}

// NewAnalysisStore wraps backend.
func NewAnalysisStore(backend Backend) *AnalysisStore {
	return &AnalysisStore{backend: backend}
}

// Get returns the cached result for key, if any.
func (s *AnalysisStore) Get(ctx context.Context, key Key) (analysis.Result, bool) {
	if err := ctx.Err(); err != nil {
		log.Warnf("%s Lookup skipped for %s: %v", logcolors.LogCacheAnalysis, key, err)
		return analysis.Result{}, false
	}

	raw, ok := s.backend.Get(key.String())
	if !ok {
		return analysis.Result{}, false
	}

	var result analysis.Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		log.Errorf("%s Unreadable entry for %s: %v", logcolors.LogCacheAnalysis, key, err)
		return analysis.Result{}, false
	}
	if err := result.Check(); err != nil {
		log.Errorf("%s Ignoring invalid entry for %s: %v", logcolors.LogCacheAnalysis, key, err)
		return analysis.Result{}, false
	}
	return result, true
}

// Put stores result under key. Failures are logged and dropped.
func (s *AnalysisStore) Put(ctx context.Context, key Key, result analysis.Result) {
	if err := ctx.Err(); err != nil {
		log.Warnf("%s Write skipped for %s: %v", logcolors.LogCacheAnalysis, key, err)
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		log.Errorf("%s Error encoding result for %s: %v", logcolors.LogCacheAnalysis, key, err)
		return
	}
	if err := s.backend.Set(key.String(), string(data)); err != nil {
		log.Errorf("%s Error writing %s: %v", logcolors.LogCacheAnalysis, key, err)
		return
	}
	log.Debugf("%s Cached analysis for %s", logcolors.LogCacheAnalysis, key)
}

package stats

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"complexity-analyzer-go/logcolors"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const (
	statsBucketName = "stats"
	statsKey        = "server_stats"
)

// PersistedStats is the on-disk form of Stats
type PersistedStats struct {
	Counters        map[string]int64 `json:"counters"`
	MinResponseTime int64            `json:"min_response_time,omitempty"`
	FirstStarted    time.Time        `json:"first_started"`
	LastSaved       time.Time        `json:"last_saved"`
}

// Store persists one Stats value in a dedicated BoltDB file
type Store struct {
	db       *bolt.DB
	stats    *Stats
	mu       sync.Mutex
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewStore opens (or creates) the stats database at dbPath for s
func NewStore(dbPath string, s *Stats) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create stats directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open stats database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(statsBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create stats bucket: %w", err)
	}

	log.Infof("%s Stats store initialized at %s", logcolors.LogStats, dbPath)
	return &Store{db: db, stats: s, stopChan: make(chan struct{})}, nil
}

// Load applies persisted counters to the store's Stats. Unknown counter
// names are ignored.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var persisted PersistedStats
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(statsBucketName))
		if b == nil {
			return nil
		}
		data := b.Get([]byte(statsKey))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &persisted)
	})
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}

	counters := s.stats.persisted()
	for name, value := range persisted.Counters {
		if c, ok := counters[name]; ok {
			c.Store(value)
		}
	}
	if persisted.MinResponseTime > 0 {
		s.stats.minResponseTime.Store(persisted.MinResponseTime)
	}
	if !persisted.FirstStarted.IsZero() {
		s.stats.StartTime = persisted.FirstStarted
	}

	log.Infof("%s Loaded persisted stats (analyze requests: %d, first started: %s)",
		logcolors.LogStats, s.stats.AnalyzeRequests.Load(), s.stats.StartTime.Format(time.RFC3339))
	return nil
}

// Save writes the current counters to disk
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	persisted := PersistedStats{
		Counters:     make(map[string]int64),
		FirstStarted: s.stats.StartTime,
		LastSaved:    time.Now(),
	}
	for name, c := range s.stats.persisted() {
		persisted.Counters[name] = c.Load()
	}
	if min := s.stats.minResponseTime.Load(); min != math.MaxInt64 {
		persisted.MinResponseTime = min
	}

	data, err := json.Marshal(persisted)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(statsBucketName))
		if b == nil {
			return bolt.ErrBucketNotFound
		}
		return b.Put([]byte(statsKey), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save stats: %w", err)
	}
	return nil
}

// StartAutoSave saves every interval until Close
func (s *Store) StartAutoSave(interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.Save(); err != nil {
					log.Warnf("%s Failed to auto-save stats: %v", logcolors.LogStats, err)
				}
			case <-s.stopChan:
				return
			}
		}
	}()
	log.Infof("%s Started auto-save with interval %v", logcolors.LogStats, interval)
}

// Close stops auto-save, saves once more and closes the database
func (s *Store) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()

	if err := s.Save(); err != nil {
		log.Warnf("%s Failed to save stats on close: %v", logcolors.LogStats, err)
	} else {
		log.Infof("%s Stats saved on shutdown", logcolors.LogStats)
	}
	return s.db.Close()
}

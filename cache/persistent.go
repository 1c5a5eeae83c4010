package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"complexity-analyzer-go/logcolors"
	"complexity-analyzer-go/utils"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const bucketName = "analysis_cache"

var (
	errBucketNotFound = errors.New("bucket not found")
	errKeyNotFound    = errors.New("key not found")
)

// PersistentCache wraps BoltDB with an in-memory copy for fast reads.
// Entries never expire; they are removed only by Delete, Clear or a restore.
type PersistentCache struct {
	mu                 sync.RWMutex // guards db while it is swapped by restore
	db                 *bolt.DB
	memCache           sync.Map
	dbPath             string
	backupPath         string
	compressionEnabled bool
}

// CacheEntry is the stored form of a value (possibly compressed)
type CacheEntry struct {
	Value string `json:"value"`
}

// NewPersistentCache opens (or creates) the cache file at dbPath.
func NewPersistentCache(dbPath string, backupPath string, compressionEnabled bool) (*PersistentCache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.MkdirAll(backupPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	if info, err := os.Stat(dbPath); err == nil {
		log.Infof("%s Found existing database file at: %s (size: %d bytes)", logcolors.LogCacheInit, dbPath, info.Size())
	} else {
		log.Infof("%s Creating new database file at: %s", logcolors.LogCacheInit, dbPath)
	}

	db, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}

	pc := &PersistentCache{
		db:                 db,
		dbPath:             dbPath,
		backupPath:         backupPath,
		compressionEnabled: compressionEnabled,
	}

	if err := pc.loadToMemory(); err != nil {
		log.Warnf("%s Failed to preload cache to memory: %v", logcolors.LogCache, err)
	}

	log.Infof("%s Persistent cache initialized at %s (compression: %v)", logcolors.LogCache, dbPath, compressionEnabled)
	return pc, nil
}

func openDB(dbPath string) (*bolt.DB, error) {
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}
	return db, nil
}

// loadToMemory copies every stored entry into the memory map.
func (pc *PersistentCache) loadToMemory() error {
	count := 0
	err := pc.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var entry CacheEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				log.Warnf("%s Skipping unreadable entry %s: %v", logcolors.LogCache, string(k), err)
				return nil
			}
			pc.memCache.Store(string(k), entry)
			count++
			return nil
		})
	})
	if err != nil {
		return err
	}

	log.Infof("%s Loaded %d entries from disk to memory", logcolors.LogCache, count)
	return nil
}

// Get returns the decoded value for key, checking memory before disk.
func (pc *PersistentCache) Get(key string) (string, bool) {
	if entry, ok := pc.memCache.Load(key); ok {
		return pc.decode(key, entry.(CacheEntry).Value)
	}

	entry, err := pc.readDisk(key)
	if err != nil {
		if !errors.Is(err, errKeyNotFound) {
			log.Errorf("%s Error reading key %s from disk: %v", logcolors.LogCache, key, err)
		}
		return "", false
	}
	pc.memCache.Store(key, entry)
	return pc.decode(key, entry.Value)
}

func (pc *PersistentCache) readDisk(key string) (CacheEntry, error) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	var entry CacheEntry
	err := pc.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return errBucketNotFound
		}
		data := b.Get([]byte(key))
		if data == nil {
			return errKeyNotFound
		}
		return json.Unmarshal(data, &entry)
	})
	return entry, err
}

// decode undoes compression when the stored value carries it, regardless of
// the current flag, so toggling compression does not orphan old entries.
func (pc *PersistentCache) decode(key, value string) (string, bool) {
	if !utils.IsCompressed(value) {
		return value, true
	}
	decompressed, err := utils.DecompressString(value)
	if err != nil {
		log.Errorf("%s Error decompressing cache value for key %s: %v", logcolors.LogCache, key, err)
		return "", false
	}
	return decompressed, true
}

// Set stores value in memory and on disk.
func (pc *PersistentCache) Set(key, value string) error {
	finalValue := value
	if pc.compressionEnabled {
		compressed, err := utils.CompressString(value)
		if err != nil {
			return fmt.Errorf("compressing value for key %s: %w", key, err)
		}
		finalValue = compressed
	}

	entry := CacheEntry{Value: finalValue}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	pc.mu.RLock()
	defer pc.mu.RUnlock()
	err = pc.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return errBucketNotFound
		}
		return b.Put([]byte(key), data)
	})
	if err != nil {
		return err
	}

	pc.memCache.Store(key, entry)
	return nil
}

// Delete removes a key from cache
func (pc *PersistentCache) Delete(key string) error {
	pc.memCache.Delete(key)

	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return errBucketNotFound
		}
		return b.Delete([]byte(key))
	})
}

// Clear removes all entries from cache
func (pc *PersistentCache) Clear() error {
	pc.memCache.Range(func(key, _ interface{}) bool {
		pc.memCache.Delete(key)
		return true
	})

	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketName)); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket([]byte(bucketName))
		return err
	})
}

// Range iterates over the in-memory entries. Values are as stored.
func (pc *PersistentCache) Range(fn func(key string, entry CacheEntry) bool) {
	pc.memCache.Range(func(k, v interface{}) bool {
		return fn(k.(string), v.(CacheEntry))
	})
}

// Stats returns the number of keys and their approximate stored size in KB.
func (pc *PersistentCache) Stats() (numKeys int, sizeInKB int) {
	size := 0
	pc.memCache.Range(func(k, v interface{}) bool {
		numKeys++
		size += len(k.(string)) + len(v.(CacheEntry).Value)
		return true
	})
	return numKeys, size / 1024
}

// Backup writes a consistent snapshot of the database into the backup
// directory and returns its path.
func (pc *PersistentCache) Backup() (string, error) {
	timestamp := time.Now().Format("2006-01-02_15-04-05.000")
	backupFilePath := filepath.Join(pc.backupPath, fmt.Sprintf("cache_backup_%s.db", timestamp))

	log.Infof("%s Creating backup at: %s", logcolors.LogCacheBackup, backupFilePath)

	pc.mu.RLock()
	err := pc.db.View(func(tx *bolt.Tx) error {
		return tx.CopyFile(backupFilePath, 0600)
	})
	pc.mu.RUnlock()
	if err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	log.Infof("%s Backup created successfully: %s", logcolors.LogCacheBackup, backupFilePath)
	return backupFilePath, nil
}

// BackupAndClear creates a backup of the cache and then clears it
func (pc *PersistentCache) BackupAndClear() (string, error) {
	backupPath, err := pc.Backup()
	if err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}

	if err := pc.Clear(); err != nil {
		return backupPath, fmt.Errorf("backup created but failed to clear cache: %w", err)
	}

	log.Infof("%s Cache cleared (backup: %s)", logcolors.LogCacheClear, backupPath)
	return backupPath, nil
}

// BackupInfo contains metadata about a backup file
type BackupInfo struct {
	FileName  string    `json:"fileName"`
	FilePath  string    `json:"filePath"`
	Size      int64     `json:"sizeBytes"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListBackups returns all .db files in the backup directory.
func (pc *PersistentCache) ListBackups() ([]BackupInfo, error) {
	var backups []BackupInfo

	entries, err := os.ReadDir(pc.backupPath)
	if err != nil {
		if os.IsNotExist(err) {
			return backups, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".db" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			log.Warnf("%s Failed to get info for %s: %v", logcolors.LogCacheBackups, entry.Name(), err)
			continue
		}
		backups = append(backups, BackupInfo{
			FileName:  entry.Name(),
			FilePath:  filepath.Join(pc.backupPath, entry.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	return backups, nil
}

// RestoreFromBackup replaces the current database with a backup file from
// the backup directory and reloads the memory copy.
func (pc *PersistentCache) RestoreFromBackup(backupFileName string) error {
	if filepath.Ext(backupFileName) != ".db" || filepath.Base(backupFileName) != backupFileName {
		return fmt.Errorf("invalid backup file: %s", backupFileName)
	}
	backupFilePath := filepath.Join(pc.backupPath, backupFileName)
	if _, err := os.Stat(backupFilePath); os.IsNotExist(err) {
		return fmt.Errorf("backup file not found: %s", backupFileName)
	}

	log.Infof("%s Starting restore from backup: %s", logcolors.LogCacheRestore, backupFileName)

	pc.mu.Lock()
	defer pc.mu.Unlock()

	if err := pc.db.Close(); err != nil {
		return fmt.Errorf("failed to close current database: %w", err)
	}

	preRestore := pc.dbPath + ".pre-restore"
	if err := copyFile(pc.dbPath, preRestore); err != nil {
		pc.reopenLocked()
		return fmt.Errorf("failed to keep current database: %w", err)
	}

	if err := copyFile(backupFilePath, pc.dbPath); err != nil {
		copyFile(preRestore, pc.dbPath)
		pc.reopenLocked()
		return fmt.Errorf("failed to restore backup: %w", err)
	}
	os.Remove(preRestore)

	if err := pc.reopenLocked(); err != nil {
		return fmt.Errorf("failed to reopen database after restore: %w", err)
	}

	log.Infof("%s Restored from backup: %s", logcolors.LogCacheRestore, backupFileName)
	return nil
}

// reopenLocked reopens the database and rebuilds the memory copy.
// Callers hold pc.mu.
func (pc *PersistentCache) reopenLocked() error {
	db, err := openDB(pc.dbPath)
	if err != nil {
		return err
	}
	pc.db = db

	pc.memCache.Range(func(key, _ interface{}) bool {
		pc.memCache.Delete(key)
		return true
	})
	if err := pc.loadToMemory(); err != nil {
		log.Warnf("%s Failed to reload cache to memory: %v", logcolors.LogCache, err)
	}
	return nil
}

// DeleteBackup deletes a specific backup file
func (pc *PersistentCache) DeleteBackup(backupFileName string) error {
	if filepath.Ext(backupFileName) != ".db" || filepath.Base(backupFileName) != backupFileName {
		return fmt.Errorf("invalid backup file: %s", backupFileName)
	}
	backupFilePath := filepath.Join(pc.backupPath, backupFileName)
	if _, err := os.Stat(backupFilePath); os.IsNotExist(err) {
		return fmt.Errorf("backup file not found: %s", backupFileName)
	}
	if err := os.Remove(backupFilePath); err != nil {
		return fmt.Errorf("failed to delete backup: %w", err)
	}

	log.Infof("%s Deleted backup: %s", logcolors.LogCacheBackup, backupFileName)
	return nil
}

func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}

// Close closes the database connection
func (pc *PersistentCache) Close() error {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if pc.db != nil {
		return pc.db.Close()
	}
	return nil
}

package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleResult = `{"time":"O(n)","space":"O(1)","explanation":"linear scan"}`

// setupTestCache creates a temporary cache for testing
func setupTestCache(t *testing.T, compression bool) (*PersistentCache, string, func()) {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test_cache.db")
	backupPath := filepath.Join(tmpDir, "backups")

	cache, err := NewPersistentCache(dbPath, backupPath, compression)
	if err != nil {
		t.Fatalf("Failed to create test cache: %v", err)
	}

	return cache, tmpDir, func() { cache.Close() }
}

func TestNewPersistentCache(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "cache.db")
	backupPath := filepath.Join(tmpDir, "backups")

	cache, err := NewPersistentCache(dbPath, backupPath, true)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	if cache.db == nil {
		t.Error("Expected database to be initialized")
	}
	if cache.dbPath != dbPath {
		t.Errorf("Expected dbPath %q, got %q", dbPath, cache.dbPath)
	}
	if !cache.compressionEnabled {
		t.Error("Expected compression to be enabled")
	}
	if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
		t.Error("Expected cache directory to be created")
	}
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		t.Error("Expected backup directory to be created")
	}
}

func TestSetAndGet(t *testing.T) {
	for _, compression := range []bool{false, true} {
		cache, _, cleanup := setupTestCache(t, compression)

		if err := cache.Set("python3:abc", sampleResult); err != nil {
			t.Fatalf("Failed to set value (compression=%v): %v", compression, err)
		}

		retrieved, found := cache.Get("python3:abc")
		if !found {
			t.Errorf("Expected to find the key (compression=%v)", compression)
		}
		if retrieved != sampleResult {
			t.Errorf("Expected value %q, got %q", sampleResult, retrieved)
		}
		cleanup()
	}
}

func TestGetNonExistentKey(t *testing.T) {
	cache, _, cleanup := setupTestCache(t, false)
	defer cleanup()

	if _, found := cache.Get("nonexistent_key"); found {
		t.Error("Expected not to find non-existent key")
	}
}

func TestCompressionToggleKeepsEntriesReadable(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "cache.db")
	backupPath := filepath.Join(tmpDir, "backups")

	plain, err := NewPersistentCache(dbPath, backupPath, false)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	plain.Set("plain", sampleResult)
	plain.Close()

	compressed, err := NewPersistentCache(dbPath, backupPath, true)
	if err != nil {
		t.Fatalf("Failed to reopen cache: %v", err)
	}
	defer compressed.Close()
	compressed.Set("zipped", sampleResult)

	for _, key := range []string{"plain", "zipped"} {
		value, found := compressed.Get(key)
		if !found || value != sampleResult {
			t.Errorf("Key %q: expected %q, got %q (found=%v)", key, sampleResult, value, found)
		}
	}
}

func TestDelete(t *testing.T) {
	cache, _, cleanup := setupTestCache(t, false)
	defer cleanup()

	cache.Set("delete_test", sampleResult)
	if _, found := cache.Get("delete_test"); !found {
		t.Fatal("Expected key to exist before deletion")
	}

	if err := cache.Delete("delete_test"); err != nil {
		t.Fatalf("Failed to delete key: %v", err)
	}
	if _, found := cache.Get("delete_test"); found {
		t.Error("Expected key to be deleted")
	}
}

func TestClear(t *testing.T) {
	cache, _, cleanup := setupTestCache(t, false)
	defer cleanup()

	cache.Set("key1", "value1")
	cache.Set("key2", "value2")
	cache.Set("key3", "value3")

	if numKeys, _ := cache.Stats(); numKeys != 3 {
		t.Errorf("Expected 3 keys before clear, got %d", numKeys)
	}

	if err := cache.Clear(); err != nil {
		t.Fatalf("Failed to clear cache: %v", err)
	}

	if numKeys, _ := cache.Stats(); numKeys != 0 {
		t.Errorf("Expected 0 keys after clear, got %d", numKeys)
	}
	if _, found := cache.Get("key1"); found {
		t.Error("Expected key1 to be cleared")
	}
}

func TestRange(t *testing.T) {
	cache, _, cleanup := setupTestCache(t, false)
	defer cleanup()

	entries := map[string]string{
		"key1": "value1",
		"key2": "value2",
		"key3": "value3",
	}
	for k, v := range entries {
		cache.Set(k, v)
	}

	found := make(map[string]string)
	cache.Range(func(key string, entry CacheEntry) bool {
		found[key] = entry.Value
		return true
	})

	if len(found) != len(entries) {
		t.Errorf("Expected %d entries, found %d", len(entries), len(found))
	}
	for key, value := range entries {
		if found[key] != value {
			t.Errorf("Expected Range to yield %q=%q, got %q", key, value, found[key])
		}
	}
}

func TestBackupAndRestore(t *testing.T) {
	cache, tmpDir, cleanup := setupTestCache(t, false)
	defer cleanup()

	cache.Set("kept", sampleResult)

	backupPath, err := cache.Backup()
	if err != nil {
		t.Fatalf("Failed to create backup: %v", err)
	}
	if filepath.Dir(backupPath) != filepath.Join(tmpDir, "backups") {
		t.Errorf("Unexpected backup directory %q", filepath.Dir(backupPath))
	}
	if !strings.HasPrefix(filepath.Base(backupPath), "cache_backup_") {
		t.Errorf("Unexpected backup filename %q", filepath.Base(backupPath))
	}

	cache.Set("added_later", sampleResult)
	cache.Delete("kept")

	if err := cache.RestoreFromBackup(filepath.Base(backupPath)); err != nil {
		t.Fatalf("Failed to restore backup: %v", err)
	}

	if _, found := cache.Get("kept"); !found {
		t.Error("Expected restored key to be present")
	}
	if _, found := cache.Get("added_later"); found {
		t.Error("Expected key written after the backup to be gone")
	}

	backups, err := cache.ListBackups()
	if err != nil {
		t.Fatalf("Failed to list backups: %v", err)
	}
	if len(backups) != 1 {
		t.Fatalf("Expected 1 backup, got %d", len(backups))
	}
	if backups[0].Size == 0 {
		t.Error("Expected backup size to be non-zero")
	}

	if err := cache.DeleteBackup(backups[0].FileName); err != nil {
		t.Fatalf("Failed to delete backup: %v", err)
	}
	backups, _ = cache.ListBackups()
	if len(backups) != 0 {
		t.Errorf("Expected no backups after delete, got %d", len(backups))
	}
}

func TestRestoreRejectsBadNames(t *testing.T) {
	cache, _, cleanup := setupTestCache(t, false)
	defer cleanup()

	for _, name := range []string{"missing.db", "../escape.db", "notes.txt"} {
		if err := cache.RestoreFromBackup(name); err == nil {
			t.Errorf("Expected restore of %q to fail", name)
		}
	}
}

func TestBackupAndClear(t *testing.T) {
	cache, _, cleanup := setupTestCache(t, false)
	defer cleanup()

	cache.Set("clear_key1", "clear_value1")
	cache.Set("clear_key2", "clear_value2")

	backupPath, err := cache.BackupAndClear()
	if err != nil {
		t.Fatalf("Failed to backup and clear: %v", err)
	}
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		t.Errorf("Expected backup file to exist at %q", backupPath)
	}
	if numKeys, _ := cache.Stats(); numKeys != 0 {
		t.Errorf("Expected 0 keys after clear, got %d", numKeys)
	}
}

func TestLoadToMemory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "persistent.db")
	backupPath := filepath.Join(tmpDir, "backups")

	cache1, err := NewPersistentCache(dbPath, backupPath, false)
	if err != nil {
		t.Fatalf("Failed to create first cache: %v", err)
	}
	cache1.Set("persistent_key", sampleResult)
	cache1.Close()

	cache2, err := NewPersistentCache(dbPath, backupPath, false)
	if err != nil {
		t.Fatalf("Failed to create second cache: %v", err)
	}
	defer cache2.Close()

	if _, ok := cache2.memCache.Load("persistent_key"); !ok {
		t.Error("Expected entry to be preloaded into memory")
	}
	value, found := cache2.Get("persistent_key")
	if !found || value != sampleResult {
		t.Errorf("Expected %q, got %q (found=%v)", sampleResult, value, found)
	}
}

func TestMemoryCacheFallback(t *testing.T) {
	cache, _, cleanup := setupTestCache(t, true)
	defer cleanup()

	cache.Set("memory_test", sampleResult)
	cache.memCache.Delete("memory_test")

	retrieved, found := cache.Get("memory_test")
	if !found {
		t.Fatal("Expected to find value in disk cache")
	}
	if retrieved != sampleResult {
		t.Errorf("Expected value %q from disk, got %q", sampleResult, retrieved)
	}
	if _, ok := cache.memCache.Load("memory_test"); !ok {
		t.Error("Expected disk read to repopulate memory")
	}
}

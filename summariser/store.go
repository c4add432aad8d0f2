package summariser

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ErrQuotaExceeded is returned by a QuotaStore when a value does not fit.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Store is a key-value medium holding named text slots.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key string, value string) error
}

func OpenDB(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&KVSlot{}, &JournalEntry{}); err != nil {
		return nil, err
	}
	return db, nil
}

// CloseDB closes the connection pool behind db.
func CloseDB(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SQLiteStore keeps slots in the kv_slots table.
type SQLiteStore struct {
	db *gorm.DB
}

func NewSQLiteStore(db *gorm.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Get(key string) (string, bool, error) {
	var rows []KVSlot
	if err := s.db.Where("name = ?", key).Limit(1).Find(&rows).Error; err != nil {
		return "", false, err
	}
	if len(rows) == 0 {
		return "", false, nil
	}
	return rows[0].Value, true, nil
}

func (s *SQLiteStore) Set(key string, value string) error {
	slot := KVSlot{Name: key, Value: value, UpdatedAt: time.Now().UTC()}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&slot).Error
}

// FileStore keeps one file per slot under Dir.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{Dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.Dir, url.PathEscape(key)+".json")
}

func (s *FileStore) Get(key string) (string, bool, error) {
	b, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(b), true, nil
}

func (s *FileStore) Set(key string, value string) error {
	return WriteFileAtomic(s.path(key), []byte(value))
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu    sync.Mutex
	slots map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: map[string]string{}}
}

func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.slots[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[key] = value
	return nil
}

// QuotaStore rejects writes whose value exceeds Limit bytes.
// A Limit of zero or less disables the check.
type QuotaStore struct {
	Store
	Limit int
}

func (s *QuotaStore) Set(key string, value string) error {
	if s.Limit > 0 && len(value) > s.Limit {
		return fmt.Errorf("%w: slot %q needs %d bytes, limit %d", ErrQuotaExceeded, key, len(value), s.Limit)
	}
	return s.Store.Set(key, value)
}

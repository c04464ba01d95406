package database

import (
	"database/sql"
	"errors"
	"sync"

	"rolltodo/pkg/utils"
)

// Storage implements LocalStorage on top of the local_storage table.
type Storage struct {
	db *sql.DB
}

// NewStorage wraps an already migrated database.
func NewStorage(db *sql.DB) *Storage {
	return &Storage{db: db}
}

// GetItem retrieves a single value by key
func (s *Storage) GetItem(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM local_storage WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetItem inserts or replaces the value for key
func (s *Storage) SetItem(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO local_storage (key, value, lastmodified) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, lastmodified = CURRENT_TIMESTAMP`,
		key, value,
	)
	utils.Debug("local storage set", "key", key)
	return err
}

// RemoveItem deletes key; removing a missing key is not an error
func (s *Storage) RemoveItem(key string) error {
	_, err := s.db.Exec("DELETE FROM local_storage WHERE key = ?", key)
	utils.Debug("local storage remove", "key", key)
	return err
}

// Items returns every stored key/value pair
func (s *Storage) Items() (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM local_storage ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		items[k] = v
	}
	return items, rows.Err()
}

// Close closes the underlying database
func (s *Storage) Close() error {
	return s.db.Close()
}

// MemoryStorage is an in-process LocalStorage used when no database is wanted.
type MemoryStorage struct {
	mu    sync.Mutex
	items map[string]string
}

// NewMemoryStorage creates an empty MemoryStorage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

func (m *MemoryStorage) GetItem(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *MemoryStorage) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *MemoryStorage) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

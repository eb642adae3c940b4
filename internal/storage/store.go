package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/pders01/cntry/internal/debuglog"
)

// MemoryPath opens a throwaway database in a temp directory that is removed
// on Close.
const MemoryPath = ":memory:"

const schemaVersion = 1

var (
	historyBucket = []byte("history")
	metaBucket    = []byte("metadata")

	schemaKey = []byte("schema_version")
)

// ErrNotFound is returned when a history entry does not exist.
var ErrNotFound = errors.New("history entry not found")

type Store struct {
	db         *bolt.DB
	maxHistory int
	tempDir    string
	now        func() time.Time
}

type Option func(*options)

type options struct {
	timeout    time.Duration
	maxHistory int
}

// WithTimeout bounds how long Open waits for the file lock.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithMaxHistory caps the number of stored entries; the oldest are pruned.
// Zero or less keeps everything.
func WithMaxHistory(n int) Option {
	return func(o *options) { o.maxHistory = n }
}

func NewStore(dbPath string, opts ...Option) (*Store, error) {
	o := options{timeout: 1 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	var tempDir string
	if dbPath == MemoryPath {
		dir, err := os.MkdirTemp("", "cntry-history-*")
		if err != nil {
			return nil, fmt.Errorf("creating temp database dir: %w", err)
		}
		tempDir = dir
		dbPath = filepath.Join(dir, "history.db")
	} else if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database dir: %w", err)
		}
	}

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: o.timeout})
	if err != nil {
		if tempDir != "" {
			os.RemoveAll(tempDir)
		}
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{historyBucket, metaBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		meta := tx.Bucket(metaBucket)
		if meta.Get(schemaKey) == nil {
			return meta.Put(schemaKey, []byte(strconv.Itoa(schemaVersion)))
		}
		return nil
	})

	if err != nil {
		db.Close()
		if tempDir != "" {
			os.RemoveAll(tempDir)
		}
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db, maxHistory: o.maxHistory, tempDir: tempDir, now: time.Now}, nil
}

func (s *Store) Close() error {
	err := s.db.Close()
	if s.tempDir != "" {
		if rmErr := os.RemoveAll(s.tempDir); rmErr != nil && err == nil {
			err = rmErr
		}
	}
	return err
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.db.Path()
}

// RecordLookup stores entry, assigning an ID and timestamp when missing.
// It returns the IDs of entries pruned to stay under the history cap.
func (s *Store) RecordLookup(entry *HistoryEntry) ([]string, error) {
	if entry.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("generating history id: %w", err)
		}
		entry.ID = id.String()
	}
	if entry.At.IsZero() {
		entry.At = s.now()
	}

	var pruned []string
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(historyBucket)
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		if err := b.Put([]byte(entry.ID), data); err != nil {
			return err
		}

		if s.maxHistory <= 0 {
			return nil
		}
		excess := countKeys(b) - s.maxHistory
		if excess <= 0 {
			return nil
		}
		// v7 ids sort by creation time, so the first keys are the oldest.
		c := b.Cursor()
		for k, _ := c.First(); k != nil && excess > 0; k, _ = c.Next() {
			pruned = append(pruned, string(k))
			excess--
		}
		for _, id := range pruned {
			if err := b.Delete([]byte(id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("recording lookup: %w", err)
	}

	if len(pruned) > 0 {
		debuglog.Debugf("Pruned %d history entries", len(pruned))
	}
	return pruned, nil
}

func (s *Store) GetLookup(id string) (*HistoryEntry, error) {
	var entry HistoryEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(historyBucket)
		data := b.Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// RecentLookups returns up to limit entries, newest first. A limit of zero
// or less returns all of them.
func (s *Store) RecentLookups(limit int) ([]*HistoryEntry, error) {
	var entries []*HistoryEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(historyBucket).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(entries) >= limit {
				break
			}
			var entry HistoryEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				debuglog.Warnf("Skipping unreadable history entry %s: %v", k, err)
				continue
			}
			entries = append(entries, &entry)
		}
		return nil
	})
	return entries, err
}

// ForEachLookup calls fn for every entry, oldest first.
func (s *Store) ForEachLookup(fn func(*HistoryEntry) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(historyBucket).ForEach(func(_ []byte, v []byte) error {
			var entry HistoryEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return nil
			}
			return fn(&entry)
		})
	})
}

func (s *Store) HistoryCount() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = countKeys(tx.Bucket(historyBucket))
		return nil
	})
	return n, err
}

// ClearHistory removes every entry and returns how many were deleted.
func (s *Store) ClearHistory() (int, error) {
	var n int
	err := s.db.Update(func(tx *bolt.Tx) error {
		n = countKeys(tx.Bucket(historyBucket))
		if err := tx.DeleteBucket(historyBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(historyBucket)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("clearing history: %w", err)
	}
	return n, nil
}

// SchemaVersion returns the version stamped when the database was created.
func (s *Store) SchemaVersion() (int, error) {
	var v int
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(metaBucket).Get(schemaKey)
		if raw == nil {
			return nil
		}
		n, err := strconv.Atoi(string(raw))
		if err != nil {
			return err
		}
		v = n
		return nil
	})
	return v, err
}

// countKeys walks the bucket; Stats does not see writes pending in the
// current transaction.
func countKeys(b *bolt.Bucket) int {
	n := 0
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		n++
	}
	return n
}

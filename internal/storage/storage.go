// Package storage persists engine preferences and cumulative search
// statistics across sessions in a BadgerDB store.
package storage

import (
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Storage keys
const (
	keyOptions = "engine_options"
	keyStats   = "engine_stats"
)

// EngineOptions are the UCI-configurable settings worth restoring on
// the next launch.
type EngineOptions struct {
	HashMB   int    `json:"hash_mb"`
	UseNNUE  bool   `json:"use_nnue"`
	EvalFile string `json:"eval_file"`
}

// DefaultOptions returns the out-of-the-box configuration.
func DefaultOptions() *EngineOptions {
	return &EngineOptions{
		HashMB: 128,
	}
}

// EngineStats accumulates over the lifetime of the installation.
type EngineStats struct {
	Searches   int           `json:"searches"`
	Nodes      uint64        `json:"nodes"`
	SearchTime time.Duration `json:"search_time"`
	MaxDepth   int           `json:"max_depth"`
	LastUsed   time.Time     `json:"last_used"`
}

// Store wraps BadgerDB.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) a store in the given directory.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// OpenDefault opens the store in the per-user data directory.
func OpenDefault() (*Store, error) {
	dir, err := DatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dir)
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveOptions persists the engine options.
func (s *Store) SaveOptions(opts *EngineOptions) error {
	data, err := json.Marshal(opts)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyOptions), data)
	})
}

// LoadOptions returns the persisted options, or defaults when none
// were saved yet.
func (s *Store) LoadOptions() (*EngineOptions, error) {
	opts := DefaultOptions()
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyOptions))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, opts)
		})
	})
	return opts, err
}

// SaveStats persists the statistics.
func (s *Store) SaveStats(stats *EngineStats) error {
	stats.LastUsed = time.Now()
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyStats), data)
	})
}

// LoadStats returns the persisted statistics, empty when absent.
func (s *Store) LoadStats() (*EngineStats, error) {
	stats := &EngineStats{}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyStats))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, stats)
		})
	})
	return stats, err
}

// RecordSearch folds one completed search into the stats.
func (s *Store) RecordSearch(nodes uint64, depth int, elapsed time.Duration) error {
	stats, err := s.LoadStats()
	if err != nil {
		return err
	}
	stats.Searches++
	stats.Nodes += nodes
	stats.SearchTime += elapsed
	if depth > stats.MaxDepth {
		stats.MaxDepth = depth
	}
	return s.SaveStats(stats)
}

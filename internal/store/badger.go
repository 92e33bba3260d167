package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/ogero/stremio-hub/internal/common"
)

type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens a badger-backed store at path. Callers own the returned
// store and must Close it to flush pending updates to disk.
func OpenBadger(path string) (*BadgerStore, error) {
	db, err := badger.Open(
		badger.DefaultOptions(path).
			WithNumVersionsToKeep(0).
			WithValueLogFileSize(1024 * 1024 * 100).
			WithLogger(&badgerLogger{}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to badger.Open: %w", err)
	}

	return &BadgerStore{db: db}, nil
}

// Get retrieves the value for key. The boolean reports whether the key was present.
func (s *BadgerStore) Get(key string) (string, bool, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to badger.DB.View: %w", err)
	}

	return string(value), true, nil
}

// Set stores value under key, overwriting any previous value.
func (s *BadgerStore) Set(key string, value string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("failed to badger.DB.Update: %w", err)
	}

	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (s *BadgerStore) Remove(key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to badger.DB.Update: %w", err)
	}

	return nil
}

// Close closes the store DB. It's crucial to call it to ensure all the
// pending updates make their way to disk.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

type badgerLogger struct{}

func (l *badgerLogger) Errorf(s string, i ...interface{}) {
	common.Log.Error(fmt.Sprintf(s, i...))
}

func (l *badgerLogger) Warningf(s string, i ...interface{}) {
	common.Log.Warn(fmt.Sprintf(s, i...))
}

func (l *badgerLogger) Infof(s string, i ...interface{}) {
	common.Log.Debug(fmt.Sprintf(s, i...))
}

func (l *badgerLogger) Debugf(s string, i ...interface{}) {
	common.Log.Debug(fmt.Sprintf(s, i...))
}

package common

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/rs/zerolog/log"
)

// Database is the durable key-value store shared by the bot components.
// Keys are plain strings, namespaced by the callers with a "prefix/" convention
type Database struct {
	inner *pebble.DB
}

func OpenDatabase(dir string) (*Database, error) {
	if dir == "" {
		return nil, errors.New("database directory is required")
	}
	inner, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("could not open database in %s: %w", dir, err)
	}
	log.Debug().Msg(fmt.Sprintf("Opened database in %s", dir))
	return &Database{inner: inner}, nil
}

func (db *Database) Close() error {
	if db == nil || db.inner == nil {
		return nil
	}
	return db.inner.Close()
}

// Get copies the value stored for the key.
// The boolean is false when the key does not exist
func (db *Database) Get(key string) ([]byte, bool, error) {
	value, closer, err := db.inner.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()
	return append([]byte(nil), value...), true, nil
}

func (db *Database) Set(key string, value []byte) error {
	return db.inner.Set([]byte(key), value, pebble.Sync)
}

func (db *Database) Delete(key string) error {
	return db.inner.Delete([]byte(key), pebble.Sync)
}

func (db *Database) GetJSON(key string, value any) (bool, error) {
	data, ok, err := db.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, value); err != nil {
		return false, fmt.Errorf("value for key %s is not valid json: %w", key, err)
	}
	return true, nil
}

func (db *Database) SetJSON(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return db.Set(key, data)
}

// Scan calls fn for every key starting with prefix, in key order.
// Iteration stops at the first error returned by fn
func (db *Database) Scan(prefix string, fn func(key string, value []byte) error) error {
	iter, err := db.inner.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: prefixUpperBound([]byte(prefix)),
	})
	if err != nil {
		return err
	}
	for iter.First(); iter.Valid(); iter.Next() {
		value := append([]byte(nil), iter.Value()...)
		if err := fn(string(iter.Key()), value); err != nil {
			iter.Close()
			return err
		}
	}
	return iter.Close()
}

// Smallest key greater than every key with the given prefix, or nil if there is none
func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

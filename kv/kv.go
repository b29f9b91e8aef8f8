// Package kv provides a key-value store with hierarchical path keys.
// Keys are string slices (["rag", "index", "chunk", "0007"]) joined with
// ':' for storage. Badger backs persistent stores; Memory is for tests
// and ephemeral runs. Values are opaque bytes; GetValue and SetValue
// encode records with msgpack.
package kv

import (
	"context"
	"errors"
	"iter"
	"strings"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("kv: not found")

// Separator joins key segments in the encoded form.
const Separator = ":"

// Key is a hierarchical path. Segments must not contain Separator.
type Key []string

// String returns the encoded key.
func (k Key) String() string { return strings.Join(k, Separator) }

func (k Key) bytes() []byte { return []byte(k.String()) }

// prefixBytes returns the encoded prefix with a trailing separator so that
// "a:b" does not match "a:bc". The empty key matches everything.
func (k Key) prefixBytes() []byte {
	if len(k) == 0 {
		return nil
	}

	return []byte(k.String() + Separator)
}

func decodeKey(b []byte) Key { return Key(strings.Split(string(b), Separator)) }

// Entry is a key-value pair returned by List and used by BatchSet.
type Entry struct {
	Key   Key
	Value []byte
}

// Store is the interface for a key-value store with path keys. All
// implementations are safe for concurrent use.
type Store interface {
	// Get retrieves the value for a key. Returns ErrNotFound if not present.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set stores a key-value pair, overwriting any existing value.
	Set(ctx context.Context, key Key, value []byte) error

	// Delete removes a key. No error if the key does not exist.
	Delete(ctx context.Context, key Key) error

	// List iterates over entries under prefix in lexicographic key order.
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]

	// BatchSet atomically stores multiple key-value pairs.
	BatchSet(ctx context.Context, entries []Entry) error

	// BatchDelete atomically removes multiple keys.
	BatchDelete(ctx context.Context, keys []Key) error

	// Close releases any resources held by the store.
	Close() error
}

// DeletePrefix removes every key under prefix.
func DeletePrefix(ctx context.Context, s Store, prefix Key) error {
	var keys []Key

	for e, err := range s.List(ctx, prefix) {
		if err != nil {
			return err
		}

		keys = append(keys, e.Key)
	}

	if len(keys) == 0 {
		return nil
	}

	return s.BatchDelete(ctx, keys)
}

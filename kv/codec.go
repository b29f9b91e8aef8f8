package kv

import (
	"context"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// GetValue loads and msgpack-decodes the record stored at key.
func GetValue[T any](ctx context.Context, s Store, key Key) (T, error) {
	var v T

	b, err := s.Get(ctx, key)
	if err != nil {
		return v, err
	}

	if err := msgpack.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("kv: decode %s: %w", key, err)
	}

	return v, nil
}

// SetValue msgpack-encodes v and stores it at key.
func SetValue(ctx context.Context, s Store, key Key, v any) error {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("kv: encode %s: %w", key, err)
	}

	return s.Set(ctx, key, b)
}

// Encode returns an Entry holding the msgpack encoding of v.
func Encode(key Key, v any) (Entry, error) {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return Entry{}, fmt.Errorf("kv: encode %s: %w", key, err)
	}

	return Entry{Key: key, Value: b}, nil
}

// Decode msgpack-decodes an entry's value into a T.
func Decode[T any](e Entry) (T, error) {
	var v T
	if err := msgpack.Unmarshal(e.Value, &v); err != nil {
		return v, fmt.Errorf("kv: decode %s: %w", e.Key, err)
	}

	return v, nil
}

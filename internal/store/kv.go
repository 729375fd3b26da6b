package store

import (
	"context"
	"fmt"
)

// Keys under which the companion keeps its state. The counter and the note
// list never share a key.
const (
	KeyCounter = "counter"
	KeyNotes   = "notes"
)

// KV is the durable key/value contract the counter and note store are built
// on. Implementations need not coordinate concurrent writers.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// AccessError reports a failed read or write against a KV. It is always
// recoverable: the caller keeps whatever it last read successfully and
// tries again on the next event.
type AccessError struct {
	Op  string // get, set, delete, decode, encode or remote
	Key string
	Err error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *AccessError) Unwrap() error { return e.Err }

// Read is a Get that wraps failures in *AccessError.
func Read(ctx context.Context, kv KV, key string) (string, bool, error) {
	v, ok, err := kv.Get(ctx, key)
	if err != nil {
		return "", false, &AccessError{Op: "get", Key: key, Err: err}
	}
	return v, ok, nil
}

// Write is a Set that wraps failures in *AccessError.
func Write(ctx context.Context, kv KV, key, value string) error {
	if err := kv.Set(ctx, key, value); err != nil {
		return &AccessError{Op: "set", Key: key, Err: err}
	}
	return nil
}

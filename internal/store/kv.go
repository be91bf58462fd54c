// Package store persists every collection as one JSON blob per key and
// announces each write on the change bus.
package store

import "context"

// KV is a raw key-value backend. Values are complete JSON documents and a
// Set replaces the whole value.
type KV interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

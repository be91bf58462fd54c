package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/certify-backend/internal/bus"
)

// Store is the single gateway to persisted collections. Reads fail soft and
// every successful write is followed by a change on the bus.
type Store struct {
	kv  KV
	bus *bus.Bus
	log zerolog.Logger
}

// New creates a Store over kv publishing on b.
func New(kv KV, b *bus.Bus, log zerolog.Logger) *Store {
	return &Store{
		kv:  kv,
		bus: b,
		log: log.With().Str("component", "store").Logger(),
	}
}

// Bus returns the change bus the store publishes on.
func (s *Store) Bus() *bus.Bus {
	return s.bus
}

// ReadJSON decodes the blob at key into dst. It reports false when the key
// is missing, the backend fails or the blob does not decode; dst may then
// be partially written and callers fall back to their default.
func (s *Store) ReadJSON(ctx context.Context, key string, dst any) bool {
	raw, ok := s.read(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Corrupted blob, using default")
		return false
	}
	return true
}

// ReadList decodes a JSON array element by element. Elements of the wrong
// shape are skipped; a blob that is not an array yields an empty list.
func ReadList[T any](ctx context.Context, s *Store, key string) []T {
	out := make([]T, 0)
	raw, ok := s.read(ctx, key)
	if !ok {
		return out
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Corrupted list, using empty")
		return out
	}

	skipped := 0
	for _, e := range elems {
		var v T
		if err := json.Unmarshal(e, &v); err != nil {
			skipped++
			continue
		}
		out = append(out, v)
	}
	if skipped > 0 {
		s.log.Warn().Str("key", key).Int("skipped", skipped).Msg("Dropped malformed records")
	}
	return out
}

// WriteJSON replaces the blob of the changed collection with v and then
// publishes c.
func (s *Store) WriteJSON(ctx context.Context, c bus.Change, v any) error {
	key := c.StorageKey()
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, raw); err != nil {
		return err
	}
	s.bus.Publish(c)
	return nil
}

// Keys lists stored keys with the given prefix.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	return s.kv.Keys(ctx, prefix)
}

func (s *Store) read(ctx context.Context, key string) ([]byte, bool) {
	raw, found, err := s.kv.Get(ctx, key)
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("Read failed, using default")
		return nil, false
	}
	if !found || len(raw) == 0 {
		return nil, false
	}
	return raw, true
}

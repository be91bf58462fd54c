// Package bus delivers store change signals to in-process subscribers.
package bus

import (
	"encoding/json"
	"slices"
	"sync"

	"github.com/stemsi/certify-backend/internal/model"
)

// Change announces that one stored collection was rewritten. Inbox is set
// for per-recipient inbox writes and Key for every other collection.
type Change struct {
	Key   string
	Inbox *model.InboxKey
	// Remote marks changes relayed from another server instance.
	Remote bool
}

// CollectionChange builds the change for a global collection key.
func CollectionChange(key string) Change {
	return Change{Key: key}
}

// InboxChange builds the change for one recipient's inbox.
func InboxChange(k model.InboxKey) Change {
	return Change{Inbox: &k}
}

// StorageKey is the store key the change refers to.
func (c Change) StorageKey() string {
	if c.Inbox != nil {
		return c.Inbox.StorageKey()
	}
	return c.Key
}

// MarshalJSON renders {"key": ...} for collections and {"storageKey": ...}
// for inboxes, the two payload shapes clients listen for.
func (c Change) MarshalJSON() ([]byte, error) {
	if c.Inbox != nil {
		return json.Marshal(struct {
			StorageKey string `json:"storageKey"`
		}{c.Inbox.StorageKey()})
	}
	return json.Marshal(struct {
		Key string `json:"key"`
	}{c.Key})
}

// Handler receives a change.
type Handler func(Change)

// Bus is a synchronous publish/subscribe hub keyed by storage key.
type Bus struct {
	mu    sync.RWMutex
	next  int
	byKey map[string]map[int]Handler
	any   map[int]Handler
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{
		byKey: make(map[string]map[int]Handler),
		any:   make(map[int]Handler),
	}
}

// OnChange subscribes fn to changes of one storage key. The returned
// function unsubscribes and may be called more than once.
func (b *Bus) OnChange(key string, fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	subs := b.byKey[key]
	if subs == nil {
		subs = make(map[int]Handler)
		b.byKey[key] = subs
	}
	subs[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if subs, ok := b.byKey[key]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(b.byKey, key)
			}
		}
	}
}

// OnInbox subscribes fn to changes of one recipient's inbox.
func (b *Bus) OnInbox(k model.InboxKey, fn Handler) (unsubscribe func()) {
	return b.OnChange(k.StorageKey(), fn)
}

// OnAny subscribes fn to every change.
func (b *Bus) OnAny(fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	b.any[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.any, id)
	}
}

// Publish delivers c to every matching subscriber before returning. Key
// subscribers run first, in subscription order, then catch-all subscribers.
// Handlers may subscribe or unsubscribe while being called.
func (b *Bus) Publish(c Change) {
	key := c.StorageKey()

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.byKey[key])+len(b.any))
	handlers = appendOrdered(handlers, b.byKey[key])
	handlers = appendOrdered(handlers, b.any)
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(c)
	}
}

func appendOrdered(dst []Handler, subs map[int]Handler) []Handler {
	if len(subs) == 0 {
		return dst
	}
	ids := make([]int, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		dst = append(dst, subs[id])
	}
	return dst
}

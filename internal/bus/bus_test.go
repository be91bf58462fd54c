package bus

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/certify-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChange_JSON(t *testing.T) {
	raw, err := json.Marshal(CollectionChange("appointments"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"appointments"}`, string(raw))

	raw, err = json.Marshal(InboxChange(model.InboxKey{Role: model.RoleUser, Email: "Ani@Example.com"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"storageKey":"notifications_user_ani@example.com"}`, string(raw))
}

func TestBus_PublishOrder(t *testing.T) {
	b := New()
	var got []string

	b.OnAny(func(Change) { got = append(got, "any") })
	b.OnChange("users", func(Change) { got = append(got, "users-1") })
	b.OnChange("users", func(Change) { got = append(got, "users-2") })
	b.OnChange("examSettings", func(Change) { got = append(got, "settings") })

	b.Publish(CollectionChange("users"))
	assert.Equal(t, []string{"users-1", "users-2", "any"}, got)
}

func TestBus_Unsubscribe(t *testing.T) {
	b := New()
	calls := 0
	k := model.InboxKey{Role: model.RoleAdmin, Email: "admin@example.com"}

	unsubscribe := b.OnInbox(k, func(Change) { calls++ })
	b.Publish(InboxChange(k))
	b.Publish(InboxChange(model.InboxKey{Role: model.RoleUser, Email: "admin@example.com"}))
	assert.Equal(t, 1, calls)

	unsubscribe()
	unsubscribe()
	b.Publish(InboxChange(k))
	assert.Equal(t, 1, calls)
	assert.Empty(t, b.byKey)
}

func TestBus_SubscribeDuringPublish(t *testing.T) {
	b := New()
	late := 0
	b.OnAny(func(Change) {
		b.OnAny(func(Change) { late++ })
	})

	b.Publish(CollectionChange("users"))
	assert.Equal(t, 0, late)
	b.Publish(CollectionChange("users"))
	assert.Equal(t, 1, late)
}

func startRelay(ctx context.Context, t *testing.T, addr string) (*Bus, chan Change) {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	b := New()
	remote := make(chan Change, 8)
	b.OnAny(func(c Change) {
		if c.Remote {
			remote <- c
		}
	})

	relay := NewRedisRelay(rdb, b, "certify:changes", zerolog.Nop())
	go relay.Start(ctx)
	select {
	case <-relay.Ready():
	case <-time.After(3 * time.Second):
		t.Fatal("relay not ready")
	}
	return b, remote
}

func TestRedisRelay(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, remoteA := startRelay(ctx, t, mr.Addr())
	_, remoteB := startRelay(ctx, t, mr.Addr())

	a.Publish(CollectionChange("examSettings"))
	a.Publish(InboxChange(model.InboxKey{Role: model.RoleUser, Email: "budi@example.com"}))

	receive := func() Change {
		select {
		case c := <-remoteB:
			return c
		case <-time.After(3 * time.Second):
			t.Fatal("no relayed change")
			return Change{}
		}
	}

	first := receive()
	assert.Equal(t, "examSettings", first.Key)
	assert.True(t, first.Remote)

	second := receive()
	require.NotNil(t, second.Inbox)
	assert.Equal(t, model.InboxKey{Role: model.RoleUser, Email: "budi@example.com"}, *second.Inbox)

	// An instance ignores its own messages.
	select {
	case c := <-remoteA:
		t.Fatalf("origin received its own change %+v", c)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRedisRelay_IgnoresMalformed(t *testing.T) {
	b := New()
	called := false
	b.OnAny(func(Change) { called = true })
	r := NewRedisRelay(nil, b, "certify:changes", zerolog.Nop())

	r.deliver("not json")
	r.deliver(`{"origin":"other","storageKey":"notifications_bad"}`)
	assert.False(t, called)

	r.deliver(`{"origin":"other","key":"users"}`)
	assert.True(t, called)
}

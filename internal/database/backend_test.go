package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stemsi/certify-backend/internal/config"
	"github.com/stemsi/certify-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Memory(t *testing.T) {
	b, err := Open(context.Background(), &config.Config{StoreDriver: config.StoreDriverMemory}, zerolog.Nop())
	require.NoError(t, err)
	defer b.Close()

	assert.IsType(t, &store.MemoryKV{}, b.KV)
	assert.Nil(t, b.Redis)
}

func TestOpen_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{StoreDriver: config.StoreDriverRedis, RedisURL: "redis://" + mr.Addr() + "/0"}

	b, err := Open(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer b.Close()

	require.NotNil(t, b.Redis)
	require.NoError(t, b.KV.Set(context.Background(), "examSettings", []byte(`{}`)))
	got, err := mr.Get("examSettings")
	require.NoError(t, err)
	assert.Equal(t, "{}", got)
}

func TestOpen_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Open(context.Background(), &config.Config{StoreDriver: config.StoreDriverRedis, RedisURL: "redis://" + addr}, zerolog.Nop())
	assert.Error(t, err)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{StoreDriver: "etcd"}, zerolog.Nop())
	assert.ErrorContains(t, err, "etcd")
}

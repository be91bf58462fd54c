package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/certify-backend/internal/bus"
	"github.com/stemsi/certify-backend/internal/config"
	"github.com/stemsi/certify-backend/internal/database"
	"github.com/stemsi/certify-backend/internal/store"
)

const relayStartTimeout = 3 * time.Second

// Runtime is an opened store together with its change bus and, when Redis
// is reachable, the relay to other instances.
type Runtime struct {
	Backend *database.Backend
	Bus     *bus.Bus
	Store   *store.Store

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Open connects the configured backend. Close must be called to flush
// relayed changes and release connections.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Runtime, error) {
	backend, err := database.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Backend: backend, Bus: bus.New(), cancel: func() {}}
	rt.Store = store.New(backend.KV, rt.Bus, log)

	if backend.Redis != nil {
		relayCtx, cancel := context.WithCancel(context.Background())
		rt.cancel = cancel
		relay := bus.NewRedisRelay(backend.Redis, rt.Bus, cfg.ChangeChannel, log)
		rt.wg.Add(1)
		go func() {
			defer rt.wg.Done()
			relay.Start(relayCtx)
		}()

		select {
		case <-relay.Ready():
		case <-time.After(relayStartTimeout):
			log.Warn().Msg("Relay not ready, early changes may stay local")
		}
	}
	return rt, nil
}

// Close stops the relay after it published pending changes, then closes
// the backend.
func (rt *Runtime) Close() {
	rt.cancel()
	rt.wg.Wait()
	rt.Backend.Close()
}

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/lazypower/fibday/internal/client"
	"github.com/lazypower/fibday/internal/config"
	"github.com/lazypower/fibday/internal/counter"
	"github.com/lazypower/fibday/internal/engine"
	"github.com/lazypower/fibday/internal/notes"
	"github.com/lazypower/fibday/internal/server"
	"github.com/lazypower/fibday/internal/store"
)

// backend is what the commands drive: a local engine over the configured
// store, or a running server through the HTTP client.
type backend interface {
	Activate(ctx context.Context) (counter.View, error)
	Status(ctx context.Context) (counter.View, error)
	Decide(ctx context.Context, d counter.Decision) (counter.View, error)
	ListNotes(ctx context.Context) ([]notes.Note, error)
	AddNote(ctx context.Context, text string) (notes.Note, bool, error)
	EditNoteAt(ctx context.Context, index int, text string) (notes.Note, error)
	RemoveNoteAt(ctx context.Context, index int) (notes.Note, error)
	EditNote(ctx context.Context, id, text string) (notes.Note, error)
	RemoveNote(ctx context.Context, id string) (notes.Note, error)
}

var (
	_ backend = (*engine.Engine)(nil)
	_ backend = (*client.Client)(nil)
)

// openBackend picks the server when --server or FIBDAY_URL names one and
// the local store otherwise.
func openBackend(ctx context.Context) (backend, func(), error) {
	remote := serverURL
	if remote == "" {
		remote = os.Getenv("FIBDAY_URL")
	}
	if remote != "" {
		c := client.New(remote)
		if !c.Healthy(ctx) {
			return nil, nil, fmt.Errorf("fibday server at %s is not reachable", remote)
		}
		slog.Debug("using remote server", "url", remote)
		return c, func() {}, nil
	}

	eng, _, closeFn, err := openEngine(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return eng, closeFn, nil
}

// openEngine builds an Engine over the store named by c.Store.
func openEngine(ctx context.Context, c config.Config) (*engine.Engine, server.Pinger, func(), error) {
	loc, err := c.Location()
	if err != nil {
		return nil, nil, nil, err
	}

	kv, pinger, closeFn, err := openKV(ctx, c.Store)
	if err != nil {
		return nil, nil, nil, err
	}

	eng := engine.New(kv, counter.WithLocation(loc))
	eng.SetLocation(loc)
	return eng, pinger, closeFn, nil
}

func openKV(ctx context.Context, sc config.StoreConfig) (store.KV, server.Pinger, func(), error) {
	switch sc.Driver {
	case "memory":
		return store.NewMemory(), nil, func() {}, nil

	case "redis":
		r, err := store.OpenRedis(ctx, store.RedisOptions{
			Addr:     sc.Redis.Addr,
			Password: sc.Redis.Password,
			DB:       sc.Redis.DB,
			Prefix:   sc.Redis.Prefix,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open redis: %w", err)
		}
		return r, r, func() { r.Close() }, nil

	default:
		path, err := dbPath(sc)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("resolve db path: %w", err)
		}
		db, err := store.Open(path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open database: %w", err)
		}
		slog.Debug("opened database", "path", path)
		return db, db, func() { db.Close() }, nil
	}
}

// dbPath resolves the SQLite file: FIBDAY_DB, then store.path, then the
// default under the home directory.
func dbPath(sc config.StoreConfig) (string, error) {
	if p := os.Getenv("FIBDAY_DB"); p != "" {
		return p, nil
	}
	if sc.Path != "" {
		return sc.Path, nil
	}
	return store.DefaultDBPath()
}

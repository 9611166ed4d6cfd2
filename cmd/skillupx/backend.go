package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/skillupx/skillupx/internal/config"
	"github.com/skillupx/skillupx/problem"
	"github.com/skillupx/skillupx/runner"
	"github.com/skillupx/skillupx/runner/cache"
	"github.com/skillupx/skillupx/runner/docker"
	"github.com/skillupx/skillupx/runner/judge0"
	"github.com/skillupx/skillupx/runner/wasm"
)

var errNoBackend = errors.New("no execution backend: set SKILLUPX_BACKEND to docker, judge0 or wasm")

// closer releases whatever a constructor opened.
type closer func()

// newRunner builds the configured backend, wrapped in the Redis cache when
// SKILLUPX_REDIS_ADDR is set. A "none" backend returns errNoBackend.
func (a *app) newRunner(ctx context.Context) (runner.Runner, closer, error) {
	cfg := a.cfg
	var (
		r    runner.Runner
		done closer = func() {}
	)

	switch cfg.Backend {
	case config.BackendDocker:
		opts := []docker.Option{docker.WithPull(cfg.DockerPull), docker.WithLogger(a.logger)}
		if cfg.MemoryLimitKB > 0 {
			opts = append(opts, docker.WithMemoryLimit(int64(cfg.MemoryLimitKB)<<10))
		}
		d, err := docker.New(ctx, opts...)
		if err != nil {
			return nil, nil, err
		}
		r, done = d, func() { d.Close() }

	case config.BackendJudge0:
		var opts []judge0.Option
		if cfg.Judge0Token != "" {
			opts = append(opts, judge0.WithAuthToken(cfg.Judge0Token))
		}
		r = judge0.New(cfg.Judge0URL, opts...)

	case config.BackendWasm:
		opts := []wasm.Option{wasm.WithDiskCache()}
		if cfg.WasmPython != "" {
			opts = append(opts, wasm.WithInterpreter("python", cfg.WasmPython))
		}
		if cfg.WasmJavaScript != "" {
			opts = append(opts, wasm.WithInterpreter("javascript", cfg.WasmJavaScript))
		}
		if cfg.MemoryLimitKB > 0 {
			opts = append(opts, wasm.WithMemoryLimit(wasm.PagesForKB(cfg.MemoryLimitKB)))
		}
		w, err := wasm.New(opts...)
		if err != nil {
			return nil, nil, err
		}
		r, done = w, func() { w.Close() }

	default:
		return nil, nil, errNoBackend
	}

	if cfg.RedisAddr == "" {
		return r, done, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		a.logger.Warn("redis unavailable, running without result cache", "addr", cfg.RedisAddr, "err", err)
		rdb.Close()
		return r, done, nil
	}
	a.logger.Debug("result cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
	cached := cache.New(rdb, r, cache.WithTTL(cfg.CacheTTL), cache.WithLogger(a.logger))
	return cached, func() {
		rdb.Close()
		done()
	}, nil
}

// openStore returns the problem catalog: Postgres when DATABASE_URL is set,
// otherwise the SKILLUPX_CATALOG file, otherwise the built-in catalog.
func (a *app) openStore(ctx context.Context) (problem.Store, closer, error) {
	if a.cfg.DatabaseURL != "" {
		pg, err := problem.Connect(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	}
	if a.cfg.Catalog != "" {
		f, err := os.Open(a.cfg.Catalog)
		if err != nil {
			return nil, nil, fmt.Errorf("open catalog: %w", err)
		}
		defer f.Close()
		store, err := problem.LoadCatalog(f)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", a.cfg.Catalog, err)
		}
		return store, func() {}, nil
	}
	store, err := problem.Default()
	if err != nil {
		return nil, nil, err
	}
	return store, func() {}, nil
}

// resolverFor returns a function-name resolver over store. Stores other than
// the in-memory one are snapshotted.
func resolverFor(ctx context.Context, store problem.Store) (*problem.MemoryStore, error) {
	if mem, ok := store.(*problem.MemoryStore); ok {
		return mem, nil
	}
	problems, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	return problem.NewMemoryStore(problems...), nil
}

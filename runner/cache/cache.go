// Package cache memoises runner results in Redis.
//
// Programs are deterministic for a given source and stdin, so repeated
// submissions of the same code against the same tests are answered from the
// cache. Only final, non-internal verdicts are stored.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/skillupx/skillupx/runner"
)

// Client is the subset of the Redis client the cache uses. *redis.Client
// satisfies it.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Runner wraps another runner with a Redis result cache.
type Runner struct {
	client Client
	next   runner.Runner
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

var _ runner.Runner = (*Runner)(nil)

// Option configures a Runner.
type Option func(*Runner)

// WithTTL sets how long results are kept. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(r *Runner) {
		r.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(r *Runner) {
		r.prefix = prefix
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// New returns a caching decorator around next.
func New(client Client, next runner.Runner, opts ...Option) *Runner {
	r := &Runner{
		client: client,
		next:   next,
		ttl:    24 * time.Hour,
		prefix: "skillupx:run:",
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name reports the wrapped backend.
func (r *Runner) Name() string {
	return r.next.Name()
}

// Run serves sub from the cache or runs it on the wrapped backend. Cache
// failures are logged and never fail the run.
func (r *Runner) Run(ctx context.Context, sub runner.Submission) (runner.Result, error) {
	key := Key(r.prefix, sub)

	data, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var res runner.Result
		if jerr := json.Unmarshal(data, &res); jerr == nil {
			r.logger.Debug("run cache hit", "language", sub.Language, "key", key)
			return res, nil
		}
		r.logger.Warn("discarding corrupt cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("run cache read failed", "err", err)
	}

	res, err := r.next.Run(ctx, sub)
	if err != nil || !cacheable(res.Status) {
		return res, err
	}

	if data, err := json.Marshal(res); err == nil {
		if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
			r.logger.Warn("run cache write failed", "err", err)
		}
	}
	return res, nil
}

func cacheable(s runner.Status) bool {
	return s.Final() && s != runner.StatusInternalError && s != runner.StatusTimeLimitExceeded
}

// Key derives the cache key for a submission. Every field that can change the
// verdict is part of the hash.
func Key(prefix string, sub runner.Submission) string {
	h := sha256.New()
	for _, part := range []string{
		sub.Language,
		sub.Source,
		sub.Stdin,
		sub.Expected,
		strconv.FormatInt(int64(sub.Limit()), 10),
		strconv.Itoa(sub.MemoryLimitKB),
	} {
		h.Write([]byte(strconv.Itoa(len(part))))
		h.Write([]byte{':'})
		h.Write([]byte(part))
	}
	return prefix + hex.EncodeToString(h.Sum(nil))
}

package cache

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/skillupx/skillupx/runner"
)

type memClient struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	readErr error
}

func newMemClient() *memClient {
	return &memClient{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (m *memClient) Get(ctx context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return redis.NewStringResult("", m.readErr)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memClient) Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	m.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

type countingRunner struct {
	calls  int
	result runner.Result
	err    error
}

func (c *countingRunner) Name() string { return "fake" }

func (c *countingRunner) Run(ctx context.Context, sub runner.Submission) (runner.Result, error) {
	c.calls++
	return c.result, c.err
}

func TestKey(t *testing.T) {
	base := runner.Submission{Language: "python", Source: "print(1)", Stdin: "1"}

	k := Key("p:", base)
	if !strings.HasPrefix(k, "p:") || len(k) != len("p:")+64 {
		t.Errorf("unexpected key %q", k)
	}
	if Key("p:", base) != k {
		t.Error("key should be stable")
	}

	variants := []runner.Submission{
		{Language: "javascript", Source: "print(1)", Stdin: "1"},
		{Language: "python", Source: "print(2)", Stdin: "1"},
		{Language: "python", Source: "print(1)", Stdin: "2"},
		{Language: "python", Source: "print(1)", Stdin: "1", Expected: "1"},
		{Language: "python", Source: "print(1)", Stdin: "1", TimeLimit: time.Second},
		{Language: "python", Source: "print(1)", Stdin: "1", MemoryLimitKB: 1024},
		// Field boundaries must not collide.
		{Language: "python", Source: "print(1)1", Stdin: ""},
	}
	for _, v := range variants {
		if Key("p:", v) == k {
			t.Errorf("expected different key for %+v", v)
		}
	}
}

func TestRunCachesAcceptedResults(t *testing.T) {
	client := newMemClient()
	next := &countingRunner{result: runner.Result{Stdout: "0 1\n", Status: runner.StatusAccepted, Time: time.Millisecond}}
	r := New(client, next, WithTTL(time.Minute))

	sub := runner.Submission{Language: "python", Source: "x", Stdin: "1"}
	first, err := r.Run(context.Background(), sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := r.Run(context.Background(), sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if next.calls != 1 {
		t.Errorf("expected 1 backend call, got %d", next.calls)
	}
	if second != first {
		t.Errorf("expected cached result %+v, got %+v", first, second)
	}
	if client.ttls[Key("skillupx:run:", sub)] != time.Minute {
		t.Errorf("expected 1m TTL, got %v", client.ttls)
	}
	if r.Name() != "fake" {
		t.Errorf("expected wrapped name, got %q", r.Name())
	}
}

func TestRunSkipsTransientResults(t *testing.T) {
	for _, status := range []runner.Status{runner.StatusTimeLimitExceeded, runner.StatusInternalError, runner.StatusProcessing} {
		client := newMemClient()
		next := &countingRunner{result: runner.Result{Status: status}}
		r := New(client, next)

		sub := runner.Submission{Language: "python", Source: "x"}
		_, _ = r.Run(context.Background(), sub)
		_, _ = r.Run(context.Background(), sub)
		if next.calls != 2 {
			t.Errorf("%s: expected no caching, got %d backend calls", status, next.calls)
		}
	}
}

func TestRunBackendError(t *testing.T) {
	client := newMemClient()
	next := &countingRunner{err: errors.New("down")}
	r := New(client, next)

	if _, err := r.Run(context.Background(), runner.Submission{}); err == nil {
		t.Error("expected backend error")
	}
	if len(client.data) != 0 {
		t.Error("errors must not be cached")
	}
}

func TestRunReadErrorFallsThrough(t *testing.T) {
	client := newMemClient()
	client.readErr = errors.New("connection refused")
	next := &countingRunner{result: runner.Result{Status: runner.StatusAccepted}}

	res, err := New(client, next).Run(context.Background(), runner.Submission{})
	if err != nil {
		t.Fatalf("cache failure should not fail the run: %v", err)
	}
	if res.Status != runner.StatusAccepted || next.calls != 1 {
		t.Errorf("expected backend result, got %+v after %d calls", res, next.calls)
	}
}

func TestRunCorruptEntry(t *testing.T) {
	client := newMemClient()
	sub := runner.Submission{Language: "python"}
	client.data[Key("skillupx:run:", sub)] = "{not json"
	next := &countingRunner{result: runner.Result{Status: runner.StatusAccepted}}

	if _, err := New(client, next).Run(context.Background(), sub); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.calls != 1 {
		t.Errorf("expected corrupt entry to be bypassed")
	}
}

// Integration test against a real Redis.
func TestRunWithRedis(t *testing.T) {
	addr := os.Getenv("SKILLUPX_REDIS_ADDR")
	if addr == "" {
		t.Skip("SKILLUPX_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	next := &countingRunner{result: runner.Result{Stdout: "ok", Status: runner.StatusAccepted}}
	r := New(rdb, next, WithPrefix("skillupx:test:"), WithTTL(10*time.Second))
	sub := runner.Submission{Language: "python", Source: time.Now().String()}

	for i := 0; i < 2; i++ {
		res, err := r.Run(context.Background(), sub)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if res.Stdout != "ok" {
			t.Errorf("expected ok, got %q", res.Stdout)
		}
	}
	if next.calls != 1 {
		t.Errorf("expected 1 backend call, got %d", next.calls)
	}
}

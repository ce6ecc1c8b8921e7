package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	domainErrors "github.com/polkiloo/marketplace/internal/domain/errors"
)

type clientStub struct {
	redis.Scripter

	mu     sync.Mutex
	values map[string]string
	ttls   map[string]time.Duration
	setErr error
	evals  int
}

func newClientStub() *clientStub {
	return &clientStub{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (c *clientStub) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return redis.NewBoolResult(false, c.setErr)
	}
	if _, ok := c.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	c.values[key] = value.(string)
	c.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (c *clientStub) EvalSha(ctx context.Context, sha1 string, keys []string, args ...any) *redis.Cmd {
	return c.compareAndDelete(keys[0], args[0].(string))
}

func (c *clientStub) Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd {
	return c.compareAndDelete(keys[0], args[0].(string))
}

func (c *clientStub) compareAndDelete(key, token string) *redis.Cmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evals++
	if c.values[key] != token {
		return redis.NewCmdResult(int64(0), nil)
	}
	delete(c.values, key)
	return redis.NewCmdResult(int64(1), nil)
}

func (c *clientStub) holder(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

func newTestGuard(client Client) *RedisGuard {
	return NewRedisGuard(client, 30*time.Second, slog.New(slog.DiscardHandler))
}

func TestRedisGuardAcquireAndRelease(t *testing.T) {
	client := newClientStub()
	guard := newTestGuard(client)

	release, err := guard.Acquire(context.Background(), 7)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, ok := client.holder("settlement:order:7"); !ok {
		t.Fatal("expected guard key to be set")
	}
	if client.ttls["settlement:order:7"] != 30*time.Second {
		t.Fatalf("unexpected ttl %s", client.ttls["settlement:order:7"])
	}

	if _, err := guard.Acquire(context.Background(), 7); !errors.Is(err, domainErrors.ErrConflict) {
		t.Fatalf("expected conflict while held, got %v", err)
	}
	if _, err := guard.Acquire(context.Background(), 8); err != nil {
		t.Fatalf("other orders must not be blocked: %v", err)
	}

	release()
	if _, ok := client.holder("settlement:order:7"); ok {
		t.Fatal("expected guard key to be removed on release")
	}

	again, err := guard.Acquire(context.Background(), 7)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	again()
}

func TestRedisGuardReleaseKeepsForeignHolder(t *testing.T) {
	client := newClientStub()
	guard := newTestGuard(client)

	release, err := guard.Acquire(context.Background(), 3)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	// Simulate expiry followed by another instance taking the guard.
	client.mu.Lock()
	client.values["settlement:order:3"] = "someone-else"
	client.mu.Unlock()

	release()
	if v, _ := client.holder("settlement:order:3"); v != "someone-else" {
		t.Fatalf("release must not drop a foreign holder, got %q", v)
	}
}

func TestRedisGuardPropagatesClientError(t *testing.T) {
	client := newClientStub()
	client.setErr = errors.New("connection refused")
	guard := newTestGuard(client)

	if _, err := guard.Acquire(context.Background(), 1); err == nil || errors.Is(err, domainErrors.ErrConflict) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestReleaseSurvivesCancelledContext(t *testing.T) {
	client := newClientStub()
	guard := newTestGuard(client)

	ctx, cancel := context.WithCancel(context.Background())
	release, err := guard.Acquire(ctx, 5)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	cancel()
	release()
	if _, ok := client.holder("settlement:order:5"); ok {
		t.Fatal("expected release to run despite cancelled request context")
	}
}

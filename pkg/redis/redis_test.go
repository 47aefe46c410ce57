package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// fakeCmdable 仅实现黑名单所需命令
type fakeCmdable struct {
	goredis.Cmdable
	keys map[string]time.Duration
	err  error
}

func (f *fakeCmdable) Set(_ context.Context, key string, _ interface{}, expiration time.Duration) *goredis.StatusCmd {
	if f.err != nil {
		return goredis.NewStatusResult("", f.err)
	}
	f.keys[key] = expiration
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeCmdable) Exists(_ context.Context, keys ...string) *goredis.IntCmd {
	if f.err != nil {
		return goredis.NewIntResult(0, f.err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.keys[k]; ok {
			n++
		}
	}
	return goredis.NewIntResult(n, nil)
}

func TestBlacklist_RoundTrip(t *testing.T) {
	fake := &fakeCmdable{keys: map[string]time.Duration{}}
	c := NewFromCmdable(fake, zap.NewNop())
	ctx := context.Background()

	if err := c.BlacklistToken(ctx, "jti-1", time.Minute); err != nil {
		t.Fatalf("加入黑名单失败: %v", err)
	}
	if ttl := fake.keys[blacklistPrefix+"jti-1"]; ttl != time.Minute {
		t.Errorf("期望 TTL=1m，实际=%v", ttl)
	}

	revoked, err := c.IsBlacklisted(ctx, "jti-1")
	if err != nil || !revoked {
		t.Errorf("期望 jti-1 已吊销，实际 revoked=%v err=%v", revoked, err)
	}
	revoked, _ = c.IsBlacklisted(ctx, "jti-2")
	if revoked {
		t.Error("jti-2 不应在黑名单中")
	}
}

func TestBlacklist_ExpiredTokenSkipped(t *testing.T) {
	fake := &fakeCmdable{keys: map[string]time.Duration{}}
	c := NewFromCmdable(fake, zap.NewNop())

	if err := c.BlacklistToken(context.Background(), "jti-old", 0); err != nil {
		t.Fatalf("期望无错误，实际=%v", err)
	}
	if len(fake.keys) != 0 {
		t.Error("已过期 Token 不应写入黑名单")
	}
}

func TestBlacklist_Error(t *testing.T) {
	c := NewFromCmdable(&fakeCmdable{keys: map[string]time.Duration{}, err: errors.New("conn refused")}, zap.NewNop())

	if _, err := c.IsBlacklisted(context.Background(), "jti"); err == nil {
		t.Error("期望返回 Redis 错误")
	}
}

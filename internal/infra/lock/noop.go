package lock

import (
	"context"
	"time"
)

// Redisが無い環境用。常に取れる（重複はDBのunique制約で防ぐ）
type NoopLock struct{}

func (NoopLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return true, nil
}

func (NoopLock) Release(ctx context.Context, key string) error {
	return nil
}

package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// 値が自分のトークンのときだけ消す
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLock は SET NX + TTL のロック。取得ごとにトークンを置き、解放はトークン一致時のみ。
type RedisLock struct {
	client      *redis.Client
	serviceName string

	mu     sync.Mutex
	tokens map[string]string
}

func NewRedisLock(addr string, serviceName string) *RedisLock {
	return NewRedisLockWithClient(redis.NewClient(&redis.Options{Addr: addr}), serviceName)
}

// テストでフック付きのクライアントを渡す用
func NewRedisLockWithClient(client *redis.Client, serviceName string) *RedisLock {
	return &RedisLock{client: client, serviceName: serviceName, tokens: map[string]string{}}
}

func (l *RedisLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key(key), token, ttl).Result()
	if err != nil || !ok {
		return false, err
	}

	l.mu.Lock()
	l.tokens[key] = token
	l.mu.Unlock()
	return true, nil
}

// TTL切れの後に別の保持者が取ったロックは消さない
func (l *RedisLock) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	token, ok := l.tokens[key]
	delete(l.tokens, key)
	l.mu.Unlock()

	if !ok {
		return nil
	}
	return releaseScript.Run(ctx, l.client, []string{l.key(key)}, token).Err()
}

func (l *RedisLock) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func (l *RedisLock) Close() error {
	return l.client.Close()
}

func (l *RedisLock) key(key string) string {
	return fmt.Sprintf("%s:lock:%s", l.serviceName, key)
}

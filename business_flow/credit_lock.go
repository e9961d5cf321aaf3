package businessflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SendLock serializes check, dispatch and deduct for one user
type SendLock interface {
	// Acquire returns a release func, or ErrCampaignSendInProgress when another send holds the lock
	Acquire(ctx context.Context, userID uint) (func(), error)
}

// releaseScript deletes the key only if it still carries our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisSendLock implements SendLock with SETNX and a TTL
type RedisSendLock struct {
	rc        *redis.Client
	keyPrefix string
	keyFormat string
	ttl       time.Duration
}

// NewRedisSendLock creates a distributed send lock
func NewRedisSendLock(rc *redis.Client, keyPrefix, keyFormat string, ttl time.Duration) *RedisSendLock {
	return &RedisSendLock{rc: rc, keyPrefix: keyPrefix, keyFormat: keyFormat, ttl: ttl}
}

func (l *RedisSendLock) key(userID uint) string {
	key := fmt.Sprintf(l.keyFormat, userID)
	if l.keyPrefix != "" {
		return l.keyPrefix + ":" + key
	}
	return key
}

func (l *RedisSendLock) Acquire(ctx context.Context, userID uint) (func(), error) {
	key := l.key(userID)
	token := uuid.NewString()

	// Acquire distributed lock (SETNX with TTL)
	ok, err := l.rc.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_SEND_LOCK_FAILED", "Failed to acquire send lock", err)
	}
	if !ok {
		return nil, ErrCampaignSendInProgress
	}

	return func() {
		_ = releaseScript.Run(context.Background(), l.rc, []string{key}, token).Err()
	}, nil
}

// LocalSendLock is the in-process fallback used when redis is disabled
type LocalSendLock struct {
	mu   sync.Mutex
	held map[uint]struct{}
}

func NewLocalSendLock() *LocalSendLock {
	return &LocalSendLock{held: make(map[uint]struct{})}
}

func (l *LocalSendLock) Acquire(ctx context.Context, userID uint) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[userID]; busy {
		return nil, ErrCampaignSendInProgress
	}
	l.held[userID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, userID)
			l.mu.Unlock()
		})
	}, nil
}

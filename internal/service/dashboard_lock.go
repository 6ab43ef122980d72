package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"exam_prep_backend/internal/util"
	"exam_prep_backend/pkg/logger"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// UserLocker 同一用户的统计更新串行执行
type UserLocker interface {
	Lock(ctx context.Context, userID uint) (unlock func(), err error)
}

// LocalLocker 单实例部署时使用的进程内按用户加锁
type LocalLocker struct {
	mu    sync.Mutex
	locks map[uint]*userLock
}

type userLock struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[uint]*userLock)}
}

func (l *LocalLocker) Lock(ctx context.Context, userID uint) (func(), error) {
	l.mu.Lock()
	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{ch: make(chan struct{}, 1)}
		l.locks[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	select {
	case ul.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(userID, ul)
		return nil, fmt.Errorf("%w: %v", util.ErrLockTimeout, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-ul.ch
			l.release(userID, ul)
		})
	}, nil
}

func (l *LocalLocker) release(userID uint, ul *userLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ul.refs--
	if ul.refs == 0 {
		delete(l.locks, userID)
	}
}

// 只删除自己持有的锁
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker 多实例部署时基于 Redis SET NX PX 的按用户互斥
type RedisLocker struct {
	Client *redis.Client
	TTL    time.Duration
	Wait   time.Duration
	Poll   time.Duration
}

func NewRedisLocker(client *redis.Client, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{Client: client, TTL: ttl, Wait: wait, Poll: 50 * time.Millisecond}
}

func lockKey(userID uint) string {
	return "exam_prep:dashboard:lock:" + util.FormatID(userID)
}

func (l *RedisLocker) Lock(ctx context.Context, userID uint) (func(), error) {
	token, err := randomToken()
	if err != nil {
		return nil, err
	}
	key := lockKey(userID)

	ctx, cancel := context.WithTimeout(ctx, l.Wait)
	defer cancel()

	ticker := time.NewTicker(l.Poll)
	defer ticker.Stop()
	for {
		ok, err := l.Client.SetNX(ctx, key, token, l.TTL).Result()
		if err != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("acquire dashboard lock: %w", err)
		}
		if ok {
			return func() { l.release(userID, key, token) }, nil
		}
		select {
		case <-ctx.Done():
			return nil, util.ErrLockTimeout
		case <-ticker.C:
		}
	}
}

// release 使用独立 context，请求已取消时也要释放；失败只记录日志，锁靠 TTL 过期
func (l *RedisLocker) release(userID uint, key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := unlockScript.Run(ctx, l.Client, []string{key}, token).Err(); err != nil {
		logger.Log.Warn("release dashboard lock failed",
			zap.Uint("userId", userID), zap.String("key", key), zap.Error(err))
	}
}

func randomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

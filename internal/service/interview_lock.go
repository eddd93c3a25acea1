package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// InterviewLocker serializa el paso submit -> decide -> create por entrevista.
// Entrevistas distintas nunca se bloquean entre si.
type InterviewLocker interface {
	Lock(ctx context.Context, interviewID string) (unlock func(), err error)
}

var ErrLockTimeout = errors.New("interview lock timeout")

// KeyedMutex es un lock en proceso por clave, con conteo de referencias para liberar entradas.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	ch   chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedEntry)}
}

func (k *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &keyedEntry{ch: make(chan struct{}, 1)}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	select {
	case entry.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(key, entry)
		return nil, fmt.Errorf("lock %s: %w", key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.ch
			k.release(key, entry)
		})
	}, nil
}

func (k *KeyedMutex) release(key string, entry *keyedEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(k.locks, key)
	}
}

// size expone la cantidad de claves vivas; usado en tests.
func (k *KeyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

const redisUnlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

type redisLockClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisInterviewLocker toma un lease SET NX PX para coordinar varias instancias de la API.
// Siempre toma primero el lock local para no martillar Redis desde el mismo proceso.
type RedisInterviewLocker struct {
	client redisLockClient
	local  *KeyedMutex
	ttl    time.Duration
	retry  time.Duration
	prefix string
	logger *zap.Logger
}

func NewRedisInterviewLocker(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisInterviewLocker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisInterviewLocker{
		client: client,
		local:  NewKeyedMutex(),
		ttl:    ttl,
		retry:  50 * time.Millisecond,
		prefix: "interview:lock:",
		logger: logger,
	}
}

func (l *RedisInterviewLocker) Lock(ctx context.Context, interviewID string) (func(), error) {
	unlockLocal, err := l.local.Lock(ctx, interviewID)
	if err != nil {
		return nil, err
	}

	key := l.prefix + interviewID
	token := uuid.NewString()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			// Sin Redis seguimos con el lock local; el CAS de version cubre el resto.
			l.logger.Warn("redis lock unavailable, using local lock only", zap.Error(err), zap.String("interview_id", interviewID))
			return unlockLocal, nil
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			unlockLocal()
			return nil, fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
		case <-time.After(l.retry):
		}
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		if err := l.client.Eval(releaseCtx, redisUnlockScript, []string{key}, token).Err(); err != nil {
			l.logger.Warn("redis unlock failed", zap.Error(err), zap.String("interview_id", interviewID))
		}
		unlockLocal()
	}, nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"preview-api/internal/domain"
)

// DashboardCache guarda dashboards calculados. Los errores se registran y se ignoran:
// el cache nunca debe romper una consulta ni un submit.
//
// Cada miembro tiene una generacion que Invalidate incrementa. Set solo escribe si la
// generacion sigue siendo la leida antes de calcular, asi un calculo que se cruza con un
// submit no deja un dashboard viejo hasta el TTL.
type DashboardCache interface {
	Get(ctx context.Context, memberID string) (domain.Dashboard, bool)
	// Generation devuelve ok=false si no se pudo leer; en ese caso no hay que llamar a Set.
	Generation(ctx context.Context, memberID string) (int64, bool)
	Set(ctx context.Context, memberID string, generation int64, dashboard domain.Dashboard)
	Invalidate(ctx context.Context, memberID string)
}

const redisSetIfGenerationScript = `
local current = redis.call("GET", KEYS[1]) or "0"
if current == ARGV[1] then
  redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
  return 1
end
return 0
`

const redisInvalidateScript = `
redis.call("INCR", KEYS[1])
redis.call("PEXPIRE", KEYS[1], ARGV[1])
return redis.call("DEL", KEYS[2])
`

// La generacion vive mucho mas que cualquier calculo de dashboard.
const generationTTL = 24 * time.Hour

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisDashboardCache struct {
	client    redisKV
	ttl       time.Duration
	prefix    string
	genPrefix string
	logger    *zap.Logger
}

func NewRedisDashboardCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) DashboardCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &redisDashboardCache{
		client:    client,
		ttl:       ttl,
		prefix:    "stats:dashboard:",
		genPrefix: "stats:dashboard-gen:",
		logger:    logger,
	}
}

func (c *redisDashboardCache) Get(ctx context.Context, memberID string) (domain.Dashboard, bool) {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	raw, err := c.client.Get(ctx, c.prefix+memberID).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("dashboard cache get failed", zap.Error(err), zap.String("member_id", memberID))
		}
		return domain.Dashboard{}, false
	}
	var d domain.Dashboard
	if err := json.Unmarshal(raw, &d); err != nil {
		return domain.Dashboard{}, false
	}
	return d, true
}

func (c *redisDashboardCache) Generation(ctx context.Context, memberID string) (int64, bool) {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	raw, err := c.client.Get(ctx, c.genPrefix+memberID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		c.logger.Warn("dashboard cache generation failed", zap.Error(err), zap.String("member_id", memberID))
		return 0, false
	}
	gen, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return gen, true
}

func (c *redisDashboardCache) Set(ctx context.Context, memberID string, generation int64, dashboard domain.Dashboard) {
	data, err := json.Marshal(dashboard)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	err = c.client.Eval(ctx, redisSetIfGenerationScript,
		[]string{c.genPrefix + memberID, c.prefix + memberID},
		strconv.FormatInt(generation, 10), data, c.ttl.Milliseconds(),
	).Err()
	if err != nil {
		c.logger.Warn("dashboard cache set failed", zap.Error(err), zap.String("member_id", memberID))
	}
}

func (c *redisDashboardCache) Invalidate(ctx context.Context, memberID string) {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	err := c.client.Eval(ctx, redisInvalidateScript,
		[]string{c.genPrefix + memberID, c.prefix + memberID},
		generationTTL.Milliseconds(),
	).Err()
	if err != nil {
		c.logger.Warn("dashboard cache invalidate failed", zap.Error(err), zap.String("member_id", memberID))
	}
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ChatRateLimiter limita cuántos turnos puede disparar un usuario por ventana.
type ChatRateLimiter interface {
	Allow(userID string) bool
}

const redisChatAllowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisChatRateLimiter struct {
	client redisEvaler
	window time.Duration
	max    int
	prefix string
}

// NewRedisChatRateLimiter limita turnos por usuario con INCR/EXPIRE atómico.
func NewRedisChatRateLimiter(client *redis.Client, window time.Duration, max int) ChatRateLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisChatRateLimiter{
		client: client,
		window: window,
		max:    max,
		prefix: "chat:rl:",
	}
}

// Allow falla abierto: si redis no responde, el turno pasa. Preferimos un
// turno de más antes que bloquear la conversación por infraestructura.
func (l *redisChatRateLimiter) Allow(userID string) bool {
	if l == nil || l.client == nil {
		return true
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	seconds := int(l.window.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	res, err := l.client.Eval(ctx, redisChatAllowScript, []string{l.prefix + userID}, seconds).Int64()
	if err != nil {
		return true
	}
	return res <= int64(l.max)
}

package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/gestaozabele/zeladoria/internal/occurrence"
)

// raiseFloor só sobe o contador, nunca o reduz.
const raiseFloor = `
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
local floor = tonumber(ARGV[1])
if cur < floor then
  redis.call('SET', KEYS[1], floor)
  return floor
end
return cur
`

type redisCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisSequence numera protocolos com INCR, compartilhado entre instâncias.
type RedisSequence struct {
	client redisCounter
	prefix string
}

// NewRedisSequence cria a sequência sobre o cliente informado.
func NewRedisSequence(client redisCounter) *RedisSequence {
	return &RedisSequence{client: client, prefix: "protocol:seq:"}
}

func (s *RedisSequence) key(year int) string {
	return fmt.Sprintf("%s%d", s.prefix, year)
}

// Next devolve o próximo número do ano.
func (s *RedisSequence) Next(ctx context.Context, year int) (int64, error) {
	return s.client.Incr(ctx, s.key(year)).Result()
}

// Align eleva os contadores ao maior protocolo já existente por ano.
func (s *RedisSequence) Align(ctx context.Context, existing []occurrence.Occurrence) error {
	floors := make(map[int]int64)
	for _, o := range existing {
		year, n, err := occurrence.ParseProtocol(o.Protocol)
		if err != nil {
			continue
		}
		if n > floors[year] {
			floors[year] = n
		}
	}
	for year, floor := range floors {
		if err := s.client.Eval(ctx, raiseFloor, []string{s.key(year)}, floor).Err(); err != nil {
			return fmt.Errorf("alinhar sequência %d: %w", year, err)
		}
	}
	return nil
}

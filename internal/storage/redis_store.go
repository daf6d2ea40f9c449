package storage

import (
	"videorank/internal/redisclient"

	"github.com/redis/go-redis/v9"
)

// RedisStore holds videos, their vote ledgers, users and the ranking indexes.
// Single operations are atomic at the server; multi-structure vote
// transitions go through ApplyVote (Lua) or are composed by the caller.
type RedisStore struct {
	rdb  *redis.Client
	keys Keys
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, keys: Keys{Prefix: prefix}}
}

// Keys exposes the key layout in use.
func (s *RedisStore) Keys() Keys {
	return s.keys
}

func wrap(err error) error {
	return redisclient.Classify(err)
}

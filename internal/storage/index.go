package storage

import (
	"context"
	"math"

	"videorank/internal/model"

	"github.com/redis/go-redis/v9"
)

// IndexEntry is one member of a ranking index.
type IndexEntry struct {
	ID    int64
	Score float64
}

// SetScore upserts the ordering key of a video.
func (s *RedisStore) SetScore(ctx context.Context, idx model.Index, id int64, value float64) error {
	return wrap(s.rdb.ZAdd(ctx, s.keys.Index(idx), redis.Z{Score: value, Member: member(id)}).Err())
}

// SetScores upserts several ordering keys in one command.
func (s *RedisStore) SetScores(ctx context.Context, idx model.Index, entries []IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	zs := make([]redis.Z, len(entries))
	for i, e := range entries {
		zs[i] = redis.Z{Score: e.Score, Member: member(e.ID)}
	}
	return wrap(s.rdb.ZAdd(ctx, s.keys.Index(idx), zs...).Err())
}

// AdjustScore atomically adds delta to the ordering key and returns the new value.
func (s *RedisStore) AdjustScore(ctx context.Context, idx model.Index, id int64, delta float64) (float64, error) {
	v, err := s.rdb.ZIncrBy(ctx, s.keys.Index(idx), delta, member(id)).Result()
	return v, wrap(err)
}

// Score returns the ordering key of a video.
func (s *RedisStore) Score(ctx context.Context, idx model.Index, id int64) (float64, error) {
	v, err := s.rdb.ZScore(ctx, s.keys.Index(idx), member(id)).Result()
	if err == redis.Nil {
		return 0, model.ErrItemNotFound
	}
	return v, wrap(err)
}

// Scores returns the ordering keys of several videos in one round trip.
// Videos without an entry are left out.
func (s *RedisStore) Scores(ctx context.Context, idx model.Index, ids []int64) (map[int64]float64, error) {
	out := make(map[int64]float64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cmds := make([]*redis.FloatCmd, len(ids))
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = p.ZScore(ctx, s.keys.Index(idx), member(id))
		}
		return nil
	})
	if err != nil && err != redis.Nil {
		return nil, wrap(err)
	}
	for i, id := range ids {
		v, err := cmds[i].Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, wrap(err)
		}
		out[id] = v
	}
	return out, nil
}

// RangeDescending returns up to limit entries ordered by descending key,
// skipping the first offset. Ties follow Redis (reverse lexicographic member order).
func (s *RedisStore) RangeDescending(ctx context.Context, idx model.Index, offset, limit int64) ([]IndexEntry, error) {
	if limit <= 0 || offset < 0 {
		return nil, nil
	}
	if limit > math.MaxInt64-offset {
		limit = math.MaxInt64 - offset
	}
	zs, err := s.rdb.ZRevRangeWithScores(ctx, s.keys.Index(idx), offset, offset+limit-1).Result()
	if err != nil {
		return nil, wrap(err)
	}
	return toEntries(zs)
}

// IndexSize returns the number of entries in an index.
func (s *RedisStore) IndexSize(ctx context.Context, idx model.Index) (int64, error) {
	n, err := s.rdb.ZCard(ctx, s.keys.Index(idx)).Result()
	return n, wrap(err)
}

func toEntries(zs []redis.Z) ([]IndexEntry, error) {
	out := make([]IndexEntry, 0, len(zs))
	for _, z := range zs {
		id, err := parseMember(z.Member)
		if err != nil {
			return nil, err
		}
		out = append(out, IndexEntry{ID: id, Score: z.Score})
	}
	return out, nil
}

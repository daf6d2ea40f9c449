package storage

import (
	"context"
	"fmt"
	"math"
	"time"

	"videorank/internal/model"

	"github.com/redis/go-redis/v9"
)

// Hash fields of a video record.
const (
	fieldVotes      = "votes"
	fieldUnvotes    = "unvotes"
	fieldCreateTime = "create_time"
)

type videoRecord struct {
	Title      string  `redis:"title"`
	URL        string  `redis:"url"`
	Poster     int64   `redis:"poster"`
	CreateTime float64 `redis:"create_time"`
	Votes      int64   `redis:"votes"`
	Unvotes    int64   `redis:"unvotes"`
}

func (r videoRecord) video(id int64) model.Video {
	return model.Video{
		ID:        id,
		Title:     r.Title,
		URL:       r.URL,
		PosterID:  r.Poster,
		CreatedAt: FromUnixSeconds(r.CreateTime),
		Votes:     r.Votes,
		Unvotes:   r.Unvotes,
	}
}

// UnixSeconds encodes t the way create_time is stored: seconds since epoch
// with microsecond precision.
func UnixSeconds(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}

// FromUnixSeconds is the inverse of UnixSeconds.
func FromUnixSeconds(f float64) time.Time {
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(math.Round(frac*1e6))*int64(time.Microsecond)).UTC()
}

// CreateVideo allocates an id and writes the record together with its three
// index entries (score 0, creation time, hot). With atomic set the writes run
// in one MULTI/EXEC block; otherwise they are pipelined without a transaction.
func (s *RedisStore) CreateVideo(ctx context.Context, v model.Video, hot float64, atomic bool) (int64, error) {
	id, err := s.rdb.Incr(ctx, s.keys.VideoCounter()).Result()
	if err != nil {
		return 0, wrap(fmt.Errorf("allocate video id: %w", err))
	}
	rec := videoRecord{
		Title:      v.Title,
		URL:        v.URL,
		Poster:     v.PosterID,
		CreateTime: UnixSeconds(v.CreatedAt),
	}
	m := member(id)
	write := func(p redis.Pipeliner) error {
		p.HSet(ctx, s.keys.Video(id), rec)
		p.ZAdd(ctx, s.keys.Index(model.IndexScore), redis.Z{Score: 0, Member: m})
		p.ZAdd(ctx, s.keys.Index(model.IndexTime), redis.Z{Score: rec.CreateTime, Member: m})
		p.ZAdd(ctx, s.keys.Index(model.IndexHot), redis.Z{Score: hot, Member: m})
		return nil
	}
	if atomic {
		_, err = s.rdb.TxPipelined(ctx, write)
	} else {
		_, err = s.rdb.Pipelined(ctx, write)
	}
	if err != nil {
		return id, wrap(fmt.Errorf("write video %d: %w", id, err))
	}
	return id, nil
}

// GetVideo loads one video record.
func (s *RedisStore) GetVideo(ctx context.Context, id int64) (model.Video, error) {
	cmd := s.rdb.HGetAll(ctx, s.keys.Video(id))
	return scanVideo(id, cmd)
}

// GetVideos loads several records in one round trip. Missing ids are left out
// of the result map.
func (s *RedisStore) GetVideos(ctx context.Context, ids []int64) (map[int64]model.Video, error) {
	out := make(map[int64]model.Video, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = p.HGetAll(ctx, s.keys.Video(id))
		}
		return nil
	})
	if err != nil {
		return nil, wrap(err)
	}
	for i, id := range ids {
		v, err := scanVideo(id, cmds[i])
		if err == model.ErrItemNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[id] = v
	}
	return out, nil
}

func scanVideo(id int64, cmd *redis.MapStringStringCmd) (model.Video, error) {
	res, err := cmd.Result()
	if err != nil {
		return model.Video{}, wrap(err)
	}
	if len(res) == 0 {
		return model.Video{}, model.ErrItemNotFound
	}
	var rec videoRecord
	if err := cmd.Scan(&rec); err != nil {
		return model.Video{}, fmt.Errorf("decode video %d: %w", id, err)
	}
	return rec.video(id), nil
}

// LastVideoID returns the highest id handed out so far, 0 for an empty catalog.
func (s *RedisStore) LastVideoID(ctx context.Context) (int64, error) {
	n, err := s.rdb.Get(ctx, s.keys.VideoCounter()).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, wrap(err)
}

// VideoExists reports whether the video record is present.
func (s *RedisStore) VideoExists(ctx context.Context, id int64) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.keys.Video(id)).Result()
	if err != nil {
		return false, wrap(err)
	}
	return n == 1, nil
}

// IncrementVotes adjusts the upvote counter of a video.
func (s *RedisStore) IncrementVotes(ctx context.Context, id int64, delta int64) (int64, error) {
	n, err := s.rdb.HIncrBy(ctx, s.keys.Video(id), fieldVotes, delta).Result()
	return n, wrap(err)
}

// IncrementUnvotes adjusts the downvote counter of a video.
func (s *RedisStore) IncrementUnvotes(ctx context.Context, id int64, delta int64) (int64, error) {
	n, err := s.rdb.HIncrBy(ctx, s.keys.Video(id), fieldUnvotes, delta).Result()
	return n, wrap(err)
}

// CreateTime returns the stored creation time of a video.
func (s *RedisStore) CreateTime(ctx context.Context, id int64) (time.Time, error) {
	f, err := s.rdb.HGet(ctx, s.keys.Video(id), fieldCreateTime).Float64()
	if err == redis.Nil {
		return time.Time{}, model.ErrItemNotFound
	}
	if err != nil {
		return time.Time{}, wrap(err)
	}
	return FromUnixSeconds(f), nil
}

// CreateTimes returns creation times for several videos in one round trip.
// Videos without a record are left out.
func (s *RedisStore) CreateTimes(ctx context.Context, ids []int64) (map[int64]time.Time, error) {
	out := make(map[int64]time.Time, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cmds := make([]*redis.StringCmd, len(ids))
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = p.HGet(ctx, s.keys.Video(id), fieldCreateTime)
		}
		return nil
	})
	if err != nil && err != redis.Nil {
		return nil, wrap(err)
	}
	for i, id := range ids {
		f, err := cmds[i].Float64()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, wrap(err)
		}
		out[id] = FromUnixSeconds(f)
	}
	return out, nil
}

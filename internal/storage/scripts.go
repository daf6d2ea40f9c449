package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"videorank/internal/model"

	"github.com/redis/go-redis/v9"
)

// voteScript moves one user into a ledger set and keeps the counters, the
// score index and the hot index consistent in a single atomic step.
//
// KEYS: [1]=video hash, [2]=target voters set, [3]=opposite voters set,
//
//	[4]=score index, [5]=hot index
//
// ARGV: [1]=user id, [2]=weight (+1/-1), [3]=target counter field,
//
//	[4]=opposite counter field, [5]=now (unix seconds), [6]=gravity, [7]=video id
//
// Returns {status, score}: status -1 = no such video, 0 = already in target, 1 = applied.
var voteScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return {-1, '0'}
end
if redis.call('SISMEMBER', KEYS[2], ARGV[1]) == 1 then
  return {0, redis.call('ZSCORE', KEYS[4], ARGV[7]) or '0'}
end
local weight = tonumber(ARGV[2])
local delta = weight
redis.call('SADD', KEYS[2], ARGV[1])
redis.call('HINCRBY', KEYS[1], ARGV[3], '1')
if redis.call('SREM', KEYS[3], ARGV[1]) == 1 then
  redis.call('HINCRBY', KEYS[1], ARGV[4], '-1')
  delta = delta + weight
end
local score = tonumber(redis.call('ZINCRBY', KEYS[4], tostring(delta), ARGV[7]))
local now = tonumber(ARGV[5])
local created = tonumber(redis.call('HGET', KEYS[1], 'create_time')) or now
local age = (now - created) / 3600
if age < 0 then
  age = 0
end
local hot = (score - 1) / math.pow(age + 2, tonumber(ARGV[6]))
redis.call('ZADD', KEYS[5], string.format('%.17g', hot), ARGV[7])
return {1, tostring(score)}
`)

// ApplyVote runs the vote transition for dir (VoteUp or VoteDown) atomically.
// A user already in the dir set is a no-op; a user in the opposite set is
// moved, undoing the old weight and applying the new one.
func (s *RedisStore) ApplyVote(ctx context.Context, videoID, userID int64, dir model.VoteState, now time.Time, gravity float64) (model.VoteResult, error) {
	weight, field, opposite, other := "1", fieldVotes, fieldUnvotes, model.VoteDown
	if dir == model.VoteDown {
		weight, field, opposite, other = "-1", fieldUnvotes, fieldVotes, model.VoteUp
	}
	keys := []string{
		s.keys.Video(videoID),
		s.keys.Voters(videoID, dir),
		s.keys.Voters(videoID, other),
		s.keys.Index(model.IndexScore),
		s.keys.Index(model.IndexHot),
	}
	res, err := voteScript.Run(ctx, s.rdb, keys,
		member(userID),
		weight,
		field,
		opposite,
		strconv.FormatFloat(UnixSeconds(now), 'f', -1, 64),
		strconv.FormatFloat(gravity, 'f', -1, 64),
		member(videoID),
	).Slice()
	if err != nil {
		return model.VoteResult{}, wrap(fmt.Errorf("vote script: %w", err))
	}
	if len(res) != 2 {
		return model.VoteResult{}, fmt.Errorf("vote script: unexpected reply %v", res)
	}
	status, ok := res[0].(int64)
	if !ok {
		return model.VoteResult{}, fmt.Errorf("vote script: unexpected status %v", res[0])
	}
	if status < 0 {
		return model.VoteResult{}, model.ErrItemNotFound
	}
	score, err := strconv.ParseFloat(toString(res[1]), 64)
	if err != nil {
		return model.VoteResult{}, fmt.Errorf("vote script: parse score: %w", err)
	}
	return model.VoteResult{Changed: status == 1, State: dir, Score: score}, nil
}

// toString reads a bulk string script reply; go-redis decodes those as string.
func toString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(v)
	}
}

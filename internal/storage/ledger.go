package storage

import (
	"context"

	"videorank/internal/model"

	"github.com/redis/go-redis/v9"
)

// AddVoter puts userID into the ledger set for dir. It returns false when the
// user was already there.
func (s *RedisStore) AddVoter(ctx context.Context, videoID, userID int64, dir model.VoteState) (bool, error) {
	n, err := s.rdb.SAdd(ctx, s.keys.Voters(videoID, dir), member(userID)).Result()
	return n == 1, wrap(err)
}

// RemoveVoter takes userID out of the ledger set for dir. It returns false
// when the user was not there.
func (s *RedisStore) RemoveVoter(ctx context.Context, videoID, userID int64, dir model.VoteState) (bool, error) {
	n, err := s.rdb.SRem(ctx, s.keys.Voters(videoID, dir), member(userID)).Result()
	return n == 1, wrap(err)
}

// VoteState reads both ledger sets in one round trip.
func (s *RedisStore) VoteState(ctx context.Context, videoID, userID int64) (model.VoteState, error) {
	var up, down *redis.BoolCmd
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		up = p.SIsMember(ctx, s.keys.Upvoters(videoID), member(userID))
		down = p.SIsMember(ctx, s.keys.Downvoters(videoID), member(userID))
		return nil
	})
	if err != nil {
		return model.VoteNone, wrap(err)
	}
	switch {
	case up.Val():
		return model.VoteUp, nil
	case down.Val():
		return model.VoteDown, nil
	default:
		return model.VoteNone, nil
	}
}

// VoterCount returns the size of the ledger set for dir.
func (s *RedisStore) VoterCount(ctx context.Context, videoID int64, dir model.VoteState) (int64, error) {
	n, err := s.rdb.SCard(ctx, s.keys.Voters(videoID, dir)).Result()
	return n, wrap(err)
}

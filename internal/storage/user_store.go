package storage

import (
	"context"
	"fmt"

	"videorank/internal/model"
)

type userRecord struct {
	Username string `redis:"username"`
}

// CreateUser allocates a user id and stores the username.
func (s *RedisStore) CreateUser(ctx context.Context, username string) (int64, error) {
	id, err := s.rdb.Incr(ctx, s.keys.UserCounter()).Result()
	if err != nil {
		return 0, wrap(fmt.Errorf("allocate user id: %w", err))
	}
	if err := s.rdb.HSet(ctx, s.keys.User(id), userRecord{Username: username}).Err(); err != nil {
		return id, wrap(fmt.Errorf("write user %d: %w", id, err))
	}
	return id, nil
}

// GetUser loads one user record.
func (s *RedisStore) GetUser(ctx context.Context, id int64) (model.User, error) {
	cmd := s.rdb.HGetAll(ctx, s.keys.User(id))
	res, err := cmd.Result()
	if err != nil {
		return model.User{}, wrap(err)
	}
	if len(res) == 0 {
		return model.User{}, model.ErrUserNotFound
	}
	var rec userRecord
	if err := cmd.Scan(&rec); err != nil {
		return model.User{}, fmt.Errorf("decode user %d: %w", id, err)
	}
	return model.User{ID: id, Username: rec.Username}, nil
}

// UserExists reports whether the user record is present.
func (s *RedisStore) UserExists(ctx context.Context, id int64) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.keys.User(id)).Result()
	if err != nil {
		return false, wrap(err)
	}
	return n == 1, nil
}

package storage

import (
	"context"
	"math"
	"testing"
	"time"

	"videorank/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, ""), mr
}

func testVideo(createdAt time.Time) model.Video {
	return model.Video{Title: "T", URL: "U", PosterID: 7, CreatedAt: createdAt}
}

func TestCreateAndGetVideo(t *testing.T) {
	for _, atomic := range []bool{true, false} {
		s, mr := newTestStore(t)
		ctx := context.Background()
		created := time.Unix(1000, 0).UTC()

		id, err := s.CreateVideo(ctx, testVideo(created), -0.25, atomic)
		require.NoError(t, err)
		assert.Equal(t, int64(1), id)

		v, err := s.GetVideo(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.Video{ID: 1, Title: "T", URL: "U", PosterID: 7, CreatedAt: created}, v)

		assert.Equal(t, "1000", mr.HGet("video:1", "create_time"))
		assert.Equal(t, "0", mr.HGet("video:1", "votes"))
		assert.Equal(t, "0", mr.HGet("video:1", "unvotes"))

		for idx, want := range map[model.Index]float64{
			model.IndexScore: 0,
			model.IndexTime:  1000,
			model.IndexHot:   -0.25,
		} {
			got, err := s.Score(ctx, idx, id)
			require.NoError(t, err, idx)
			assert.Equal(t, want, got, idx)
		}

		id2, err := s.CreateVideo(ctx, testVideo(created), 0, atomic)
		require.NoError(t, err)
		assert.Equal(t, int64(2), id2, "ids are monotonic")
	}
}

func TestGetVideoNotFound(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.GetVideo(context.Background(), 99)
	assert.ErrorIs(t, err, model.ErrItemNotFound)

	_, err = s.Score(context.Background(), model.IndexScore, 99)
	assert.ErrorIs(t, err, model.ErrItemNotFound)

	_, err = s.CreateTime(context.Background(), 99)
	assert.ErrorIs(t, err, model.ErrItemNotFound)
}

func TestUnixSecondsRoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 15, 123456000, time.UTC)
	assert.Equal(t, ts, FromUnixSeconds(UnixSeconds(ts)))
	assert.Equal(t, 1000.5, UnixSeconds(time.Unix(1000, 500_000_000)))
}

func TestGetVideosSkipsMissing(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	id, err := s.CreateVideo(ctx, testVideo(time.Unix(1000, 0)), 0, true)
	require.NoError(t, err)

	got, err := s.GetVideos(ctx, []int64{id, 42})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "T", got[id].Title)

	times, err := s.CreateTimes(ctx, []int64{id, 42})
	require.NoError(t, err)
	require.Len(t, times, 1)
	assert.Equal(t, int64(1000), times[id].Unix())
}

func TestRangeDescending(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	for id, score := range map[int64]float64{1: 5, 2: -1, 3: 12, 4: 0} {
		require.NoError(t, s.SetScore(ctx, model.IndexScore, id, score))
	}

	page, err := s.RangeDescending(ctx, model.IndexScore, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []IndexEntry{{ID: 3, Score: 12}, {ID: 1, Score: 5}}, page)

	page, err = s.RangeDescending(ctx, model.IndexScore, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []IndexEntry{{ID: 4, Score: 0}, {ID: 2, Score: -1}}, page)

	page, err = s.RangeDescending(ctx, model.IndexScore, 4, 2)
	require.NoError(t, err)
	assert.Empty(t, page)

	all, err := s.RangeDescending(ctx, model.IndexScore, 1, math.MaxInt64)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(2), all[2].ID)

	n, err := s.IndexSize(ctx, model.IndexScore)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestAdjustScore(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SetScore(ctx, model.IndexScore, 1, 0))

	v, err := s.AdjustScore(ctx, model.IndexScore, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)
	v, err = s.AdjustScore(ctx, model.IndexScore, 1, -3)
	require.NoError(t, err)
	assert.Equal(t, -1.0, v)
}

func TestLedger(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	st, err := s.VoteState(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, model.VoteNone, st)

	added, err := s.AddVoter(ctx, 1, 10, model.VoteUp)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = s.AddVoter(ctx, 1, 10, model.VoteUp)
	require.NoError(t, err)
	assert.False(t, added)

	st, err = s.VoteState(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, model.VoteUp, st)

	removed, err := s.RemoveVoter(ctx, 1, 10, model.VoteUp)
	require.NoError(t, err)
	assert.True(t, removed)
	_, err = s.AddVoter(ctx, 1, 10, model.VoteDown)
	require.NoError(t, err)

	st, err = s.VoteState(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, model.VoteDown, st)

	n, err := s.VoterCount(ctx, 1, model.VoteUp)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCounters(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	id, err := s.CreateVideo(ctx, testVideo(time.Unix(1000, 0)), 0, true)
	require.NoError(t, err)

	n, err := s.IncrementVotes(ctx, id, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = s.IncrementUnvotes(ctx, id, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	v, err := s.GetVideo(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Votes)
	assert.Equal(t, int64(2), v.Unvotes)
}

func TestUsers(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, "alice", mr.HGet("user:1", "username"))

	u, err := s.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.User{ID: 1, Username: "alice"}, u)

	ok, err := s.UserExists(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = s.GetUser(ctx, 2)
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestKeyPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	s := NewRedisStore(rdb, "test:")

	_, err := s.CreateVideo(context.Background(), testVideo(time.Unix(1000, 0)), 0, true)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:video:1"))
	assert.True(t, mr.Exists("test:video_score:"))
	assert.False(t, mr.Exists("video:1"))
}

func hot(score, ageHours, gravity float64) float64 {
	return (score - 1) / math.Pow(ageHours+2, gravity)
}

func TestApplyVoteTransitions(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	created := time.Unix(1_700_000_000, 0)
	now := created.Add(10 * time.Hour)

	id, err := s.CreateVideo(ctx, testVideo(created), 0, true)
	require.NoError(t, err)

	steps := []struct {
		name      string
		dir       model.VoteState
		changed   bool
		score     float64
		votes     string
		unvotes   string
		wantState model.VoteState
	}{
		{"none to up", model.VoteUp, true, 1, "1", "0", model.VoteUp},
		{"up again is a no-op", model.VoteUp, false, 1, "1", "0", model.VoteUp},
		{"up to down", model.VoteDown, true, -1, "0", "1", model.VoteDown},
		{"down again is a no-op", model.VoteDown, false, -1, "0", "1", model.VoteDown},
		{"down to up", model.VoteUp, true, 1, "1", "0", model.VoteUp},
	}
	for _, st := range steps {
		res, err := s.ApplyVote(ctx, id, 5, st.dir, now, 2)
		require.NoError(t, err, st.name)
		assert.Equal(t, st.changed, res.Changed, st.name)
		assert.Equal(t, st.score, res.Score, st.name)
		assert.Equal(t, st.votes, mr.HGet("video:1", "votes"), st.name)
		assert.Equal(t, st.unvotes, mr.HGet("video:1", "unvotes"), st.name)

		state, err := s.VoteState(ctx, id, 5)
		require.NoError(t, err)
		assert.Equal(t, st.wantState, state, st.name)

		h, err := s.Score(ctx, model.IndexHot, id)
		require.NoError(t, err)
		assert.InDelta(t, hot(st.score, 10, 2), h, 1e-12, st.name)
	}
}

func TestApplyVoteClampsFutureCreation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	id, err := s.CreateVideo(ctx, testVideo(now.Add(48*time.Hour)), 0, true)
	require.NoError(t, err)
	for user := int64(1); user <= 3; user++ {
		_, err = s.ApplyVote(ctx, id, user, model.VoteUp, now, 1.5)
		require.NoError(t, err)
	}

	h, err := s.Score(ctx, model.IndexHot, id)
	require.NoError(t, err)
	assert.InDelta(t, 2/math.Pow(2, 1.5), h, 1e-12)
}

func TestApplyVoteMissingVideo(t *testing.T) {
	s, mr := newTestStore(t)
	_, err := s.ApplyVote(context.Background(), 7, 1, model.VoteUp, time.Now(), 2)
	assert.ErrorIs(t, err, model.ErrItemNotFound)
	assert.False(t, mr.Exists("video_vote:7"), "nothing is written for a missing video")
}

func TestBackendUnavailable(t *testing.T) {
	s, mr := newTestStore(t)
	mr.Close()

	_, err := s.GetVideo(context.Background(), 1)
	assert.ErrorIs(t, err, model.ErrBackendUnavailable)
	_, err = s.ApplyVote(context.Background(), 1, 1, model.VoteUp, time.Now(), 2)
	assert.ErrorIs(t, err, model.ErrBackendUnavailable)
}

func TestScoresSkipsMissing(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SetScore(ctx, model.IndexScore, 1, 3))
	require.NoError(t, s.SetScore(ctx, model.IndexScore, 2, -2))

	got, err := s.Scores(ctx, model.IndexScore, []int64{1, 2, 9})
	require.NoError(t, err)
	assert.Equal(t, map[int64]float64{1: 3, 2: -2}, got)
}

func TestLastVideoID(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	n, err := s.LastVideoID(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	for i := 0; i < 3; i++ {
		_, err := s.CreateVideo(ctx, testVideo(time.Unix(1000, 0)), 0, true)
		require.NoError(t, err)
	}
	n, err = s.LastVideoID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestToString(t *testing.T) {
	assert.Equal(t, "1.5", toString("1.5"))
	assert.Equal(t, "2", toString([]byte("2")))
	assert.Equal(t, "7", toString(int64(7)))
}

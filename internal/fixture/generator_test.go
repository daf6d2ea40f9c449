package fixture

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"videorank/internal/model"
	"videorank/internal/ranking"
	"videorank/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createdVideo struct {
	title     string
	url       string
	poster    int64
	createdAt time.Time
}

// recorder is an in-memory Engine that keeps every call.
type recorder struct {
	mu      sync.Mutex
	users   []string
	videos  []createdVideo
	votes   int
	unvotes int
	failAt  int
}

func (r *recorder) CreateUser(_ context.Context, username string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, username)
	return int64(len(r.users)), nil
}

func (r *recorder) CreateVideo(_ context.Context, title, url string, posterID int64, createdAt time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.videos = append(r.videos, createdVideo{title, url, posterID, createdAt})
	return int64(len(r.videos)), nil
}

func (r *recorder) Vote(_ context.Context, _, _ int64) (model.VoteResult, error) {
	return r.record(true)
}

func (r *recorder) Unvote(_ context.Context, _, _ int64) (model.VoteResult, error) {
	return r.record(false)
}

func (r *recorder) record(up bool) (model.VoteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAt > 0 && r.votes+r.unvotes+1 == r.failAt {
		return model.VoteResult{}, model.ErrBackendUnavailable
	}
	if up {
		r.votes++
	} else {
		r.unvotes++
	}
	return model.VoteResult{Changed: true}, nil
}

func testOptions() Options {
	return Options{
		Seed:        7,
		Users:       5,
		Videos:      10,
		Votes:       60,
		MaxAge:      48 * time.Hour,
		Concurrency: 4,
		Clock:       clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)),
	}
}

func TestGeneratorIsDeterministic(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	_, err := NewGenerator(a, testOptions()).Run(context.Background())
	require.NoError(t, err)
	_, err = NewGenerator(b, testOptions()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, a.users, b.users)
	assert.Equal(t, a.videos, b.videos)
	assert.Equal(t, a.votes, b.votes)
	assert.Equal(t, a.unvotes, b.unvotes)
}

func TestGeneratorShapesData(t *testing.T) {
	opts := testOptions()
	r := &recorder{}
	sum, err := NewGenerator(r, opts).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, sum.Users)
	assert.Equal(t, 10, sum.Videos)
	assert.Equal(t, int64(1), sum.FirstID)
	assert.Equal(t, int64(10), sum.LastID)
	assert.Equal(t, 60, sum.Upvotes+sum.Unvotes+sum.Noops)
	assert.Equal(t, r.votes, sum.Upvotes)
	assert.Greater(t, sum.Upvotes, sum.Unvotes)

	now := opts.Clock.Now()
	for _, v := range r.videos {
		assert.NotEmpty(t, v.title)
		assert.NotEmpty(t, v.url)
		assert.GreaterOrEqual(t, v.poster, int64(1))
		assert.LessOrEqual(t, v.poster, int64(5))
		assert.False(t, v.createdAt.After(now))
		assert.False(t, v.createdAt.Before(now.Add(-opts.MaxAge)))
	}
}

func TestGeneratorWithoutUsersSkipsTraffic(t *testing.T) {
	opts := testOptions()
	opts.Users = 0
	r := &recorder{}
	sum, err := NewGenerator(r, opts).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, sum.Videos)
	assert.Zero(t, r.votes+r.unvotes)
	for _, v := range r.videos {
		assert.Zero(t, v.poster)
	}
}

func TestGeneratorStopsOnError(t *testing.T) {
	opts := testOptions()
	opts.Concurrency = 1
	r := &recorder{failAt: 3}
	sum, err := NewGenerator(r, opts).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrBackendUnavailable))
	assert.Less(t, sum.Upvotes+sum.Unvotes, 60)
}

func TestGeneratorAgainstEngine(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	opts := testOptions()
	store := storage.NewRedisStore(rdb, "")
	engine := ranking.NewEngine(store, ranking.Options{MaxPerPage: 100, Clock: opts.Clock})

	ctx := context.Background()
	sum, err := NewGenerator(engine, opts).Run(ctx)
	require.NoError(t, err)

	n, err := store.IndexSize(ctx, model.IndexScore)
	require.NoError(t, err)
	assert.Equal(t, int64(sum.Videos), n)

	// Every video keeps score == upvoters - downvoters.
	for id := sum.FirstID; id <= sum.LastID; id++ {
		ups, err := store.VoterCount(ctx, id, model.VoteUp)
		require.NoError(t, err)
		downs, err := store.VoterCount(ctx, id, model.VoteDown)
		require.NoError(t, err)
		score, err := store.Score(ctx, model.IndexScore, id)
		require.NoError(t, err)
		assert.Equal(t, float64(ups-downs), score, "video %d", id)
	}

	u, err := engine.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, u.Username)
}

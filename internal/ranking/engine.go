// Package ranking keeps the score, creation-time and hot orderings of the
// video catalog consistent with per-video vote state.
//
// The Engine holds no state besides its backend and clock, so any number of
// goroutines may call it concurrently. With the script strategy every vote
// transition is a single atomic Lua call; the sequential strategy issues the
// ledger, counter and index updates one by one and can leave them briefly
// inconsistent under a crash or a concurrent flip of the same (video, user).
package ranking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"videorank/internal/config"
	"videorank/internal/metrics"
	"videorank/internal/model"
	"videorank/internal/storage"

	"github.com/jonboulle/clockwork"
)

// Backend is the storage the engine drives. *storage.RedisStore implements it.
type Backend interface {
	CreateVideo(ctx context.Context, v model.Video, hot float64, atomic bool) (int64, error)
	GetVideo(ctx context.Context, id int64) (model.Video, error)
	GetVideos(ctx context.Context, ids []int64) (map[int64]model.Video, error)
	VideoExists(ctx context.Context, id int64) (bool, error)
	IncrementVotes(ctx context.Context, id int64, delta int64) (int64, error)
	IncrementUnvotes(ctx context.Context, id int64, delta int64) (int64, error)
	CreateTime(ctx context.Context, id int64) (time.Time, error)
	CreateTimes(ctx context.Context, ids []int64) (map[int64]time.Time, error)
	LastVideoID(ctx context.Context) (int64, error)

	SetScore(ctx context.Context, idx model.Index, id int64, value float64) error
	SetScores(ctx context.Context, idx model.Index, entries []storage.IndexEntry) error
	AdjustScore(ctx context.Context, idx model.Index, id int64, delta float64) (float64, error)
	Score(ctx context.Context, idx model.Index, id int64) (float64, error)
	Scores(ctx context.Context, idx model.Index, ids []int64) (map[int64]float64, error)
	RangeDescending(ctx context.Context, idx model.Index, offset, limit int64) ([]storage.IndexEntry, error)

	AddVoter(ctx context.Context, videoID, userID int64, dir model.VoteState) (bool, error)
	RemoveVoter(ctx context.Context, videoID, userID int64, dir model.VoteState) (bool, error)
	VoteState(ctx context.Context, videoID, userID int64) (model.VoteState, error)
	ApplyVote(ctx context.Context, videoID, userID int64, dir model.VoteState, now time.Time, gravity float64) (model.VoteResult, error)

	CreateUser(ctx context.Context, username string) (int64, error)
	GetUser(ctx context.Context, id int64) (model.User, error)
	UserExists(ctx context.Context, id int64) (bool, error)
}

var _ Backend = (*storage.RedisStore)(nil)

// Options tunes an Engine. Zero values fall back to defaults.
type Options struct {
	Transitions       string // config.TransitionsScript or config.TransitionsSequential
	HotGravity        float64
	RequireKnownUsers bool
	MaxPerPage        int // 0 disables the upper bound
	RefreshBatch      int
	Clock             clockwork.Clock
}

// OptionsFromConfig maps the ranking section of the config file.
func OptionsFromConfig(c config.RankingConfig) Options {
	return Options{
		Transitions:       c.Transitions,
		HotGravity:        c.HotGravity,
		RequireKnownUsers: c.RequireKnownUsers,
		MaxPerPage:        c.MaxPerPage,
		RefreshBatch:      c.RefreshBatch,
	}
}

// Engine orchestrates votes, creation and ranked reads.
type Engine struct {
	store        Backend
	clock        clockwork.Clock
	sequential   bool
	gravity      float64
	requireUsers bool
	maxPerPage   int
	refreshBatch int
}

func NewEngine(store Backend, opts Options) *Engine {
	e := &Engine{
		store:        store,
		clock:        opts.Clock,
		sequential:   strings.EqualFold(opts.Transitions, config.TransitionsSequential),
		gravity:      opts.HotGravity,
		requireUsers: opts.RequireKnownUsers,
		maxPerPage:   opts.MaxPerPage,
		refreshBatch: opts.RefreshBatch,
	}
	if e.clock == nil {
		e.clock = clockwork.NewRealClock()
	}
	if e.gravity <= 0 {
		e.gravity = HotGravity
	}
	if e.refreshBatch <= 0 {
		e.refreshBatch = 500
	}
	return e
}

// CreateVideo stores a new video with score 0 and its three index entries.
// The hot entry uses the video's age at the engine clock's current time.
func (e *Engine) CreateVideo(ctx context.Context, title, url string, posterID int64, createdAt time.Time) (int64, error) {
	hot := DecayScore(0, AgeHours(createdAt, e.clock.Now()), e.gravity)
	v := model.Video{Title: title, URL: url, PosterID: posterID, CreatedAt: createdAt}
	id, err := e.store.CreateVideo(ctx, v, hot, !e.sequential)
	if err != nil {
		return 0, err
	}
	metrics.VideosCreated.Inc()
	slog.Debug("engine: video created", "id", id, "poster", posterID)
	return id, nil
}

func (e *Engine) GetVideo(ctx context.Context, id int64) (model.Video, error) {
	return e.store.GetVideo(ctx, id)
}

// Vote moves userID into the upvoted state for videoID.
func (e *Engine) Vote(ctx context.Context, videoID, userID int64) (model.VoteResult, error) {
	return e.transition(ctx, videoID, userID, model.VoteUp)
}

// Unvote moves userID into the downvoted state for videoID.
func (e *Engine) Unvote(ctx context.Context, videoID, userID int64) (model.VoteResult, error) {
	return e.transition(ctx, videoID, userID, model.VoteDown)
}

// VoteState reports the ledger state of userID on videoID.
func (e *Engine) VoteState(ctx context.Context, videoID, userID int64) (model.VoteState, error) {
	ok, err := e.store.VideoExists(ctx, videoID)
	if err != nil {
		return model.VoteNone, err
	}
	if !ok {
		return model.VoteNone, model.ErrItemNotFound
	}
	return e.store.VoteState(ctx, videoID, userID)
}

func (e *Engine) transition(ctx context.Context, videoID, userID int64, dir model.VoteState) (model.VoteResult, error) {
	direction := "up"
	if dir == model.VoteDown {
		direction = "down"
	}
	res, err := e.apply(ctx, videoID, userID, dir)
	switch {
	case errors.Is(err, model.ErrItemNotFound):
		metrics.VoteTransitions.WithLabelValues(direction, "not_found").Inc()
		return res, err
	case err != nil:
		metrics.VoteTransitions.WithLabelValues(direction, "error").Inc()
		return res, err
	case !res.Changed:
		metrics.VoteTransitions.WithLabelValues(direction, "noop").Inc()
	default:
		metrics.VoteTransitions.WithLabelValues(direction, "applied").Inc()
		slog.Debug("engine: vote applied", "video", videoID, "user", userID, "direction", direction, "score", res.Score)
	}
	return res, nil
}

// apply reports a missing video before an unknown user.
func (e *Engine) apply(ctx context.Context, videoID, userID int64, dir model.VoteState) (model.VoteResult, error) {
	if e.requireUsers {
		ok, err := e.store.VideoExists(ctx, videoID)
		if err != nil {
			return model.VoteResult{}, err
		}
		if !ok {
			return model.VoteResult{}, model.ErrItemNotFound
		}
		ok, err = e.store.UserExists(ctx, userID)
		if err != nil {
			return model.VoteResult{}, err
		}
		if !ok {
			return model.VoteResult{}, model.ErrUserNotFound
		}
	}
	if e.sequential {
		return e.applySequential(ctx, videoID, userID, dir)
	}
	return e.store.ApplyVote(ctx, videoID, userID, dir, e.clock.Now(), e.gravity)
}

// applySequential issues ledger -> counter -> index updates as separate
// commands. Only increments touch the score index, so concurrent callers on
// different users never lose updates; a failure midway leaves the structures
// out of step and is returned as is.
func (e *Engine) applySequential(ctx context.Context, videoID, userID int64, dir model.VoteState) (model.VoteResult, error) {
	ok, err := e.store.VideoExists(ctx, videoID)
	if err != nil {
		return model.VoteResult{}, err
	}
	if !ok {
		return model.VoteResult{}, model.ErrItemNotFound
	}

	weight, other := 1.0, model.VoteDown
	bump, undo := e.store.IncrementVotes, e.store.IncrementUnvotes
	if dir == model.VoteDown {
		weight, other = -1, model.VoteUp
		bump, undo = e.store.IncrementUnvotes, e.store.IncrementVotes
	}

	added, err := e.store.AddVoter(ctx, videoID, userID, dir)
	if err != nil {
		return model.VoteResult{}, err
	}
	if !added {
		score, err := e.store.Score(ctx, model.IndexScore, videoID)
		if err != nil {
			return model.VoteResult{}, err
		}
		return model.VoteResult{State: dir, Score: score}, nil
	}
	if _, err := bump(ctx, videoID, 1); err != nil {
		return model.VoteResult{}, err
	}
	score, err := e.store.AdjustScore(ctx, model.IndexScore, videoID, weight)
	if err != nil {
		return model.VoteResult{}, err
	}

	removed, err := e.store.RemoveVoter(ctx, videoID, userID, other)
	if err != nil {
		return model.VoteResult{}, err
	}
	if removed {
		if _, err := undo(ctx, videoID, -1); err != nil {
			return model.VoteResult{}, err
		}
		// Undo the opposite vote's contribution.
		if score, err = e.store.AdjustScore(ctx, model.IndexScore, videoID, weight); err != nil {
			return model.VoteResult{}, err
		}
	}

	createdAt, err := e.store.CreateTime(ctx, videoID)
	if err != nil {
		return model.VoteResult{}, err
	}
	hot := DecayScore(int64(math.Round(score)), AgeHours(createdAt, e.clock.Now()), e.gravity)
	if err := e.store.SetScore(ctx, model.IndexHot, videoID, hot); err != nil {
		return model.VoteResult{}, err
	}
	return model.VoteResult{Changed: true, State: dir, Score: score}, nil
}

// RankedVideos returns one page of videos ordered by idx, highest key first.
// Pages are 1-based; a page past the end is empty.
func (e *Engine) RankedVideos(ctx context.Context, page, perPage int, idx model.Index) ([]model.RankedVideo, error) {
	if !idx.Valid() {
		return nil, fmt.Errorf("unknown index %q", idx)
	}
	if page < 1 || perPage < 1 || (e.maxPerPage > 0 && perPage > e.maxPerPage) ||
		int64(page-1) > (math.MaxInt64-int64(perPage))/int64(perPage) {
		return nil, fmt.Errorf("%w: page=%d per_page=%d", model.ErrInvalidPage, page, perPage)
	}
	metrics.RankedReads.WithLabelValues(string(idx)).Inc()

	start := int64(page-1) * int64(perPage)
	entries, err := e.store.RangeDescending(ctx, idx, start, int64(perPage))
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(entries))
	for i, en := range entries {
		ids[i] = en.ID
	}
	videos, err := e.store.GetVideos(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]model.RankedVideo, 0, len(entries))
	for _, en := range entries {
		v, ok := videos[en.ID]
		if !ok {
			slog.Warn("engine: index entry without video record", "index", idx, "id", en.ID)
			continue
		}
		out = append(out, model.RankedVideo{Video: v, Score: en.Score})
	}
	return out, nil
}

// RefreshHotness rewrites every hot index entry from the current score and
// the clock's current time. It walks video ids up to the id counter, so votes
// landing mid-refresh never make it skip or repeat a video; such a vote may
// still be overwritten with a value computed from the previous score until
// the next vote or refresh.
func (e *Engine) RefreshHotness(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() { metrics.HotnessRefreshDuration.Observe(time.Since(start).Seconds()) }()

	now := e.clock.Now()
	last, err := e.store.LastVideoID(ctx)
	if err != nil {
		return 0, fmt.Errorf("refresh hotness: read id counter: %w", err)
	}
	batch := int64(e.refreshBatch)
	total := 0
	for first := int64(1); first <= last; first += batch {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		ids := make([]int64, 0, batch)
		for id := first; id < first+batch && id <= last; id++ {
			ids = append(ids, id)
		}
		scores, err := e.store.Scores(ctx, model.IndexScore, ids)
		if err != nil {
			return total, fmt.Errorf("refresh hotness: read scores: %w", err)
		}
		created, err := e.store.CreateTimes(ctx, ids)
		if err != nil {
			return total, fmt.Errorf("refresh hotness: read create times: %w", err)
		}
		hots := make([]storage.IndexEntry, 0, len(ids))
		for _, id := range ids {
			score, ok := scores[id]
			if !ok {
				continue
			}
			t, ok := created[id]
			if !ok {
				continue
			}
			votes := int64(math.Round(score))
			hots = append(hots, storage.IndexEntry{ID: id, Score: DecayScore(votes, AgeHours(t, now), e.gravity)})
		}
		if err := e.store.SetScores(ctx, model.IndexHot, hots); err != nil {
			return total, fmt.Errorf("refresh hotness: write: %w", err)
		}
		total += len(hots)
		metrics.HotnessRefreshed.Add(float64(len(hots)))
	}
	return total, nil
}

// CreateUser registers a voter.
func (e *Engine) CreateUser(ctx context.Context, username string) (int64, error) {
	return e.store.CreateUser(ctx, username)
}

func (e *Engine) GetUser(ctx context.Context, id int64) (model.User, error) {
	return e.store.GetUser(ctx, id)
}

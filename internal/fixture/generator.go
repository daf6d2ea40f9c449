// Package fixture fills a catalog with reproducible synthetic users, videos
// and vote traffic.
package fixture

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"videorank/internal/config"
	"videorank/internal/model"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// Engine is the subset of ranking.Engine the generator drives.
type Engine interface {
	CreateUser(ctx context.Context, username string) (int64, error)
	CreateVideo(ctx context.Context, title, url string, posterID int64, createdAt time.Time) (int64, error)
	Vote(ctx context.Context, videoID, userID int64) (model.VoteResult, error)
	Unvote(ctx context.Context, videoID, userID int64) (model.VoteResult, error)
}

type Options struct {
	Seed        uint64
	Users       int
	Videos      int
	Votes       int
	MaxAge      time.Duration
	Concurrency int
	Clock       clockwork.Clock
}

// OptionsFromConfig maps the fixture section of the config file.
func OptionsFromConfig(c config.FixtureConfig) Options {
	return Options{
		Seed:        c.Seed,
		Users:       c.Users,
		Videos:      c.Videos,
		Votes:       c.Votes,
		MaxAge:      config.Duration(c.MaxAge, 30*24*time.Hour),
		Concurrency: c.Concurrency,
	}
}

// Summary counts what a run wrote.
type Summary struct {
	Users   int   `json:"users" yaml:"users"`
	Videos  int   `json:"videos" yaml:"videos"`
	Upvotes int   `json:"upvotes" yaml:"upvotes"`
	Unvotes int   `json:"unvotes" yaml:"unvotes"`
	Noops   int   `json:"noops" yaml:"noops"`
	FirstID int64 `json:"first_video_id" yaml:"first_video_id"`
	LastID  int64 `json:"last_video_id" yaml:"last_video_id"`
}

type action struct {
	video int64
	user  int64
	up    bool
}

// Generator produces the same data for the same seed. Users and videos are
// created in order; vote traffic is applied concurrently, so the final state
// of a (video, user) pair drawn more than once depends on scheduling.
type Generator struct {
	engine Engine
	opts   Options
	faker  *gofakeit.Faker
}

func NewGenerator(engine Engine, opts Options) *Generator {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 30 * 24 * time.Hour
	}
	return &Generator{engine: engine, opts: opts, faker: gofakeit.New(opts.Seed)}
}

func (g *Generator) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	users := make([]int64, 0, g.opts.Users)
	for i := 0; i < g.opts.Users; i++ {
		id, err := g.engine.CreateUser(ctx, g.faker.Username())
		if err != nil {
			return sum, fmt.Errorf("create user: %w", err)
		}
		users = append(users, id)
	}
	sum.Users = len(users)

	now := g.opts.Clock.Now()
	videos := make([]int64, 0, g.opts.Videos)
	for i := 0; i < g.opts.Videos; i++ {
		var poster int64
		if len(users) > 0 {
			poster = users[g.faker.IntRange(0, len(users)-1)]
		}
		createdAt := g.faker.DateRange(now.Add(-g.opts.MaxAge), now)
		id, err := g.engine.CreateVideo(ctx, g.faker.MovieName(), g.faker.URL(), poster, createdAt)
		if err != nil {
			return sum, fmt.Errorf("create video: %w", err)
		}
		videos = append(videos, id)
	}
	sum.Videos = len(videos)
	if len(videos) > 0 {
		sum.FirstID, sum.LastID = videos[0], videos[len(videos)-1]
	}
	slog.Info("fixture: catalog created", "users", sum.Users, "videos", sum.Videos)

	if len(videos) == 0 || len(users) == 0 {
		return sum, nil
	}
	actions := g.traffic(videos, users)

	var ups, downs, noops atomic.Int64
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Concurrency)
	for _, a := range actions {
		eg.Go(func() error {
			if err := ectx.Err(); err != nil {
				return err
			}
			call, counter := g.engine.Vote, &ups
			if !a.up {
				call, counter = g.engine.Unvote, &downs
			}
			res, err := call(ectx, a.video, a.user)
			if err != nil {
				return fmt.Errorf("video %d user %d: %w", a.video, a.user, err)
			}
			if res.Changed {
				counter.Add(1)
			} else {
				noops.Add(1)
			}
			return nil
		})
	}
	err := eg.Wait()
	sum.Upvotes, sum.Unvotes, sum.Noops = int(ups.Load()), int(downs.Load()), int(noops.Load())
	if err != nil {
		return sum, err
	}
	slog.Info("fixture: traffic applied", "upvotes", sum.Upvotes, "unvotes", sum.Unvotes, "noops", sum.Noops)
	return sum, nil
}

// traffic draws the vote sequence up front so the faker is only used from
// one goroutine. Lower video indexes are picked more often, and roughly three
// in four actions are upvotes.
func (g *Generator) traffic(videos, users []int64) []action {
	out := make([]action, g.opts.Votes)
	for i := range out {
		r := g.faker.Float64Range(0, 1)
		vi := int(r * r * float64(len(videos)))
		if vi >= len(videos) {
			vi = len(videos) - 1
		}
		out[i] = action{
			video: videos[vi],
			user:  users[g.faker.IntRange(0, len(users)-1)],
			up:    g.faker.IntRange(0, 3) > 0,
		}
	}
	return out
}

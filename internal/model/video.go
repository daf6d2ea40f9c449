package model

import (
	"fmt"
	"strings"
	"time"
)

// Video is a single voteable catalog item.
type Video struct {
	ID        int64     `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	URL       string    `json:"url" yaml:"url"`
	PosterID  int64     `json:"poster" yaml:"poster"`
	CreatedAt time.Time `json:"create_time" yaml:"create_time"`
	Votes     int64     `json:"votes" yaml:"votes"`
	Unvotes   int64     `json:"unvotes" yaml:"unvotes"`
}

// RankedVideo decorates a video with the ordering key of the index it was read from.
type RankedVideo struct {
	Video `yaml:",inline"`
	Score float64 `json:"score" yaml:"score"`
}

// User is a voter or poster.
type User struct {
	ID       int64  `json:"id" yaml:"id"`
	Username string `json:"username" yaml:"username"`
}

// Index selects one of the ranking orderings.
type Index string

const (
	IndexScore Index = "score" // net votes
	IndexTime  Index = "time"  // creation time
	IndexHot   Index = "hot"   // time-decayed score
)

// Indexes lists every ranking index in a stable order.
var Indexes = []Index{IndexScore, IndexTime, IndexHot}

// Valid reports whether idx names a known index.
func (idx Index) Valid() bool {
	switch idx {
	case IndexScore, IndexTime, IndexHot:
		return true
	}
	return false
}

// ParseIndex maps a user supplied name to an Index.
func ParseIndex(s string) (Index, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "score", "":
		return IndexScore, nil
	case "time", "new", "createtime":
		return IndexTime, nil
	case "hot", "decay":
		return IndexHot, nil
	default:
		return "", fmt.Errorf("unknown index %q (want score, time or hot)", s)
	}
}

// VoteState is the ledger state of one (video, user) pair.
type VoteState int

const (
	VoteNone VoteState = iota
	VoteUp
	VoteDown
)

func (s VoteState) String() string {
	switch s {
	case VoteUp:
		return "upvoted"
	case VoteDown:
		return "downvoted"
	default:
		return "none"
	}
}

// VoteResult reports the outcome of a vote or unvote call.
type VoteResult struct {
	Changed bool      // false when the call was an idempotent no-op
	State   VoteState // state after the call
	Score   float64   // score index value after the call
}

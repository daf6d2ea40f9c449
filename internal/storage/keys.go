package storage

import (
	"fmt"
	"strconv"

	"videorank/internal/model"
)

// Keys builds the Redis key layout. Every key carries the optional prefix.
//
//	video:                   id counter (string)
//	video:<id>               video record (hash)
//	video_vote:<id>          upvoter ids (set)
//	video_unvote:<id>        downvoter ids (set)
//	video_score:             net score index (zset)
//	video_createtime:        creation time index (zset)
//	video_createtime_score:  hotness index (zset)
//	user:                    id counter (string)
//	user:<id>                user record (hash)
type Keys struct {
	Prefix string
}

func (k Keys) VideoCounter() string { return k.Prefix + "video:" }

func (k Keys) Video(id int64) string { return k.Prefix + "video:" + member(id) }

func (k Keys) Upvoters(id int64) string { return k.Prefix + "video_vote:" + member(id) }

func (k Keys) Downvoters(id int64) string { return k.Prefix + "video_unvote:" + member(id) }

// Voters returns the ledger set for one vote direction.
func (k Keys) Voters(id int64, dir model.VoteState) string {
	if dir == model.VoteDown {
		return k.Downvoters(id)
	}
	return k.Upvoters(id)
}

func (k Keys) Index(idx model.Index) string {
	switch idx {
	case model.IndexTime:
		return k.Prefix + "video_createtime:"
	case model.IndexHot:
		return k.Prefix + "video_createtime_score:"
	default:
		return k.Prefix + "video_score:"
	}
}

func (k Keys) UserCounter() string { return k.Prefix + "user:" }

func (k Keys) User(id int64) string { return k.Prefix + "user:" + member(id) }

// member encodes an id as a set/zset member.
func member(id int64) string {
	return strconv.FormatInt(id, 10)
}

func parseMember(v interface{}) (int64, error) {
	m, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected index member type %T", v)
	}
	return strconv.ParseInt(m, 10, 64)
}

package standingsqueue

import (
	"time"

	"github.com/riverqueue/river"
)

// QueueName is the River queue that rebuilds standings.
const QueueName = "standings"

// warmDedupWindow collapses bursts of notifications for one contest into a single job.
const warmDedupWindow = 5 * time.Second

// WarmRankListArgs asks a worker to rebuild a contest's cached rank lists.
type WarmRankListArgs struct {
	ContestID int64 `json:"contest_id"`
}

// Kind returns the job type identifier for River
func (WarmRankListArgs) Kind() string { return "warm_rank_list" }

func (WarmRankListArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       QueueName,
		MaxAttempts: 5,
		UniqueOpts: river.UniqueOpts{
			ByArgs:   true,
			ByPeriod: warmDedupWindow,
		},
	}
}

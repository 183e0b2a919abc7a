package standingsservice

import (
	"time"

	standingsdomain "github.com/Black-And-White-Club/judge-standings/app/modules/standings/domain"
)

// RankListRequest selects one rank list build.
type RankListRequest struct {
	ContestID int64
	View      standingsdomain.View
	// RoleID restricts the contestants to one role when set.
	RoleID *int64
	// AsOf rebuilds the standings as they were at that instant. Such builds bypass the cache.
	AsOf time.Time
}

// RankList is a built standings table. Cached values are shared: callers must not modify them.
type RankList struct {
	Contest  standingsdomain.Contest     `json:"contest"`
	Mode     standingsdomain.Mode        `json:"mode"`
	View     string                      `json:"view"`
	FreezeAt time.Time                   `json:"freeze_at,omitzero"`
	AsOf     time.Time                   `json:"as_of,omitzero"`
	BuiltAt  time.Time                   `json:"built_at"`
	Entries  []standingsdomain.RankEntry `json:"entries"`
}

// RankListPage is one window of a problemset rank list.
type RankListPage struct {
	ProblemsetID int64                       `json:"problemset_id"`
	Offset       int                         `json:"offset"`
	Total        int                         `json:"total"`
	Entries      []standingsdomain.RankEntry `json:"entries"`
}

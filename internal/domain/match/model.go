package match

import (
	"strconv"
	"time"
)

// Status is the small display vocabulary every provider status maps onto.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusFirstHalf  Status = "first_half"
	StatusHalftime   Status = "halftime"
	StatusSecondHalf Status = "second_half"
	StatusExtraTime  Status = "extra_time"
	StatusPenalties  Status = "penalties"
	StatusPaused     Status = "paused"
	StatusFinished   Status = "finished"
	StatusSuspended  Status = "suspended"
	StatusUnknown    Status = "unknown"
)

var statusLabels = map[Status]string{
	StatusScheduled:  "not started",
	StatusFirstHalf:  "1st half",
	StatusHalftime:   "half-time",
	StatusSecondHalf: "2nd half",
	StatusExtraTime:  "extra time",
	StatusPenalties:  "penalties",
	StatusPaused:     "break",
	StatusFinished:   "full-time",
	StatusSuspended:  "suspended",
	StatusUnknown:    "",
}

func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return ""
}

func (s Status) IsLive() bool {
	switch s {
	case StatusFirstHalf, StatusHalftime, StatusSecondHalf, StatusExtraTime, StatusPenalties, StatusPaused:
		return true
	default:
		return false
	}
}

// Score is the cumulative goal count reported by a score-only provider.
type Score struct {
	Home int
	Away int
}

// EventType is the normalized kind of an in-match event.
type EventType string

const (
	EventGoal        EventType = "goal"
	EventOwnGoal     EventType = "own_goal"
	EventPenaltyGoal EventType = "penalty_goal"
	EventOther       EventType = "other"
)

func (t EventType) IsGoal() bool {
	return t == EventGoal || t == EventOwnGoal || t == EventPenaltyGoal
}

// Event is one raw record from an event-feed provider.
type Event struct {
	ID       int64
	Type     EventType
	Minute   *int
	ScorerID *int64
}

// Match is materialized fresh on every poll. Score is nil when the provider
// did not report one; Events is populated only by event-feed providers.
type Match struct {
	ID       int64
	HomeTeam string
	AwayTeam string
	League   string
	Country  string
	Score    *Score
	Minute   *int
	Status   Status
	Kickoff  time.Time
	Events   []Event
}

// Fixture is an upcoming match taken from the schedule feed.
type Fixture struct {
	ID       int64
	HomeTeam string
	AwayTeam string
	League   string
	Kickoff  time.Time
}

// GoalEvent is one newly detected goal, ready for rendering.
type GoalEvent struct {
	MatchID  int64
	Minute   *int
	ScorerID *int64
	Key      string
	Match    Match
}

// DedupKey identifies one physical goal as "<match>_<minute>_<scorer>",
// using "-" for an unknown minute or scorer.
func DedupKey(matchID int64, minute *int, scorerID *int64) string {
	buf := make([]byte, 0, 32)
	buf = strconv.AppendInt(buf, matchID, 10)
	buf = append(buf, '_')
	if minute != nil {
		buf = strconv.AppendInt(buf, int64(*minute), 10)
	} else {
		buf = append(buf, '-')
	}
	buf = append(buf, '_')
	if scorerID != nil {
		buf = strconv.AppendInt(buf, *scorerID, 10)
	} else {
		buf = append(buf, '-')
	}
	return string(buf)
}

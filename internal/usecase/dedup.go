package usecase

import (
	"strconv"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/goal-alerts/internal/domain/match"
)

// Deduplicator turns successive live snapshots into goal events, firing each
// physical goal once. Implementations are not safe for concurrent use; the
// poller is the only caller.
type Deduplicator interface {
	Strategy() match.Strategy
	Detect(snapshot []match.Match) []match.GoalEvent
	Tracked() int
	Reset()
}

func NewDeduplicator(strategy match.Strategy) (Deduplicator, error) {
	switch strategy {
	case match.StrategyScoreDelta:
		return NewScoreDeltaDeduplicator(), nil
	case match.StrategyEventID:
		return NewEventIDDeduplicator(), nil
	default:
		return nil, crerr.Wrapf(ErrInvalidInput, "unknown dedup strategy %q", strategy)
	}
}

// matchStateCache holds per-match dedup state for matches currently live.
type matchStateCache[S any] struct {
	entries map[int64]S
}

func newMatchStateCache[S any]() matchStateCache[S] {
	return matchStateCache[S]{entries: make(map[int64]S)}
}

func (c *matchStateCache[S]) get(id int64) (S, bool) {
	state, ok := c.entries[id]
	return state, ok
}

func (c *matchStateCache[S]) put(id int64, state S) {
	c.entries[id] = state
}

// purgeAbsent drops every match not present in the latest snapshot. A match
// that reappears later starts from a fresh baseline.
func (c *matchStateCache[S]) purgeAbsent(present map[int64]struct{}) int {
	purged := 0
	for id := range c.entries {
		if _, ok := present[id]; !ok {
			delete(c.entries, id)
			purged++
		}
	}
	return purged
}

func (c *matchStateCache[S]) len() int {
	return len(c.entries)
}

func (c *matchStateCache[S]) reset() {
	clear(c.entries)
}

// ScoreDeltaDeduplicator infers goals from increases in cumulative score.
type ScoreDeltaDeduplicator struct {
	cache matchStateCache[match.Score]
}

func NewScoreDeltaDeduplicator() *ScoreDeltaDeduplicator {
	return &ScoreDeltaDeduplicator{cache: newMatchStateCache[match.Score]()}
}

func (d *ScoreDeltaDeduplicator) Strategy() match.Strategy {
	return match.StrategyScoreDelta
}

func (d *ScoreDeltaDeduplicator) Detect(snapshot []match.Match) []match.GoalEvent {
	present := make(map[int64]struct{}, len(snapshot))
	var out []match.GoalEvent

	for _, m := range snapshot {
		present[m.ID] = struct{}{}
		// Without a score there is nothing to compare; keep the last
		// baseline so the match is not treated as new next cycle.
		if m.Score == nil {
			continue
		}

		current := *m.Score
		last, seen := d.cache.get(m.ID)
		if !seen {
			last = current
		}

		out = appendScoreGoals(out, m, "home", last.Home, current.Home)
		out = appendScoreGoals(out, m, "away", last.Away, current.Away)
		d.cache.put(m.ID, current)
	}

	d.cache.purgeAbsent(present)
	return out
}

// appendScoreGoals emits one event per goal between from and to. Keys carry
// the running tally ("100_home_2") so several goals in one poll stay distinct.
func appendScoreGoals(out []match.GoalEvent, m match.Match, side string, from, to int) []match.GoalEvent {
	for n := from + 1; n <= to; n++ {
		out = append(out, match.GoalEvent{
			MatchID: m.ID,
			Minute:  m.Minute,
			Key:     strconv.FormatInt(m.ID, 10) + "_" + side + "_" + strconv.Itoa(n),
			Match:   m,
		})
	}
	return out
}

func (d *ScoreDeltaDeduplicator) Tracked() int {
	return d.cache.len()
}

func (d *ScoreDeltaDeduplicator) Reset() {
	d.cache.reset()
}

// EventIDDeduplicator fires each goal event whose key was not seen before for
// that match. On first sighting the goals already in the feed become the
// baseline, so a match that drops out and returns is not replayed.
type EventIDDeduplicator struct {
	cache matchStateCache[map[string]struct{}]
}

func NewEventIDDeduplicator() *EventIDDeduplicator {
	return &EventIDDeduplicator{cache: newMatchStateCache[map[string]struct{}]()}
}

func (d *EventIDDeduplicator) Strategy() match.Strategy {
	return match.StrategyEventID
}

func (d *EventIDDeduplicator) Detect(snapshot []match.Match) []match.GoalEvent {
	present := make(map[int64]struct{}, len(snapshot))
	var out []match.GoalEvent

	for _, m := range snapshot {
		present[m.ID] = struct{}{}

		seen, ok := d.cache.get(m.ID)
		if !ok {
			d.cache.put(m.ID, goalKeys(m))
			continue
		}

		for _, ev := range m.Events {
			if !ev.Type.IsGoal() {
				continue
			}
			key := match.DedupKey(m.ID, ev.Minute, ev.ScorerID)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, match.GoalEvent{
				MatchID:  m.ID,
				Minute:   ev.Minute,
				ScorerID: ev.ScorerID,
				Key:      key,
				Match:    m,
			})
		}
	}

	d.cache.purgeAbsent(present)
	return out
}

func goalKeys(m match.Match) map[string]struct{} {
	keys := make(map[string]struct{}, len(m.Events))
	for _, ev := range m.Events {
		if ev.Type.IsGoal() {
			keys[match.DedupKey(m.ID, ev.Minute, ev.ScorerID)] = struct{}{}
		}
	}
	return keys
}

func (d *EventIDDeduplicator) Tracked() int {
	return d.cache.len()
}

func (d *EventIDDeduplicator) Reset() {
	d.cache.reset()
}

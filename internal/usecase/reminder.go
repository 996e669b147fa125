package usecase

import (
	"time"

	"github.com/riskibarqy/goal-alerts/internal/domain/match"
)

// ReminderWindow is the inclusive countdown band in which a fixture gets its
// pre-kickoff reminder. It must be wider than the check cadence.
type ReminderWindow struct {
	Min time.Duration
	Max time.Duration
}

func DefaultReminderWindow() ReminderWindow {
	return ReminderWindow{Min: 9 * time.Minute, Max: 11 * time.Minute}
}

func (w ReminderWindow) Contains(untilKickoff time.Duration) bool {
	return untilKickoff >= w.Min && untilKickoff <= w.Max
}

// ReminderScheduler remembers which fixtures were already reminded. Entries
// are dropped once kickoff has passed, since such a fixture can no longer
// enter the window.
type ReminderScheduler struct {
	window   ReminderWindow
	notified map[int64]time.Time
}

func NewReminderScheduler(window ReminderWindow) *ReminderScheduler {
	if window.Min <= 0 || window.Max < window.Min {
		window = DefaultReminderWindow()
	}
	return &ReminderScheduler{
		window:   window,
		notified: make(map[int64]time.Time),
	}
}

// Due returns the fixtures that entered the window at now and were never
// reminded before, marking them as notified.
func (s *ReminderScheduler) Due(now time.Time, fixtures []match.Fixture) []match.Fixture {
	var due []match.Fixture
	for _, f := range fixtures {
		if kickoff, done := s.notified[f.ID]; done {
			// A postponed fixture keeps its entry until the new kickoff.
			if f.Kickoff.After(kickoff) {
				s.notified[f.ID] = f.Kickoff
			}
			continue
		}
		if !s.window.Contains(f.Kickoff.Sub(now)) {
			continue
		}
		s.notified[f.ID] = f.Kickoff
		due = append(due, f)
	}

	s.prune(now)
	return due
}

func (s *ReminderScheduler) prune(now time.Time) {
	for id, kickoff := range s.notified {
		if kickoff.Before(now) {
			delete(s.notified, id)
		}
	}
}

func (s *ReminderScheduler) Notified() int {
	return len(s.notified)
}

func (s *ReminderScheduler) Reset() {
	clear(s.notified)
}
